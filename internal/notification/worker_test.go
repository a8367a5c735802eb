package notification

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	wp.Dispatch("AA:BB:CC:DD:EE:FF:00:11")

	select {
	case job := <-wp.jobs:
		assert.Equal(t, "AA:BB:CC:DD:EE:FF:00:11", job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	t.Run("alerts every stored subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(2)

		var mu sync.Mutex
		var alerted []string
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				mu.Lock()
				alerted = append(alerted, sub.Endpoint)
				mu.Unlock()
				assert.Equal(t, "Govee device AA:BB:CC:DD:EE:FF:00:11 requires reauthentication - check your API key", string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions"`).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/push/one", "key1", "auth1", time.Now()).
				AddRow("https://example.com/push/two", "key2", "auth2", time.Now()))

		wp.Dispatch("AA:BB:CC:DD:EE:FF:00:11")
		wg.Wait()

		mu.Lock()
		assert.ElementsMatch(t, []string{"https://example.com/push/one", "https://example.com/push/two"}, alerted)
		mu.Unlock()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions"`).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/push/expired", "key", "auth", time.Now()))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions"`).
			WithArgs("https://example.com/push/expired").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		wp.Dispatch("AA:BB:CC:DD:EE:FF:00:11")

		// A short sleep to allow the worker to process the job.
		time.Sleep(100 * time.Millisecond)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no subscriptions means no sends", func(t *testing.T) {
		sent := 0
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				sent++
				return &http.Response{StatusCode: http.StatusCreated, Body: io.NopCloser(bytes.NewBufferString(""))}, nil
			},
		}

		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions"`).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}))

		wp.Dispatch("AA:BB:CC:DD:EE:FF:00:11")
		time.Sleep(100 * time.Millisecond)

		assert.Zero(t, sent)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
