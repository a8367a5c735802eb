package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

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

func setupSubscriptionRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	gin.SetMode(gin.TestMode)
	db, mock := newTestDB(t)
	handler := NewHandler(nil, nil, db, nil)

	r := gin.New()
	r.GET("/api/subscriptions", handler.GetSubscription)
	r.PUT("/api/subscriptions", handler.PutSubscription)
	r.DELETE("/api/subscriptions", handler.DeleteSubscription)
	return r, mock
}

func TestPutSubscription(t *testing.T) {
	router, mock := setupSubscriptionRouter(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "push_subscriptions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w, _ := doJSON(t, router, "PUT", "/api/subscriptions",
		`{"endpoint": "https://example.com/push/abc", "p256dh": "key", "auth": "secret"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPutSubscription_MissingFields(t *testing.T) {
	router, mock := setupSubscriptionRouter(t)

	w, resp := doJSON(t, router, "PUT", "/api/subscriptions", `{"endpoint": "https://example.com/push/abc"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, resp["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSubscription(t *testing.T) {
	router, mock := setupSubscriptionRouter(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "push_subscriptions"`).
		WithArgs("https://example.com/push/abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w, _ := doJSON(t, router, "DELETE", "/api/subscriptions", `{"endpoint": "https://example.com/push/abc"}`)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSubscription(t *testing.T) {
	router, mock := setupSubscriptionRouter(t)

	mock.ExpectQuery(`SELECT .* FROM "push_subscriptions"`).
		WithArgs("https://example.com/push/abc", 1).
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
			AddRow("https://example.com/push/abc", "key", "secret", time.Now()))

	w, resp := doJSON(t, router, "GET", "/api/subscriptions?endpoint=https://example.com/push/abc", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://example.com/push/abc", resp["endpoint"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSubscription_NotFound(t *testing.T) {
	router, mock := setupSubscriptionRouter(t)

	mock.ExpectQuery(`SELECT .* FROM "push_subscriptions"`).
		WithArgs("https://example.com/push/missing", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	w, _ := doJSON(t, router, "GET", "/api/subscriptions?endpoint=https://example.com/push/missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSubscription_MissingEndpoint(t *testing.T) {
	router, mock := setupSubscriptionRouter(t)

	w, _ := doJSON(t, router, "GET", "/api/subscriptions", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
