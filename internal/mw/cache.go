package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// cacheEntry is a captured successful GET response. The cache TTL is kept
// short: the state behind these endpoints changes on every poll tick, the
// cache only absorbs bursts of identical reads.
type cacheEntry struct {
	status      int
	contentType string
	body        []byte
}

// captureWriter tees the response body so it can be stored after the
// handler runs.
type captureWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache is a middleware for short-lived in-memory caching of GET
// responses, keyed by request URI. Non-GET requests pass through untouched.
func ResponseCache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if hit, found := store.Get(key); found {
			entry := hit.(cacheEntry)
			c.Writer.Header().Set("Content-Type", entry.contentType)
			c.Writer.WriteHeader(entry.status)
			c.Writer.Write(entry.body)
			c.Abort()
			return
		}

		cw := &captureWriter{buf: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = cw

		c.Next()

		if cw.Status() >= 200 && cw.Status() < 300 {
			store.Set(key, cacheEntry{
				status:      cw.Status(),
				contentType: cw.Header().Get("Content-Type"),
				body:        cw.buf.Bytes(),
			}, ttl)
		}
	}
}
