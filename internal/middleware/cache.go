package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type cachedResponse struct {
	status      int
	contentType string
	etag        string
	body        []byte
}

// ResponseCache is a short-TTL in-memory cache for idempotent GET routes.
// Entries carry an ETag so repeat clients get 304s while the entry lives.
type ResponseCache struct {
	entries *expirable.LRU[string, cachedResponse]
}

func NewResponseCache(size int, ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		entries: expirable.NewLRU[string, cachedResponse](size, nil, ttl),
	}
}

type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	return w.ResponseWriter.Write(p)
}

// Handler serves cached bodies (or 304s on ETag match) and captures fresh
// 200 responses. Only GETs pass through the cache.
func (rc *ResponseCache) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if entry, ok := rc.entries.Get(key); ok {
			c.Header("X-Cache", "HIT")
			c.Header("ETag", entry.etag)
			if c.GetHeader("If-None-Match") == entry.etag {
				c.AbortWithStatus(http.StatusNotModified)
				return
			}
			c.Data(entry.status, entry.contentType, entry.body)
			c.Abort()
			return
		}

		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		if writer.Status() == http.StatusOK {
			body := writer.buf.Bytes()
			sum := sha256.Sum256(body)
			etag := `"` + hex.EncodeToString(sum[:8]) + `"`
			rc.entries.Add(key, cachedResponse{
				status:      writer.Status(),
				contentType: writer.Header().Get("Content-Type"),
				etag:        etag,
				body:        body,
			})
		}
	}
}

// Invalidate drops every cached entry; writers call it after mutations.
func (rc *ResponseCache) Invalidate() {
	rc.entries.Purge()
}
