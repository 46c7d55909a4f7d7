package response

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Link is a HATEOAS relation advertised in the response envelope.
type Link struct {
	Href   string `json:"href"`
	Method string `json:"method"`
}

type Links map[string]Link

// Success writes the standard envelope:
// {status, message, data, links, meta}. links and meta are omitted when nil,
// and meta always carries a timestamp.
func Success(c *gin.Context, statusCode int, message string, data any, links Links, meta gin.H) {
	body := gin.H{
		"status":  "success",
		"message": message,
		"data":    data,
	}
	if links != nil {
		body["links"] = links
	}
	if meta == nil {
		meta = gin.H{}
	}
	meta["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	body["meta"] = meta

	c.JSON(statusCode, body)
}

// Error writes the error envelope with a stable machine-checkable code. The
// code alone is enough for a client to decide between retrying with a
// refresh token and re-authenticating.
func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"status":  "error",
		"code":    code,
		"message": message,
	})
}

// AbortError is Error plus request abortion, for middleware.
func AbortError(c *gin.Context, statusCode int, code string, message string) {
	Error(c, statusCode, code, message)
	c.Abort()
}
