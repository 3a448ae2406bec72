package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const metaContextKey = "response_meta"

// Meta is the per-request map rendered under "meta" in the response envelope.
type Meta map[string]interface{}

// WithResponseMeta attaches an empty Meta to each request and records the
// processing time once the handler chain returns.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := Meta{}
		c.Set(metaContextKey, meta)
		began := time.Now()
		c.Next()
		if _, ok := meta["processing_time_ms"]; !ok {
			meta["processing_time_ms"] = time.Since(began).Milliseconds()
		}
	}
}

// SetCacheHit marks whether the response payload was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	metaOf(c)["cache_hit"] = hit
}

// ExtractMeta returns the request's Meta, or nil when WithResponseMeta did not run.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta, _ := c.Get(metaContextKey)
	typed, _ := meta.(Meta)
	return typed
}

func metaOf(c *gin.Context) Meta {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := Meta{}
	c.Set(metaContextKey, meta)
	return meta
}
