package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey   = "response_meta"
	requestStartKey   = "request_start"
	cacheHitMetaKey   = "cache_hit"
	processingMetaKey = "processing_time_ms"
)

// WithResponseMeta starts per-request metadata collection.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit records whether the response was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitMetaKey] = hit
}

// ExtractMeta returns the collected metadata with the elapsed processing
// time filled in, or nil when nothing was collected.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	value, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	if value, exists := c.Get(requestStartKey); exists {
		if start, ok := value.(time.Time); ok {
			meta[processingMetaKey] = time.Since(start).Milliseconds()
		}
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if value, exists := c.Get(responseMetaKey); exists {
		if meta, ok := value.(map[string]interface{}); ok {
			return meta
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
