package middleware

import "github.com/gin-gonic/gin"

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
)

// Meta is the per-request metadata rendered into the response envelope.
type Meta map[string]interface{}

// WithResponseMeta seeds the metadata map every handler writes into.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, Meta{})
		c.Next()
	}
}

// SetCacheHit records whether the response was served from a cache or stored snapshot.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, cacheHitKey, hit)
}

// SetMeta stores one metadata entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta := ensureMeta(c)
	meta[key] = value
}

// ExtractMeta returns the metadata stored on the context, or nil when none was seeded.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, ok := metaFrom(c); ok {
		return meta
	}
	return nil
}

func metaFrom(c *gin.Context) (Meta, bool) {
	value, exists := c.Get(responseMetaKey)
	if !exists {
		return nil, false
	}
	meta, ok := value.(Meta)
	return meta, ok
}

func ensureMeta(c *gin.Context) Meta {
	if c == nil {
		return Meta{}
	}
	if meta, ok := metaFrom(c); ok {
		return meta
	}
	meta := Meta{}
	c.Set(responseMetaKey, meta)
	return meta
}
