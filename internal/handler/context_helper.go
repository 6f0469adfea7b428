package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/codepulse-api/internal/middleware"
	"github.com/noah-isme/codepulse-api/internal/models"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
	"github.com/noah-isme/codepulse-api/pkg/response"
)

// uuidParam returns the named path parameter when it is a valid UUID.
func uuidParam(c *gin.Context, name string) (string, error) {
	raw := strings.TrimSpace(c.Param(name))
	if _, err := uuid.Parse(raw); err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" format")
	}
	return raw, nil
}

func forceQuery(c *gin.Context) bool {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	return force
}

func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return value, nil
}

// respond writes the envelope with cache and timing metadata merged into the request meta.
func respond(c *gin.Context, status int, data interface{}, pagination *models.Pagination, cacheHit bool, start time.Time, extra map[string]interface{}) {
	middleware.SetCacheHit(c, cacheHit)
	for key, value := range extra {
		middleware.SetMeta(c, key, value)
	}
	middleware.SetMeta(c, "processing_time_ms", time.Since(start).Milliseconds())
	response.JSON(c, status, data, pagination, middleware.ExtractMeta(c))
}

// sourceMeta carries degradation details of a provider-backed result.
func sourceMeta(message, errMsg string, notFound bool) map[string]interface{} {
	meta := map[string]interface{}{}
	if message != "" {
		meta["message"] = message
	}
	if errMsg != "" {
		meta["error"] = errMsg
	}
	if notFound {
		meta["not_found"] = true
	}
	return meta
}
