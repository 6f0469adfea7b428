package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/codepulse-api/internal/models"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
	"github.com/noah-isme/codepulse-api/pkg/response"
)

type systemSnapshotter interface {
	Snapshot() models.AnalyticsSystemMetrics
}

// AnalyticsHandler exposes roster-wide and instrumentation analytics.
type AnalyticsHandler struct {
	overview classAnalytics
	system   systemSnapshotter
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(overview classAnalytics, system systemSnapshotter) *AnalyticsHandler {
	return &AnalyticsHandler{overview: overview, system: system}
}

// Overview godoc
// @Summary Engagement overview across all students or one class
// @Tags Analytics
// @Produce json
// @Param classId query string false "Class ID"
// @Success 200 {object} response.Envelope
// @Router /metrics/overview [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	if h.overview == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	classID := strings.TrimSpace(c.Query("classId"))
	if classID != "" {
		if _, err := uuid.Parse(classID); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid classId format"))
			return
		}
	}
	start := time.Now()
	overview, hit, err := h.overview.Overview(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, overview, nil, hit, start, nil)
}

// System godoc
// @Summary Instrumentation snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	if h.system == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	respond(c, http.StatusOK, h.system.Snapshot(), nil, false, start, nil)
}
