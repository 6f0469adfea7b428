package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/codepulse-api/internal/models"
	"github.com/noah-isme/codepulse-api/internal/service"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
	"github.com/noah-isme/codepulse-api/pkg/response"
)

type studentMetricsService interface {
	Get(ctx context.Context, userID string) (*models.StudentMetrics, error)
	Update(ctx context.Context, userID string, req service.UpdateMetricsRequest) (*service.MetricsResult, error)
	Refresh(ctx context.Context, userID string, force bool) (*service.MetricsResult, error)
}

type progressReporter interface {
	Report(ctx context.Context, userID string, period models.ReportPeriod) (*models.ProgressReport, error)
}

type studentComparer interface {
	CompareStudent(ctx context.Context, userID string) (*models.StudentComparison, error)
}

// StudentMetricsHandler exposes per-student metric endpoints.
type StudentMetricsHandler struct {
	metrics  studentMetricsService
	reports  progressReporter
	comparer studentComparer
}

// NewStudentMetricsHandler constructs the handler.
func NewStudentMetricsHandler(metrics studentMetricsService, reports progressReporter, comparer studentComparer) *StudentMetricsHandler {
	return &StudentMetricsHandler{metrics: metrics, reports: reports, comparer: comparer}
}

// Update godoc
// @Summary Recompute student metrics from submitted activity
// @Tags Metrics
// @Accept json
// @Produce json
// @Param userId path string true "Student ID"
// @Param payload body service.UpdateMetricsRequest true "Repositories and LeetCode profile"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /metrics/{userId} [post]
func (h *StudentMetricsHandler) Update(c *gin.Context) {
	userID, err := uuidParam(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	start := time.Now()
	result, err := h.metrics.Update(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	respond(c, status, result.Metrics, nil, false, start, map[string]interface{}{"created": result.Created})
}

// Refresh godoc
// @Summary Refresh student metrics from GitHub and LeetCode
// @Tags Metrics
// @Produce json
// @Param userId path string true "Student ID"
// @Param force query bool false "Ignore freshness"
// @Success 200 {object} response.Envelope
// @Router /metrics/{userId}/refresh [post]
func (h *StudentMetricsHandler) Refresh(c *gin.Context) {
	userID, err := uuidParam(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	result, err := h.metrics.Refresh(c.Request.Context(), userID, forceQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := sourceMeta(result.Message, result.Error, false)
	if len(result.Sources) > 0 {
		meta["sources"] = result.Sources
	}
	respond(c, http.StatusOK, result.Metrics, nil, result.FromCache, start, meta)
}

// Get godoc
// @Summary Stored student metrics
// @Tags Metrics
// @Produce json
// @Param userId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /metrics/{userId} [get]
func (h *StudentMetricsHandler) Get(c *gin.Context) {
	userID, err := uuidParam(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	metrics, err := h.metrics.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, metrics, nil, false, start, nil)
}

// Report godoc
// @Summary Progress report for a student
// @Tags Metrics
// @Produce json
// @Param userId path string true "Student ID"
// @Param period query string false "week, month, 3months, 6months or year"
// @Success 200 {object} response.Envelope
// @Router /metrics/{userId}/report [get]
func (h *StudentMetricsHandler) Report(c *gin.Context) {
	if h.reports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	userID, err := uuidParam(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	period := models.ReportPeriod(strings.ToLower(strings.TrimSpace(c.Query("period"))))
	start := time.Now()
	report, err := h.reports.Report(c.Request.Context(), userID, period)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, report, nil, false, start, nil)
}

// Compare godoc
// @Summary Compare a student against classmates
// @Tags Metrics
// @Produce json
// @Param userId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /metrics/{userId}/compare [get]
func (h *StudentMetricsHandler) Compare(c *gin.Context) {
	if h.comparer == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	userID, err := uuidParam(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	comparison, err := h.comparer.CompareStudent(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, comparison, nil, false, start, nil)
}
