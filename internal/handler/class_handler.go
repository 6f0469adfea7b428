package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/codepulse-api/internal/models"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
	"github.com/noah-isme/codepulse-api/pkg/response"
)

type classAnalytics interface {
	Averages(ctx context.Context, classID string) (*models.ClassAverageReport, bool, error)
	Overview(ctx context.Context, classID string) (*models.ClassOverview, bool, error)
}

type platformValidator interface {
	ValidateClass(ctx context.Context, classID string) ([]models.PlatformValidation, error)
}

type classRefresher interface {
	EnqueueClass(ctx context.Context, classID string) (int, error)
}

// ClassHandler exposes class-level analytics and maintenance endpoints.
type ClassHandler struct {
	analytics classAnalytics
	validator platformValidator
	refresher classRefresher
}

// NewClassHandler constructs a class handler.
func NewClassHandler(analytics classAnalytics, validator platformValidator, refresher classRefresher) *ClassHandler {
	return &ClassHandler{analytics: analytics, validator: validator, refresher: refresher}
}

// Averages godoc
// @Summary Class metric averages
// @Tags Classes
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/averages [get]
func (h *ClassHandler) Averages(c *gin.Context) {
	classID, err := uuidParam(c, "classId")
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	report, hit, err := h.analytics.Averages(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, report, nil, hit, start, nil)
}

// Overview godoc
// @Summary Class engagement overview
// @Tags Classes
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/overview [get]
func (h *ClassHandler) Overview(c *gin.Context) {
	classID, err := uuidParam(c, "classId")
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	overview, hit, err := h.analytics.Overview(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, overview, nil, hit, start, nil)
}

// ValidatePlatforms godoc
// @Summary Validate GitHub and LeetCode identities of a class
// @Tags Classes
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/validate-platforms [post]
func (h *ClassHandler) ValidatePlatforms(c *gin.Context) {
	if h.validator == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	classID, err := uuidParam(c, "classId")
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	results, err := h.validator.ValidateClass(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{"total": len(results)}
	if len(results) == 0 {
		meta["message"] = "No students found in this class"
	}
	respond(c, http.StatusOK, results, nil, false, start, meta)
}

// Refresh godoc
// @Summary Queue a metrics refresh for every student in a class
// @Tags Classes
// @Produce json
// @Param classId path string true "Class ID"
// @Success 202 {object} response.Envelope
// @Router /classes/{classId}/refresh [post]
func (h *ClassHandler) Refresh(c *gin.Context) {
	if h.refresher == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	classID, err := uuidParam(c, "classId")
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	count, err := h.refresher.EnqueueClass(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusAccepted, gin.H{"classId": classID, "queued": count}, nil, false, start, nil)
}
