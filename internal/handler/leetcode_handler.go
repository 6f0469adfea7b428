package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/codepulse-api/internal/service"
	"github.com/noah-isme/codepulse-api/pkg/response"
)

type leetcodeService interface {
	Profile(ctx context.Context, userID string, force bool) (*service.LeetCodeProfileResult, error)
}

// LeetCodeHandler exposes a student's LeetCode snapshot.
type LeetCodeHandler struct {
	service leetcodeService
}

// NewLeetCodeHandler constructs the handler.
func NewLeetCodeHandler(svc leetcodeService) *LeetCodeHandler {
	return &LeetCodeHandler{service: svc}
}

// Profile godoc
// @Summary LeetCode profile of a student
// @Tags LeetCode
// @Produce json
// @Param userId path string true "Student ID"
// @Param force query bool false "Ignore freshness"
// @Success 200 {object} response.Envelope
// @Router /leetcode/{userId} [get]
func (h *LeetCodeHandler) Profile(c *gin.Context) {
	userID, err := uuidParam(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	result, err := h.service.Profile(c.Request.Context(), userID, forceQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, result.Profile, nil, result.FromCache, start,
		sourceMeta(result.Message, result.Error, result.NotFound))
}
