package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/codepulse-api/internal/service"
	"github.com/noah-isme/codepulse-api/pkg/response"
)

const (
	defaultRepoPage  = 1
	defaultRepoLimit = 10
	maxRepoLimit     = 100
)

type githubService interface {
	Repos(ctx context.Context, userID string, force bool, page, limit int) (*service.GithubReposResult, error)
	Summary(ctx context.Context, userID string, force bool) (*service.GithubSummaryResult, error)
}

// GithubHandler exposes a student's GitHub snapshot.
type GithubHandler struct {
	service githubService
}

// NewGithubHandler constructs the handler.
func NewGithubHandler(svc githubService) *GithubHandler {
	return &GithubHandler{service: svc}
}

// Repos godoc
// @Summary Paginated GitHub repositories of a student
// @Tags GitHub
// @Produce json
// @Param userId path string true "Student ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param force query bool false "Ignore freshness"
// @Success 200 {object} response.Envelope
// @Router /github/{userId}/repos [get]
func (h *GithubHandler) Repos(c *gin.Context) {
	userID, err := uuidParam(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	page, err := intQuery(c, "page", defaultRepoPage)
	if err != nil {
		response.Error(c, err)
		return
	}
	limit, err := intQuery(c, "limit", defaultRepoLimit)
	if err != nil {
		response.Error(c, err)
		return
	}
	if limit > maxRepoLimit {
		limit = maxRepoLimit
	}

	start := time.Now()
	result, err := h.service.Repos(c.Request.Context(), userID, forceQuery(c), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := result.Pagination
	respond(c, http.StatusOK, result.Repos, &pagination, result.FromCache, start,
		sourceMeta(result.Message, result.Error, result.NotFound))
}

// Summary godoc
// @Summary GitHub totals of a student
// @Tags GitHub
// @Produce json
// @Param userId path string true "Student ID"
// @Param force query bool false "Ignore freshness"
// @Success 200 {object} response.Envelope
// @Router /github/{userId}/summary [get]
func (h *GithubHandler) Summary(c *gin.Context) {
	userID, err := uuidParam(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	result, err := h.service.Summary(c.Request.Context(), userID, forceQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, result.Summary, nil, result.FromCache, start, sourceMeta(result.Message, "", false))
}
