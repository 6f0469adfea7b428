package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/codepulse-api/internal/models"
	"github.com/noah-isme/codepulse-api/internal/service"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
)

type fakeGithubSrv struct {
	repos     *service.GithubReposResult
	summary   *service.GithubSummaryResult
	err       error
	lastPage  int
	lastLimit int
	lastForce bool
}

func (f *fakeGithubSrv) Repos(_ context.Context, _ string, force bool, page, limit int) (*service.GithubReposResult, error) {
	f.lastForce, f.lastPage, f.lastLimit = force, page, limit
	return f.repos, f.err
}

func (f *fakeGithubSrv) Summary(_ context.Context, _ string, force bool) (*service.GithubSummaryResult, error) {
	f.lastForce = force
	return f.summary, f.err
}

type fakeLeetCodeSrv struct {
	result *service.LeetCodeProfileResult
	err    error
}

func (f fakeLeetCodeSrv) Profile(context.Context, string, bool) (*service.LeetCodeProfileResult, error) {
	return f.result, f.err
}

func providerRouter(github *GithubHandler, leetcode *LeetCodeHandler) *gin.Engine {
	r := newTestRouter()
	if github != nil {
		r.GET("/github/:userId/repos", github.Repos)
		r.GET("/github/:userId/summary", github.Summary)
	}
	if leetcode != nil {
		r.GET("/leetcode/:userId", leetcode.Profile)
	}
	return r
}

func TestGithubHandlerReposPagination(t *testing.T) {
	srv := &fakeGithubSrv{repos: &service.GithubReposResult{
		Repos:      []models.Repository{{Name: "demo"}},
		Pagination: models.Pagination{Page: 2, PageSize: 1, TotalCount: 3, TotalPages: 3},
	}}
	r := providerRouter(NewGithubHandler(srv), nil)

	rec := serve(r, http.MethodGet, "/github/"+studentUUID+"/repos?page=2&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, srv.lastPage)
	assert.Equal(t, 1, srv.lastLimit)
	assert.False(t, srv.lastForce)

	env := decodeEnvelope(t, rec)
	assert.EqualValues(t, 3, env.Pagination["total_pages"])
	assert.Equal(t, false, env.Meta["cache_hit"])
}

func TestGithubHandlerReposDefaultsAndCap(t *testing.T) {
	srv := &fakeGithubSrv{repos: &service.GithubReposResult{}}
	r := providerRouter(NewGithubHandler(srv), nil)

	serve(r, http.MethodGet, "/github/"+studentUUID+"/repos", "")
	assert.Equal(t, defaultRepoPage, srv.lastPage)
	assert.Equal(t, defaultRepoLimit, srv.lastLimit)

	serve(r, http.MethodGet, "/github/"+studentUUID+"/repos?limit=500&force=true", "")
	assert.Equal(t, maxRepoLimit, srv.lastLimit)
	assert.True(t, srv.lastForce)
}

func TestGithubHandlerReposInvalidQuery(t *testing.T) {
	r := providerRouter(NewGithubHandler(&fakeGithubSrv{}), nil)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/github/"+studentUUID+"/repos?page=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/github/"+studentUUID+"/repos?limit=abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/github/nope/repos", "").Code)
}

func TestGithubHandlerReposNotFoundMeta(t *testing.T) {
	srv := &fakeGithubSrv{repos: &service.GithubReposResult{Repos: []models.Repository{}, NotFound: true, Error: "GitHub user not found"}}
	r := providerRouter(NewGithubHandler(srv), nil)

	rec := serve(r, http.MethodGet, "/github/"+studentUUID+"/repos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["not_found"])
	assert.Equal(t, "GitHub user not found", env.Meta["error"])
}

func TestGithubHandlerSummaryFallback(t *testing.T) {
	srv := &fakeGithubSrv{summary: &service.GithubSummaryResult{
		Summary:   models.GithubSummary{TotalRepos: 4},
		FromCache: true,
		Message:   service.FallbackMessage,
	}}
	r := providerRouter(NewGithubHandler(srv), nil)

	rec := serve(r, http.MethodGet, "/github/"+studentUUID+"/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Equal(t, service.FallbackMessage, env.Meta["message"])
}

func TestGithubHandlerUnknownStudent(t *testing.T) {
	srv := &fakeGithubSrv{err: appErrors.Clone(appErrors.ErrNotFound, "student not found")}
	r := providerRouter(NewGithubHandler(srv), nil)

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/github/"+studentUUID+"/summary", "").Code)
}

func TestLeetCodeHandlerProfile(t *testing.T) {
	profile := &models.LeetCodeProfile{}
	profile.BasicProfile.Username = "grace"
	r := providerRouter(nil, NewLeetCodeHandler(fakeLeetCodeSrv{result: &service.LeetCodeProfileResult{Profile: profile}}))

	rec := serve(r, http.MethodGet, "/leetcode/"+studentUUID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var data models.LeetCodeProfile
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	assert.Equal(t, "grace", data.BasicProfile.Username)
}

func TestLeetCodeHandlerNotFound(t *testing.T) {
	srv := fakeLeetCodeSrv{result: &service.LeetCodeProfileResult{NotFound: true, Error: "Invalid LeetCode account"}}
	r := providerRouter(nil, NewLeetCodeHandler(srv))

	rec := serve(r, http.MethodGet, "/leetcode/"+studentUUID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["not_found"])
	assert.Equal(t, "Invalid LeetCode account", env.Meta["error"])
}
