package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/codepulse-api/internal/models"
	"github.com/noah-isme/codepulse-api/pkg/cache"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
)

type githubSnapshotStub struct {
	snapshot models.Snapshot[models.GithubData]
	calls    int
	force    bool
}

func (s *githubSnapshotStub) Snapshot(_ context.Context, _ models.Student, force bool) models.Snapshot[models.GithubData] {
	s.calls++
	s.force = force
	return s.snapshot
}

type leetcodeSnapshotStub struct {
	snapshot models.Snapshot[models.LeetCodeProfile]
}

func (s *leetcodeSnapshotStub) Snapshot(context.Context, models.Student, bool) models.Snapshot[models.LeetCodeProfile] {
	return s.snapshot
}

type metricsFixture struct {
	clock    *testClock
	store    *metricsStoreStub
	github   *githubSnapshotStub
	leetcode *leetcodeSnapshotStub
	memory   *cache.MemoryStore
	svc      *StudentMetricsService
}

func newMetricsFixture(students ...models.Student) *metricsFixture {
	f := &metricsFixture{
		clock:    newTestClock(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)),
		store:    newMetricsStoreStub(),
		github:   &githubSnapshotStub{snapshot: models.Absent[models.GithubData]()},
		leetcode: &leetcodeSnapshotStub{snapshot: models.Absent[models.LeetCodeProfile]()},
		memory:   cache.NewMemoryStore(),
	}
	cacheSvc := NewCacheService(f.memory, nil, time.Minute, zap.NewNop(), true)
	gate := NewStalenessGate(24*time.Hour, f.clock.Now)
	f.svc = NewStudentMetricsService(newRosterStub(students...), f.store, f.github, f.leetcode, cacheSvc, gate, nil, zap.NewNop())
	return f
}

func TestStudentMetricsUpdateReportsCreation(t *testing.T) {
	f := newMetricsFixture(models.Student{ID: "u1"})
	commitDay := f.clock.Now().AddDate(0, 0, -1)
	req := UpdateMetricsRequest{Repos: []models.Repository{{Name: "alpha", Commits: []models.Commit{{Date: commitDay}}}}}

	first, err := f.svc.Update(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 1, first.Metrics.Github.Commits.Total)

	second, err := f.svc.Update(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Metrics.DailyActivity, second.Metrics.DailyActivity)
}

func TestStudentMetricsUpdateUnknownStudent(t *testing.T) {
	f := newMetricsFixture()

	_, err := f.svc.Update(context.Background(), "missing", UpdateMetricsRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Zero(t, f.store.upserts)
}

func TestStudentMetricsUpdateInvalidatesClassCaches(t *testing.T) {
	f := newMetricsFixture(models.Student{ID: "u1", ClassID: ptrTo("c1")})
	ctx := context.Background()
	require.NoError(t, f.memory.Set(ctx, "class:averages:c1", 1, time.Hour))
	require.NoError(t, f.memory.Set(ctx, "class:averages:c2", 1, time.Hour))
	require.NoError(t, f.memory.Set(ctx, "github:repos:octocat", 1, time.Hour))

	_, err := f.svc.Update(ctx, "u1", UpdateMetricsRequest{})
	require.NoError(t, err)

	var v int
	assert.ErrorIs(t, f.memory.Get(ctx, "class:averages:c1", &v), appErrors.ErrCacheMiss)
	assert.NoError(t, f.memory.Get(ctx, "class:averages:c2", &v))
	assert.NoError(t, f.memory.Get(ctx, "github:repos:octocat", &v))
}

func TestStudentMetricsRefreshServesFreshRecord(t *testing.T) {
	f := newMetricsFixture(models.Student{ID: "u1"})
	f.store.records["u1"] = models.StudentMetrics{UserID: "u1", LastUpdated: f.clock.Now().Add(-time.Hour)}

	result, err := f.svc.Refresh(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Zero(t, f.github.calls)
}

func TestStudentMetricsRefreshRecomputesFromSnapshots(t *testing.T) {
	f := newMetricsFixture(models.Student{ID: "u1"})
	commitDay := f.clock.Now().AddDate(0, 0, -1)
	f.github.snapshot = models.Present(models.GithubData{Repos: []models.Repository{
		{Name: "alpha", Commits: []models.Commit{{Date: commitDay}, {Date: commitDay}}},
	}}, false)
	f.leetcode.snapshot = models.Present(models.LeetCodeProfile{
		CompleteProfile: models.LeetCodeSolvedProfile{SolvedProblem: 9, EasySolved: 9},
	}, true)

	result, err := f.svc.Refresh(context.Background(), "u1", true)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.True(t, f.github.force)
	assert.Equal(t, 2, result.Metrics.Github.Commits.Total)
	require.NotNil(t, result.Metrics.LeetCode)
	assert.Equal(t, 9, result.Metrics.LeetCode.ProblemsSolved.Total)
	assert.Equal(t, map[string]string{"github": "present", "leetcode": "present"}, result.Sources)
	assert.Equal(t, 1, f.store.upserts)
}

func TestStudentMetricsRefreshFallsBackToStored(t *testing.T) {
	f := newMetricsFixture(models.Student{ID: "u1"})
	stored := models.StudentMetrics{UserID: "u1", LastUpdated: f.clock.Now().Add(-72 * time.Hour)}
	stored.Github.Commits.Total = 42
	f.store.records["u1"] = stored
	f.github.snapshot = models.Failed[models.GithubData](appErrors.KindRateLimited)

	result, err := f.svc.Refresh(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, FallbackMessage, result.Message)
	assert.Equal(t, 42, result.Metrics.Github.Commits.Total)
	assert.Zero(t, f.store.upserts)
}

func TestStudentMetricsRefreshTransientWithoutRecordIsNotPersisted(t *testing.T) {
	f := newMetricsFixture(models.Student{ID: "u1"})
	f.leetcode.snapshot = models.Failed[models.LeetCodeProfile](appErrors.KindTransient)

	result, err := f.svc.Refresh(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Error)
	assert.Zero(t, result.Metrics.Github.Commits.Total)
	assert.Zero(t, f.store.upserts)
}

func TestStudentMetricsRefreshNotFoundIsDefinitive(t *testing.T) {
	f := newMetricsFixture(models.Student{ID: "u1"})
	f.github.snapshot = models.Failed[models.GithubData](appErrors.KindNotFound)

	result, err := f.svc.Refresh(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.Empty(t, result.Error)
	assert.Nil(t, result.Metrics.LeetCode)
	assert.Equal(t, 1, f.store.upserts)
}

func TestStudentMetricsGet(t *testing.T) {
	f := newMetricsFixture()
	_, err := f.svc.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	f.store.records["u1"] = models.StudentMetrics{UserID: "u1"}
	metrics, err := f.svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", metrics.UserID)
}

func TestStudentMetricsRefreshFallsBackWhenGithubServesStoredData(t *testing.T) {
	gh := newGithubFixture(t, githubStudent("u1", "octocat"))
	gate := NewStalenessGate(24*time.Hour, gh.clock.Now)

	stale := gh.clock.Now().Add(-48 * time.Hour)
	gh.store.records["u1"] = models.GithubData{UserID: "u1", GithubID: "octocat", Valid: true, Repos: []models.Repository{{Name: "alpha"}}, LastUpdated: stale}
	gh.provider.userErr = appErrors.NewProviderError("github", appErrors.KindRateLimited, 403, nil)

	store := newMetricsStoreStub()
	store.records["u1"] = models.StudentMetrics{UserID: "u1", LastUpdated: stale}
	svc := NewStudentMetricsService(gh.roster, store, gh.svc, &leetcodeSnapshotStub{snapshot: models.Absent[models.LeetCodeProfile]()}, NewCacheService(cache.NewMemoryStore(), nil, time.Minute, zap.NewNop(), true), gate, nil, zap.NewNop())
	ctx := context.Background()

	result, err := svc.Refresh(ctx, "u1", false)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, FallbackMessage, result.Message)
	assert.Equal(t, "stale", result.Sources["github"])
	assert.Equal(t, stale, result.Metrics.LastUpdated)
	assert.Zero(t, store.upserts)
	assert.Equal(t, stale, store.records["u1"].LastUpdated)

	gh.clock.Advance(time.Hour)
	_, err = svc.Refresh(ctx, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, gh.provider.userCalls)
	assert.Zero(t, store.upserts)
}
