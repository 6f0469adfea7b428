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

func classStudent(id, first, classID string) models.Student {
	return models.Student{ID: id, FirstName: first, LastName: "Student", ClassID: ptrTo(classID)}
}

func newClassFixture(students ...models.Student) (*ClassAnalyticsService, *metricsStoreStub, *cache.MemoryStore) {
	store := newMetricsStoreStub()
	memory := cache.NewMemoryStore()
	cacheSvc := NewCacheService(memory, nil, time.Minute, zap.NewNop(), true)
	return NewClassAnalyticsService(newRosterStub(students...), store, cacheSvc, nil, 10*time.Minute, zap.NewNop()), store, memory
}

func withUser(id string, m models.StudentMetrics) models.StudentMetrics {
	m.UserID = id
	return m
}

func TestClassAveragesComputesAndCaches(t *testing.T) {
	svc, store, _ := newClassFixture(
		classStudent("s1", "Ada", "c1"),
		classStudent("s2", "Bob", "c1"),
		classStudent("s3", "Cy", "c1"),
		classStudent("x1", "Other", "c2"),
	)
	store.records["s1"] = withUser("s1", metricsWith(10, 2, 1, nil))
	store.records["s2"] = withUser("s2", metricsWith(30, 4, 3, solved(8, 8, 0, 0)))
	store.records["x1"] = withUser("x1", metricsWith(1000, 1, 1, nil))
	ctx := context.Background()

	report, hit, err := svc.Averages(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, report.ClassSize)
	require.NotNil(t, report.AverageMetrics)
	assert.InDelta(t, 20, report.AverageMetrics.Github.Commits.Total, 1e-9)
	require.NotNil(t, report.AverageMetrics.LeetCode)
	assert.InDelta(t, 8, report.AverageMetrics.LeetCode.ProblemsSolved.Total, 1e-9)

	store.records["s3"] = withUser("s3", metricsWith(500, 1, 1, nil))
	cached, hit, err := svc.Averages(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.InDelta(t, 20, cached.AverageMetrics.Github.Commits.Total, 1e-9)
}

func TestClassAveragesEmptyClass(t *testing.T) {
	svc, _, _ := newClassFixture()

	_, _, err := svc.Averages(context.Background(), "c1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestClassAveragesWithoutMetricsIsNil(t *testing.T) {
	svc, _, _ := newClassFixture(classStudent("s1", "Ada", "c1"))

	report, _, err := svc.Averages(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, report.AverageMetrics)
}

func TestCompareStudentExcludesSelf(t *testing.T) {
	svc, store, _ := newClassFixture(classStudent("s1", "Ada", "c1"), classStudent("s2", "Bob", "c1"))
	store.records["s1"] = withUser("s1", metricsWith(30, 3, 3, nil))
	store.records["s2"] = withUser("s2", metricsWith(10, 1, 1, nil))

	result, err := svc.CompareStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.InDelta(t, 10, result.ClassAverages.Github.Commits.Total, 1e-9)
	require.NotNil(t, result.Comparison)
	assert.InDelta(t, 200, result.Comparison.Github.Commits.Total, 1e-9)
	assert.Nil(t, result.Comparison.LeetCode)
	assert.Equal(t, "s1", result.StudentMetrics.UserID)
}

func TestCompareStudentErrors(t *testing.T) {
	svc, store, _ := newClassFixture(classStudent("solo", "Ada", "c1"), models.Student{ID: "nocls"})
	store.records["solo"] = withUser("solo", metricsWith(1, 1, 1, nil))
	store.records["nocls"] = withUser("nocls", metricsWith(1, 1, 1, nil))
	ctx := context.Background()

	_, err := svc.CompareStudent(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.CompareStudent(ctx, "nocls")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.CompareStudent(ctx, "solo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no other students")
}

func TestOverviewRanksAndCaches(t *testing.T) {
	students := []models.Student{
		classStudent("s1", "Ada", "c1"),
		classStudent("s2", "Bob", "c1"),
		classStudent("s3", "Cy", "c1"),
		classStudent("s4", "Di", "c2"),
	}
	svc, store, memory := newClassFixture(students...)
	store.records["s1"] = withUser("s1", metricsWith(5, 1, 0, solved(40, 0, 0, 0)))
	store.records["s2"] = withUser("s2", metricsWith(50, 2, 0, nil))
	store.records["s3"] = withUser("s3", metricsWith(0, 0, 0, solved(0, 0, 0, 0)))
	ctx := context.Background()

	overview, hit, err := svc.Overview(ctx, "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 4, overview.TotalStudents)
	assert.Equal(t, 2, overview.GithubActiveStudents)
	assert.Equal(t, 2, overview.LeetCodeActiveStudents)
	assert.Equal(t, models.PlatformEngagement{Github: 50, LeetCode: 50}, overview.PlatformEngagement)
	require.Len(t, overview.TopGithubStudents, 2)
	assert.Equal(t, "s2", overview.TopGithubStudents[0].UserID)
	require.Len(t, overview.TopLeetCodeStudents, 1)
	assert.Equal(t, 40, overview.TopLeetCodeStudents[0].Value)

	var stored models.ClassOverview
	require.NoError(t, memory.Get(ctx, "class:overview:all", &stored))

	_, hit, err = svc.Overview(ctx, "")
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestBuildOverviewCapsLeaderboard(t *testing.T) {
	var students []models.Student
	var metrics []models.StudentMetrics
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		students = append(students, classStudent(id, id, "c1"))
		metrics = append(metrics, withUser(id, metricsWith(10+i, 1, 0, nil)))
	}

	overview := BuildOverview("c1", students, metrics)
	require.Len(t, overview.TopGithubStudents, topContributorLimit)
	assert.Equal(t, "g", overview.TopGithubStudents[0].UserID)
	assert.Empty(t, overview.TopLeetCodeStudents)
	assert.InDelta(t, 100, overview.PlatformEngagement.Github, 1e-9)
}

func TestBuildOverviewEmptyRoster(t *testing.T) {
	overview := BuildOverview("c1", nil, nil)
	assert.Zero(t, overview.TotalStudents)
	assert.Zero(t, overview.PlatformEngagement.Github)
}
