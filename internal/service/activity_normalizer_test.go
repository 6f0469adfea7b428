package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/codepulse-api/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeActivityBucketsByUTCDay(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	repos := []models.Repository{
		{Name: "alpha", Commits: []models.Commit{
			{Date: time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)},
			{Date: time.Date(2024, 3, 3, 23, 59, 0, 0, time.UTC)},
			// 05:00 in UTC+7 is still the previous UTC day.
			{Date: time.Date(2024, 3, 4, 5, 0, 0, 0, jakarta)},
		}},
		{Name: "beta", Commits: []models.Commit{
			{Date: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
			{Date: time.Time{}},
		}},
		{Name: "gamma"},
	}
	submissions := []models.LeetCodeSubmission{
		{Timestamp: time.Date(2024, 3, 3, 1, 0, 0, 0, time.UTC)},
		{Timestamp: time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC)},
	}

	ledger := NormalizeActivity(repos, submissions)

	require.Len(t, ledger, 3)
	assert.Equal(t, day(2024, 3, 1), ledger[0].Date)
	assert.Equal(t, 1, ledger[0].CommitCount)
	assert.Equal(t, []string{"beta"}, ledger[0].RepositoriesWorkedOn)

	assert.Equal(t, "2024-03-03", ledger[1].DateKey())
	assert.Equal(t, 3, ledger[1].CommitCount)
	assert.Equal(t, []string{"alpha"}, ledger[1].RepositoriesWorkedOn)
	assert.Equal(t, 1, ledger[1].LeetcodeProblems)

	assert.Equal(t, day(2024, 3, 5), ledger[2].Date)
	assert.Equal(t, 0, ledger[2].CommitCount)
	assert.Empty(t, ledger[2].RepositoriesWorkedOn)
	assert.Equal(t, 1, ledger[2].LeetcodeProblems)
}

func TestNormalizeActivityEmptyInput(t *testing.T) {
	assert.Empty(t, NormalizeActivity(nil, nil))
	assert.Empty(t, NormalizeActivity([]models.Repository{{Name: "x"}}, nil))
}

func TestNormalizeActivityMergesRepos(t *testing.T) {
	ts := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)
	ledger := NormalizeActivity([]models.Repository{
		{Name: "zeta", Commits: []models.Commit{{Date: ts}}},
		{Name: "alpha", Commits: []models.Commit{{Date: ts}, {Date: ts}}},
	}, nil)

	require.Len(t, ledger, 1)
	assert.Equal(t, 3, ledger[0].CommitCount)
	assert.Equal(t, []string{"alpha", "zeta"}, ledger[0].RepositoriesWorkedOn)
}

func TestLeetCodeSubmissionsFromCalendar(t *testing.T) {
	profile := &models.LeetCodeProfile{Calendar: map[string]int{
		"1709625600": 2,
		"bogus":      4,
		"1709251200": 1,
		"1709337600": 0,
	}}

	submissions := LeetCodeSubmissions(profile)

	require.Len(t, submissions, 3)
	assert.Equal(t, time.Unix(1709251200, 0).UTC(), submissions[0].Timestamp)
	assert.Equal(t, time.Unix(1709625600, 0).UTC(), submissions[1].Timestamp)
	assert.Equal(t, time.Unix(1709625600, 0).UTC(), submissions[2].Timestamp)
}

func TestLeetCodeSubmissionsPrefersExplicitList(t *testing.T) {
	explicit := []models.LeetCodeSubmission{{Title: "Two Sum", Timestamp: day(2024, 3, 1)}}
	profile := &models.LeetCodeProfile{Submissions: explicit, Calendar: map[string]int{"1709625600": 3}}

	assert.Equal(t, explicit, LeetCodeSubmissions(profile))
	assert.Nil(t, LeetCodeSubmissions(nil))
}
