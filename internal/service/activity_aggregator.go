package service

import (
	"math"
	"sort"
	"time"

	"github.com/noah-isme/codepulse-api/internal/models"
)

const (
	recentActivityWindow = 90 * 24 * time.Hour
	improvementWindow    = 4
	minImprovementWeeks  = 5
	last30DaysSpan       = 29
	weeklyAverageSpan    = 28
)

// WeekStart returns the Sunday (UTC midnight) that starts the week containing t.
func WeekStart(t time.Time) time.Time {
	day := truncateDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// BuildWeeklyMetrics groups the daily ledger into Sunday-aligned weeks, ascending by week.
func BuildWeeklyMetrics(daily []models.DailyActivityRecord) []models.WeeklyMetric {
	type weekBucket struct {
		metric models.WeeklyMetric
		days   map[string]struct{}
		repos  map[string]struct{}
	}

	weeks := make(map[int64]*weekBucket)
	for _, record := range daily {
		start := WeekStart(record.Date)
		b, ok := weeks[start.Unix()]
		if !ok {
			b = &weekBucket{
				metric: models.WeeklyMetric{WeekOf: start},
				days:   make(map[string]struct{}),
				repos:  make(map[string]struct{}),
			}
			weeks[start.Unix()] = b
		}
		b.metric.CommitCount += record.CommitCount
		b.metric.LeetcodeProblems += record.LeetcodeProblems
		b.days[record.DateKey()] = struct{}{}
		for _, repo := range record.RepositoriesWorkedOn {
			b.repos[repo] = struct{}{}
		}
	}

	out := make([]models.WeeklyMetric, 0, len(weeks))
	for _, b := range weeks {
		b.metric.ActiveDays = len(b.days)
		b.metric.RepositoriesWorkedOn = sortedKeys(b.repos)
		out = append(out, b.metric)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekOf.Before(out[j].WeekOf) })
	return out
}

// ComputeConsistency derives streak and weekly-average statistics as of now. Records dated after
// today are ignored. The current streak is only reported while it is live, i.e. the last active
// day is today or yesterday.
func ComputeConsistency(daily []models.DailyActivityRecord, now time.Time) models.ConsistencyMetrics {
	today := truncateDay(now)

	days := distinctDays(daily, today)
	var current, longest int
	var last time.Time
	for i, day := range days {
		if i == 0 || day.Equal(last.AddDate(0, 0, 1)) {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
		last = day
	}
	if len(days) == 0 || last.Before(today.AddDate(0, 0, -1)) {
		current = 0
	}

	last30From := today.AddDate(0, 0, -last30DaysSpan)
	averageFrom := today.AddDate(0, 0, -weeklyAverageSpan)
	var last30 int
	perWeek := make(map[int64]int)
	for _, day := range days {
		if !day.Before(last30From) {
			last30++
		}
		if !day.Before(averageFrom) {
			perWeek[WeekStart(day).Unix()]++
		}
	}

	var weeklyAverage float64
	if len(perWeek) > 0 {
		total := 0
		for _, count := range perWeek {
			total += count
		}
		weeklyAverage = roundTo(float64(total)/float64(len(perWeek)), 1)
	}

	return models.ConsistencyMetrics{
		Streak: models.StreakMetrics{
			Current:    current,
			Longest:    longest,
			Last30Days: last30,
		},
		WeeklyAverage: weeklyAverage,
	}
}

// ComputeImprovement compares the four most recent weekly buckets against the four before them.
// Fewer than five buckets yields zero deltas.
func ComputeImprovement(weekly []models.WeeklyMetric) models.Improvement {
	if len(weekly) < minImprovementWeeks {
		return models.Improvement{}
	}

	sorted := make([]models.WeeklyMetric, len(weekly))
	copy(sorted, weekly)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].WeekOf.After(sorted[j].WeekOf) })

	recent := sorted[:improvementWindow]
	priorEnd := 2 * improvementWindow
	if priorEnd > len(sorted) {
		priorEnd = len(sorted)
	}
	prior := sorted[improvementWindow:priorEnd]

	recentTotals := sumWeeks(recent)
	priorTotals := sumWeeks(prior)

	newRepos := 0
	for repo := range recentTotals.repos {
		if _, ok := priorTotals.repos[repo]; !ok {
			newRepos++
		}
	}

	return models.Improvement{LastMonth: models.ImprovementMetrics{
		CommitIncrease:     recentTotals.commits - priorTotals.commits,
		ActiveDaysIncrease: recentTotals.activeDays - priorTotals.activeDays,
		NewRepos:           newRepos,
		LeetcodeIncrease:   recentTotals.leetcode - priorTotals.leetcode,
	}}
}

// BuildStudentMetrics recomputes the full metrics record from raw provider history. It never
// fails: missing inputs degrade to zero values and a nil LeetCode block.
func BuildStudentMetrics(userID string, repos []models.Repository, leetcode *models.LeetCodeProfile, now time.Time) models.StudentMetrics {
	daily := NormalizeActivity(repos, LeetCodeSubmissions(leetcode))
	weekly := BuildWeeklyMetrics(daily)

	return models.StudentMetrics{
		UserID:        userID,
		Github:        buildGithubMetrics(repos, daily, now),
		LeetCode:      buildLeetCodeMetrics(leetcode, weekly),
		DailyActivity: daily,
		WeeklyMetrics: weekly,
		Improvement:   ComputeImprovement(weekly),
		LastUpdated:   now.UTC(),
	}
}

func buildGithubMetrics(repos []models.Repository, daily []models.DailyActivityRecord, now time.Time) models.GithubMetrics {
	since := now.Add(-recentActivityWindow)

	var totalCommits, recentCommits, activeRepos, stars, forks int
	recentDays := make(map[string]struct{})
	recentRepos := make(map[string]struct{})
	for _, repo := range repos {
		totalCommits += len(repo.Commits)
		if len(repo.Commits) > 0 {
			activeRepos++
		}
		stars += repo.Stars
		forks += repo.Forks
		for _, commit := range repo.Commits {
			if commit.Date.IsZero() || commit.Date.Before(since) {
				continue
			}
			recentCommits++
			recentDays[commit.Date.UTC().Format(models.DateLayout)] = struct{}{}
			recentRepos[repo.Name] = struct{}{}
		}
	}

	activity := math.Min(100, float64(len(recentDays)*3+recentCommits*2)/5)
	impact := math.Min(100, float64(stars*3+forks*2)/5)

	return models.GithubMetrics{
		Repositories: models.RepositoryCounts{
			Total:          len(repos),
			Active:         activeRepos,
			RecentlyActive: len(recentRepos),
		},
		Commits: models.CommitCounts{
			Total:        totalCommits,
			Recent90Days: recentCommits,
		},
		Activity: models.ActivityScore{
			Score:      activity,
			ActiveDays: sortedKeys(recentDays),
		},
		Impact: models.ImpactScore{
			Score: impact,
			Stars: stars,
			Forks: forks,
		},
		Consistency: ComputeConsistency(daily, now),
	}
}

func buildLeetCodeMetrics(profile *models.LeetCodeProfile, weekly []models.WeeklyMetric) *models.LeetCodeMetrics {
	if profile == nil {
		return nil
	}

	var consistency models.LeetCodeConsistency
	if len(weekly) > 0 {
		total := 0
		for _, week := range weekly {
			total += week.LeetcodeProblems
		}
		consistency.SolvedLastWeek = weekly[len(weekly)-1].LeetcodeProblems
		consistency.WeeklyAverage = roundTo(float64(total)/float64(len(weekly)), 2)
	}

	solved := profile.CompleteProfile
	return &models.LeetCodeMetrics{
		ProblemsSolved: models.ProblemCounts{
			Total:  solved.SolvedProblem,
			Easy:   solved.EasySolved,
			Medium: solved.MediumSolved,
			Hard:   solved.HardSolved,
		},
		Ranking:     profile.BasicProfile.Ranking,
		Consistency: consistency,
	}
}

type weekTotals struct {
	commits    int
	activeDays int
	leetcode   int
	repos      map[string]struct{}
}

func sumWeeks(weeks []models.WeeklyMetric) weekTotals {
	totals := weekTotals{repos: make(map[string]struct{})}
	for _, week := range weeks {
		totals.commits += week.CommitCount
		totals.activeDays += week.ActiveDays
		totals.leetcode += week.LeetcodeProblems
		for _, repo := range week.RepositoriesWorkedOn {
			totals.repos[repo] = struct{}{}
		}
	}
	return totals
}

// distinctDays returns the unique UTC days of the ledger up to and including today, ascending.
func distinctDays(daily []models.DailyActivityRecord, today time.Time) []time.Time {
	seen := make(map[int64]struct{}, len(daily))
	days := make([]time.Time, 0, len(daily))
	for _, record := range daily {
		day := truncateDay(record.Date)
		if day.After(today) {
			continue
		}
		if _, ok := seen[day.Unix()]; ok {
			continue
		}
		seen[day.Unix()] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
