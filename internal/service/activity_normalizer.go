package service

import (
	"sort"
	"strconv"
	"time"

	"github.com/noah-isme/codepulse-api/internal/models"
)

type dayBucket struct {
	date     time.Time
	commits  int
	repos    map[string]struct{}
	leetcode int
}

// NormalizeActivity folds commit and submission timestamps into a per-day ledger keyed by UTC
// calendar date. Repositories without commits and zero timestamps contribute nothing. The result
// is sorted ascending by date.
func NormalizeActivity(repos []models.Repository, submissions []models.LeetCodeSubmission) []models.DailyActivityRecord {
	buckets := make(map[string]*dayBucket)
	touch := func(ts time.Time) *dayBucket {
		day := truncateDay(ts)
		key := day.Format(models.DateLayout)
		b, ok := buckets[key]
		if !ok {
			b = &dayBucket{date: day, repos: make(map[string]struct{})}
			buckets[key] = b
		}
		return b
	}

	for _, repo := range repos {
		for _, commit := range repo.Commits {
			if commit.Date.IsZero() {
				continue
			}
			b := touch(commit.Date)
			b.commits++
			if repo.Name != "" {
				b.repos[repo.Name] = struct{}{}
			}
		}
	}

	for _, submission := range submissions {
		if submission.Timestamp.IsZero() {
			continue
		}
		touch(submission.Timestamp).leetcode++
	}

	records := make([]models.DailyActivityRecord, 0, len(buckets))
	for _, b := range buckets {
		records = append(records, models.DailyActivityRecord{
			Date:                 b.date,
			CommitCount:          b.commits,
			RepositoriesWorkedOn: sortedKeys(b.repos),
			LeetcodeProblems:     b.leetcode,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records
}

// LeetCodeSubmissions returns explicit submissions when the profile carries them, otherwise one
// submission per calendar count.
func LeetCodeSubmissions(profile *models.LeetCodeProfile) []models.LeetCodeSubmission {
	if profile == nil {
		return nil
	}
	if len(profile.Submissions) > 0 {
		return profile.Submissions
	}

	stamps := make([]int64, 0, len(profile.Calendar))
	counts := make(map[int64]int, len(profile.Calendar))
	for key, count := range profile.Calendar {
		sec, err := strconv.ParseInt(key, 10, 64)
		if err != nil || count <= 0 {
			continue
		}
		if _, seen := counts[sec]; !seen {
			stamps = append(stamps, sec)
		}
		counts[sec] += count
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	var submissions []models.LeetCodeSubmission
	for _, sec := range stamps {
		ts := time.Unix(sec, 0).UTC()
		for i := 0; i < counts[sec]; i++ {
			submissions = append(submissions, models.LeetCodeSubmission{Timestamp: ts})
		}
	}
	return submissions
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
