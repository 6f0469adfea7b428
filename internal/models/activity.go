package models

import "time"

// DailyActivityRecord aggregates one UTC calendar day of tracked activity.
type DailyActivityRecord struct {
	Date                 time.Time `json:"date"`
	CommitCount          int       `json:"commitCount"`
	RepositoriesWorkedOn []string  `json:"repositoriesWorkedOn"`
	LeetcodeProblems     int       `json:"leetcodeProblems"`
}

// DateKey returns the ledger key (YYYY-MM-DD) for the record.
func (r DailyActivityRecord) DateKey() string {
	return r.Date.UTC().Format(DateLayout)
}

// WeeklyMetric rolls daily records up to a week starting on Sunday.
type WeeklyMetric struct {
	WeekOf               time.Time `json:"weekOf"`
	CommitCount          int       `json:"commitCount"`
	ActiveDays           int       `json:"activeDays"`
	RepositoriesWorkedOn []string  `json:"repositoriesWorkedOn"`
	LeetcodeProblems     int       `json:"leetcodeProblems"`
}

// StreakMetrics captures contiguous-activity statistics.
type StreakMetrics struct {
	Current    int `json:"current"`
	Longest    int `json:"longest"`
	Last30Days int `json:"last30Days"`
}

// ConsistencyMetrics is derived from the daily ledger as of a reference day.
type ConsistencyMetrics struct {
	Streak        StreakMetrics `json:"streak"`
	WeeklyAverage float64       `json:"weeklyAverage"`
}

// ImprovementMetrics compares the latest four weekly buckets with the four before them.
type ImprovementMetrics struct {
	CommitIncrease     int `json:"commitIncrease"`
	ActiveDaysIncrease int `json:"activeDaysIncrease"`
	NewRepos           int `json:"newRepos"`
	LeetcodeIncrease   int `json:"leetcodeIncrease"`
}

// Improvement wraps month-over-month deltas.
type Improvement struct {
	LastMonth ImprovementMetrics `json:"lastMonth"`
}

// DateLayout is the calendar-day key format used by the activity ledger.
const DateLayout = "2006-01-02"
