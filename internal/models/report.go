package models

import "time"

// ReportPeriod narrows the history included in a progress report.
type ReportPeriod string

const (
	PeriodAll      ReportPeriod = ""
	PeriodWeek     ReportPeriod = "week"
	PeriodMonth    ReportPeriod = "month"
	PeriodQuarter  ReportPeriod = "3months"
	PeriodHalfYear ReportPeriod = "6months"
	PeriodYear     ReportPeriod = "year"
)

// Valid reports whether p is a known period.
func (p ReportPeriod) Valid() bool {
	switch p {
	case PeriodAll, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodHalfYear, PeriodYear:
		return true
	default:
		return false
	}
}

// Start returns the earliest instant included in the period, or false when the period is
// unbounded.
func (p ReportPeriod) Start(now time.Time) (time.Time, bool) {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7), true
	case PeriodMonth:
		return now.AddDate(0, -1, 0), true
	case PeriodQuarter:
		return now.AddDate(0, -3, 0), true
	case PeriodHalfYear:
		return now.AddDate(0, -6, 0), true
	case PeriodYear:
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// TrendNotEnough is reported for every trend dimension when history is too short.
const TrendNotEnough = "not enough data"

// TrendAnalysis holds qualitative trend labels for recent weeks.
type TrendAnalysis struct {
	CommitTrend     string `json:"commitTrend"`
	ActiveDaysTrend string `json:"activeDaysTrend"`
	OverallTrend    string `json:"overallTrend"`
}

// ReportStudent identifies the student in a report.
type ReportStudent struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	GithubUsername   string `json:"githubUsername"`
	LeetCodeUsername string `json:"leetcodeUsername"`
	ClassID          string `json:"classId,omitempty"`
}

// CodingActivitySummary is the commit and streak overview of a report.
type CodingActivitySummary struct {
	TotalCommits     int     `json:"totalCommits"`
	RecentCommits    int     `json:"recentCommits"`
	ActiveDaysLast30 int     `json:"activeDaysLast30"`
	CurrentStreak    int     `json:"currentStreak"`
	LongestStreak    int     `json:"longestStreak"`
	WeeklyAverage    float64 `json:"weeklyAverage"`
}

// LeetCodeSummary is the LeetCode overview of a report.
type LeetCodeSummary struct {
	TotalSolved   int     `json:"totalSolved"`
	EasySolved    int     `json:"easySolved"`
	MediumSolved  int     `json:"mediumSolved"`
	HardSolved    int     `json:"hardSolved"`
	WeeklyAverage float64 `json:"weeklyAverage"`
}

// ProgressReport is the per-student progress summary.
type ProgressReport struct {
	Student        ReportStudent         `json:"student"`
	Period         ReportPeriod          `json:"period,omitempty"`
	CodingActivity CodingActivitySummary `json:"codingActivity"`
	Repositories   RepositoryCounts      `json:"repositories"`
	LeetCode       *LeetCodeSummary      `json:"leetcode"`
	Improvement    Improvement           `json:"improvement"`
	Trends         TrendAnalysis         `json:"trends"`
	DailyActivity  []DailyActivityRecord `json:"dailyActivity"`
	WeeklyMetrics  []WeeklyMetric        `json:"weeklyMetrics"`
	LastUpdated    time.Time             `json:"lastUpdated"`
}
