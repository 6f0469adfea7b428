package models

import "time"

// RepositoryCounts summarises repository activity.
type RepositoryCounts struct {
	Total          int `json:"total"`
	Active         int `json:"active"`
	RecentlyActive int `json:"recentlyActive"`
}

// CommitCounts summarises commit volume.
type CommitCounts struct {
	Total        int `json:"total"`
	Recent90Days int `json:"recent90Days"`
}

// ActivityScore is the 90-day activity score with the days that contributed to it.
type ActivityScore struct {
	Score      float64  `json:"score"`
	ActiveDays []string `json:"activeDays"`
}

// ImpactScore summarises stars and forks.
type ImpactScore struct {
	Score float64 `json:"score"`
	Stars int     `json:"stars"`
	Forks int     `json:"forks"`
}

// GithubMetrics is the GitHub block of a student's metrics.
type GithubMetrics struct {
	Repositories RepositoryCounts   `json:"repositories"`
	Commits      CommitCounts       `json:"commits"`
	Activity     ActivityScore      `json:"activity"`
	Impact       ImpactScore        `json:"impact"`
	Consistency  ConsistencyMetrics `json:"consistency"`
}

// ProblemCounts is the LeetCode solved breakdown.
type ProblemCounts struct {
	Total  int `json:"total"`
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// LeetCodeConsistency tracks recent LeetCode cadence.
type LeetCodeConsistency struct {
	SolvedLastWeek int     `json:"solvedLastWeek"`
	WeeklyAverage  float64 `json:"weeklyAverage"`
}

// LeetCodeMetrics is the LeetCode block of a student's metrics.
type LeetCodeMetrics struct {
	ProblemsSolved ProblemCounts       `json:"problemsSolved"`
	Ranking        int                 `json:"ranking"`
	Consistency    LeetCodeConsistency `json:"consistency"`
}

// StudentMetrics is the per-student derived record. It is rebuilt from the full raw history on
// every recomputation and upserted wholesale.
type StudentMetrics struct {
	UserID        string                `json:"userId"`
	Github        GithubMetrics         `json:"github"`
	LeetCode      *LeetCodeMetrics      `json:"leetcode"`
	DailyActivity []DailyActivityRecord `json:"dailyActivity"`
	WeeklyMetrics []WeeklyMetric        `json:"weeklyMetrics"`
	Improvement   Improvement           `json:"improvement"`
	LastUpdated   time.Time             `json:"lastUpdated"`
}
