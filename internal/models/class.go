package models

// StreakAverages holds mean streak values.
type StreakAverages struct {
	Current    float64 `json:"current"`
	Longest    float64 `json:"longest"`
	Last30Days float64 `json:"last30Days"`
}

// ConsistencyAverages holds mean consistency values.
type ConsistencyAverages struct {
	Streak        StreakAverages `json:"streak"`
	WeeklyAverage float64        `json:"weeklyAverage"`
}

// CommitAverages holds mean commit counts.
type CommitAverages struct {
	Total        float64 `json:"total"`
	Recent90Days float64 `json:"recent90Days"`
}

// RepositoryAverages holds mean repository counts.
type RepositoryAverages struct {
	Total  float64 `json:"total"`
	Active float64 `json:"active"`
}

// GithubAverages is the GitHub portion of class averages. The same shape carries percentage
// differences in a MetricsComparison.
type GithubAverages struct {
	Commits      CommitAverages      `json:"commits"`
	Repositories RepositoryAverages  `json:"repositories"`
	Consistency  ConsistencyAverages `json:"consistency"`
}

// ProblemAverages holds mean LeetCode solved counts.
type ProblemAverages struct {
	Total  float64 `json:"total"`
	Easy   float64 `json:"easy"`
	Medium float64 `json:"medium"`
	Hard   float64 `json:"hard"`
}

// LeetCodeAverages is the LeetCode portion of class averages.
type LeetCodeAverages struct {
	ProblemsSolved ProblemAverages `json:"problemsSolved"`
}

// ClassAverages is an ephemeral aggregate over a set of student metrics.
type ClassAverages struct {
	Github   *GithubAverages   `json:"github"`
	LeetCode *LeetCodeAverages `json:"leetcode"`
}

// MetricsComparison expresses a student's metrics as percentage difference from class averages.
type MetricsComparison struct {
	Github   *GithubAverages   `json:"github"`
	LeetCode *LeetCodeAverages `json:"leetcode"`
}

// StudentComparison bundles a student's metrics with class averages and the comparison.
type StudentComparison struct {
	Comparison     *MetricsComparison `json:"comparison"`
	StudentMetrics *StudentMetrics    `json:"studentMetrics"`
	ClassAverages  *ClassAverages     `json:"classAverages"`
}

// ClassAverageReport is returned for a class averages request.
type ClassAverageReport struct {
	ClassID        string         `json:"classId"`
	ClassSize      int            `json:"classSize"`
	AverageMetrics *ClassAverages `json:"averageMetrics"`
}

// PlatformEngagement is the share of students active on each platform, in percent.
type PlatformEngagement struct {
	Github   float64 `json:"github"`
	LeetCode float64 `json:"leetcode"`
}

// ContributorRank is an entry of a class leaderboard.
type ContributorRank struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Value     int    `json:"value"`
}

// ClassOverview summarises platform engagement across a class or the whole roster.
type ClassOverview struct {
	ClassID                string             `json:"classId,omitempty"`
	TotalStudents          int                `json:"totalStudents"`
	GithubActiveStudents   int                `json:"githubActiveStudents"`
	LeetCodeActiveStudents int                `json:"leetcodeActiveStudents"`
	PlatformEngagement     PlatformEngagement `json:"platformEngagement"`
	TopGithubStudents      []ContributorRank  `json:"topGitHubStudents"`
	TopLeetCodeStudents    []ContributorRank  `json:"topLeetCodeStudents"`
}
