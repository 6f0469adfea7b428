package models

import "time"

// LeetCodeBasicProfile mirrors the profile endpoint of the LeetCode API.
type LeetCodeBasicProfile struct {
	Username           string `json:"username"`
	Name               string `json:"name,omitempty"`
	Ranking            int    `json:"ranking"`
	ContributionPoints int    `json:"contributionPoint,omitempty"`
	Reputation         int    `json:"reputation,omitempty"`
}

// LeetCodeSolvedProfile mirrors the solved-problem breakdown.
type LeetCodeSolvedProfile struct {
	SolvedProblem  int     `json:"solvedProblem"`
	EasySolved     int     `json:"easySolved"`
	MediumSolved   int     `json:"mediumSolved"`
	HardSolved     int     `json:"hardSolved"`
	AcceptanceRate float64 `json:"acceptanceRate,omitempty"`
	SubmissionRate float64 `json:"submissionRate,omitempty"`
}

// LeetCodeContests mirrors contest participation stats.
type LeetCodeContests struct {
	AttendedContestsCount int     `json:"contestAttend"`
	Rating                float64 `json:"contestRating"`
	GlobalRanking         int     `json:"contestGlobalRanking"`
	TotalParticipants     int     `json:"totalParticipants"`
	TopPercentage         float64 `json:"contestTopPercentage"`
}

// LeetCodeBadge is a profile badge.
type LeetCodeBadge struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName"`
	Icon        string `json:"icon,omitempty"`
	Category    string `json:"category,omitempty"`
}

// LeetCodeSubmission is a single accepted submission.
type LeetCodeSubmission struct {
	Title     string    `json:"title"`
	TitleSlug string    `json:"titleSlug,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LeetCodeProfile combines every LeetCode endpoint for one account.
type LeetCodeProfile struct {
	BasicProfile    LeetCodeBasicProfile  `json:"basicProfile"`
	Badges          []LeetCodeBadge       `json:"badges"`
	CompleteProfile LeetCodeSolvedProfile `json:"completeProfile"`
	Contests        LeetCodeContests      `json:"contests"`
	Calendar        map[string]int        `json:"calendar,omitempty"`
	Submissions     []LeetCodeSubmission  `json:"submissions,omitempty"`
}

// LeetCodeData is the persisted LeetCode snapshot for a student.
type LeetCodeData struct {
	UserID      string           `json:"userId"`
	LeetCodeID  string           `json:"leetCodeId"`
	Profile     *LeetCodeProfile `json:"profile,omitempty"`
	Valid       bool             `json:"isValid"`
	NotFound    bool             `json:"notFound"`
	LastUpdated time.Time        `json:"lastUpdated"`
}
