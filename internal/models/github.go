package models

import "time"

// Commit is a single commit as returned by the GitHub provider.
type Commit struct {
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
	URL     string    `json:"url"`
	Author  string    `json:"author"`
	SHA     string    `json:"sha"`
}

// Repository is a GitHub repository optionally carrying its commit history.
type Repository struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	FullName    string     `json:"full_name"`
	Description string     `json:"description,omitempty"`
	HTMLURL     string     `json:"html_url"`
	Language    string     `json:"language,omitempty"`
	Stars       int        `json:"stargazers_count"`
	Forks       int        `json:"forks_count"`
	Size        int        `json:"size"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	PushedAt    *time.Time `json:"pushed_at,omitempty"`
	Commits     []Commit   `json:"commits,omitempty"`
}

// GithubUser is the subset of the GitHub user profile used for validation and repo counts.
type GithubUser struct {
	Login       string `json:"login"`
	AvatarURL   string `json:"avatar_url"`
	HTMLURL     string `json:"html_url"`
	Bio         string `json:"bio,omitempty"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

// GithubSummary is the headline repository summary for a student. It carries its own
// timestamp because it can be refreshed without refetching commit histories.
type GithubSummary struct {
	TotalRepos   int       `json:"totalRepos"`
	TotalCommits int       `json:"totalCommits"`
	ActiveRepos  int       `json:"activeRepos"`
	TotalStars   int       `json:"totalStars"`
	TotalForks   int       `json:"totalForks"`
	Error        string    `json:"error,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// GithubData is the persisted GitHub snapshot for a student.
type GithubData struct {
	UserID      string         `json:"userId"`
	GithubID    string         `json:"githubId"`
	Summary     *GithubSummary `json:"summary,omitempty"`
	Repos       []Repository   `json:"repos"`
	Profile     *GithubUser    `json:"profile,omitempty"`
	Valid       bool           `json:"isValid"`
	NotFound    bool           `json:"notFound"`
	LastUpdated time.Time      `json:"lastUpdated"`
}
