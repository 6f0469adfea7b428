package models

// PlatformValidation is the per-student outcome of a platform identity check.
type PlatformValidation struct {
	StudentID     string            `json:"studentId"`
	GithubID      *string           `json:"githubID"`
	LeetCodeID    *string           `json:"leetCodeID"`
	GithubValid   bool              `json:"githubValid"`
	LeetCodeValid bool              `json:"leetcodeValid"`
	Errors        map[string]string `json:"errors"`
}

// IdentityCheck is the outcome of validating one identity on one platform.
type IdentityCheck struct {
	StudentID string `json:"studentId"`
	Valid     bool   `json:"valid"`
	FromCache bool   `json:"fromCache"`
	Error     string `json:"error,omitempty"`
}
