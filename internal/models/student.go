package models

// Student is the read-only roster entry used to resolve platform identities.
type Student struct {
	ID         string  `db:"id" json:"id"`
	FirstName  string  `db:"first_name" json:"firstName"`
	LastName   string  `db:"last_name" json:"lastName"`
	Email      string  `db:"email" json:"email"`
	GithubID   *string `db:"github_id" json:"githubId,omitempty"`
	LeetCodeID *string `db:"leetcode_id" json:"leetCodeId,omitempty"`
	ClassID    *string `db:"class_id" json:"classId,omitempty"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// Github returns the GitHub login or an empty string.
func (s Student) Github() string {
	if s.GithubID == nil {
		return ""
	}
	return *s.GithubID
}

// LeetCode returns the LeetCode username or an empty string.
func (s Student) LeetCode() string {
	if s.LeetCodeID == nil {
		return ""
	}
	return *s.LeetCodeID
}

// Class returns the class ID or an empty string.
func (s Student) Class() string {
	if s.ClassID == nil {
		return ""
	}
	return *s.ClassID
}
