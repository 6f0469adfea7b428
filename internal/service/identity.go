package service

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

const githubLoginMaxLength = 39

var githubLoginPattern = regexp.MustCompile(`^[a-zA-Z0-9]+(-[a-zA-Z0-9]+)*$`)

// platformIdentity is validated before any provider call is issued.
type platformIdentity struct {
	Github   string `validate:"omitempty,github_username"`
	LeetCode string `validate:"omitempty,max=64"`
}

// ValidGithubLogin reports whether login is a syntactically valid GitHub username: alphanumerics
// separated by single hyphens, at most 39 characters.
func ValidGithubLogin(login string) bool {
	return len(login) <= githubLoginMaxLength && githubLoginPattern.MatchString(login)
}

func newIdentityValidator(validate *validator.Validate) *validator.Validate {
	if validate == nil {
		validate = validator.New()
	}
	_ = validate.RegisterValidation("github_username", func(fl validator.FieldLevel) bool {
		return ValidGithubLogin(fl.Field().String())
	})
	return validate
}
