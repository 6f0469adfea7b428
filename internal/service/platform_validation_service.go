package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/codepulse-api/internal/models"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
	"github.com/noah-isme/codepulse-api/pkg/jobs"
	applog "github.com/noah-isme/codepulse-api/pkg/logger"
)

// Per-student validation errors.
const (
	errGithubInvalidFormat = "Invalid GitHub username format"
	errGithubNotFound      = "GitHub account not found"
	errGithubValidation    = "GitHub validation error"
	errLeetCodeInvalid     = "LeetCode profile not found or invalid"
)

type githubUserLookup interface {
	GetUser(ctx context.Context, login string) (*models.GithubUser, error)
}

type leetcodeProfileLookup interface {
	FetchProfile(ctx context.Context, username string) (*models.LeetCodeProfile, error)
}

type githubDataFinder interface {
	FindByUserID(ctx context.Context, userID string) (*models.GithubData, error)
}

type leetcodeDataFinder interface {
	FindByUserID(ctx context.Context, userID string) (*models.LeetCodeData, error)
}

// PlatformValidationConfig throttles validation batches.
type PlatformValidationConfig struct {
	BatchSize  int
	BatchDelay time.Duration
	ResultTTL  time.Duration
	Sleep      jobs.SleepFunc
}

// PlatformValidationService checks that students' GitHub and LeetCode identities exist.
type PlatformValidationService struct {
	students     StudentRoster
	githubData   githubDataFinder
	leetcodeData leetcodeDataFinder
	github       githubUserLookup
	leetcode     leetcodeProfileLookup
	cache        *CacheService
	gate         *StalenessGate
	validator    *validator.Validate
	batch        jobs.BatchConfig
	resultTTL    time.Duration
	logger       *zap.Logger
}

// NewPlatformValidationService constructs the service.
func NewPlatformValidationService(students StudentRoster, githubData githubDataFinder, leetcodeData leetcodeDataFinder, github githubUserLookup, leetcode leetcodeProfileLookup, cache *CacheService, gate *StalenessGate, validate *validator.Validate, cfg PlatformValidationConfig, logger *zap.Logger) *PlatformValidationService {
	if gate == nil {
		gate = NewStalenessGate(DefaultStaleAfter, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = gate.MaxAge()
	}
	return &PlatformValidationService{
		students:     students,
		githubData:   githubData,
		leetcodeData: leetcodeData,
		github:       github,
		leetcode:     leetcode,
		cache:        cache,
		gate:         gate,
		validator:    newIdentityValidator(validate),
		batch:        jobs.BatchConfig{Size: cfg.BatchSize, Delay: cfg.BatchDelay, Sleep: cfg.Sleep},
		resultTTL:    cfg.ResultTTL,
		logger:       logger,
	}
}

// ValidateClass validates every identity in the class in throttled batches, GitHub first, and
// returns one entry per student in roster order.
func (s *PlatformValidationService) ValidateClass(ctx context.Context, classID string) ([]models.PlatformValidation, error) {
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class students")
	}

	results := make([]models.PlatformValidation, len(students))
	index := make(map[string]int, len(students))
	var withGithub, withLeetCode []models.Student
	for i, student := range students {
		results[i] = models.PlatformValidation{
			StudentID:  student.ID,
			GithubID:   student.GithubID,
			LeetCodeID: student.LeetCodeID,
			Errors:     map[string]string{},
		}
		index[student.ID] = i
		if student.Github() != "" {
			withGithub = append(withGithub, student)
		}
		if student.LeetCode() != "" {
			withLeetCode = append(withLeetCode, student)
		}
	}

	for _, check := range jobs.RunBatches(ctx, withGithub, s.batch, s.checkGithub) {
		if i, ok := index[check.StudentID]; ok {
			results[i].GithubValid = check.Valid
			if check.Error != "" {
				results[i].Errors["github"] = check.Error
			}
		}
	}
	for _, check := range jobs.RunBatches(ctx, withLeetCode, s.batch, s.checkLeetCode) {
		if i, ok := index[check.StudentID]; ok {
			results[i].LeetCodeValid = check.Valid
			if check.Error != "" {
				results[i].Errors["leetcode"] = check.Error
			}
		}
	}

	applog.For(ctx, s.logger).Info("class platforms validated",
		zap.String("class_id", classID),
		zap.Int("students", len(students)),
		zap.Int("github", len(withGithub)),
		zap.Int("leetcode", len(withLeetCode)))
	return results, nil
}

func (s *PlatformValidationService) checkGithub(ctx context.Context, student models.Student) models.IdentityCheck {
	login := student.Github()
	check := models.IdentityCheck{StudentID: student.ID}

	if data, err := s.githubData.FindByUserID(ctx, student.ID); err == nil && data != nil &&
		strings.EqualFold(data.GithubID, login) && !s.gate.IsStale(data.LastUpdated, true, false) {
		check.Valid = data.Valid
		check.FromCache = true
		if data.NotFound {
			check.Error = errGithubNotFound
		}
		return check
	}

	if err := s.validator.Struct(platformIdentity{Github: login}); err != nil {
		check.Error = errGithubInvalidFormat
		return check
	}

	key := fmt.Sprintf(githubValidationCacheKey, strings.ToLower(login))
	if cached, ok := s.cachedCheck(ctx, key, student.ID); ok {
		return cached
	}

	user, err := s.github.GetUser(ctx, login)
	switch {
	case err == nil && user != nil && user.Login != "":
		check.Valid = true
	case appErrors.IsNotFound(err):
		check.Error = errGithubNotFound
	default:
		s.logger.Debug("github validation failed", zap.String("login", login), zap.Error(err))
		check.Error = errGithubValidation
		return check
	}
	_ = s.cache.Set(ctx, key, check, s.resultTTL)
	return check
}

func (s *PlatformValidationService) checkLeetCode(ctx context.Context, student models.Student) models.IdentityCheck {
	username := student.LeetCode()
	check := models.IdentityCheck{StudentID: student.ID}

	if data, err := s.leetcodeData.FindByUserID(ctx, student.ID); err == nil && data != nil &&
		strings.EqualFold(data.LeetCodeID, username) && !s.gate.IsStale(data.LastUpdated, true, false) {
		check.Valid = data.Valid
		check.FromCache = true
		if !data.Valid {
			check.Error = errLeetCodeInvalid
		}
		return check
	}

	if err := s.validator.Struct(platformIdentity{LeetCode: username}); err != nil {
		check.Error = errLeetCodeInvalid
		return check
	}

	key := fmt.Sprintf(leetcodeValidationCacheKey, strings.ToLower(username))
	if cached, ok := s.cachedCheck(ctx, key, student.ID); ok {
		return cached
	}

	profile, err := s.leetcode.FetchProfile(ctx, username)
	check.Error = errLeetCodeInvalid
	switch {
	case err == nil && profile != nil && profile.BasicProfile.Username != "":
		check.Valid = true
		check.Error = ""
	case err == nil || appErrors.IsNotFound(err):
	default:
		s.logger.Debug("leetcode validation failed", zap.String("username", username), zap.Error(err))
		return check
	}
	_ = s.cache.Set(ctx, key, check, s.resultTTL)
	return check
}

func (s *PlatformValidationService) cachedCheck(ctx context.Context, key, studentID string) (models.IdentityCheck, bool) {
	var cached models.IdentityCheck
	if hit, _ := s.cache.Get(ctx, key, &cached); !hit {
		return cached, false
	}
	cached.StudentID = studentID
	cached.FromCache = true
	return cached, true
}
