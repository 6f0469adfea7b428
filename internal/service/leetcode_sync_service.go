package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/codepulse-api/internal/models"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
	applog "github.com/noah-isme/codepulse-api/pkg/logger"
)

// LeetCodeProvider is the upstream LeetCode profile API.
type LeetCodeProvider interface {
	FetchProfile(ctx context.Context, username string) (*models.LeetCodeProfile, error)
}

// LeetCodeDataStore persists LeetCode snapshots.
type LeetCodeDataStore interface {
	FindByUserID(ctx context.Context, userID string) (*models.LeetCodeData, error)
	Upsert(ctx context.Context, data *models.LeetCodeData) error
}

const leetcodeNotFoundMessage = "Invalid LeetCode account"

// LeetCodeProfileResult is a student's LeetCode profile with its provenance.
type LeetCodeProfileResult struct {
	Profile   *models.LeetCodeProfile
	FromCache bool
	NotFound  bool
	Message   string
	Error     string
}

// LeetCodeSyncService keeps persisted LeetCode snapshots fresh.
type LeetCodeSyncService struct {
	students  StudentRoster
	store     LeetCodeDataStore
	provider  LeetCodeProvider
	gate      *StalenessGate
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeetCodeSyncService constructs the service.
func NewLeetCodeSyncService(students StudentRoster, store LeetCodeDataStore, provider LeetCodeProvider, gate *StalenessGate, validate *validator.Validate, logger *zap.Logger) *LeetCodeSyncService {
	if gate == nil {
		gate = NewStalenessGate(DefaultStaleAfter, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeetCodeSyncService{
		students:  students,
		store:     store,
		provider:  provider,
		gate:      gate,
		validator: newIdentityValidator(validate),
		logger:    logger,
	}
}

type leetcodeResolution struct {
	data      *models.LeetCodeData
	fromCache bool
	message   string
	failure   appErrors.Kind
}

// Profile returns the student's combined LeetCode profile.
func (s *LeetCodeSyncService) Profile(ctx context.Context, userID string, force bool) (*LeetCodeProfileResult, error) {
	student, err := s.students.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil || student.LeetCode() == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found or LeetCode ID not set")
	}
	if err := s.validator.Struct(platformIdentity{LeetCode: student.LeetCode()}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid LeetCode username")
	}

	res, err := s.resolve(ctx, userID, student.LeetCode(), force)
	if err != nil {
		return nil, err
	}
	result := &LeetCodeProfileResult{FromCache: res.fromCache, Message: res.message}
	switch {
	case res.data == nil:
		result.Error = leetcodeFailureMessage(res.failure)
	case res.data.NotFound:
		result.NotFound = true
		result.Message = leetcodeNotFoundMessage
	default:
		result.Profile = res.data.Profile
	}
	return result, nil
}

// Snapshot resolves the student's LeetCode profile for metric computation.
func (s *LeetCodeSyncService) Snapshot(ctx context.Context, student models.Student, force bool) models.Snapshot[models.LeetCodeProfile] {
	username := student.LeetCode()
	if username == "" {
		return models.Absent[models.LeetCodeProfile]()
	}
	if err := s.validator.Struct(platformIdentity{LeetCode: username}); err != nil {
		return models.Failed[models.LeetCodeProfile](appErrors.KindValidation)
	}
	res, err := s.resolve(ctx, student.ID, username, force)
	if err != nil {
		s.logger.Warn("leetcode snapshot unavailable", zap.String("user_id", student.ID), zap.Error(err))
		return models.Failed[models.LeetCodeProfile](appErrors.KindTransient)
	}
	switch {
	case res.data == nil:
		return models.Failed[models.LeetCodeProfile](res.failure)
	case res.data.NotFound || res.data.Profile == nil:
		return models.Failed[models.LeetCodeProfile](appErrors.KindNotFound)
	case res.failure != "":
		return models.Stale(*res.data.Profile, res.failure)
	default:
		return models.Present(*res.data.Profile, res.fromCache)
	}
}

func (s *LeetCodeSyncService) resolve(ctx context.Context, userID, username string, force bool) (leetcodeResolution, error) {
	existing, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		return leetcodeResolution{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load LeetCode data")
	}
	if existing != nil && !strings.EqualFold(existing.LeetCodeID, username) {
		existing = nil
	}
	if !s.gate.LeetCodeStale(existing, force) {
		return leetcodeResolution{data: existing, fromCache: true}, nil
	}

	profile, err := s.provider.FetchProfile(ctx, username)
	if err == nil && profile.BasicProfile.Username == "" {
		err = appErrors.NewProviderError("leetcode", appErrors.KindNotFound, 0, nil)
	}
	if err != nil {
		kind := appErrors.KindOf(err)
		switch {
		case kind == appErrors.KindNotFound:
			data := &models.LeetCodeData{UserID: userID, LeetCodeID: username, NotFound: true, LastUpdated: s.gate.Now().UTC()}
			if err := s.persist(ctx, data); err != nil {
				return leetcodeResolution{}, err
			}
			return leetcodeResolution{data: data}, nil
		case existing != nil && existing.Profile != nil:
			applog.For(ctx, s.logger).Warn("leetcode refresh failed, serving stored data", zap.String("user_id", userID), zap.String("kind", string(kind)), zap.Error(err))
			return leetcodeResolution{data: existing, fromCache: true, message: FallbackMessage, failure: kind}, nil
		default:
			applog.For(ctx, s.logger).Warn("leetcode refresh failed", zap.String("user_id", userID), zap.String("kind", string(kind)), zap.Error(err))
			return leetcodeResolution{failure: kind}, nil
		}
	}

	data := &models.LeetCodeData{
		UserID:      userID,
		LeetCodeID:  username,
		Profile:     profile,
		Valid:       true,
		LastUpdated: s.gate.Now().UTC(),
	}
	if err := s.persist(ctx, data); err != nil {
		return leetcodeResolution{}, err
	}
	return leetcodeResolution{data: data}, nil
}

func (s *LeetCodeSyncService) persist(ctx context.Context, data *models.LeetCodeData) error {
	if err := s.store.Upsert(ctx, data); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store LeetCode data")
	}
	return nil
}

func leetcodeFailureMessage(kind appErrors.Kind) string {
	if kind == appErrors.KindRateLimited {
		return "LeetCode API rate limit exceeded"
	}
	return "LeetCode API error"
}
