package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/codepulse-api/internal/models"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
	applog "github.com/noah-isme/codepulse-api/pkg/logger"
)

// StudentMetricsStore persists derived student metrics.
type StudentMetricsStore interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentMetrics, error)
	Upsert(ctx context.Context, metrics *models.StudentMetrics) (bool, error)
	ListByUserIDs(ctx context.Context, userIDs []string) ([]models.StudentMetrics, error)
}

type githubSnapshotter interface {
	Snapshot(ctx context.Context, student models.Student, force bool) models.Snapshot[models.GithubData]
}

type leetcodeSnapshotter interface {
	Snapshot(ctx context.Context, student models.Student, force bool) models.Snapshot[models.LeetCodeProfile]
}

// UpdateMetricsRequest carries raw provider history to recompute metrics from.
type UpdateMetricsRequest struct {
	Repos    []models.Repository     `json:"repos" validate:"max=1000"`
	LeetCode *models.LeetCodeProfile `json:"leetcode"`
}

// MetricsResult is a student's metrics with their provenance.
type MetricsResult struct {
	Metrics   *models.StudentMetrics
	Created   bool
	FromCache bool
	Message   string
	Error     string
	Sources   map[string]string
}

// StudentMetricsService recomputes and serves per-student metrics.
type StudentMetricsService struct {
	students  StudentRoster
	store     StudentMetricsStore
	github    githubSnapshotter
	leetcode  leetcodeSnapshotter
	cache     *CacheService
	gate      *StalenessGate
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentMetricsService constructs the service.
func NewStudentMetricsService(students StudentRoster, store StudentMetricsStore, github githubSnapshotter, leetcode leetcodeSnapshotter, cache *CacheService, gate *StalenessGate, validate *validator.Validate, logger *zap.Logger) *StudentMetricsService {
	if gate == nil {
		gate = NewStalenessGate(DefaultStaleAfter, nil)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentMetricsService{
		students:  students,
		store:     store,
		github:    github,
		leetcode:  leetcode,
		cache:     cache,
		gate:      gate,
		validator: validate,
		logger:    logger,
	}
}

// Get returns the stored metrics for a student.
func (s *StudentMetricsService) Get(ctx context.Context, userID string) (*models.StudentMetrics, error) {
	metrics, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load metrics")
	}
	if metrics == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no metrics found for this student")
	}
	return metrics, nil
}

// Update recomputes metrics from the supplied history and replaces the stored record.
func (s *StudentMetricsService) Update(ctx context.Context, userID string, req UpdateMetricsRequest) (*MetricsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	student, err := s.student(ctx, userID)
	if err != nil {
		return nil, err
	}

	metrics := BuildStudentMetrics(userID, req.Repos, req.LeetCode, s.gate.Now())
	created, err := s.persist(ctx, student, &metrics)
	if err != nil {
		return nil, err
	}
	return &MetricsResult{Metrics: &metrics, Created: created}, nil
}

// Refresh recomputes metrics from provider snapshots once the stored record is stale. When a
// provider cannot be reached the stored metrics are served instead; with none stored a zeroed
// result is returned without being persisted.
func (s *StudentMetricsService) Refresh(ctx context.Context, userID string, force bool) (*MetricsResult, error) {
	student, err := s.student(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load metrics")
	}
	if !s.gate.MetricsStale(existing, force) {
		return &MetricsResult{Metrics: existing, FromCache: true}, nil
	}

	gh := s.github.Snapshot(ctx, *student, force)
	lc := s.leetcode.Snapshot(ctx, *student, force)
	sources := map[string]string{"github": sourceState(gh.State(), gh.Degraded()), "leetcode": sourceState(lc.State(), lc.Degraded())}

	var (
		repos    []models.Repository
		profile  *models.LeetCodeProfile
		degraded appErrors.Kind
	)
	if gh.State() == models.SnapshotPresent {
		repos = gh.Data().Repos
	}
	if lc.State() == models.SnapshotPresent {
		data := lc.Data()
		profile = &data
	}
	// Stored provider data served after a failed fetch degrades the refresh like a failure does.
	for _, kind := range []appErrors.Kind{gh.ErrorKind(), lc.ErrorKind()} {
		if kind.Retryable() && degraded == "" {
			degraded = kind
		}
	}

	metrics := BuildStudentMetrics(userID, repos, profile, s.gate.Now())
	if degraded != "" {
		applog.For(ctx, s.logger).Warn("metrics refresh degraded", zap.String("user_id", userID), zap.String("kind", string(degraded)))
		if existing != nil {
			return &MetricsResult{Metrics: existing, FromCache: true, Message: FallbackMessage, Sources: sources}, nil
		}
		return &MetricsResult{Metrics: &metrics, Error: "provider data unavailable", Sources: sources}, nil
	}

	created, err := s.persist(ctx, student, &metrics)
	if err != nil {
		return nil, err
	}
	return &MetricsResult{Metrics: &metrics, Created: created, Sources: sources}, nil
}

func sourceState(state models.SnapshotState, degraded bool) string {
	if degraded {
		return "stale"
	}
	return state.String()
}

func (s *StudentMetricsService) student(ctx context.Context, userID string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

func (s *StudentMetricsService) persist(ctx context.Context, student *models.Student, metrics *models.StudentMetrics) (bool, error) {
	created, err := s.store.Upsert(ctx, metrics)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store metrics")
	}
	_ = s.cache.InvalidateClass(ctx, student.Class())
	return created, nil
}
