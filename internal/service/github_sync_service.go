package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/codepulse-api/internal/models"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
	"github.com/noah-isme/codepulse-api/pkg/jobs"
	applog "github.com/noah-isme/codepulse-api/pkg/logger"
)

// GithubProvider is the upstream GitHub API.
type GithubProvider interface {
	GetUser(ctx context.Context, login string) (*models.GithubUser, error)
	ListRepos(ctx context.Context, login string) ([]models.Repository, error)
	ListCommits(ctx context.Context, owner, repo string) ([]models.Commit, error)
}

// StudentRoster resolves students and their platform identities.
type StudentRoster interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
	ListAll(ctx context.Context) ([]models.Student, error)
}

// GithubDataStore persists GitHub snapshots.
type GithubDataStore interface {
	FindByUserID(ctx context.Context, userID string) (*models.GithubData, error)
	Upsert(ctx context.Context, data *models.GithubData) error
}

const (
	githubNotFoundMessage = "GitHub user not found"
	defaultRepoPageSize   = 100
	maxEstimatedCommits   = 100.0
)

// GithubSyncConfig tunes the GitHub refresh.
type GithubSyncConfig struct {
	CommitConcurrency int
	ProviderCacheTTL  time.Duration
}

// GithubReposResult is a page of a student's repositories.
type GithubReposResult struct {
	Repos      []models.Repository
	Pagination models.Pagination
	FromCache  bool
	NotFound   bool
	Message    string
	Error      string
}

// GithubSummaryResult is the headline GitHub summary for a student.
type GithubSummaryResult struct {
	Summary   models.GithubSummary
	FromCache bool
	Message   string
}

// GithubSyncService keeps persisted GitHub snapshots fresh.
type GithubSyncService struct {
	students  StudentRoster
	store     GithubDataStore
	provider  GithubProvider
	cache     *CacheService
	gate      *StalenessGate
	validator *validator.Validate
	commits   jobs.BatchConfig
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewGithubSyncService constructs the service.
func NewGithubSyncService(students StudentRoster, store GithubDataStore, provider GithubProvider, cache *CacheService, gate *StalenessGate, validate *validator.Validate, cfg GithubSyncConfig, logger *zap.Logger) *GithubSyncService {
	if gate == nil {
		gate = NewStalenessGate(DefaultStaleAfter, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CommitConcurrency <= 0 {
		cfg.CommitConcurrency = 10
	}
	return &GithubSyncService{
		students:  students,
		store:     store,
		provider:  provider,
		cache:     cache,
		gate:      gate,
		validator: newIdentityValidator(validate),
		commits:   jobs.BatchConfig{Size: cfg.CommitConcurrency},
		cacheTTL:  cfg.ProviderCacheTTL,
		logger:    logger,
	}
}

type githubResolution struct {
	data      *models.GithubData
	fromCache bool
	message   string
	failure   appErrors.Kind
}

// Repos returns a page of the student's repositories with their commit histories.
func (s *GithubSyncService) Repos(ctx context.Context, userID string, force bool, page, limit int) (*GithubReposResult, error) {
	login, err := s.identity(ctx, userID)
	if err != nil {
		return nil, err
	}
	res, err := s.resolve(ctx, userID, login, force)
	if err != nil {
		return nil, err
	}

	result := &GithubReposResult{FromCache: res.fromCache, Message: res.message}
	if res.data == nil {
		result.Repos, result.Pagination = paginateRepos(nil, page, limit)
		result.Error = githubFailureMessage(res.failure)
		return result, nil
	}
	result.NotFound = res.data.NotFound
	result.Repos, result.Pagination = paginateRepos(res.data.Repos, page, limit)
	return result, nil
}

// Summary returns repository totals. Stored commit histories are summarised when present;
// otherwise commit counts are estimated from the repository listing.
func (s *GithubSyncService) Summary(ctx context.Context, userID string, force bool) (*GithubSummaryResult, error) {
	login, err := s.identity(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing, err := s.load(ctx, userID, login)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Summary != nil && existing.Summary.TotalRepos > 0 &&
		!s.gate.IsStale(existing.Summary.UpdatedAt, true, force) {
		return &GithubSummaryResult{Summary: *existing.Summary, FromCache: true}, nil
	}

	now := s.gate.Now().UTC()
	user, err := s.provider.GetUser(ctx, login)
	if err != nil {
		return s.summaryFailure(ctx, userID, login, existing, err)
	}

	var summary models.GithubSummary
	switch {
	case user.PublicRepos == 0:
	case existing != nil && len(existing.Repos) > 0:
		summary = SummarizeRepos(existing.Repos, user.PublicRepos, now)
	default:
		repos, err := s.provider.ListRepos(ctx, login)
		if err != nil {
			return s.summaryFailure(ctx, userID, login, existing, err)
		}
		summary = EstimateSummary(repos, user.PublicRepos, now)
	}
	summary.UpdatedAt = now

	record := &models.GithubData{UserID: userID, GithubID: login, Repos: []models.Repository{}, Valid: true}
	if existing != nil {
		record.Repos = existing.Repos
		record.LastUpdated = existing.LastUpdated
	}
	record.Profile = user
	record.Summary = &summary
	if err := s.persist(ctx, record); err != nil {
		return nil, err
	}
	return &GithubSummaryResult{Summary: summary}, nil
}

// Snapshot resolves the student's GitHub data for metric computation.
func (s *GithubSyncService) Snapshot(ctx context.Context, student models.Student, force bool) models.Snapshot[models.GithubData] {
	login := student.Github()
	if login == "" {
		return models.Absent[models.GithubData]()
	}
	if err := s.validator.Struct(platformIdentity{Github: login}); err != nil {
		return models.Failed[models.GithubData](appErrors.KindValidation)
	}
	res, err := s.resolve(ctx, student.ID, login, force)
	if err != nil {
		s.logger.Warn("github snapshot unavailable", zap.String("user_id", student.ID), zap.Error(err))
		return models.Failed[models.GithubData](appErrors.KindTransient)
	}
	switch {
	case res.data == nil:
		return models.Failed[models.GithubData](res.failure)
	case res.data.NotFound:
		return models.Failed[models.GithubData](appErrors.KindNotFound)
	case res.failure != "":
		return models.Stale(*res.data, res.failure)
	default:
		return models.Present(*res.data, res.fromCache)
	}
}

func (s *GithubSyncService) identity(ctx context.Context, userID string) (string, error) {
	student, err := s.students.FindByID(ctx, userID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil || student.Github() == "" {
		return "", appErrors.Clone(appErrors.ErrNotFound, "student not found or GitHub ID not set")
	}
	if err := s.validator.Struct(platformIdentity{Github: student.Github()}); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid GitHub username")
	}
	return student.Github(), nil
}

// load returns the stored record for the login, ignoring data captured under a previous login.
func (s *GithubSyncService) load(ctx context.Context, userID, login string) (*models.GithubData, error) {
	existing, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load GitHub data")
	}
	if existing != nil && !strings.EqualFold(existing.GithubID, login) {
		return nil, nil
	}
	return existing, nil
}

func (s *GithubSyncService) persist(ctx context.Context, data *models.GithubData) error {
	if err := s.store.Upsert(ctx, data); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store GitHub data")
	}
	return nil
}

func (s *GithubSyncService) resolve(ctx context.Context, userID, login string, force bool) (githubResolution, error) {
	existing, err := s.load(ctx, userID, login)
	if err != nil {
		return githubResolution{}, err
	}
	if !s.gate.GithubReposStale(existing, force) {
		return githubResolution{data: existing, fromCache: true}, nil
	}

	user, repos, err := s.fetch(ctx, login, force)
	if err != nil {
		return s.resolveFailure(ctx, userID, login, existing, err)
	}

	now := s.gate.Now().UTC()
	summary := models.GithubSummary{UpdatedAt: now}
	if len(repos) > 0 {
		summary = SummarizeRepos(repos, user.PublicRepos, now)
		summary.UpdatedAt = now
	}
	data := &models.GithubData{
		UserID:      userID,
		GithubID:    login,
		Summary:     &summary,
		Repos:       repos,
		Profile:     user,
		Valid:       true,
		LastUpdated: now,
	}
	if err := s.persist(ctx, data); err != nil {
		return githubResolution{}, err
	}
	s.logger.Debug("github data refreshed", zap.String("user_id", userID), zap.Int("repos", len(repos)))
	return githubResolution{data: data}, nil
}

func (s *GithubSyncService) resolveFailure(ctx context.Context, userID, login string, existing *models.GithubData, cause error) (githubResolution, error) {
	kind := appErrors.KindOf(cause)
	switch {
	case kind == appErrors.KindNotFound:
		data := s.notFoundRecord(userID, login)
		if err := s.persist(ctx, data); err != nil {
			return githubResolution{}, err
		}
		return githubResolution{data: data, message: githubNotFoundMessage}, nil
	case existing != nil:
		applog.For(ctx, s.logger).Warn("github refresh failed, serving stored data", zap.String("user_id", userID), zap.String("kind", string(kind)), zap.Error(cause))
		return githubResolution{data: existing, fromCache: true, message: FallbackMessage, failure: kind}, nil
	default:
		applog.For(ctx, s.logger).Warn("github refresh failed", zap.String("user_id", userID), zap.String("kind", string(kind)), zap.Error(cause))
		return githubResolution{failure: kind}, nil
	}
}

func (s *GithubSyncService) summaryFailure(ctx context.Context, userID, login string, existing *models.GithubData, cause error) (*GithubSummaryResult, error) {
	kind := appErrors.KindOf(cause)
	switch {
	case kind == appErrors.KindNotFound:
		data := s.notFoundRecord(userID, login)
		if err := s.persist(ctx, data); err != nil {
			return nil, err
		}
		return &GithubSummaryResult{Summary: *data.Summary, Message: githubNotFoundMessage}, nil
	case existing != nil && existing.Summary != nil:
		applog.For(ctx, s.logger).Warn("github summary refresh failed, serving stored summary", zap.String("user_id", userID), zap.Error(cause))
		summary := *existing.Summary
		summary.Error = FallbackMessage
		return &GithubSummaryResult{Summary: summary, FromCache: true, Message: FallbackMessage}, nil
	default:
		applog.For(ctx, s.logger).Warn("github summary refresh failed", zap.String("user_id", userID), zap.Error(cause))
		return &GithubSummaryResult{Summary: models.GithubSummary{Error: githubFailureMessage(kind)}}, nil
	}
}

func (s *GithubSyncService) notFoundRecord(userID, login string) *models.GithubData {
	now := s.gate.Now().UTC()
	return &models.GithubData{
		UserID:      userID,
		GithubID:    login,
		Summary:     &models.GithubSummary{Error: githubNotFoundMessage, UpdatedAt: now},
		Repos:       []models.Repository{},
		NotFound:    true,
		LastUpdated: now,
	}
}

type commitFetch struct {
	commits []models.Commit
	err     error
}

// fetch pulls the profile, the repository listing and every repository's commits. A repository
// whose commits cannot be read keeps an empty history, except that rate limiting aborts the refresh.
func (s *GithubSyncService) fetch(ctx context.Context, login string, force bool) (*models.GithubUser, []models.Repository, error) {
	user, err := s.provider.GetUser(ctx, login)
	if err != nil {
		return nil, nil, err
	}
	if user.PublicRepos == 0 {
		return user, []models.Repository{}, nil
	}

	key := fmt.Sprintf(githubReposCacheKey, strings.ToLower(login))
	var repos []models.Repository
	if !force {
		if hit, _ := s.cache.Get(ctx, key, &repos); hit && len(repos) > 0 {
			return user, repos, nil
		}
	}

	repos, err = s.provider.ListRepos(ctx, login)
	if err != nil {
		return nil, nil, err
	}

	results := jobs.RunBatches(ctx, repos, s.commits, func(ctx context.Context, repo models.Repository) commitFetch {
		commits, err := s.provider.ListCommits(ctx, login, repo.Name)
		if err != nil {
			return commitFetch{commits: []models.Commit{}, err: err}
		}
		return commitFetch{commits: commits}
	})
	for i, res := range results {
		if res.err != nil {
			if appErrors.KindOf(res.err) == appErrors.KindRateLimited {
				return nil, nil, res.err
			}
			if appErrors.KindOf(res.err) != appErrors.KindEmptyRepo {
				s.logger.Debug("commit fetch failed", zap.String("repo", repos[i].FullName), zap.Error(res.err))
			}
		}
		repos[i].Commits = res.commits
		if repos[i].Commits == nil {
			repos[i].Commits = []models.Commit{}
		}
	}

	_ = s.cache.Set(ctx, key, repos, s.cacheTTL)
	return user, repos, nil
}

// SummarizeRepos totals repositories that carry their commit histories. A repository is active
// when its newest commit falls within the last three months.
func SummarizeRepos(repos []models.Repository, publicRepos int, now time.Time) models.GithubSummary {
	cutoff := now.AddDate(0, -3, 0)
	summary := models.GithubSummary{TotalRepos: max(publicRepos, len(repos))}
	for _, repo := range repos {
		summary.TotalCommits += len(repo.Commits)
		summary.TotalStars += repo.Stars
		summary.TotalForks += repo.Forks
		for _, commit := range repo.Commits {
			if commit.Date.After(cutoff) {
				summary.ActiveRepos++
				break
			}
		}
	}
	return summary
}

// EstimateSummary approximates commit totals from repository metadata alone: one commit per 8KB of
// repository size capped at 100, at most two per day of age for repositories younger than 30 days,
// and weighted by 1.5 for repositories pushed within the last three months.
func EstimateSummary(repos []models.Repository, publicRepos int, now time.Time) models.GithubSummary {
	cutoff := now.AddDate(0, -3, 0)
	summary := models.GithubSummary{TotalRepos: max(publicRepos, len(repos))}
	for _, repo := range repos {
		summary.TotalStars += repo.Stars
		summary.TotalForks += repo.Forks
		recent := repo.PushedAt != nil && repo.PushedAt.After(cutoff)
		if recent {
			summary.ActiveRepos++
		}

		estimate := 0.0
		if repo.Size > 0 {
			estimate = math.Min(float64(repo.Size)/8, maxEstimatedCommits)
		}
		if repo.CreatedAt != nil {
			ageDays := math.Ceil(now.Sub(*repo.CreatedAt).Hours() / 24)
			if ageDays < 30 {
				estimate = math.Min(estimate, ageDays*2)
			}
		}
		if recent {
			estimate *= 1.5
		}
		summary.TotalCommits += int(math.Round(estimate))
	}
	return summary
}

func paginateRepos(repos []models.Repository, page, limit int) ([]models.Repository, models.Pagination) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultRepoPageSize
	}
	total := len(repos)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	paged := make([]models.Repository, end-start)
	copy(paged, repos[start:end])
	return paged, models.Pagination{
		Page:       page,
		PageSize:   limit,
		TotalCount: total,
		TotalPages: (total + limit - 1) / limit,
	}
}

func githubFailureMessage(kind appErrors.Kind) string {
	if kind == appErrors.KindRateLimited {
		return "GitHub API rate limit exceeded"
	}
	return "GitHub API error"
}
