package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/codepulse-api/internal/models"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
)

const (
	topContributorLimit = 5
	allStudentsScope    = "all"
)

type metricsLister interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentMetrics, error)
	ListByUserIDs(ctx context.Context, userIDs []string) ([]models.StudentMetrics, error)
}

// ClassAnalyticsService aggregates stored student metrics per class.
type ClassAnalyticsService struct {
	students StudentRoster
	metrics  metricsLister
	cache    *CacheService
	stats    *MetricsService
	ttl      time.Duration
	logger   *zap.Logger
}

// NewClassAnalyticsService constructs the service.
func NewClassAnalyticsService(students StudentRoster, metrics metricsLister, cache *CacheService, stats *MetricsService, ttl time.Duration, logger *zap.Logger) *ClassAnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassAnalyticsService{students: students, metrics: metrics, cache: cache, stats: stats, ttl: ttl, logger: logger}
}

// Averages returns the class-wide metric averages. The bool reports a cache hit.
func (s *ClassAnalyticsService) Averages(ctx context.Context, classID string) (*models.ClassAverageReport, bool, error) {
	key := fmt.Sprintf(classAveragesCacheKey, classID)
	return remember(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*models.ClassAverageReport, error) {
		students, err := s.classRoster(ctx, classID)
		if err != nil {
			return nil, err
		}
		all, err := s.metricsFor(ctx, students, "")
		if err != nil {
			return nil, err
		}
		return &models.ClassAverageReport{
			ClassID:        classID,
			ClassSize:      len(students),
			AverageMetrics: CalculateClassAverages(all),
		}, nil
	})
}

// CompareStudent compares a student's metrics with the averages of their classmates.
func (s *ClassAnalyticsService) CompareStudent(ctx context.Context, userID string) (*models.StudentComparison, error) {
	studentMetrics, err := s.metrics.FindByUserID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load metrics")
	}
	if studentMetrics == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no metrics found for this student")
	}

	student, err := s.students.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil || student.Class() == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found or not assigned to a class")
	}

	roster, err := s.students.ListByClass(ctx, student.Class())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classmates")
	}
	hasClassmates := false
	for _, mate := range roster {
		if mate.ID != userID {
			hasClassmates = true
			break
		}
	}
	if !hasClassmates {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no other students found in this class for comparison")
	}
	classmates, err := s.metricsFor(ctx, roster, userID)
	if err != nil {
		return nil, err
	}

	averages := CalculateClassAverages(classmates)
	return &models.StudentComparison{
		Comparison:     CompareMetrics(studentMetrics, averages),
		StudentMetrics: studentMetrics,
		ClassAverages:  averages,
	}, nil
}

// Overview summarises platform engagement and top contributors for a class. An empty classID
// covers the whole roster. The bool reports a cache hit.
func (s *ClassAnalyticsService) Overview(ctx context.Context, classID string) (*models.ClassOverview, bool, error) {
	scope := classID
	if scope == "" {
		scope = allStudentsScope
	}
	return remember(ctx, s.cache, fmt.Sprintf(classOverviewCacheKey, scope), s.ttl, func(ctx context.Context) (*models.ClassOverview, error) {
		var (
			students []models.Student
			err      error
		)
		if classID == "" {
			students, err = s.students.ListAll(ctx)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
			}
		} else if students, err = s.classRoster(ctx, classID); err != nil {
			return nil, err
		}

		all, err := s.metricsFor(ctx, students, "")
		if err != nil {
			return nil, err
		}
		return BuildOverview(classID, students, all), nil
	})
}

// BuildOverview ranks students by commits and by LeetCode problems solved. Students without
// activity on a platform are left out of its leaderboard; ties keep roster order.
func BuildOverview(classID string, students []models.Student, metrics []models.StudentMetrics) *models.ClassOverview {
	byUser := make(map[string]models.StudentMetrics, len(metrics))
	for _, m := range metrics {
		byUser[m.UserID] = m
	}

	overview := &models.ClassOverview{
		ClassID:             classID,
		TotalStudents:       len(students),
		TopGithubStudents:   []models.ContributorRank{},
		TopLeetCodeStudents: []models.ContributorRank{},
	}
	for _, student := range students {
		m, ok := byUser[student.ID]
		if !ok {
			continue
		}
		if m.Github.Repositories.Total > 0 {
			overview.GithubActiveStudents++
		}
		if commits := m.Github.Commits.Total; commits > 0 {
			overview.TopGithubStudents = append(overview.TopGithubStudents, rankOf(student, commits))
		}
		if m.LeetCode != nil {
			overview.LeetCodeActiveStudents++
			if solved := m.LeetCode.ProblemsSolved.Total; solved > 0 {
				overview.TopLeetCodeStudents = append(overview.TopLeetCodeStudents, rankOf(student, solved))
			}
		}
	}

	overview.TopGithubStudents = topRanks(overview.TopGithubStudents)
	overview.TopLeetCodeStudents = topRanks(overview.TopLeetCodeStudents)
	if overview.TotalStudents > 0 {
		total := float64(overview.TotalStudents)
		overview.PlatformEngagement = models.PlatformEngagement{
			Github:   roundTo(float64(overview.GithubActiveStudents)/total*100, 1),
			LeetCode: roundTo(float64(overview.LeetCodeActiveStudents)/total*100, 1),
		}
	}
	return overview
}

func rankOf(student models.Student, value int) models.ContributorRank {
	return models.ContributorRank{UserID: student.ID, FirstName: student.FirstName, LastName: student.LastName, Value: value}
}

func topRanks(ranks []models.ContributorRank) []models.ContributorRank {
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Value > ranks[j].Value })
	if len(ranks) > topContributorLimit {
		ranks = ranks[:topContributorLimit]
	}
	return ranks
}

func (s *ClassAnalyticsService) classRoster(ctx context.Context, classID string) ([]models.Student, error) {
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class students")
	}
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no students found in this class")
	}
	return students, nil
}

// metricsFor loads stored metrics for the students, leaving out exclude.
func (s *ClassAnalyticsService) metricsFor(ctx context.Context, students []models.Student, exclude string) ([]models.StudentMetrics, error) {
	ids := make([]string, 0, len(students))
	for _, student := range students {
		if student.ID != exclude {
			ids = append(ids, student.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	start := time.Now()
	metrics, err := s.metrics.ListByUserIDs(ctx, ids)
	s.stats.ObserveDBQuery("class_metrics", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class metrics")
	}
	return metrics, nil
}
