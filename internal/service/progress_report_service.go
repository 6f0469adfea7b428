package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/codepulse-api/internal/models"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
)

type metricsFinder interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentMetrics, error)
}

// ProgressReportService builds per-student progress reports from stored metrics.
type ProgressReportService struct {
	students StudentRoster
	metrics  metricsFinder
	gate     *StalenessGate
	logger   *zap.Logger
}

// NewProgressReportService constructs the service.
func NewProgressReportService(students StudentRoster, metrics metricsFinder, gate *StalenessGate, logger *zap.Logger) *ProgressReportService {
	if gate == nil {
		gate = NewStalenessGate(DefaultStaleAfter, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressReportService{students: students, metrics: metrics, gate: gate, logger: logger}
}

// Report summarises a student's stored metrics. The period narrows the daily and weekly history
// returned; trends always use the full weekly history.
func (s *ProgressReportService) Report(ctx context.Context, userID string, period models.ReportPeriod) (*models.ProgressReport, error) {
	if !period.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period must be one of week, month, 3months, 6months, year")
	}

	student, err := s.students.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	metrics, err := s.metrics.FindByUserID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load metrics")
	}
	if metrics == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no metrics found for this student")
	}

	daily, weekly := filterHistory(metrics, period, s.gate.Now())
	report := &models.ProgressReport{
		Student: models.ReportStudent{
			ID:               student.ID,
			Name:             student.FullName(),
			Email:            student.Email,
			GithubUsername:   student.Github(),
			LeetCodeUsername: student.LeetCode(),
			ClassID:          student.Class(),
		},
		Period: period,
		CodingActivity: models.CodingActivitySummary{
			TotalCommits:     metrics.Github.Commits.Total,
			RecentCommits:    metrics.Github.Commits.Recent90Days,
			ActiveDaysLast30: metrics.Github.Consistency.Streak.Last30Days,
			CurrentStreak:    metrics.Github.Consistency.Streak.Current,
			LongestStreak:    metrics.Github.Consistency.Streak.Longest,
			WeeklyAverage:    metrics.Github.Consistency.WeeklyAverage,
		},
		Repositories:  metrics.Github.Repositories,
		Improvement:   metrics.Improvement,
		Trends:        AnalyzeTrends(metrics.WeeklyMetrics),
		DailyActivity: daily,
		WeeklyMetrics: weekly,
		LastUpdated:   metrics.LastUpdated,
	}
	if lc := metrics.LeetCode; lc != nil {
		report.LeetCode = &models.LeetCodeSummary{
			TotalSolved:   lc.ProblemsSolved.Total,
			EasySolved:    lc.ProblemsSolved.Easy,
			MediumSolved:  lc.ProblemsSolved.Medium,
			HardSolved:    lc.ProblemsSolved.Hard,
			WeeklyAverage: lc.Consistency.WeeklyAverage,
		}
	}
	return report, nil
}

// filterHistory keeps days on or after the period start and weeks that overlap it.
func filterHistory(metrics *models.StudentMetrics, period models.ReportPeriod, now time.Time) ([]models.DailyActivityRecord, []models.WeeklyMetric) {
	start, bounded := period.Start(now.UTC())
	if !bounded {
		return nonNilDaily(metrics.DailyActivity), nonNilWeekly(metrics.WeeklyMetrics)
	}
	firstDay := truncateDay(start)
	firstWeek := WeekStart(firstDay)

	daily := make([]models.DailyActivityRecord, 0, len(metrics.DailyActivity))
	for _, record := range metrics.DailyActivity {
		if !record.Date.Before(firstDay) {
			daily = append(daily, record)
		}
	}
	weekly := make([]models.WeeklyMetric, 0, len(metrics.WeeklyMetrics))
	for _, week := range metrics.WeeklyMetrics {
		if !week.WeekOf.Before(firstWeek) {
			weekly = append(weekly, week)
		}
	}
	return daily, weekly
}

func nonNilDaily(records []models.DailyActivityRecord) []models.DailyActivityRecord {
	if records == nil {
		return []models.DailyActivityRecord{}
	}
	return records
}

func nonNilWeekly(weeks []models.WeeklyMetric) []models.WeeklyMetric {
	if weeks == nil {
		return []models.WeeklyMetric{}
	}
	return weeks
}
