package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/codepulse-api/internal/models"
)

// StudentMetricsRepository persists derived per-student metrics.
type StudentMetricsRepository struct {
	docs documentTable[models.StudentMetrics]
}

// NewStudentMetricsRepository constructs the repository.
func NewStudentMetricsRepository(db *sqlx.DB) *StudentMetricsRepository {
	return &StudentMetricsRepository{docs: documentTable[models.StudentMetrics]{db: db, table: "student_metrics"}}
}

// FindByUserID returns the stored metrics or nil when none exist.
func (r *StudentMetricsRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentMetrics, error) {
	return r.docs.find(ctx, userID)
}

// Upsert replaces the stored metrics and reports whether the record was created.
func (r *StudentMetricsRepository) Upsert(ctx context.Context, metrics *models.StudentMetrics) (bool, error) {
	return r.docs.upsert(ctx, metrics.UserID, *metrics, metrics.LastUpdated)
}

// ListByUserIDs returns stored metrics for the given students. Students without metrics are skipped.
func (r *StudentMetricsRepository) ListByUserIDs(ctx context.Context, userIDs []string) ([]models.StudentMetrics, error) {
	return r.docs.listByUserIDs(ctx, userIDs)
}
