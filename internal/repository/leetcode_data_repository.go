package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/codepulse-api/internal/models"
)

// LeetCodeDataRepository persists LeetCode snapshots.
type LeetCodeDataRepository struct {
	docs documentTable[models.LeetCodeData]
}

// NewLeetCodeDataRepository constructs the repository.
func NewLeetCodeDataRepository(db *sqlx.DB) *LeetCodeDataRepository {
	return &LeetCodeDataRepository{docs: documentTable[models.LeetCodeData]{db: db, table: "leetcode_data"}}
}

// FindByUserID returns the stored snapshot or nil.
func (r *LeetCodeDataRepository) FindByUserID(ctx context.Context, userID string) (*models.LeetCodeData, error) {
	return r.docs.find(ctx, userID)
}

// Upsert replaces the stored snapshot.
func (r *LeetCodeDataRepository) Upsert(ctx context.Context, data *models.LeetCodeData) error {
	_, err := r.docs.upsert(ctx, data.UserID, *data, data.LastUpdated)
	return err
}
