package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/codepulse-api/internal/models"
)

// GithubDataRepository persists GitHub snapshots.
type GithubDataRepository struct {
	docs documentTable[models.GithubData]
}

// NewGithubDataRepository constructs the repository.
func NewGithubDataRepository(db *sqlx.DB) *GithubDataRepository {
	return &GithubDataRepository{docs: documentTable[models.GithubData]{db: db, table: "github_data"}}
}

// FindByUserID returns the stored snapshot or nil.
func (r *GithubDataRepository) FindByUserID(ctx context.Context, userID string) (*models.GithubData, error) {
	return r.docs.find(ctx, userID)
}

// Upsert replaces the stored snapshot.
func (r *GithubDataRepository) Upsert(ctx context.Context, data *models.GithubData) error {
	_, err := r.docs.upsert(ctx, data.UserID, *data, data.LastUpdated)
	return err
}

