package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/codepulse-api/internal/models"
)

const studentColumns = `id, first_name, last_name, email, github_id, leetcode_id, class_id`

// StudentRepository reads the student roster. Roster maintenance happens elsewhere.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student or nil when the ID is unknown.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student %s: %w", id, err)
	}
	return &student, nil
}

// ListByClass returns the students of a class ordered by name.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE class_id = $1 ORDER BY first_name, last_name, id`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list students for class %s: %w", classID, err)
	}
	return students, nil
}

// ListAll returns every student ordered by name.
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY first_name, last_name, id`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}
