package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

// documentRow is the shape shared by the per-student JSONB document tables.
type documentRow struct {
	UserID      string         `db:"user_id"`
	Payload     types.JSONText `db:"payload"`
	LastUpdated time.Time      `db:"last_updated"`
}

// documentTable stores one JSON document per student, replaced wholesale on every upsert.
type documentTable[T any] struct {
	db    *sqlx.DB
	table string
}

func (t documentTable[T]) find(ctx context.Context, userID string) (*T, error) {
	query := fmt.Sprintf(`SELECT user_id, payload, last_updated FROM %s WHERE user_id = $1`, t.table)
	var row documentRow
	if err := t.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s %s: %w", t.table, userID, err)
	}
	var doc T
	if err := row.Payload.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", t.table, userID, err)
	}
	return &doc, nil
}

// upsert writes the document and reports whether a new row was inserted.
func (t documentTable[T]) upsert(ctx context.Context, userID string, doc T, lastUpdated time.Time) (bool, error) {
	payload, err := marshalJSON(doc)
	if err != nil {
		return false, fmt.Errorf("encode %s %s: %w", t.table, userID, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (user_id, payload, last_updated)
VALUES ($1, $2, $3)
ON CONFLICT (user_id)
DO UPDATE SET payload = EXCLUDED.payload, last_updated = EXCLUDED.last_updated
RETURNING (xmax = 0) AS inserted`, t.table)

	var inserted bool
	if err := t.db.GetContext(ctx, &inserted, query, userID, payload, lastUpdated.UTC()); err != nil {
		return false, fmt.Errorf("upsert %s %s: %w", t.table, userID, err)
	}
	return inserted, nil
}

func (t documentTable[T]) listByUserIDs(ctx context.Context, userIDs []string) ([]T, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT user_id, payload, last_updated FROM %s WHERE user_id IN (?) ORDER BY user_id`, t.table), userIDs)
	if err != nil {
		return nil, fmt.Errorf("build %s lookup: %w", t.table, err)
	}

	var rows []documentRow
	if err := t.db.SelectContext(ctx, &rows, t.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", t.table, err)
	}

	docs := make([]T, 0, len(rows))
	for _, row := range rows {
		var doc T
		if err := row.Payload.Unmarshal(&doc); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", t.table, row.UserID, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func marshalJSON(v interface{}) (types.JSONText, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return types.JSONText(raw), nil
}
