package attempts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/photoform/internal/common"
	"github.com/dmitrijs2005/photoform/internal/dbx"
	"github.com/dmitrijs2005/photoform/internal/models"
)

// urlSeparator matches the hidden field format.
const urlSeparator = "\n"

// PostgresRepository implements the attempt ledger over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts one attempt row. Exactly one row must be affected.
func (r *PostgresRepository) Create(ctx context.Context, a models.Attempt) error {
	query := `INSERT INTO attempts (id, form_id, outcome, file_count, urls, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	res, err := r.db.ExecContext(ctx, query,
		a.ID, a.FormID, string(a.Outcome), a.FileCount, strings.Join(a.URLs, urlSeparator), a.Error, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

func (r *PostgresRepository) AddTask(ctx context.Context, t models.TaskRecord) error {
	query := `INSERT INTO upload_tasks
		(attempt_id, position, file_name, content_type, size, destination_key, status, url, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		t.AttemptID, t.Position, t.FileName, t.ContentType, t.Size, t.DestinationKey, string(t.Status), t.URL, t.Error)
	if err != nil {
		return fmt.Errorf("insert upload task: %w", err)
	}
	return nil
}

// Get loads an attempt with its tasks ordered by position.
// Returns common.ErrorNotFound when no attempt has the given id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Attempt, []models.TaskRecord, error) {
	query := `SELECT id, form_id, outcome, file_count, urls, error, created_at FROM attempts WHERE id=$1`

	var (
		a       models.Attempt
		outcome string
		urls    string
	)
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&a.ID, &a.FormID, &outcome, &a.FileCount, &urls, &a.Error, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("select attempt: %w", err)
	}
	a.Outcome = models.Outcome(outcome)
	if urls != "" {
		a.URLs = strings.Split(urls, urlSeparator)
	}

	tasks, err := r.tasks(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &a, tasks, nil
}

func (r *PostgresRepository) tasks(ctx context.Context, attemptID string) ([]models.TaskRecord, error) {
	query := `SELECT attempt_id, position, file_name, content_type, size, destination_key, status, url, error
		FROM upload_tasks WHERE attempt_id=$1 ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, attemptID)
	if err != nil {
		return nil, fmt.Errorf("select upload tasks: %w", err)
	}
	defer rows.Close()

	var result []models.TaskRecord
	for rows.Next() {
		var (
			t      models.TaskRecord
			status string
		)
		if err := rows.Scan(&t.AttemptID, &t.Position, &t.FileName, &t.ContentType, &t.Size,
			&t.DestinationKey, &status, &t.URL, &t.Error); err != nil {
			return nil, err
		}
		t.Status = models.TaskStatus(status)
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
