// Package services holds the server-side business logic around the
// attempt ledger.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/photoform/internal/dbx"
	"github.com/dmitrijs2005/photoform/internal/models"
	"github.com/dmitrijs2005/photoform/internal/server/repositories/repomanager"
)

// AttemptService persists settled submission attempts together with their
// upload tasks. A nil *AttemptService is a valid no-op recorder.
type AttemptService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewAttemptService(db *sql.DB, m repomanager.RepositoryManager) *AttemptService {
	return &AttemptService{db: db, repomanager: m}
}

// Record writes the attempt and every task in a single transaction.
func (s *AttemptService) Record(ctx context.Context, a models.Attempt, tasks []models.UploadTask) error {
	if s == nil || s.db == nil {
		return nil
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Attempts(tx)
		if err := repo.Create(ctx, a); err != nil {
			return fmt.Errorf("error creating attempt: %w", err)
		}
		for _, rec := range models.NewTaskRecords(a.ID, tasks) {
			if err := repo.AddTask(ctx, rec); err != nil {
				return fmt.Errorf("error adding task %d: %w", rec.Position, err)
			}
		}
		return nil
	})
}

// Get returns a recorded attempt with its tasks.
func (s *AttemptService) Get(ctx context.Context, id string) (*models.Attempt, []models.TaskRecord, error) {
	return s.repomanager.Attempts(s.db).Get(ctx, id)
}
