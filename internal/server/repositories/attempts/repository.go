package attempts

import (
	"context"

	"github.com/dmitrijs2005/photoform/internal/models"
)

type Repository interface {
	Create(ctx context.Context, a models.Attempt) error
	AddTask(ctx context.Context, t models.TaskRecord) error
	Get(ctx context.Context, id string) (*models.Attempt, []models.TaskRecord, error)
}
