package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmarjanovic/tasklist-api/internal/model"
)

// UserRepository определяет интерфейс для работы с пользователями
type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// TaskRepository определяет интерфейс для работы с задачами.
// Все мутации фильтруются по (id, owner_id) одним запросом.
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id, ownerID uuid.UUID) (model.Task, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	Reorder(ctx context.Context, ownerID uuid.UUID, orderedIDs []uuid.UUID) error
	SearchByTitle(ctx context.Context, query string) ([]model.Task, error)
	MigrateLegacyOwners(ctx context.Context) (int64, error)
}
