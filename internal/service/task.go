package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmarjanovic/tasklist-api/internal/model"
	"github.com/dmarjanovic/tasklist-api/internal/repo"
)

type TaskService struct {
	repo repo.TaskRepository
	now  func() time.Time
}

func NewTaskService(taskRepo repo.TaskRepository) *TaskService {
	return &TaskService{repo: taskRepo, now: time.Now}
}

func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, t model.Task) (model.Task, error) {
	if err := s.validate(t.Title, t.Priority); err != nil {
		return t, err
	}
	if t.Priority == "" {
		t.Priority = model.PriorityGreen
	}

	// владелец всегда вызывающий, что бы клиент ни прислал
	t.OwnerID = ownerID

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return created, err
	}
	return s.annotate(created), nil
}

func (s *TaskService) Get(ctx context.Context, ownerID uuid.UUID, rawID string) (model.Task, error) {
	id, err := uuid.Parse(rawID)
	if err != nil { // синтаксически невалидный id неотличим от чужого
		return model.Task{}, repo.ErrorNotFound
	}

	t, err := s.repo.Get(ctx, id, ownerID)
	if err != nil {
		return t, err
	}
	return s.annotate(t), nil
}

func (s *TaskService) List(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error) {
	tasks, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i] = s.annotate(tasks[i])
	}
	return tasks, nil
}

func (s *TaskService) Update(ctx context.Context, ownerID uuid.UUID, rawID string, patch model.TaskPatch) (model.Task, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return model.Task{}, repo.ErrorNotFound
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return model.Task{}, ErrValidation
	}
	if patch.Priority != nil && !validPriority(*patch.Priority) {
		return model.Task{}, ErrValidation
	}

	t, err := s.repo.Update(ctx, id, ownerID, patch)
	if err != nil {
		return t, err
	}
	return s.annotate(t), nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID uuid.UUID, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return repo.ErrorNotFound
	}
	return s.repo.Delete(ctx, id, ownerID)
}

// Reorder присваивает position по индексу в orderedIDs. Невалидные и чужие
// id молча пропускаются — это не ошибка.
func (s *TaskService) Reorder(ctx context.Context, ownerID uuid.UUID, rawIDs []string) error {
	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			ids = append(ids, uuid.Nil)
			continue
		}
		ids = append(ids, id)
	}
	return s.repo.Reorder(ctx, ownerID, ids)
}

func (s *TaskService) SearchByTitle(ctx context.Context, query string) ([]model.Task, error) {
	return s.repo.SearchByTitle(ctx, query)
}

func (s *TaskService) MigrateLegacyOwners(ctx context.Context) (int64, error) {
	return s.repo.MigrateLegacyOwners(ctx)
}

// annotate пересчитывает isOverdue при каждом чтении
func (s *TaskService) annotate(t model.Task) model.Task {
	t.IsOverdue = !t.Completed && t.DueDate != nil && t.DueDate.Before(s.now())
	return t
}

func (s *TaskService) validate(title, priority string) error {
	if strings.TrimSpace(title) == "" {
		return ErrValidation
	}
	if priority != "" && !validPriority(priority) {
		return ErrValidation
	}
	return nil
}

func validPriority(p string) bool {
	switch p {
	case model.PriorityRed, model.PriorityYellow, model.PriorityGreen:
		return true
	}
	return false
}
