package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmarjanovic/tasklist-api/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = `id, title, description, category, priority, completed, due_date, "position", owner_id, created_at, updated_at`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{
		pool: pool,
	}
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Category, &t.Priority,
		&t.Completed, &t.DueDate, &t.Position, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// Create вычисляет position прямо в INSERT, чтобы не было отдельного чтения
func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, category, priority, completed, due_date, owner_id, "position")
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX("position") + 1, 0) FROM tasks WHERE owner_id = $7))
		RETURNING `+taskColumns,
		t.Title, t.Description, t.Category, t.Priority, t.Completed, t.DueDate, t.OwnerID,
	)
	created, err := scanTask(row)
	return created, mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, id, ownerID uuid.UUID) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID)

	t, err := scanTask(row)
	if err == pgx.ErrNoRows {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE owner_id = $1
		ORDER BY "position", created_at
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

// Update применяет частичный патч одним запросом, фильтруя по id и owner_id —
// проверка владельца и мутация не разделяются
func (r *TaskRepo) Update(ctx context.Context, id, ownerID uuid.UUID, patch model.TaskPatch) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title       = COALESCE($3, title),
		    description = COALESCE($4, description),
		    category    = COALESCE($5, category),
		    priority    = COALESCE($6, priority),
		    completed   = COALESCE($7, completed),
		    due_date    = COALESCE($8, due_date),
		    "position"  = COALESCE($9, "position"),
		    updated_at  = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING `+taskColumns,
		id, ownerID,
		patch.Title, patch.Description, patch.Category, patch.Priority,
		patch.Completed, patch.DueDate, patch.Position,
	)

	t, err := scanTask(row)
	if err == pgx.ErrNoRows {
		return t, ErrorNotFound
	}
	return t, mapError(err)
}

func (r *TaskRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

// Reorder выполняет независимые обновления батчем без транзакции: чужие id
// просто не матчатся, частичное применение при сбое допустимо
func (r *TaskRepo) Reorder(ctx context.Context, ownerID uuid.UUID, orderedIDs []uuid.UUID) error {
	batch := &pgx.Batch{}
	for i, id := range orderedIDs {
		batch.Queue(`UPDATE tasks SET "position" = $1, updated_at = now() WHERE id = $2 AND owner_id = $3`,
			i, id, ownerID)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range orderedIDs {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *TaskRepo) SearchByTitle(ctx context.Context, query string) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY created_at
	`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

// MigrateLegacyOwners — разовая миграция строковых owner-ссылок в UUID
func (r *TaskRepo) MigrateLegacyOwners(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE tasks
		SET owner_id = legacy_owner_id::uuid, legacy_owner_id = NULL
		WHERE owner_id IS NULL
		  AND legacy_owner_id ~* '^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$'
	`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func collectTasks(rows pgx.Rows) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}
