package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusrooms/reserve/internal/model"
)

// TaskRepository stores the deferred auto-approval jobs.
type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func (r *TaskRepository) Schedule(ctx context.Context, task *model.ApprovalTask) error {
	query := `
		INSERT INTO approval_tasks (id, reservation_id, run_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query, task.ID, task.ReservationID, task.RunAt).Scan(&task.CreatedAt)
	if err != nil {
		return fmt.Errorf("schedule approval task: %w", err)
	}
	return nil
}

func (r *TaskRepository) DeleteForReservation(ctx context.Context, reservationID int64) error {
	query := `DELETE FROM approval_tasks WHERE reservation_id = $1`

	if _, err := r.pool.Exec(ctx, query, reservationID); err != nil {
		return fmt.Errorf("delete approval tasks for reservation: %w", err)
	}
	return nil
}

// Due returns tasks whose run time has arrived, oldest first.
func (r *TaskRepository) Due(ctx context.Context, now time.Time) ([]*model.ApprovalTask, error) {
	query := `
		SELECT id, reservation_id, run_at, created_at
		FROM approval_tasks
		WHERE run_at <= $1
		ORDER BY run_at
	`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list due approval tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.ApprovalTask
	for rows.Next() {
		var t model.ApprovalTask
		if err := rows.Scan(&t.ID, &t.ReservationID, &t.RunAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan approval task: %w", err)
		}
		tasks = append(tasks, &t)
	}

	return tasks, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM approval_tasks WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete approval task: %w", err)
	}
	return nil
}
