package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusrooms/reserve/internal/model"
)

type RoomRepository struct {
	pool *pgxpool.Pool
}

func NewRoomRepository(pool *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

// GetByID loads a room together with its restriction policy and the ids
// of its responsible users. Returns (nil, nil) when the room does not
// exist.
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*model.Room, error) {
	query := `
		SELECT id, name, capacity, category_id, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`

	var room model.Room
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.Capacity,
		&room.CategoryID,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get room by id: %w", err)
	}

	room.Policy, err = r.getPolicy(ctx, id)
	if err != nil {
		return nil, err
	}
	room.ResponsibleIDs, err = r.getResponsibles(ctx, id)
	if err != nil {
		return nil, err
	}

	return &room, nil
}

func (r *RoomRepository) getPolicy(ctx context.Context, roomID int64) (*model.RestrictionPolicy, error) {
	query := `
		SELECT id, room_id, blocked, block_reason, min_advance_days,
		       min_duration_minutes, max_duration_minutes, kind, limit_days,
		       limit_date, academic_period_id, requires_approval, created_at, updated_at
		FROM restriction_policies
		WHERE room_id = $1
	`

	var p model.RestrictionPolicy
	err := r.pool.QueryRow(ctx, query, roomID).Scan(
		&p.ID,
		&p.RoomID,
		&p.Blocked,
		&p.BlockReason,
		&p.MinAdvanceDays,
		&p.MinDurationMinutes,
		&p.MaxDurationMinutes,
		&p.Kind,
		&p.LimitDays,
		&p.LimitDate,
		&p.AcademicPeriodID,
		&p.RequiresApproval,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get restriction policy: %w", err)
	}

	return &p, nil
}

func (r *RoomRepository) getResponsibles(ctx context.Context, roomID int64) ([]int64, error) {
	query := `
		SELECT user_id
		FROM room_responsibles
		WHERE room_id = $1
		ORDER BY user_id
	`

	rows, err := r.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room responsibles: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan responsible id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
