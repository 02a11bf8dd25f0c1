package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusrooms/reserve/internal/model"
	"github.com/campusrooms/reserve/internal/repository/base"
)

type PurposeRepository struct {
	*base.Repository
}

func NewPurposeRepository(pool *pgxpool.Pool) *PurposeRepository {
	return &PurposeRepository{Repository: base.NewRepository(pool)}
}

func (r *PurposeRepository) GetByID(ctx context.Context, id int64) (*model.Purpose, error) {
	query := `SELECT id, name FROM purposes WHERE id = $1`

	var p model.Purpose
	err := r.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name)
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get purpose by id: %w", err)
	}

	return &p, nil
}
