package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusrooms/reserve/internal/model"
	"github.com/campusrooms/reserve/internal/repository/base"
)

// AcademicPeriodRepository reads the shared reference periods. The
// engine never writes them.
type AcademicPeriodRepository struct {
	*base.Repository
}

func NewAcademicPeriodRepository(pool *pgxpool.Pool) *AcademicPeriodRepository {
	return &AcademicPeriodRepository{Repository: base.NewRepository(pool)}
}

func (r *AcademicPeriodRepository) GetByID(ctx context.Context, id int64) (*model.AcademicPeriod, error) {
	query := `
		SELECT id, code, reservations_from, reservations_to
		FROM academic_periods
		WHERE id = $1
	`

	var p model.AcademicPeriod
	err := r.QueryRow(ctx, query, id).Scan(&p.ID, &p.Code, &p.ReservationsFrom, &p.ReservationsTo)
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get academic period by id: %w", err)
	}

	return &p, nil
}
