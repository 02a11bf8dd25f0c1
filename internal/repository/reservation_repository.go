package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusrooms/reserve/internal/model"
	"github.com/campusrooms/reserve/internal/service"
)

const reservationColumns = `id, title, description, room_id, purpose_id, requester_id,
	date, start_min, end_min, status, series_id, party_type, created_at, updated_at`

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation by id: %w", err)
	}
	return res, nil
}

// ListForRoomDate returns the room's non-rejected reservations for a
// date, ordered by start time.
func (r *ReservationRepository) ListForRoomDate(ctx context.Context, roomID int64, date time.Time) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE room_id = $1 AND date = $2 AND status != 'rejected'
		ORDER BY start_min
	`

	rows, err := r.pool.Query(ctx, query, roomID, date)
	if err != nil {
		return nil, fmt.Errorf("list reservations for room and date: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

func (r *ReservationRepository) ListSeries(ctx context.Context, seriesID int64) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE series_id = $1
		ORDER BY date
	`

	rows, err := r.pool.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list series reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

func (r *ReservationRepository) ListForRequester(ctx context.Context, requesterID int64) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE requester_id = $1
		ORDER BY date DESC, start_min DESC
	`

	rows, err := r.pool.Query(ctx, query, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list reservations for requester: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

func (r *ReservationRepository) Update(ctx context.Context, res *model.Reservation) error {
	query := `
		UPDATE reservations
		SET title = $1, description = $2, room_id = $3, purpose_id = $4,
		    date = $5, start_min = $6, end_min = $7, status = $8, party_type = $9,
		    updated_at = now()
		WHERE id = $10
		RETURNING updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		res.Title,
		res.Description,
		res.RoomID,
		res.PurposeID,
		res.Date,
		res.StartMin,
		res.EndMin,
		res.Status,
		res.PartyType,
		res.ID,
	).Scan(&res.UpdatedAt)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("reservation not found")
	}
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	return nil
}

// Begin opens the transaction the admission and approval write paths
// run in.
func (r *ReservationRepository) Begin(ctx context.Context) (service.ReservationTx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &reservationTx{tx: tx}, nil
}

type reservationTx struct {
	tx pgx.Tx
}

// ListForRoomDateLocked takes row locks on the room's reservations for
// the date so the overlap re-check and the writes that follow are
// race-free against concurrent admissions.
func (t *reservationTx) ListForRoomDateLocked(ctx context.Context, roomID int64, date time.Time) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE room_id = $1 AND date = $2 AND status != 'rejected'
		ORDER BY start_min
		FOR UPDATE
	`

	rows, err := t.tx.Query(ctx, query, roomID, date)
	if err != nil {
		return nil, fmt.Errorf("lock reservations for room and date: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

func (t *reservationTx) Create(ctx context.Context, res *model.Reservation) error {
	query := `
		INSERT INTO reservations (title, description, room_id, purpose_id, requester_id,
		                          date, start_min, end_min, status, series_id, party_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := t.tx.QueryRow(
		ctx, query,
		res.Title,
		res.Description,
		res.RoomID,
		res.PurposeID,
		res.RequesterID,
		res.Date,
		res.StartMin,
		res.EndMin,
		res.Status,
		res.SeriesID,
		res.PartyType,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (t *reservationTx) SetSeries(ctx context.Context, ids []int64, seriesID int64) error {
	query := `UPDATE reservations SET series_id = $1 WHERE id = ANY($2)`

	if _, err := t.tx.Exec(ctx, query, seriesID, ids); err != nil {
		return fmt.Errorf("set series id: %w", err)
	}
	return nil
}

func (t *reservationTx) UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) error {
	query := `UPDATE reservations SET status = $1, updated_at = now() WHERE id = $2`

	tag, err := t.tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reservation not found")
	}
	return nil
}

func (t *reservationTx) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM reservations WHERE id = $1`

	tag, err := t.tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reservation not found")
	}
	return nil
}

func (t *reservationTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *reservationTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID,
		&res.Title,
		&res.Description,
		&res.RoomID,
		&res.PurposeID,
		&res.RequesterID,
		&res.Date,
		&res.StartMin,
		&res.EndMin,
		&res.Status,
		&res.SeriesID,
		&res.PartyType,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func collectReservations(rows pgx.Rows) ([]*model.Reservation, error) {
	var reservations []*model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, nil
}
