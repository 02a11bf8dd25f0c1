package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusrooms/reserve/internal/model"
)

// PartyRepository stores responsible parties and their attachments to
// reservations. Parties are unique per (name, person_code).
type PartyRepository struct {
	pool *pgxpool.Pool
}

func NewPartyRepository(pool *pgxpool.Pool) *PartyRepository {
	return &PartyRepository{pool: pool}
}

// GetOrCreate returns the existing party for (name, code) or inserts a
// new one.
func (r *PartyRepository) GetOrCreate(ctx context.Context, name string, code *int64) (*model.ResponsibleParty, error) {
	query := `
		SELECT id, name, person_code
		FROM responsible_parties
		WHERE name = $1 AND person_code IS NOT DISTINCT FROM $2
	`

	var p model.ResponsibleParty
	err := r.pool.QueryRow(ctx, query, name, code).Scan(&p.ID, &p.Name, &p.PersonCode)
	if err == nil {
		return &p, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("get responsible party: %w", err)
	}

	insert := `
		INSERT INTO responsible_parties (name, person_code)
		VALUES ($1, $2)
		RETURNING id, name, person_code
	`
	err = r.pool.QueryRow(ctx, insert, name, code).Scan(&p.ID, &p.Name, &p.PersonCode)
	if err != nil {
		return nil, fmt.Errorf("create responsible party: %w", err)
	}
	return &p, nil
}

// SyncParties replaces the reservation's attached party set.
func (r *PartyRepository) SyncParties(ctx context.Context, reservationID int64, partyIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM reservation_parties WHERE reservation_id = $1`, reservationID); err != nil {
		return fmt.Errorf("clear reservation parties: %w", err)
	}
	for _, partyID := range partyIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO reservation_parties (reservation_id, party_id) VALUES ($1, $2)`,
			reservationID, partyID,
		)
		if err != nil {
			return fmt.Errorf("attach party %d: %w", partyID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListForReservation returns the parties attached to a reservation.
func (r *PartyRepository) ListForReservation(ctx context.Context, reservationID int64) ([]*model.ResponsibleParty, error) {
	query := `
		SELECT p.id, p.name, p.person_code
		FROM responsible_parties p
		JOIN reservation_parties rp ON rp.party_id = p.id
		WHERE rp.reservation_id = $1
		ORDER BY p.id
	`

	rows, err := r.pool.Query(ctx, query, reservationID)
	if err != nil {
		return nil, fmt.Errorf("list reservation parties: %w", err)
	}
	defer rows.Close()

	var parties []*model.ResponsibleParty
	for rows.Next() {
		var p model.ResponsibleParty
		if err := rows.Scan(&p.ID, &p.Name, &p.PersonCode); err != nil {
			return nil, fmt.Errorf("scan responsible party: %w", err)
		}
		parties = append(parties, &p)
	}

	return parties, nil
}
