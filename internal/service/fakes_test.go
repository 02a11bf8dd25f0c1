package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/campusrooms/reserve/internal/events"
	"github.com/campusrooms/reserve/internal/model"
)

// In-memory store fakes. The transaction fake stages writes and applies
// them on Commit, so the all-or-nothing tests observe real rollback
// behavior.

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type memRoomStore struct{ rooms map[int64]*model.Room }

func (s *memRoomStore) GetByID(_ context.Context, id int64) (*model.Room, error) {
	return s.rooms[id], nil
}

type memPurposeStore struct{ purposes map[int64]*model.Purpose }

func (s *memPurposeStore) GetByID(_ context.Context, id int64) (*model.Purpose, error) {
	return s.purposes[id], nil
}

type memPeriodStore struct{ periods map[int64]*model.AcademicPeriod }

func (s *memPeriodStore) GetByID(_ context.Context, id int64) (*model.AcademicPeriod, error) {
	return s.periods[id], nil
}

type memReservationStore struct {
	nextID int64
	items  map[int64]*model.Reservation

	// beforeLock runs just before a locked list is returned, letting
	// tests inject a concurrent insert between pre-check and lock.
	beforeLock func()
	// createErr, when set, is consulted for every in-transaction insert.
	createErr func(r *model.Reservation) error
}

func newMemReservationStore() *memReservationStore {
	return &memReservationStore{nextID: 1, items: map[int64]*model.Reservation{}}
}

// seed stores a reservation directly, bypassing any transaction.
func (s *memReservationStore) seed(r *model.Reservation) *model.Reservation {
	if r.ID == 0 {
		r.ID = s.nextID
	}
	if r.ID >= s.nextID {
		s.nextID = r.ID + 1
	}
	if r.Status == "" {
		r.Status = model.ReservationStatusApproved
	}
	cp := *r
	s.items[r.ID] = &cp
	return r
}

func (s *memReservationStore) GetByID(_ context.Context, id int64) (*model.Reservation, error) {
	r, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *memReservationStore) listForRoomDate(roomID int64, date time.Time) []*model.Reservation {
	var out []*model.Reservation
	for _, r := range s.items {
		if r.RoomID == roomID && r.Date.Equal(date) && r.Status != model.ReservationStatusRejected {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartMin != out[j].StartMin {
			return out[i].StartMin < out[j].StartMin
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *memReservationStore) ListForRoomDate(_ context.Context, roomID int64, date time.Time) ([]*model.Reservation, error) {
	return s.listForRoomDate(roomID, date), nil
}

func (s *memReservationStore) ListSeries(_ context.Context, seriesID int64) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, r := range s.items {
		if r.SeriesID != nil && *r.SeriesID == seriesID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *memReservationStore) ListForRequester(_ context.Context, requesterID int64) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, r := range s.items {
		if r.RequesterID == requesterID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Date.Before(out[i].Date) })
	return out, nil
}

func (s *memReservationStore) Update(_ context.Context, r *model.Reservation) error {
	if _, ok := s.items[r.ID]; !ok {
		return fmt.Errorf("reservation %d not stored", r.ID)
	}
	cp := *r
	s.items[r.ID] = &cp
	return nil
}

func (s *memReservationStore) Begin(context.Context) (ReservationTx, error) {
	return &memTx{store: s, statuses: map[int64]model.ReservationStatus{}}, nil
}

type memTx struct {
	store    *memReservationStore
	created  []*model.Reservation
	statuses map[int64]model.ReservationStatus
	deleted  []int64
	done     bool
}

func (tx *memTx) ListForRoomDateLocked(_ context.Context, roomID int64, date time.Time) ([]*model.Reservation, error) {
	if tx.store.beforeLock != nil {
		tx.store.beforeLock()
	}
	out := tx.store.listForRoomDate(roomID, date)
	for _, r := range tx.created {
		if r.RoomID == roomID && r.Date.Equal(date) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (tx *memTx) Create(_ context.Context, r *model.Reservation) error {
	if tx.store.createErr != nil {
		if err := tx.store.createErr(r); err != nil {
			return err
		}
	}
	r.ID = tx.store.nextID
	tx.store.nextID++ // ids burn like a sequence, even on rollback
	tx.created = append(tx.created, r)
	return nil
}

func (tx *memTx) SetSeries(_ context.Context, ids []int64, seriesID int64) error {
	staged := make(map[int64]bool, len(tx.created))
	for _, r := range tx.created {
		staged[r.ID] = true
	}
	for _, id := range ids {
		if !staged[id] {
			return fmt.Errorf("set series: reservation %d not in transaction", id)
		}
	}
	return nil
}

func (tx *memTx) UpdateStatus(_ context.Context, id int64, status model.ReservationStatus) error {
	if _, ok := tx.store.items[id]; !ok {
		return fmt.Errorf("reservation %d not stored", id)
	}
	tx.statuses[id] = status
	return nil
}

func (tx *memTx) Delete(_ context.Context, id int64) error {
	if _, ok := tx.store.items[id]; !ok {
		return fmt.Errorf("reservation %d not stored", id)
	}
	tx.deleted = append(tx.deleted, id)
	return nil
}

func (tx *memTx) Commit(context.Context) error {
	if tx.done {
		return errors.New("transaction finished")
	}
	tx.done = true
	for _, r := range tx.created {
		cp := *r
		tx.store.items[r.ID] = &cp
	}
	for id, status := range tx.statuses {
		tx.store.items[id].Status = status
	}
	for _, id := range tx.deleted {
		delete(tx.store.items, id)
	}
	return nil
}

func (tx *memTx) Rollback(context.Context) error {
	tx.done = true
	return nil
}

type memPartyStore struct {
	nextID   int64
	byKey    map[string]*model.ResponsibleParty
	attached map[int64][]int64

	getOrCreateErr error
	syncErr        error
}

func newMemPartyStore() *memPartyStore {
	return &memPartyStore{nextID: 1, byKey: map[string]*model.ResponsibleParty{}, attached: map[int64][]int64{}}
}

func partyKey(name string, code *int64) string {
	if code == nil {
		return name + "|"
	}
	return fmt.Sprintf("%s|%d", name, *code)
}

func (s *memPartyStore) GetOrCreate(_ context.Context, name string, code *int64) (*model.ResponsibleParty, error) {
	if s.getOrCreateErr != nil {
		return nil, s.getOrCreateErr
	}
	key := partyKey(name, code)
	if p, ok := s.byKey[key]; ok {
		return p, nil
	}
	p := &model.ResponsibleParty{ID: s.nextID, Name: name, PersonCode: code}
	s.nextID++
	s.byKey[key] = p
	return p, nil
}

func (s *memPartyStore) SyncParties(_ context.Context, reservationID int64, partyIDs []int64) error {
	if s.syncErr != nil {
		return s.syncErr
	}
	s.attached[reservationID] = append([]int64(nil), partyIDs...)
	return nil
}

type memTaskStore struct{ tasks []*model.ApprovalTask }

func (s *memTaskStore) Schedule(_ context.Context, task *model.ApprovalTask) error {
	cp := *task
	s.tasks = append(s.tasks, &cp)
	return nil
}

func (s *memTaskStore) DeleteForReservation(_ context.Context, reservationID int64) error {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ReservationID != reservationID {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	return nil
}

func (s *memTaskStore) Due(_ context.Context, now time.Time) ([]*model.ApprovalTask, error) {
	var out []*model.ApprovalTask
	for _, t := range s.tasks {
		if !t.RunAt.After(now) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunAt.Before(out[j].RunAt) })
	return out, nil
}

func (s *memTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	return nil
}

func (s *memTaskStore) forReservation(reservationID int64) []*model.ApprovalTask {
	var out []*model.ApprovalTask
	for _, t := range s.tasks {
		if t.ReservationID == reservationID {
			out = append(out, t)
		}
	}
	return out
}

type memDirectory struct {
	names map[int64]string
	err   error
}

func (d *memDirectory) LookupName(_ context.Context, code int64) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	return d.names[code], nil
}

type capturedEvent struct {
	key   string
	event events.ReservationEvent
}

type capturePublisher struct{ published []capturedEvent }

func (p *capturePublisher) Publish(_ context.Context, key string, event events.ReservationEvent) error {
	p.published = append(p.published, capturedEvent{key: key, event: event})
	return nil
}
