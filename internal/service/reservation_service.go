package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusrooms/reserve/internal/events"
	"github.com/campusrooms/reserve/internal/model"
	"github.com/campusrooms/reserve/internal/recurrence"
	"github.com/campusrooms/reserve/internal/rules"
	"github.com/campusrooms/reserve/internal/timeslot"
)

// ReservationService is the admission controller: it decides whether a
// booking request is admissible, expands recurrences, persists the
// accepted batch atomically and drives updates and deletions.
type ReservationService struct {
	rooms            RoomStore
	purposes         PurposeStore
	periods          AcademicPeriodStore
	reservations     ReservationStore
	conflicts        *ConflictDetector
	resolver         *PartyResolver
	tasks            TaskStore
	publisher        events.Publisher
	clock            Clock
	autoApproveAfter time.Duration
	logger           *zap.Logger
}

func NewReservationService(
	rooms RoomStore,
	purposes PurposeStore,
	periods AcademicPeriodStore,
	reservations ReservationStore,
	conflicts *ConflictDetector,
	resolver *PartyResolver,
	tasks TaskStore,
	publisher events.Publisher,
	clock Clock,
	autoApproveAfter time.Duration,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		rooms:            rooms,
		purposes:         purposes,
		periods:          periods,
		reservations:     reservations,
		conflicts:        conflicts,
		resolver:         resolver,
		tasks:            tasks,
		publisher:        publisher,
		clock:            clock,
		autoApproveAfter: autoApproveAfter,
		logger:           logger,
	}
}

// CreateInput carries a booking request in wire form. RepeatWeekdays and
// RepeatUntil must be given together to request a recurring series.
type CreateInput struct {
	Title          string
	Description    string
	RoomID         int64
	PurposeID      int64
	Date           string // YYYY-MM-DD
	StartTime      string // H:MM
	EndTime        string // H:MM
	RepeatWeekdays []time.Weekday
	RepeatUntil    string // YYYY-MM-DD
	Party          PartySpec
}

// CreateResult reports the persisted batch. SeriesID is nil for
// standalone bookings.
type CreateResult struct {
	Reservations []*model.Reservation
	SeriesID     *int64
	Status       model.ReservationStatus
}

// Create admits a booking request. Either every expanded instance is
// persisted or none are.
func (s *ReservationService) Create(ctx context.Context, requester *model.User, in CreateInput) (*CreateResult, error) {
	date, err := timeslot.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	startMin, err := timeslot.ParseClock(in.StartTime)
	if err != nil {
		return nil, err
	}
	endMin, err := timeslot.ParseClock(in.EndTime)
	if err != nil {
		return nil, err
	}
	if startMin >= endMin {
		return nil, fmt.Errorf("end time %s must be after start time %s", in.EndTime, in.StartTime)
	}

	recurring := len(in.RepeatWeekdays) > 0 || in.RepeatUntil != ""
	var until time.Time
	if recurring {
		if len(in.RepeatWeekdays) == 0 || in.RepeatUntil == "" {
			return nil, fmt.Errorf("recurring requests need both repeat weekdays and a repeat-until date")
		}
		until, err = timeslot.ParseDate(in.RepeatUntil)
		if err != nil {
			return nil, err
		}
	}

	room, err := s.rooms.GetByID(ctx, in.RoomID)
	if err != nil {
		return nil, fmt.Errorf("load room %d: %w", in.RoomID, err)
	}
	if room == nil {
		return nil, &NotFoundError{Kind: "room", ID: in.RoomID}
	}
	purpose, err := s.purposes.GetByID(ctx, in.PurposeID)
	if err != nil {
		return nil, fmt.Errorf("load purpose %d: %w", in.PurposeID, err)
	}
	if purpose == nil {
		return nil, &NotFoundError{Kind: "purpose", ID: in.PurposeID}
	}
	period, err := s.periodFor(ctx, room.Policy)
	if err != nil {
		return nil, err
	}

	// Resolve the responsible parties up front: a bad spec or a store
	// failure must abort before anything is persisted.
	parties, err := s.resolver.Resolve(ctx, in.Party, requester)
	if err != nil {
		return nil, err
	}

	status := model.ReservationStatusApproved
	if room.RequiresApproval() {
		status = model.ReservationStatusPending
	}

	dates := []time.Time{date}
	if recurring {
		dates, err = recurrence.Expand(date, in.RepeatWeekdays, until)
		if err == recurrence.ErrTooManyInstances {
			return nil, &LimitError{Max: recurrence.MaxInstances}
		}
		if err != nil {
			return nil, err
		}
	}

	if err := s.validateDates(ctx, room, period, dates, startMin, endMin, until, 0, nil); err != nil {
		return nil, err
	}

	batch, err := s.persistBatch(ctx, requester, in, dates, startMin, endMin, status, recurring)
	if err != nil {
		return nil, err
	}

	if status == model.ReservationStatusPending {
		s.scheduleAutoApproval(ctx, batch)
	}

	// The batch is committed; a failed attach must not turn a persisted
	// booking into a reported failure.
	if err := s.resolver.Attach(ctx, parties, batch); err != nil {
		s.logger.Warn("failed to attach responsible parties",
			zap.Int64("first_id", batch[0].ID),
			zap.Error(err),
		)
	}

	first := batch[0]
	s.publish(ctx, events.KeyReservationCreated, first, len(batch), requester.ID)
	s.logger.Info("reservation batch created",
		zap.Int64("first_id", first.ID),
		zap.Int64("room_id", room.ID),
		zap.Int("instances", len(batch)),
		zap.String("status", string(status)),
	)

	return &CreateResult{Reservations: batch, SeriesID: first.SeriesID, Status: status}, nil
}

// validateDates runs the restriction evaluator and the conflict
// pre-check for every candidate date, accumulating everything before
// failing so callers see the full picture at once.
func (s *ReservationService) validateDates(ctx context.Context, room *model.Room, period *model.AcademicPeriod, dates []time.Time, startMin, endMin int, seriesEnd time.Time, excludeID int64, excludeSiblings []int64) error {
	now := s.clock.Now()
	seen := make(map[rules.Code]bool)
	var violations []rules.Violation
	var conflicts []ConflictSummary

	for _, d := range dates {
		cand := rules.Candidate{Date: d, StartMin: startMin, EndMin: endMin, SeriesEnd: seriesEnd}
		for _, v := range rules.Evaluate(room.Policy, period, cand, now) {
			if seen[v.Code] {
				continue
			}
			seen[v.Code] = true
			violations = append(violations, v)
		}

		found, err := s.conflicts.Check(ctx, room.ID, d, startMin, endMin, excludeID, excludeSiblings)
		if err != nil {
			return err
		}
		conflicts = append(conflicts, found...)
	}

	if len(violations) > 0 || len(conflicts) > 0 {
		return &ValidationError{Violations: violations, Conflicts: conflicts}
	}
	return nil
}

// persistBatch writes every instance inside one transaction, re-checking
// overlap under row locks before each insert.
func (s *ReservationService) persistBatch(ctx context.Context, requester *model.User, in CreateInput, dates []time.Time, startMin, endMin int, status model.ReservationStatus, recurring bool) ([]*model.Reservation, error) {
	tx, err := s.reservations.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := make([]*model.Reservation, 0, len(dates))
	for _, d := range dates {
		locked, err := tx.ListForRoomDateLocked(ctx, in.RoomID, d)
		if err != nil {
			return nil, fmt.Errorf("lock reservations for %s: %w", d.Format(timeslot.DateLayout), err)
		}
		candidate := timeslot.Interval{Date: d, StartMin: startMin, EndMin: endMin}
		if late := FindOverlaps(locked, candidate, nil); len(late) > 0 {
			return nil, &ValidationError{Conflicts: late}
		}

		r := &model.Reservation{
			Title:       in.Title,
			Description: in.Description,
			RoomID:      in.RoomID,
			PurposeID:   in.PurposeID,
			RequesterID: requester.ID,
			Date:        d,
			StartMin:    startMin,
			EndMin:      endMin,
			Status:      status,
			PartyType:   in.Party.Type,
		}
		if err := tx.Create(ctx, r); err != nil {
			return nil, fmt.Errorf("create reservation: %w", err)
		}
		batch = append(batch, r)
	}

	if recurring {
		seriesID := batch[0].ID
		ids := make([]int64, len(batch))
		for i, r := range batch {
			ids[i] = r.ID
			r.SeriesID = &seriesID
		}
		if err := tx.SetSeries(ctx, ids, seriesID); err != nil {
			return nil, fmt.Errorf("set series id: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return batch, nil
}

// UpdateInput patches a reservation; nil fields keep their value.
type UpdateInput struct {
	Title       *string
	Description *string
	RoomID      *int64
	PurposeID   *int64
	Date        *string
	StartTime   *string
	EndTime     *string
	Party       *PartySpec
}

// Update edits a reservation, re-validating restrictions and conflicts
// whenever the room, date or time changes. Moving to a room that
// requires approval sends the reservation back to pending.
func (s *ReservationService) Update(ctx context.Context, requester *model.User, id int64, in UpdateInput) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation %d: %w", id, err)
	}
	if res == nil {
		return nil, &NotFoundError{Kind: "reservation", ID: id}
	}
	if res.RequesterID != requester.ID && !requester.Admin {
		return nil, &PermissionError{Reason: "only the requester or an administrator may edit a reservation"}
	}

	if in.Title != nil {
		res.Title = *in.Title
	}
	if in.Description != nil {
		res.Description = *in.Description
	}
	if in.PurposeID != nil && *in.PurposeID != res.PurposeID {
		purpose, err := s.purposes.GetByID(ctx, *in.PurposeID)
		if err != nil {
			return nil, fmt.Errorf("load purpose %d: %w", *in.PurposeID, err)
		}
		if purpose == nil {
			return nil, &NotFoundError{Kind: "purpose", ID: *in.PurposeID}
		}
		res.PurposeID = *in.PurposeID
	}

	revalidate := false
	if in.RoomID != nil && *in.RoomID != res.RoomID {
		res.RoomID = *in.RoomID
		revalidate = true
	}
	if in.Date != nil {
		d, err := timeslot.ParseDate(*in.Date)
		if err != nil {
			return nil, err
		}
		if !d.Equal(res.Date) {
			res.Date = d
			revalidate = true
		}
	}
	if in.StartTime != nil {
		m, err := timeslot.ParseClock(*in.StartTime)
		if err != nil {
			return nil, err
		}
		if m != res.StartMin {
			res.StartMin = m
			revalidate = true
		}
	}
	if in.EndTime != nil {
		m, err := timeslot.ParseClock(*in.EndTime)
		if err != nil {
			return nil, err
		}
		if m != res.EndMin {
			res.EndMin = m
			revalidate = true
		}
	}
	if res.StartMin >= res.EndMin {
		return nil, fmt.Errorf("end time must be after start time")
	}

	room, err := s.rooms.GetByID(ctx, res.RoomID)
	if err != nil {
		return nil, fmt.Errorf("load room %d: %w", res.RoomID, err)
	}
	if room == nil {
		return nil, &NotFoundError{Kind: "room", ID: res.RoomID}
	}

	if in.RoomID != nil && room.RequiresApproval() {
		res.Status = model.ReservationStatusPending
	}

	if revalidate {
		period, err := s.periodFor(ctx, room.Policy)
		if err != nil {
			return nil, err
		}
		var siblings []int64
		if res.SeriesID != nil {
			series, err := s.reservations.ListSeries(ctx, *res.SeriesID)
			if err != nil {
				return nil, fmt.Errorf("load series %d: %w", *res.SeriesID, err)
			}
			for _, sib := range series {
				siblings = append(siblings, sib.ID)
			}
		}
		err = s.validateDates(ctx, room, period, []time.Time{res.Date}, res.StartMin, res.EndMin, time.Time{}, res.ID, siblings)
		if err != nil {
			return nil, err
		}
	}

	var parties []*model.ResponsibleParty
	if in.Party != nil {
		parties, err = s.resolver.Resolve(ctx, *in.Party, requester)
		if err != nil {
			return nil, err
		}
		res.PartyType = in.Party.Type
	}

	if err := s.tasks.DeleteForReservation(ctx, res.ID); err != nil {
		return nil, fmt.Errorf("remove auto-approval task: %w", err)
	}

	if err := s.reservations.Update(ctx, res); err != nil {
		return nil, fmt.Errorf("update reservation %d: %w", res.ID, err)
	}

	if res.Status == model.ReservationStatusPending {
		s.scheduleAutoApproval(ctx, []*model.Reservation{res})
	}

	if in.Party != nil {
		if err := s.resolver.Attach(ctx, parties, []*model.Reservation{res}); err != nil {
			s.logger.Warn("failed to attach responsible parties",
				zap.Int64("id", res.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("reservation updated",
		zap.Int64("id", res.ID),
		zap.Bool("revalidated", revalidate),
		zap.String("status", string(res.Status)),
	)
	return res, nil
}

// DeleteInput controls series cascades. PurgeFrom only applies together
// with Purge and keeps siblings dated before it.
type DeleteInput struct {
	Purge     bool
	PurgeFrom *time.Time
}

// Delete removes a reservation, or with Purge its whole series, inside
// one transaction. Non-administrators may not remove past reservations.
func (s *ReservationService) Delete(ctx context.Context, principal *model.User, id int64, in DeleteInput) ([]int64, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation %d: %w", id, err)
	}
	if res == nil {
		return nil, &NotFoundError{Kind: "reservation", ID: id}
	}
	if res.RequesterID != principal.ID && !principal.Admin {
		return nil, &PermissionError{Reason: "only the requester or an administrator may cancel a reservation"}
	}
	if !principal.Admin && timeslot.Truncate(res.Date).Before(timeslot.Truncate(s.clock.Now())) {
		return nil, &PermissionError{Reason: "past reservations can only be removed by an administrator"}
	}

	targets := []*model.Reservation{res}
	if in.Purge && res.SeriesID != nil {
		series, err := s.reservations.ListSeries(ctx, *res.SeriesID)
		if err != nil {
			return nil, fmt.Errorf("load series %d: %w", *res.SeriesID, err)
		}
		targets = targets[:0]
		for _, sib := range series {
			if in.PurgeFrom != nil && timeslot.Truncate(sib.Date).Before(timeslot.Truncate(*in.PurgeFrom)) {
				continue
			}
			targets = append(targets, sib)
		}
	}

	tx, err := s.reservations.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deleted := make([]int64, 0, len(targets))
	for _, t := range targets {
		if err := tx.Delete(ctx, t.ID); err != nil {
			return nil, fmt.Errorf("delete reservation %d: %w", t.ID, err)
		}
		deleted = append(deleted, t.ID)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	for _, delID := range deleted {
		if err := s.tasks.DeleteForReservation(ctx, delID); err != nil {
			s.logger.Warn("failed to remove auto-approval task",
				zap.Int64("reservation_id", delID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("reservations deleted",
		zap.Int64("requested_id", id),
		zap.Int("count", len(deleted)),
		zap.Bool("purge", in.Purge),
	)
	return deleted, nil
}

// GetByID returns a reservation or NotFoundError.
func (s *ReservationService) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation %d: %w", id, err)
	}
	if res == nil {
		return nil, &NotFoundError{Kind: "reservation", ID: id}
	}
	return res, nil
}

// ListForRoomDate exposes the conflict detector's read side to callers.
func (s *ReservationService) ListForRoomDate(ctx context.Context, roomID int64, date time.Time) ([]*model.Reservation, error) {
	return s.reservations.ListForRoomDate(ctx, roomID, date)
}

// ListForRequester returns the principal's own reservations.
func (s *ReservationService) ListForRequester(ctx context.Context, requesterID int64) ([]*model.Reservation, error) {
	return s.reservations.ListForRequester(ctx, requesterID)
}

func (s *ReservationService) periodFor(ctx context.Context, policy *model.RestrictionPolicy) (*model.AcademicPeriod, error) {
	if policy == nil || policy.Kind != model.RestrictionKindAcademicPeriod || policy.AcademicPeriodID == nil {
		return nil, nil
	}
	period, err := s.periods.GetByID(ctx, *policy.AcademicPeriodID)
	if err != nil {
		return nil, fmt.Errorf("load academic period %d: %w", *policy.AcademicPeriodID, err)
	}
	return period, nil
}

func (s *ReservationService) scheduleAutoApproval(ctx context.Context, batch []*model.Reservation) {
	runAt := s.clock.Now().Add(s.autoApproveAfter)
	for _, r := range batch {
		task := &model.ApprovalTask{ID: uuid.New(), ReservationID: r.ID, RunAt: runAt}
		if err := s.tasks.Schedule(ctx, task); err != nil {
			s.logger.Warn("failed to schedule auto-approval task",
				zap.Int64("reservation_id", r.ID),
				zap.Error(err),
			)
		}
	}
}

func (s *ReservationService) publish(ctx context.Context, key string, r *model.Reservation, count int, actorID int64) {
	event := events.ReservationEvent{
		ReservationID: r.ID,
		SeriesID:      r.SeriesID,
		RoomID:        r.RoomID,
		Title:         r.Title,
		Date:          r.Date.Format(timeslot.DateLayout),
		StartTime:     timeslot.FormatClock(r.StartMin),
		EndTime:       timeslot.FormatClock(r.EndMin),
		Status:        string(r.Status),
		InstanceCount: count,
		ActorID:       actorID,
		OccurredAt:    s.clock.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("key", key),
			zap.Int64("reservation_id", r.ID),
			zap.Error(err),
		)
	}
}
