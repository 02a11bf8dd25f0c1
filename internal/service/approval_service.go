package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusrooms/reserve/internal/events"
	"github.com/campusrooms/reserve/internal/model"
	"github.com/campusrooms/reserve/internal/rules"
	"github.com/campusrooms/reserve/internal/timeslot"
)

// ErrPastDate is returned for approve/reject attempts on reservations
// whose date has already passed.
var ErrPastDate = errors.New("cannot decide a reservation dated in the past")

// ApprovalService drives the pending → approved/rejected state machine.
// Transitions are independent per instance; deciding one reservation
// never cascades to its series siblings.
type ApprovalService struct {
	rooms        RoomStore
	periods      AcademicPeriodStore
	reservations ReservationStore
	tasks        TaskStore
	publisher    events.Publisher
	clock        Clock
	logger       *zap.Logger
}

func NewApprovalService(
	rooms RoomStore,
	periods AcademicPeriodStore,
	reservations ReservationStore,
	tasks TaskStore,
	publisher events.Publisher,
	clock Clock,
	logger *zap.Logger,
) *ApprovalService {
	return &ApprovalService{
		rooms:        rooms,
		periods:      periods,
		reservations: reservations,
		tasks:        tasks,
		publisher:    publisher,
		clock:        clock,
		logger:       logger,
	}
}

// Approve transitions a pending reservation to approved. Restrictions
// are re-evaluated against the room's current policy and a last-minute
// conflict against approved reservations aborts with a validation
// failure, not a state change. The administrative override only skips
// the room-responsibility check, never the re-validation.
func (s *ApprovalService) Approve(ctx context.Context, principal *model.User, id int64) error {
	res, room, err := s.guard(ctx, principal, id, "approve")
	if err != nil {
		return err
	}

	period, err := s.periodFor(ctx, room.Policy)
	if err != nil {
		return err
	}
	cand := rules.Candidate{Date: res.Date, StartMin: res.StartMin, EndMin: res.EndMin}
	if violations := rules.Evaluate(room.Policy, period, cand, s.clock.Now()); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	tx, err := s.reservations.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	locked, err := tx.ListForRoomDateLocked(ctx, res.RoomID, res.Date)
	if err != nil {
		return fmt.Errorf("lock reservations: %w", err)
	}
	if err := s.recheckPending(ctx, locked, res.ID); err != nil {
		return err
	}
	approved := locked[:0:0]
	for _, other := range locked {
		if other.Status == model.ReservationStatusApproved {
			approved = append(approved, other)
		}
	}
	iv := timeslot.Interval{Date: timeslot.Truncate(res.Date), StartMin: res.StartMin, EndMin: res.EndMin}
	if conflicts := FindOverlaps(approved, iv, map[int64]bool{res.ID: true}); len(conflicts) > 0 {
		return &ValidationError{Conflicts: conflicts}
	}

	if err := tx.UpdateStatus(ctx, res.ID, model.ReservationStatusApproved); err != nil {
		return fmt.Errorf("approve reservation %d: %w", res.ID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.finish(ctx, res, model.ReservationStatusApproved, events.KeyReservationApproved, principal.ID)
	return nil
}

// Reject transitions a pending reservation to rejected. Rejection only
// frees capacity, so no restriction or conflict re-check runs.
func (s *ApprovalService) Reject(ctx context.Context, principal *model.User, id int64) error {
	res, _, err := s.guard(ctx, principal, id, "reject")
	if err != nil {
		return err
	}

	tx, err := s.reservations.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	locked, err := tx.ListForRoomDateLocked(ctx, res.RoomID, res.Date)
	if err != nil {
		return fmt.Errorf("lock reservations: %w", err)
	}
	if err := s.recheckPending(ctx, locked, res.ID); err != nil {
		return err
	}

	if err := tx.UpdateStatus(ctx, res.ID, model.ReservationStatusRejected); err != nil {
		return fmt.Errorf("reject reservation %d: %w", res.ID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.finish(ctx, res, model.ReservationStatusRejected, events.KeyReservationRejected, principal.ID)
	return nil
}

// recheckPending confirms under the row locks that the reservation is
// still pending. The pre-transaction guard is a check-then-act window: a
// decision committed between guard and lock must not be overwritten.
func (s *ApprovalService) recheckPending(ctx context.Context, locked []*model.Reservation, id int64) error {
	for _, r := range locked {
		if r.ID == id {
			if r.Status != model.ReservationStatusPending {
				return &TransitionError{Current: r.Status}
			}
			return nil
		}
	}

	// The locked query excludes rejected rows, so a missing reservation
	// was rejected or deleted in the meantime.
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("reload reservation %d: %w", id, err)
	}
	if res == nil {
		return &NotFoundError{Kind: "reservation", ID: id}
	}
	return &TransitionError{Current: res.Status}
}

// guard runs the checks shared by both transitions: existence, pending
// status, future date, and room-responsibility (or admin).
func (s *ApprovalService) guard(ctx context.Context, principal *model.User, id int64, action string) (*model.Reservation, *model.Room, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load reservation %d: %w", id, err)
	}
	if res == nil {
		return nil, nil, &NotFoundError{Kind: "reservation", ID: id}
	}
	if res.Status != model.ReservationStatusPending {
		return nil, nil, &TransitionError{Current: res.Status}
	}
	if timeslot.Truncate(res.Date).Before(timeslot.Truncate(s.clock.Now())) {
		return nil, nil, ErrPastDate
	}

	room, err := s.rooms.GetByID(ctx, res.RoomID)
	if err != nil {
		return nil, nil, fmt.Errorf("load room %d: %w", res.RoomID, err)
	}
	if room == nil {
		return nil, nil, &NotFoundError{Kind: "room", ID: res.RoomID}
	}
	if principal != nil && !principal.Admin && !room.IsResponsible(principal.ID) {
		return nil, nil, &PermissionError{Reason: "only room responsibles may " + action + " reservations"}
	}
	return res, room, nil
}

func (s *ApprovalService) finish(ctx context.Context, res *model.Reservation, status model.ReservationStatus, key string, actorID int64) {
	res.Status = status

	if err := s.tasks.DeleteForReservation(ctx, res.ID); err != nil {
		s.logger.Warn("failed to remove auto-approval task",
			zap.Int64("reservation_id", res.ID),
			zap.Error(err),
		)
	}

	event := events.ReservationEvent{
		ReservationID: res.ID,
		SeriesID:      res.SeriesID,
		RoomID:        res.RoomID,
		Title:         res.Title,
		Date:          res.Date.Format(timeslot.DateLayout),
		StartTime:     timeslot.FormatClock(res.StartMin),
		EndTime:       timeslot.FormatClock(res.EndMin),
		Status:        string(status),
		ActorID:       actorID,
		OccurredAt:    s.clock.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("key", key),
			zap.Int64("reservation_id", res.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("reservation decided",
		zap.Int64("id", res.ID),
		zap.String("status", string(status)),
		zap.Int64("actor_id", actorID),
	)
}

// RunDueTasks approves reservations whose auto-approval deadline has
// passed and which are still pending. Because time has moved on since
// admission, each approval re-runs the full guard set as the system
// principal; a reservation that no longer validates keeps its pending
// status for a human to decide and its task is dropped.
func (s *ApprovalService) RunDueTasks(ctx context.Context, now time.Time) error {
	due, err := s.tasks.Due(ctx, now)
	if err != nil {
		return fmt.Errorf("list due tasks: %w", err)
	}

	system := &model.User{ID: 0, Name: "auto-approval", Admin: true}
	for _, task := range due {
		err := s.Approve(ctx, system, task.ReservationID)
		switch {
		case err == nil:
			s.logger.Info("reservation auto-approved", zap.Int64("reservation_id", task.ReservationID))
		case isDecisionBlocked(err):
			s.logger.Warn("auto-approval skipped",
				zap.Int64("reservation_id", task.ReservationID),
				zap.Error(err),
			)
			if err := s.tasks.Delete(ctx, task.ID); err != nil {
				s.logger.Warn("failed to drop auto-approval task", zap.Error(err))
			}
		default:
			// Transient failure: keep the task for the next sweep.
			s.logger.Error("auto-approval failed",
				zap.Int64("reservation_id", task.ReservationID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// isDecisionBlocked reports errors that will not resolve by retrying:
// the reservation is gone, already decided, dated in the past, or fails
// current validation.
func isDecisionBlocked(err error) bool {
	var nf *NotFoundError
	var tr *TransitionError
	var ve *ValidationError
	return errors.As(err, &nf) || errors.As(err, &tr) || errors.As(err, &ve) || errors.Is(err, ErrPastDate)
}

func (s *ApprovalService) periodFor(ctx context.Context, policy *model.RestrictionPolicy) (*model.AcademicPeriod, error) {
	if policy == nil || policy.Kind != model.RestrictionKindAcademicPeriod || policy.AcademicPeriodID == nil {
		return nil, nil
	}
	period, err := s.periods.GetByID(ctx, *policy.AcademicPeriodID)
	if err != nil {
		return nil, fmt.Errorf("load academic period %d: %w", *policy.AcademicPeriodID, err)
	}
	return period, nil
}
