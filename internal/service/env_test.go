package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/campusrooms/reserve/internal/model"
	"github.com/campusrooms/reserve/internal/timeslot"
)

// testNow is the pinned "now" for every service test: a Tuesday morning.
var testNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

const testAutoApproveAfter = 24 * time.Hour

type testEnv struct {
	rooms     *memRoomStore
	purposes  *memPurposeStore
	periods   *memPeriodStore
	store     *memReservationStore
	parties   *memPartyStore
	tasks     *memTaskStore
	directory *memDirectory
	publisher *capturePublisher

	svc       *ReservationService
	approvals *ApprovalService
}

// newTestEnv wires both services over shared fakes. Room 1 is
// unrestricted; room 2 requires approval and is answered for by user 20.
func newTestEnv() *testEnv {
	e := &testEnv{
		rooms: &memRoomStore{rooms: map[int64]*model.Room{
			1: {ID: 1, Name: "Auditorium", Capacity: 120},
			2: {
				ID:             2,
				Name:           "Seminar Room",
				Capacity:       30,
				Policy:         &model.RestrictionPolicy{RoomID: 2, RequiresApproval: true},
				ResponsibleIDs: []int64{20},
			},
		}},
		purposes: &memPurposeStore{purposes: map[int64]*model.Purpose{
			1: {ID: 1, Name: "lecture"},
			2: {ID: 2, Name: "exam"},
		}},
		periods:   &memPeriodStore{periods: map[int64]*model.AcademicPeriod{}},
		store:     newMemReservationStore(),
		parties:   newMemPartyStore(),
		tasks:     &memTaskStore{},
		directory: &memDirectory{names: map[int64]string{}},
		publisher: &capturePublisher{},
	}

	clock := fixedClock{now: testNow}
	logger := zap.NewNop()
	detector := NewConflictDetector(e.store)
	resolver := NewPartyResolver(e.parties, e.directory, logger)
	e.svc = NewReservationService(
		e.rooms, e.purposes, e.periods, e.store,
		detector, resolver, e.tasks, e.publisher,
		clock, testAutoApproveAfter, logger,
	)
	e.approvals = NewApprovalService(
		e.rooms, e.periods, e.store, e.tasks,
		e.publisher, clock, logger,
	)
	return e
}

func mustDate(s string) time.Time {
	d, err := timeslot.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func i64ptr(v int64) *int64 { return &v }

func strptr(v string) *string { return &v }

var (
	requester   = &model.User{ID: 10, Name: "Ana Souza", PersonCode: i64ptr(4455)}
	responsible = &model.User{ID: 20, Name: "Bruno Lima"}
	stranger    = &model.User{ID: 30, Name: "Carla Dias"}
	admin       = &model.User{ID: 99, Name: "Root", Admin: true}
)

// baseInput is a valid standalone request for the unrestricted room.
func baseInput() CreateInput {
	return CreateInput{
		Title:     "Algebra lecture",
		RoomID:    1,
		PurposeID: 1,
		Date:      "2026-09-10",
		StartTime: "14:00",
		EndTime:   "16:00",
		Party:     PartySpec{Type: model.PartyTypeSelf},
	}
}
