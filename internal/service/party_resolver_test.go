package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusrooms/reserve/internal/model"
)

func attach(t *testing.T, e *testEnv, spec PartySpec, batch ...*model.Reservation) error {
	t.Helper()
	resolver := NewPartyResolver(e.parties, e.directory, zap.NewNop())
	resolved, err := resolver.Resolve(context.Background(), spec, requester)
	if err != nil {
		return err
	}
	return resolver.Attach(context.Background(), resolved, batch)
}

func TestAttachSelf(t *testing.T) {
	e := newTestEnv()
	r := e.store.seed(&model.Reservation{Title: "Lecture", RoomID: 1, RequesterID: requester.ID, Date: mustDate("2026-09-10")})

	require.NoError(t, attach(t, e, PartySpec{Type: model.PartyTypeSelf}, r))

	require.Len(t, r.Parties, 1)
	assert.Equal(t, "Ana Souza", r.Parties[0].Name)
	require.NotNil(t, r.Parties[0].PersonCode)
	assert.Equal(t, int64(4455), *r.Parties[0].PersonCode)
	assert.Equal(t, []int64{r.Parties[0].ID}, e.parties.attached[r.ID])
}

func TestAttachUnit(t *testing.T) {
	e := newTestEnv()
	e.directory.names[111] = "Prof. Oak"
	r := e.store.seed(&model.Reservation{Title: "Lecture", RoomID: 1, RequesterID: requester.ID, Date: mustDate("2026-09-10")})

	spec := PartySpec{Type: model.PartyTypeUnit, UnitCodes: []int64{111, 222}}
	require.NoError(t, attach(t, e, spec, r))

	require.Len(t, r.Parties, 2)
	assert.Equal(t, "Prof. Oak", r.Parties[0].Name)
	// Unknown codes get a placeholder name, not an error.
	assert.Equal(t, "User 222", r.Parties[1].Name)
}

func TestAttachUnitDirectoryFailure(t *testing.T) {
	e := newTestEnv()
	e.directory.err = errors.New("ldap timeout")
	r := e.store.seed(&model.Reservation{Title: "Lecture", RoomID: 1, RequesterID: requester.ID, Date: mustDate("2026-09-10")})

	spec := PartySpec{Type: model.PartyTypeUnit, UnitCodes: []int64{333}}
	require.NoError(t, attach(t, e, spec, r))

	require.Len(t, r.Parties, 1)
	assert.Equal(t, "User 333", r.Parties[0].Name)
}

func TestAttachExternal(t *testing.T) {
	e := newTestEnv()
	r := e.store.seed(&model.Reservation{Title: "Workshop", RoomID: 1, RequesterID: requester.ID, Date: mustDate("2026-09-10")})

	spec := PartySpec{Type: model.PartyTypeExternal, ExternalNames: []string{"Guest Speaker", "Visiting Fellow"}}
	require.NoError(t, attach(t, e, spec, r))

	require.Len(t, r.Parties, 2)
	assert.Nil(t, r.Parties[0].PersonCode)
	assert.Nil(t, r.Parties[1].PersonCode)
}

func TestAttachSharesPartyRecords(t *testing.T) {
	e := newTestEnv()
	a := e.store.seed(&model.Reservation{Title: "A", RoomID: 1, RequesterID: requester.ID, Date: mustDate("2026-09-10")})
	b := e.store.seed(&model.Reservation{Title: "B", RoomID: 1, RequesterID: requester.ID, Date: mustDate("2026-09-11")})

	spec := PartySpec{Type: model.PartyTypeSelf}
	require.NoError(t, attach(t, e, spec, a))
	require.NoError(t, attach(t, e, spec, b))

	// The same person resolves to one shared record, not duplicates.
	assert.Len(t, e.parties.byKey, 1)
	assert.Equal(t, a.Parties[0].ID, b.Parties[0].ID)
}

func TestResolveUnknownType(t *testing.T) {
	e := newTestEnv()
	resolver := NewPartyResolver(e.parties, e.directory, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), PartySpec{Type: "committee"}, requester)
	assert.Error(t, err)
}

func TestCreatePartyResolutionFailureAborts(t *testing.T) {
	e := newTestEnv()
	e.parties.getOrCreateErr = errors.New("parties table unavailable")

	_, err := e.svc.Create(context.Background(), requester, baseInput())
	require.Error(t, err)
	assert.Empty(t, e.store.items, "nothing is persisted when the party spec cannot be resolved")
}

func TestCreateAttachFailureKeepsBooking(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.parties.syncErr = errors.New("join table unavailable")

	res, err := e.svc.Create(ctx, requester, baseInput())
	require.NoError(t, err, "a committed booking is never reported as failed")
	require.Len(t, res.Reservations, 1)

	stored, _ := e.store.GetByID(ctx, res.Reservations[0].ID)
	require.NotNil(t, stored)
	assert.Empty(t, e.parties.attached)
}

func TestUpdatePartyResolutionFailureLeavesReservation(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	res, err := e.svc.Create(ctx, requester, baseInput())
	require.NoError(t, err)
	id := res.Reservations[0].ID

	e.parties.getOrCreateErr = errors.New("parties table unavailable")
	spec := PartySpec{Type: model.PartyTypeSelf}
	_, err = e.svc.Update(ctx, requester, id, UpdateInput{Title: strptr("Renamed"), Party: &spec})
	require.Error(t, err)

	stored, _ := e.store.GetByID(ctx, id)
	assert.Equal(t, "Algebra lecture", stored.Title, "a failed resolve aborts before any write")
}
