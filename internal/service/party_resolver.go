package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusrooms/reserve/internal/model"
)

// PartySpec tells the resolver who answers for a batch of reservations.
type PartySpec struct {
	Type model.PartyType
	// UnitCodes are person codes, required for PartyTypeUnit.
	UnitCodes []int64
	// ExternalNames are free-text names, required for PartyTypeExternal.
	ExternalNames []string
}

// PartyResolver turns a party spec into deduplicated party records and
// attaches them to every reservation of a batch.
type PartyResolver struct {
	parties   PartyStore
	directory Directory
	logger    *zap.Logger
}

func NewPartyResolver(parties PartyStore, directory Directory, logger *zap.Logger) *PartyResolver {
	return &PartyResolver{parties: parties, directory: directory, logger: logger}
}

// Attach syncs an already resolved party set onto each reservation,
// replacing whatever was attached before.
func (pr *PartyResolver) Attach(ctx context.Context, resolved []*model.ResponsibleParty, batch []*model.Reservation) error {
	if len(resolved) == 0 {
		return nil
	}

	ids := make([]int64, len(resolved))
	for i, p := range resolved {
		ids[i] = p.ID
	}
	for _, r := range batch {
		if err := pr.parties.SyncParties(ctx, r.ID, ids); err != nil {
			return fmt.Errorf("sync parties for reservation %d: %w", r.ID, err)
		}
		r.Parties = resolved
	}
	return nil
}

// Resolve turns a party spec into deduplicated party records. Callers
// resolve before persisting a batch so a bad spec aborts with nothing
// written.
func (pr *PartyResolver) Resolve(ctx context.Context, spec PartySpec, requester *model.User) ([]*model.ResponsibleParty, error) {
	switch spec.Type {
	case model.PartyTypeSelf:
		p, err := pr.parties.GetOrCreate(ctx, requester.Name, requester.PersonCode)
		if err != nil {
			return nil, fmt.Errorf("resolve self party: %w", err)
		}
		return []*model.ResponsibleParty{p}, nil

	case model.PartyTypeUnit:
		parties := make([]*model.ResponsibleParty, 0, len(spec.UnitCodes))
		for _, code := range spec.UnitCodes {
			name := pr.lookupName(ctx, code)
			code := code
			p, err := pr.parties.GetOrCreate(ctx, name, &code)
			if err != nil {
				return nil, fmt.Errorf("resolve unit party %d: %w", code, err)
			}
			parties = append(parties, p)
		}
		return parties, nil

	case model.PartyTypeExternal:
		parties := make([]*model.ResponsibleParty, 0, len(spec.ExternalNames))
		for _, name := range spec.ExternalNames {
			p, err := pr.parties.GetOrCreate(ctx, name, nil)
			if err != nil {
				return nil, fmt.Errorf("resolve external party %q: %w", name, err)
			}
			parties = append(parties, p)
		}
		return parties, nil
	}

	return nil, fmt.Errorf("unknown party type %q", spec.Type)
}

// lookupName asks the directory for a display name. A failed lookup is
// logged and replaced with a placeholder, never fatal.
func (pr *PartyResolver) lookupName(ctx context.Context, code int64) string {
	if pr.directory != nil {
		name, err := pr.directory.LookupName(ctx, code)
		if err == nil && name != "" {
			return name
		}
		if err != nil {
			pr.logger.Warn("directory lookup failed",
				zap.Int64("person_code", code),
				zap.Error(err),
			)
		}
	}
	return fmt.Sprintf("User %d", code)
}
