package patch

import (
	"errors"
	"sync"

	"github.com/mesh-intelligence/wardrobe/internal/game"
	"github.com/mesh-intelligence/wardrobe/internal/meta"
)

// Guard reverts the overlays of one Apply call. Close is idempotent and safe
// on a nil guard, so callers can defer it unconditionally.
type Guard struct {
	m     *Manager
	id    uint64
	cells []cellKey
	once  sync.Once
	err   error
}

// Len returns the number of overlays the guard applied.
func (g *Guard) Len() int {
	if g == nil {
		return 0
	}
	return len(g.cells)
}

// Close reverts the guard's overlays in reverse order of application.
func (g *Guard) Close() error {
	if g == nil {
		return nil
	}
	g.once.Do(func() {
		if len(g.cells) > 0 {
			g.err = g.m.release(g.id, g.cells)
		}
	})
	return g.err
}

// GuardSet closes several guards together, newest first. A model creation
// opens one guard per table kind and holds them in a set.
type GuardSet struct {
	guards []*Guard
}

// Add appends g. Nil guards are ignored.
func (s *GuardSet) Add(g *Guard) {
	if g != nil {
		s.guards = append(s.guards, g)
	}
}

// Len returns the number of guards held.
func (s *GuardSet) Len() int { return len(s.guards) }

// Close closes every guard in reverse order and empties the set.
func (s *GuardSet) Close() error {
	var errs []error
	for i := len(s.guards) - 1; i >= 0; i-- {
		if err := s.guards[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.guards = nil
	return errors.Join(errs...)
}

// ApplyEqp overlays the EQP manipulations of the sets a currently wears,
// with the global visibility rules that apply to a forced on. A slot whose
// set has no EQP manipulation but is affected by a global rule gets an
// overlay that only sets the forced flags on top of whatever lies beneath it.
func (m *Manager) ApplyEqp(d *meta.Dictionary, a game.Appearance) (*Guard, error) {
	g := m.newGuard()
	for _, slot := range game.EquipmentSlots {
		id := meta.EqpIdentifier{SetID: a.Item(slot), Slot: slot}
		var forced meta.EqpEntry
		for rule := range d.GlobalEqp() {
			if rule.Applies(a) {
				forced |= rule.Force(0) & meta.EqpMask(slot)
			}
		}

		var entry any = forcedEqp(forced)
		if e, ok := d.Get(id); ok {
			entry = e.(meta.EqpEntry) | forced
		} else if forced == 0 {
			continue
		}
		if err := m.overlay(g, id, entry); err != nil {
			return nil, errors.Join(err, g.Close())
		}
	}
	return g, nil
}

// ForGenderRace selects identifiers of kinds keyed by model race that match
// gr. Identifiers without a race pass.
func ForGenderRace(gr game.GenderRace) Scope {
	return func(id meta.Identifier) bool {
		switch id := id.(type) {
		case meta.EqdpIdentifier:
			return id.GenderRace == gr
		case meta.EstIdentifier:
			return id.GenderRace == gr
		case meta.AtchIdentifier:
			return id.GenderRace == gr
		default:
			return true
		}
	}
}

// ForClan selects racial scaling identifiers of clan.
func ForClan(clan game.SubRace) Scope {
	return func(id meta.Identifier) bool {
		r, ok := id.(meta.RspIdentifier)
		return !ok || r.SubRace == clan
	}
}

// ForSet selects per-set identifiers of set id.
func ForSet(set game.PrimaryID) Scope {
	return func(id meta.Identifier) bool {
		switch id := id.(type) {
		case meta.EqpIdentifier:
			return id.SetID == set
		case meta.EqdpIdentifier:
			return id.SetID == set
		case meta.GmpIdentifier:
			return id.SetID == set
		case meta.EstIdentifier:
			return id.SetID == set
		default:
			return true
		}
	}
}

// ForImc selects the IMC rows of one file: the object type, primary id and,
// where the file is keyed by it, the secondary id and body slot of file.
func ForImc(file meta.ImcIdentifier) Scope {
	return func(id meta.Identifier) bool {
		imc, ok := id.(meta.ImcIdentifier)
		if !ok {
			return true
		}
		if imc.ObjectType != file.ObjectType || imc.PrimaryID != file.PrimaryID {
			return false
		}
		switch imc.ObjectType {
		case game.ObjectEquipment, game.ObjectAccessory:
			return true
		case game.ObjectCharacter:
			return imc.SecondaryID == file.SecondaryID && imc.BodySlot == file.BodySlot
		default:
			return imc.SecondaryID == file.SecondaryID
		}
	}
}

// All combines scopes; every one must select an identifier.
func All(scopes ...Scope) Scope {
	return func(id meta.Identifier) bool {
		for _, s := range scopes {
			if s != nil && !s(id) {
				return false
			}
		}
		return true
	}
}
