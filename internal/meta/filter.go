package meta

import "github.com/mesh-intelligence/wardrobe/internal/game"

// ForAppearance returns the manipulations of d that can affect an actor
// showing a. The result is a new dictionary; d is not modified. Shape and
// attribute entries are keyed by name and are always kept; their slot and
// id conditions are checked when the model is drawn.
func (d *Dictionary) ForAppearance(a game.Appearance) *Dictionary {
	out := &Dictionary{}
	if d.IsEmpty() {
		return out
	}
	for id, e := range d.Eqp() {
		if a.Item(id.Slot) == id.SetID {
			out.TryAdd(id, e)
		}
	}
	for id, e := range d.Eqdp() {
		if id.GenderRace == a.GenderRace && a.Item(id.Slot) == id.SetID {
			out.TryAdd(id, e)
		}
	}
	for id, e := range d.Est() {
		if id.GenderRace == a.GenderRace && estSet(a, id.Slot) == id.SetID {
			out.TryAdd(id, e)
		}
	}
	for id, e := range d.Gmp() {
		if a.Item(game.SlotHead) == id.SetID {
			out.TryAdd(id, e)
		}
	}
	for id, e := range d.Rsp() {
		if id.SubRace == a.Clan {
			out.TryAdd(id, e)
		}
	}
	for m := range d.GlobalEqp() {
		if m.Applies(a) {
			out.TryAdd(m, struct{}{})
		}
	}
	for id, e := range d.Atch() {
		if id.GenderRace == a.GenderRace {
			out.TryAdd(id, e)
		}
	}
	for id, e := range d.Imc() {
		if imcShown(a, id) {
			out.TryAdd(id, e)
		}
	}
	for id, e := range d.Shp() {
		out.TryAdd(id, e)
	}
	for id, e := range d.Atr() {
		out.TryAdd(id, e)
	}
	return out
}

func estSet(a game.Appearance, t EstType) game.PrimaryID {
	switch t {
	case EstHair:
		return a.Hair
	case EstFace:
		return a.Face
	case EstBody:
		return a.Item(game.SlotBody)
	case EstHead:
		return a.Item(game.SlotHead)
	default:
		return 0
	}
}

func imcShown(a game.Appearance, id ImcIdentifier) bool {
	switch id.ObjectType {
	case game.ObjectEquipment, game.ObjectAccessory:
		return a.Item(id.EquipSlot) == id.PrimaryID
	case game.ObjectWeapon:
		w := game.Weapon{Primary: id.PrimaryID, Secondary: id.SecondaryID}
		return sameModel(a.MainHand, w) || sameModel(a.OffHand, w)
	case game.ObjectCharacter:
		switch id.BodySlot {
		case game.BodyHair:
			return a.Hair == game.PrimaryID(id.SecondaryID)
		case game.BodyFace:
			return a.Face == game.PrimaryID(id.SecondaryID)
		default:
			return true
		}
	default:
		return true
	}
}

func sameModel(a, b game.Weapon) bool {
	return a.Primary == b.Primary && a.Secondary == b.Secondary
}
