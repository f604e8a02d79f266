package actors

import "github.com/mesh-intelligence/wardrobe/internal/game"

// AliasSource returns every data id that names the same NPC as id. The client
// ships several ids for one NPC in some localizations.
type AliasSource interface {
	Aliases(kind game.ObjectKind, id uint32) []uint32
}

// Factory builds identifiers from live actors.
type Factory struct {
	objects   game.ObjectTable
	cutscenes game.CutsceneTracker
	aliases   AliasSource
}

// NewFactory returns a Factory. cutscenes and aliases may be nil.
func NewFactory(objects game.ObjectTable, cutscenes game.CutsceneTracker, aliases AliasSource) *Factory {
	return &Factory{objects: objects, cutscenes: cutscenes, aliases: aliases}
}

// FromActor identifies a live actor. Cutscene copies identify as the actor they
// copy when the tracker knows it; UI stand-ins identify as Special.
func (f *Factory) FromActor(a game.Actor) Identifier {
	if a == nil {
		return Invalid
	}
	if s, ok := specialForIndex(a.Index()); ok {
		return NewSpecial(s)
	}
	if a.Index().IsCutscene() && f.cutscenes != nil && f.objects != nil {
		if parentIdx, ok := f.cutscenes.Parent(a.Index()); ok && parentIdx != a.Index() {
			if parent, ok := f.objects.ByIndex(parentIdx); ok {
				return f.FromActor(parent)
			}
		}
	}
	return f.identify(a)
}

func (f *Factory) identify(a game.Actor) Identifier {
	switch kind := a.Kind(); {
	case kind == game.KindPlayer:
		return NewPlayer(a.Name(), a.HomeWorld())
	case kind == game.KindRetainer:
		return NewRetainer(a.Name())
	case kind.IsNpc():
		ids := f.npcIDs(kind, a.DataID())
		if owner, ok := a.Owner(); ok && owner.Kind() == game.KindPlayer {
			return NewOwned(owner.Name(), owner.HomeWorld(), kind, ids...)
		}
		return NewNpc(kind, ids...)
	default:
		return Invalid
	}
}

func (f *Factory) npcIDs(kind game.ObjectKind, id uint32) []uint32 {
	if f.aliases == nil {
		return []uint32{id}
	}
	ids := f.aliases.Aliases(kind, id)
	return append(ids, id)
}

func specialForIndex(idx game.ObjectIndex) (SpecialActor, bool) {
	switch {
	case idx == game.IndexGPosePlayer:
		return SpecialGPosePlayer, true
	case idx == game.IndexCharacterScreen:
		return SpecialCharacterScreen, true
	case idx == game.IndexExamineScreen:
		return SpecialExamineScreen, true
	case idx == game.IndexFittingRoom:
		return SpecialFittingRoom, true
	case idx == game.IndexDyePreview:
		return SpecialDyePreview, true
	case idx == game.IndexPortrait:
		return SpecialPortrait, true
	case idx >= game.IndexCardStart && idx <= game.IndexCardEnd:
		return SpecialCard, true
	default:
		return SpecialNone, false
	}
}
