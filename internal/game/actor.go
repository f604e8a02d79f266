package game

// Special object table slots. Actors in these slots are stand-ins the client
// renders for UI screens rather than world entities.
const (
	IndexCutsceneStart   ObjectIndex = 200
	IndexGPosePlayer     ObjectIndex = 201
	IndexCutsceneEnd     ObjectIndex = 240
	IndexCharacterScreen ObjectIndex = 240
	IndexExamineScreen   ObjectIndex = 241
	IndexFittingRoom     ObjectIndex = 242
	IndexDyePreview      ObjectIndex = 243
	IndexPortrait        ObjectIndex = 244
	IndexCardStart       ObjectIndex = 245
	IndexCardEnd         ObjectIndex = 252
	IndexTotal           ObjectIndex = 253
)

// IsCutscene reports whether idx lies in the cutscene copy range.
func (idx ObjectIndex) IsCutscene() bool {
	return idx >= IndexCutsceneStart && idx < IndexCutsceneEnd
}

// Customize is the decoded customization block of a human model.
type Customize struct {
	Race     Race
	Gender   Gender
	BodyType BodyType
	Clan     SubRace
	Face     PrimaryID
	Hair     PrimaryID
	Tail     PrimaryID
}

// GenderRace returns the model race code of c.
func (c Customize) GenderRace() GenderRace {
	return CombinedRace(c.Gender, c.Clan)
}

// Weapon identifies a weapon model.
type Weapon struct {
	Primary   PrimaryID
	Secondary SecondaryID
	Variant   Variant
}

// Appearance is the set of model ids an actor currently shows. It drives the
// actor-filtered projection of a collection's manipulations.
type Appearance struct {
	GenderRace GenderRace
	Clan       SubRace
	Equipment  [10]PrimaryID // indexed by EquipSlot - SlotHead
	Face       PrimaryID
	Hair       PrimaryID
	MainHand   Weapon
	OffHand    Weapon
}

// Item returns the set id worn in slot, or 0 for non-equipment slots.
func (a Appearance) Item(slot EquipSlot) PrimaryID {
	if slot < SlotHead || slot > SlotLFinger {
		return 0
	}
	return a.Equipment[slot-SlotHead]
}

// SetItem sets the set id worn in slot.
func (a *Appearance) SetItem(slot EquipSlot, id PrimaryID) {
	if slot < SlotHead || slot > SlotLFinger {
		return
	}
	a.Equipment[slot-SlotHead] = id
}

// Actor is a live entity in the host's object table. Implementations wrap host
// memory; every method must be cheap and must not block.
type Actor interface {
	Address() Address
	Index() ObjectIndex
	Kind() ObjectKind
	// Name is empty until the host has populated it.
	Name() string
	HomeWorld() WorldID
	DataID() uint32
	// IsHuman reports whether the actor renders with a human model.
	IsHuman() bool
	// Customize returns false while the customization data is not populated.
	Customize() (Customize, bool)
	Appearance() Appearance
	// Owner returns the owning actor of minions, mounts and battle pets.
	Owner() (Actor, bool)
}

// ObjectTable looks up live actors.
type ObjectTable interface {
	ByIndex(idx ObjectIndex) (Actor, bool)
	ByAddress(addr Address) (Actor, bool)
	LocalPlayer() (Actor, bool)
}

// ClientState reports session-wide host state.
type ClientState interface {
	IsLoggedIn() bool
	// InCharacterEditor reports whether a character editing screen is open.
	InCharacterEditor() bool
}

// CutsceneTracker maps cutscene and gpose copies back to the actor they copy.
type CutsceneTracker interface {
	Parent(idx ObjectIndex) (ObjectIndex, bool)
}
