package meta

import (
	"iter"
	"slices"
)

// Dictionary holds the manipulations of one collection, at most one entry per
// identifier. The zero value is an empty dictionary. Count always equals the
// number of stored identifiers, and an empty dictionary holds no storage.
//
// A Dictionary is not safe for concurrent mutation.
type Dictionary struct {
	stores *[kindCount]kindStore
	count  int
}

// Count returns the number of manipulations of every kind.
func (d *Dictionary) Count() int {
	if d == nil {
		return 0
	}
	return d.count
}

// IsEmpty reports whether the dictionary holds nothing.
func (d *Dictionary) IsEmpty() bool { return d.Count() == 0 }

// CountOf returns the number of manipulations of kind k.
func (d *Dictionary) CountOf(k Kind) int {
	if s := d.store(k); s != nil {
		return s.len()
	}
	return 0
}

func (d *Dictionary) store(k Kind) kindStore {
	if d == nil || d.stores == nil || k == KindUnknown || int(k) >= kindCount {
		return nil
	}
	return d.stores[k]
}

// ensure returns the store of kind k, allocating storage as needed.
func (d *Dictionary) ensure(k Kind) kindStore {
	if d.stores == nil {
		d.stores = new([kindCount]kindStore)
	}
	if d.stores[k] == nil {
		d.stores[k] = newStore(k)
	}
	return d.stores[k]
}

// settle applies a count delta and drops storage once the dictionary is empty.
func (d *Dictionary) settle(delta int) {
	d.count += delta
	if d.count == 0 {
		d.stores = nil
	}
}

// validKind reports whether id names a known kind.
func validKind(id Identifier) bool {
	if id == nil {
		return false
	}
	k := id.Kind()
	return k != KindUnknown && int(k) < kindCount
}

// TryAdd stores entry under id when id is valid, the entry is valid for its
// kind, and id is not already present.
func (d *Dictionary) TryAdd(id Identifier, entry any) bool {
	if !validKind(id) || !id.Validate() || !ValidEntry(id, entry) {
		return false
	}
	if s := d.store(id.Kind()); s != nil {
		if _, exists := s.get(id); exists {
			return false
		}
	}
	if !d.ensure(id.Kind()).add(id, entry) {
		if d.count == 0 {
			d.stores = nil
		}
		return false
	}
	d.settle(1)
	return true
}

// Update replaces the entry of an identifier that is already present.
func (d *Dictionary) Update(id Identifier, entry any) bool {
	if !validKind(id) || !ValidEntry(id, entry) {
		return false
	}
	s := d.store(id.Kind())
	return s != nil && s.update(id, entry)
}

// Remove deletes id and reports whether it was present.
func (d *Dictionary) Remove(id Identifier) bool {
	if !validKind(id) {
		return false
	}
	s := d.store(id.Kind())
	if s == nil || !s.remove(id) {
		return false
	}
	d.settle(-1)
	return true
}

// Get returns the entry stored under id. The entry of a GlobalEqp
// manipulation is struct{}{}.
func (d *Dictionary) Get(id Identifier) (any, bool) {
	if !validKind(id) {
		return nil, false
	}
	if s := d.store(id.Kind()); s != nil {
		return s.get(id)
	}
	return nil, false
}

// Contains reports whether id is present.
func (d *Dictionary) Contains(id Identifier) bool {
	_, ok := d.Get(id)
	return ok
}

// Clear removes everything.
func (d *Dictionary) Clear() {
	d.stores = nil
	d.count = 0
}

// UnionWith adds every manipulation of o whose identifier is absent from d.
// Entries already in d win.
func (d *Dictionary) UnionWith(o *Dictionary) {
	if o.IsEmpty() || d == o {
		return
	}
	added := 0
	for _, k := range Kinds {
		if src := o.store(k); src != nil && src.len() > 0 {
			added += d.ensure(k).union(src)
		}
	}
	d.settle(added)
}

// MergeForced adds the manipulations of o, walking kinds in serialization
// order and identifiers in sorted order. It stops at the first identifier
// already present in d and returns it; entries added before the conflict
// remain.
func (d *Dictionary) MergeForced(o *Dictionary) (bool, Identifier) {
	if o.IsEmpty() {
		return true, nil
	}
	if d == o {
		return false, o.Identifiers()[0]
	}
	added := 0
	defer func() { d.settle(added) }()
	for _, k := range Kinds {
		src := o.store(k)
		if src == nil || src.len() == 0 {
			continue
		}
		n, conflict, ok := d.ensure(k).mergeForced(src)
		added += n
		if !ok {
			return false, conflict
		}
	}
	return true, nil
}

// SetTo replaces the contents of d with a copy of o.
func (d *Dictionary) SetTo(o *Dictionary) {
	if d == o {
		return
	}
	d.Clear()
	if o.IsEmpty() {
		return
	}
	d.stores = new([kindCount]kindStore)
	for _, k := range Kinds {
		if src := o.store(k); src != nil {
			d.stores[k] = src.clone()
		}
	}
	d.count = o.count
}

// UpdateTo copies every manipulation of o into d, replacing entries of
// identifiers present in both.
func (d *Dictionary) UpdateTo(o *Dictionary) {
	if o.IsEmpty() || d == o {
		return
	}
	added := 0
	for _, k := range Kinds {
		if src := o.store(k); src != nil && src.len() > 0 {
			added += d.ensure(k).overlay(src)
		}
	}
	d.settle(added)
}

// Clone returns an independent copy.
func (d *Dictionary) Clone() *Dictionary {
	c := &Dictionary{}
	c.SetTo(d)
	return c
}

// Equal reports whether both dictionaries hold the same entries.
func (d *Dictionary) Equal(o *Dictionary) bool {
	if d.Count() != o.Count() {
		return false
	}
	for _, k := range Kinds {
		a, b := d.store(k), o.store(k)
		switch {
		case a == nil || a.len() == 0:
			if b != nil && b.len() != 0 {
				return false
			}
		case b == nil:
			return false
		case !a.equal(b):
			return false
		}
	}
	return true
}

// Identifiers returns every identifier in serialization order.
func (d *Dictionary) Identifiers() []Identifier {
	out := make([]Identifier, 0, d.Count())
	for _, k := range Kinds {
		if s := d.store(k); s != nil {
			out = append(out, s.ids()...)
		}
	}
	return out
}

// All iterates every manipulation in serialization order.
func (d *Dictionary) All() iter.Seq2[Identifier, any] {
	return func(yield func(Identifier, any) bool) {
		for _, id := range d.Identifiers() {
			e, _ := d.Get(id)
			if !yield(id, e) {
				return
			}
		}
	}
}

// Change is one difference reported by Diff.
type Change struct {
	ID Identifier
	// Old is nil for additions, New is nil for removals.
	Old any
	New any
}

// Diff returns the changes that turn d into o, in serialization order.
func (d *Dictionary) Diff(o *Dictionary) []Change {
	var out []Change
	for _, id := range d.Identifiers() {
		old, _ := d.Get(id)
		if nu, ok := o.Get(id); !ok {
			out = append(out, Change{ID: id, Old: old})
		} else if nu != old {
			out = append(out, Change{ID: id, Old: old, New: nu})
		}
	}
	for _, id := range o.Identifiers() {
		if !d.Contains(id) {
			nu, _ := o.Get(id)
			out = append(out, Change{ID: id, New: nu})
		}
	}
	slices.SortStableFunc(out, func(a, b Change) int { return compareIdentifiers(a.ID, b.ID) })
	return out
}

// compareIdentifiers orders identifiers by kind position, then within a kind.
func compareIdentifiers(a, b Identifier) int {
	ka, kb := slices.Index(Kinds, a.Kind()), slices.Index(Kinds, b.Kind())
	if ka != kb {
		return ka - kb
	}
	switch a := a.(type) {
	case ImcIdentifier:
		return a.Compare(b.(ImcIdentifier))
	case EqdpIdentifier:
		return a.Compare(b.(EqdpIdentifier))
	case EqpIdentifier:
		return a.Compare(b.(EqpIdentifier))
	case EstIdentifier:
		return a.Compare(b.(EstIdentifier))
	case GmpIdentifier:
		return a.Compare(b.(GmpIdentifier))
	case RspIdentifier:
		return a.Compare(b.(RspIdentifier))
	case GlobalEqpManipulation:
		return a.Compare(b.(GlobalEqpManipulation))
	case AtchIdentifier:
		return a.Compare(b.(AtchIdentifier))
	case ShpIdentifier:
		return a.Compare(b.(ShpIdentifier))
	case AtrIdentifier:
		return a.Compare(b.(AtrIdentifier))
	default:
		return 0
	}
}

// ValidEntry reports whether entry has the right type for id's kind and holds
// legal values for the table slot id addresses.
func ValidEntry(id Identifier, entry any) bool {
	switch id := id.(type) {
	case ImcIdentifier:
		e, ok := entry.(ImcEntry)
		return ok && e.Validate()
	case EqdpIdentifier:
		e, ok := entry.(EqdpEntry)
		return ok && e&^EqdpMask(id.Slot) == 0
	case EqpIdentifier:
		e, ok := entry.(EqpEntry)
		return ok && e&^EqpMask(id.Slot) == 0
	case EstIdentifier:
		_, ok := entry.(EstEntry)
		return ok
	case GmpIdentifier:
		e, ok := entry.(GmpEntry)
		return ok && e&^GmpUsedBits == 0
	case RspIdentifier:
		e, ok := entry.(RspEntry)
		return ok && e.Validate()
	case GlobalEqpManipulation:
		if entry == nil {
			return true
		}
		_, ok := entry.(struct{})
		return ok
	case AtchIdentifier:
		e, ok := entry.(AtchEntry)
		return ok && e.Validate()
	case ShpIdentifier:
		_, ok := entry.(ShpEntry)
		return ok
	case AtrIdentifier:
		_, ok := entry.(AtrEntry)
		return ok
	default:
		return false
	}
}

func typed[K ordered[K], V comparable](d *Dictionary, k Kind) iter.Seq2[K, V] {
	s := d.store(k)
	if s == nil {
		return func(func(K, V) bool) {}
	}
	return sorted(s.(*store[K, V]).m)
}

// Imc iterates IMC manipulations in identifier order.
func (d *Dictionary) Imc() iter.Seq2[ImcIdentifier, ImcEntry] {
	return typed[ImcIdentifier, ImcEntry](d, KindImc)
}

// Eqdp iterates EQDP manipulations in identifier order.
func (d *Dictionary) Eqdp() iter.Seq2[EqdpIdentifier, EqdpEntry] {
	return typed[EqdpIdentifier, EqdpEntry](d, KindEqdp)
}

// Eqp iterates EQP manipulations in identifier order.
func (d *Dictionary) Eqp() iter.Seq2[EqpIdentifier, EqpEntry] {
	return typed[EqpIdentifier, EqpEntry](d, KindEqp)
}

// Est iterates EST manipulations in identifier order.
func (d *Dictionary) Est() iter.Seq2[EstIdentifier, EstEntry] {
	return typed[EstIdentifier, EstEntry](d, KindEst)
}

// Gmp iterates GMP manipulations in identifier order.
func (d *Dictionary) Gmp() iter.Seq2[GmpIdentifier, GmpEntry] {
	return typed[GmpIdentifier, GmpEntry](d, KindGmp)
}

// Rsp iterates racial scaling manipulations in identifier order.
func (d *Dictionary) Rsp() iter.Seq2[RspIdentifier, RspEntry] {
	return typed[RspIdentifier, RspEntry](d, KindRsp)
}

// GlobalEqp iterates the global visibility rules in order.
func (d *Dictionary) GlobalEqp() iter.Seq[GlobalEqpManipulation] {
	return func(yield func(GlobalEqpManipulation) bool) {
		for m := range typed[GlobalEqpManipulation, struct{}](d, KindGlobalEqp) {
			if !yield(m) {
				return
			}
		}
	}
}

// Atch iterates attachment manipulations in identifier order.
func (d *Dictionary) Atch() iter.Seq2[AtchIdentifier, AtchEntry] {
	return typed[AtchIdentifier, AtchEntry](d, KindAtch)
}

// Shp iterates shape key manipulations in identifier order.
func (d *Dictionary) Shp() iter.Seq2[ShpIdentifier, ShpEntry] {
	return typed[ShpIdentifier, ShpEntry](d, KindShp)
}

// Atr iterates attribute manipulations in identifier order.
func (d *Dictionary) Atr() iter.Seq2[AtrIdentifier, AtrEntry] {
	return typed[AtrIdentifier, AtrEntry](d, KindAtr)
}
