package inventory

import "sort"

// EquipmentSet maps slot keys to the item equipped there and caches the aggregate
// defense of all equipped armor.
// It is not safe for concurrent use; the caller must serialise access.
type EquipmentSet struct {
	slots   map[string]*Equipment
	defense int
}

// NewEquipmentSet returns an empty EquipmentSet.
//
// Postcondition: Defense() == 0 and All() is empty.
func NewEquipmentSet() *EquipmentSet {
	return &EquipmentSet{slots: make(map[string]*Equipment)}
}

// Equip stores item under item.Slot, silently replacing any previous occupant.
// Equipping armor, or displacing armor with gear, recomputes the aggregate defense.
//
// Precondition: item must not be nil.
// Postcondition: Item(item.Slot) == item; Defense() is the sum over equipped armor.
func (s *EquipmentSet) Equip(item *Equipment) {
	prev, had := s.slots[item.Slot]
	s.slots[item.Slot] = item
	if item.Kind == KindArmor || (had && prev.Kind == KindArmor) {
		s.recomputeDefense()
	}
}

// recomputeDefense sums the defense contribution of every equipped item.
func (s *EquipmentSet) recomputeDefense() {
	total := 0
	for _, item := range s.slots {
		total += item.DefenseContribution()
	}
	s.defense = total
}

// Defense returns the defense computed at the last armor change.
func (s *EquipmentSet) Defense() int { return s.defense }

// Item returns the item in slot and whether the slot is occupied.
func (s *EquipmentSet) Item(slot string) (*Equipment, bool) {
	e, ok := s.slots[slot]
	return e, ok
}

// All returns the equipped items ordered by slot key.
func (s *EquipmentSet) All() []*Equipment {
	out := make([]*Equipment, 0, len(s.slots))
	for _, e := range s.slots {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}
