package slotgrid

// Index answers point queries over an annotated grid.
type Index struct {
	slots       []Slot
	origin      int
	granularity int
	uniform     bool
}

// NewIndex wraps annotated slots. The slice is not copied; callers must not
// mutate it afterwards.
func NewIndex(slots []Slot) *Index {
	x := &Index{slots: slots}
	if len(slots) > 0 {
		x.origin = slots[0].StartMinutes
		x.granularity = slots[0].EndMinutes - slots[0].StartMinutes
		x.uniform = x.granularity > 0 && uniform(slots)
	}
	return x
}

// Len returns the number of slots.
func (x *Index) Len() int {
	return len(x.slots)
}

// Slots returns the underlying slots.
func (x *Index) Slots() []Slot {
	return x.slots
}

// Slot returns slot i and whether i is in range.
func (x *Index) Slot(i int) (Slot, bool) {
	if i < 0 || i >= len(x.slots) {
		return Slot{}, false
	}
	return x.slots[i], true
}

// IsBusy returns true if slot i is occupied by a booking.
// Out of range indices are not busy.
func (x *Index) IsBusy(i int) bool {
	s, ok := x.Slot(i)
	return ok && s.Busy
}

// Selectable returns true if slot i exists and is neither busy nor past.
func (x *Index) Selectable(i int) bool {
	s, ok := x.Slot(i)
	return ok && s.Selectable()
}

// BookingAt returns the ID of the booking occupying slot i.
func (x *Index) BookingAt(i int) (string, bool) {
	s, ok := x.Slot(i)
	if !ok || !s.Busy {
		return "", false
	}
	return s.OccupyingBookingID, true
}

// SlotAt returns the index of the slot containing minute.
func (x *Index) SlotAt(minute int) (int, bool) {
	if len(x.slots) == 0 {
		return 0, false
	}
	if x.uniform {
		if minute < x.origin {
			return 0, false
		}
		i := (minute - x.origin) / x.granularity
		if i >= len(x.slots) {
			return 0, false
		}
		return i, true
	}
	for i, s := range x.slots {
		if s.StartMinutes <= minute && minute < s.EndMinutes {
			return i, true
		}
	}
	return 0, false
}

// Run is a maximal stretch of consecutive selectable slots.
type Run struct {
	First, Last  int // slot indices, inclusive
	StartMinutes int
	EndMinutes   int
}

// Len returns the number of slots in the run.
func (r Run) Len() int {
	return r.Last - r.First + 1
}

// Duration returns the run length in minutes.
func (r Run) Duration() int {
	return r.EndMinutes - r.StartMinutes
}

// FreeRuns returns the selectable runs in grid order.
func (x *Index) FreeRuns() []Run {
	var runs []Run
	for i := 0; i < len(x.slots); i++ {
		if !x.slots[i].Selectable() {
			continue
		}
		j := i
		for j+1 < len(x.slots) && x.slots[j+1].Selectable() {
			j++
		}
		runs = append(runs, Run{
			First:        i,
			Last:         j,
			StartMinutes: x.slots[i].StartMinutes,
			EndMinutes:   x.slots[j].EndMinutes,
		})
		i = j
	}
	return runs
}
