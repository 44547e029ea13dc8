// Package selection tracks a contiguous range selection over a day's slots.
package selection

import (
	"errors"
	"fmt"

	"github.com/javiermolinar/meetin/internal/slotgrid"
)

// Machine errors.
var (
	ErrSlotUnavailable = errors.New("slot is booked or already past")
	ErrInvalidSlot     = errors.New("invalid slot index")
	ErrNotIdle         = errors.New("a selection is already in progress")
	ErrNotSelecting    = errors.New("not selecting")
	ErrNotCommitted    = errors.New("no committed selection")
)

// State is the selection lifecycle state.
type State int

const (
	Idle      State = iota // nothing selected
	Selecting              // anchor set, range follows the pointer
	Committed              // range released and waiting to be consumed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Committed:
		return "committed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Machine holds a selection bound to one grid (one room on one day).
// The selected indices are always a contiguous run of selectable slots
// that contains the anchor.
type Machine struct {
	index    *slotgrid.Index
	state    State
	anchor   int
	active   int
	selected []int // ascending
}

// New creates an idle Machine over annotated slots.
func New(slots []slotgrid.Slot) *Machine {
	m := &Machine{}
	m.Rebind(slots)
	return m
}

// Rebind replaces the grid, e.g. after the room, day or bookings changed.
// Any selection is cancelled since its indices belong to the old grid.
func (m *Machine) Rebind(slots []slotgrid.Slot) {
	m.index = slotgrid.NewIndex(slots)
	m.Cancel()
}

// Refresh rebinds to a re-annotated copy of the same grid, e.g. after the
// day's bookings were reloaded. The selection survives when the slot
// boundaries are unchanged and every selected slot is still selectable;
// otherwise it is cancelled. While Selecting the run is recomputed toward the
// active slot. Refresh reports whether a selection was dropped.
func (m *Machine) Refresh(slots []slotgrid.Slot) bool {
	old := m.index
	m.index = slotgrid.NewIndex(slots)
	if m.state == Idle {
		return false
	}
	if !sameBounds(old.Slots(), slots) {
		m.Cancel()
		return true
	}
	for _, i := range m.selected {
		if !m.index.Selectable(i) {
			m.Cancel()
			return true
		}
	}
	if m.state == Selecting {
		_ = m.Extend(m.active)
	}
	return false
}

func sameBounds(a, b []slotgrid.Slot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].StartMinutes != b[i].StartMinutes || a[i].EndMinutes != b[i].EndMinutes {
			return false
		}
	}
	return true
}

// Begin starts a selection at slot i.
func (m *Machine) Begin(i int) error {
	if m.state != Idle {
		return ErrNotIdle
	}
	if i < 0 || i >= m.index.Len() {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, i)
	}
	if !m.index.Selectable(i) {
		return fmt.Errorf("%w: slot %d", ErrSlotUnavailable, i)
	}
	m.state = Selecting
	m.anchor = i
	m.active = i
	m.selected = []int{i}
	return nil
}

// Extend moves the active end of the selection to slot i. The run grows
// from the anchor toward i and stops before the first unselectable slot,
// so it may be shorter than the pointer's position. Indices outside the
// grid are clamped to its edges.
func (m *Machine) Extend(i int) error {
	if m.state != Selecting {
		return ErrNotSelecting
	}
	i = max(0, min(i, m.index.Len()-1))
	m.active = i

	step := 1
	if i < m.anchor {
		step = -1
	}
	run := []int{m.anchor}
	for j := m.anchor + step; j-step != i; j += step {
		if !m.index.Selectable(j) {
			break
		}
		run = append(run, j)
	}
	if step < 0 {
		for l, r := 0, len(run)-1; l < r; l, r = l+1, r-1 {
			run[l], run[r] = run[r], run[l]
		}
	}
	m.selected = run
	return nil
}

// Release ends the drag. A non-empty selection becomes Committed,
// an empty one returns to Idle.
func (m *Machine) Release() error {
	if m.state != Selecting {
		return ErrNotSelecting
	}
	if len(m.selected) == 0 {
		m.Cancel()
		return nil
	}
	m.state = Committed
	return nil
}

// Cancel clears the selection from any state.
func (m *Machine) Cancel() {
	m.state = Idle
	m.anchor = -1
	m.active = -1
	m.selected = nil
}

// Consume hands the committed slots to the caller and returns to Idle.
func (m *Machine) Consume() ([]slotgrid.Slot, error) {
	if m.state != Committed {
		return nil, ErrNotCommitted
	}
	slots := m.SelectedSlots()
	m.Cancel()
	return slots, nil
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Anchor returns the slot where the selection began, -1 when idle.
func (m *Machine) Anchor() int {
	return m.anchor
}

// Active returns the slot last passed to Begin or Extend, -1 when idle.
func (m *Machine) Active() int {
	return m.active
}

// Selected returns a copy of the selected slot indices in ascending order.
func (m *Machine) Selected() []int {
	if len(m.selected) == 0 {
		return nil
	}
	out := make([]int, len(m.selected))
	copy(out, m.selected)
	return out
}

// SelectedSlots returns the selected slots in ascending order.
func (m *Machine) SelectedSlots() []slotgrid.Slot {
	var out []slotgrid.Slot
	for _, i := range m.selected {
		if s, ok := m.index.Slot(i); ok {
			out = append(out, s)
		}
	}
	return out
}

// Contains returns true if slot i is selected.
func (m *Machine) Contains(i int) bool {
	if len(m.selected) == 0 {
		return false
	}
	return i >= m.selected[0] && i <= m.selected[len(m.selected)-1]
}

// Truncated returns true if the run stopped short of the active slot.
func (m *Machine) Truncated() bool {
	return m.state != Idle && !m.Contains(m.active)
}

// Range returns the selected interval in minutes.
func (m *Machine) Range() (start, end int, ok bool) {
	slots := m.SelectedSlots()
	if len(slots) == 0 {
		return 0, 0, false
	}
	return slots[0].StartMinutes, slots[len(slots)-1].EndMinutes, true
}

// Grid returns the slots the machine is bound to.
func (m *Machine) Grid() []slotgrid.Slot {
	return m.index.Slots()
}
