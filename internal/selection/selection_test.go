package selection

import (
	"errors"
	"slices"
	"testing"

	"github.com/javiermolinar/meetin/internal/slotgrid"
)

// gridFromString creates annotated slots from string notation over a
// 30-minute grid starting at 08:00.
// - "-" is a free slot
// - "X" is a busy slot
// - "." is a past slot
func gridFromString(s string) []slotgrid.Slot {
	slots := make([]slotgrid.Slot, len(s))
	for i, ch := range s {
		start := 480 + i*30
		slots[i] = slotgrid.Slot{Index: i, StartMinutes: start, EndMinutes: start + 30}
		switch ch {
		case 'X':
			slots[i].Busy = true
			slots[i].OccupyingBookingID = "b"
		case '.':
			slots[i].PastCutoff = true
		}
	}
	return slots
}

// selectionString renders the machine's selection over its grid:
// "#" for selected slots, the grid notation otherwise.
func selectionString(m *Machine) string {
	grid := m.Grid()
	out := []byte(slotgrid.Pattern(grid))
	for _, i := range m.Selected() {
		out[i] = '#'
	}
	return string(out)
}

func TestBegin(t *testing.T) {
	tests := []struct {
		name    string
		grid    string
		slot    int
		wantErr error
	}{
		{name: "free slot", grid: "--------", slot: 2},
		{name: "busy slot", grid: "--X-----", slot: 2, wantErr: ErrSlotUnavailable},
		{name: "past slot", grid: "..------", slot: 1, wantErr: ErrSlotUnavailable},
		{name: "negative", grid: "--------", slot: -1, wantErr: ErrInvalidSlot},
		{name: "past the end", grid: "--------", slot: 8, wantErr: ErrInvalidSlot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(gridFromString(tt.grid))
			err := m.Begin(tt.slot)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got error %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if m.State() != Idle || m.Selected() != nil {
					t.Errorf("failed Begin should stay idle, got %s %v", m.State(), m.Selected())
				}
				return
			}
			if m.State() != Selecting || m.Anchor() != tt.slot || m.Active() != tt.slot {
				t.Errorf("got state=%s anchor=%d active=%d", m.State(), m.Anchor(), m.Active())
			}
			if !slices.Equal(m.Selected(), []int{tt.slot}) {
				t.Errorf("Selected = %v", m.Selected())
			}
		})
	}

	m := New(gridFromString("----"))
	_ = m.Begin(0)
	if err := m.Begin(1); !errors.Is(err, ErrNotIdle) {
		t.Errorf("second Begin: got %v, want %v", err, ErrNotIdle)
	}
}

func TestExtend(t *testing.T) {
	tests := []struct {
		name          string
		grid          string
		begin         int
		extend        []int
		want          string
		wantTruncated bool
	}{
		{name: "forward", grid: "--------", begin: 2, extend: []int{5}, want: "--####--"},
		{name: "backward", grid: "--------", begin: 5, extend: []int{2}, want: "--####--"},
		{name: "back to anchor", grid: "--------", begin: 3, extend: []int{6, 3}, want: "---#----"},
		{name: "shrink", grid: "--------", begin: 1, extend: []int{6, 4}, want: "-####---"},
		{name: "flip direction", grid: "--------", begin: 4, extend: []int{7, 1}, want: "-####---"},
		// Slots 3 and 4 busy: begin(2), extend(6) stops before slot 3.
		{name: "stops before busy", grid: "---XX---", begin: 2, extend: []int{6}, want: "--#XX---", wantTruncated: true},
		{name: "stops before busy backward", grid: "-X------", begin: 5, extend: []int{0}, want: "-X####--", wantTruncated: true},
		{name: "stops before past", grid: "...-----", begin: 5, extend: []int{0}, want: "...###--", wantTruncated: true},
		{name: "clamps high", grid: "--------", begin: 5, extend: []int{50}, want: "-----###"},
		{name: "clamps low", grid: "--------", begin: 2, extend: []int{-3}, want: "###-----"},
		{name: "regrow after truncation", grid: "----X---", begin: 1, extend: []int{7, 3}, want: "-###X---"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(gridFromString(tt.grid))
			if err := m.Begin(tt.begin); err != nil {
				t.Fatalf("Begin: %v", err)
			}
			for _, i := range tt.extend {
				if err := m.Extend(i); err != nil {
					t.Fatalf("Extend(%d): %v", i, err)
				}
			}
			if got := selectionString(m); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if m.Truncated() != tt.wantTruncated {
				t.Errorf("Truncated = %v, want %v", m.Truncated(), tt.wantTruncated)
			}
			if m.Anchor() != tt.begin {
				t.Errorf("Anchor = %d, want %d", m.Anchor(), tt.begin)
			}
		})
	}
}

func TestExtend_ActiveFollowsPointer(t *testing.T) {
	m := New(gridFromString("---XX---"))
	_ = m.Begin(2)
	_ = m.Extend(6)
	if m.Active() != 6 {
		t.Errorf("Active = %d, want 6 even though the run was truncated", m.Active())
	}
	if m.Contains(6) || !m.Contains(2) {
		t.Error("Contains disagrees with the selected run")
	}
}

func TestExtend_NotSelecting(t *testing.T) {
	m := New(gridFromString("----"))
	if err := m.Extend(2); !errors.Is(err, ErrNotSelecting) {
		t.Errorf("idle Extend: got %v, want %v", err, ErrNotSelecting)
	}
	_ = m.Begin(0)
	_ = m.Release()
	if err := m.Extend(2); !errors.Is(err, ErrNotSelecting) {
		t.Errorf("committed Extend: got %v, want %v", err, ErrNotSelecting)
	}
}

// Whatever sequence of extends is applied, the selection stays a contiguous
// run of selectable slots containing the anchor.
func TestExtend_NeverCrossesUnavailable(t *testing.T) {
	grids := []string{"--X--X---.", "X--------X", "-.-X-X-.--", "----------", "XXXX-XXXXX"}
	for _, g := range grids {
		slots := gridFromString(g)
		for anchor := range slots {
			m := New(slots)
			if err := m.Begin(anchor); err != nil {
				continue
			}
			for step := 0; step < 30; step++ {
				target := (anchor*7+step*13)%(len(slots)+4) - 2
				if err := m.Extend(target); err != nil {
					t.Fatalf("Extend(%d): %v", target, err)
				}
				sel := m.Selected()
				if !slices.Contains(sel, anchor) {
					t.Fatalf("grid %q: selection %v lost anchor %d", g, sel, anchor)
				}
				for k, i := range sel {
					if !slots[i].Selectable() {
						t.Fatalf("grid %q: selection %v includes unavailable slot %d", g, sel, i)
					}
					if k > 0 && sel[k-1]+1 != i {
						t.Fatalf("grid %q: selection %v is not contiguous", g, sel)
					}
				}
			}
		}
	}
}

func TestRelease(t *testing.T) {
	m := New(gridFromString("--------"))
	if err := m.Release(); !errors.Is(err, ErrNotSelecting) {
		t.Errorf("idle Release: got %v, want %v", err, ErrNotSelecting)
	}

	_ = m.Begin(1)
	_ = m.Extend(3)
	if err := m.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if m.State() != Committed {
		t.Fatalf("State = %s, want committed", m.State())
	}
	start, end, ok := m.Range()
	if !ok || start != 510 || end != 600 {
		t.Errorf("Range = %d, %d, %v; want 510, 600, true", start, end, ok)
	}
	if err := m.Release(); !errors.Is(err, ErrNotSelecting) {
		t.Errorf("second Release: got %v, want %v", err, ErrNotSelecting)
	}
}

func TestConsume(t *testing.T) {
	m := New(gridFromString("--------"))
	if _, err := m.Consume(); !errors.Is(err, ErrNotCommitted) {
		t.Errorf("idle Consume: got %v, want %v", err, ErrNotCommitted)
	}

	_ = m.Begin(4)
	_ = m.Extend(2)
	if _, err := m.Consume(); !errors.Is(err, ErrNotCommitted) {
		t.Errorf("selecting Consume: got %v, want %v", err, ErrNotCommitted)
	}
	_ = m.Release()

	slots, err := m.Consume()
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(slots) != 3 || slots[0].StartMinutes != 540 || slots[2].EndMinutes != 630 {
		t.Errorf("Consume returned %+v", slots)
	}
	if m.State() != Idle || m.Selected() != nil {
		t.Errorf("after Consume: state=%s selected=%v", m.State(), m.Selected())
	}
}

func TestCancel_Idempotent(t *testing.T) {
	setups := map[string]func(m *Machine){
		"idle": func(m *Machine) {},
		"selecting": func(m *Machine) {
			_ = m.Begin(1)
			_ = m.Extend(4)
		},
		"committed": func(m *Machine) {
			_ = m.Begin(1)
			_ = m.Extend(4)
			_ = m.Release()
		},
	}
	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			m := New(gridFromString("--------"))
			setup(m)
			for range 2 {
				m.Cancel()
				if m.State() != Idle || len(m.Selected()) != 0 || m.Anchor() != -1 || m.Active() != -1 {
					t.Fatalf("after Cancel: state=%s selected=%v anchor=%d active=%d",
						m.State(), m.Selected(), m.Anchor(), m.Active())
				}
			}
			if err := m.Begin(0); err != nil {
				t.Errorf("Begin after Cancel: %v", err)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	m := New(gridFromString("--------"))
	_ = m.Begin(6)
	_ = m.Extend(7)

	m.Rebind(gridFromString("----"))
	if m.State() != Idle || m.Selected() != nil {
		t.Errorf("Rebind should cancel the selection, got %s %v", m.State(), m.Selected())
	}
	if len(m.Grid()) != 4 {
		t.Errorf("Grid has %d slots, want 4", len(m.Grid()))
	}
	if err := m.Begin(6); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("index from old grid: got %v, want %v", err, ErrInvalidSlot)
	}
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name        string
		grid        string
		commit      bool
		refreshed   string
		wantDropped bool
		want        string
	}{
		{"committed, unchanged", "--------", true, "--------", false, "--###---"},
		{"committed, busy elsewhere", "--------", true, "X------X", false, "X-###--X"},
		{"committed, selected slot taken", "--------", true, "---X----", true, "---X----"},
		{"committed, selected slot past", "--------", true, "...-----", true, "...-----"},
		{"selecting, run grows", "-----X--", false, "--------", false, "--####--"},
		{"selecting, run shrinks", "--------", false, "-----X--", true, "-----X--"},
		{"different grid", "--------", true, "------", true, "------"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(gridFromString(tt.grid))
			_ = m.Begin(2)
			_ = m.Extend(5)
			wantState := Selecting
			if tt.commit {
				_ = m.Extend(4)
				_ = m.Release()
				wantState = Committed
			}

			dropped := m.Refresh(gridFromString(tt.refreshed))
			if dropped != tt.wantDropped {
				t.Errorf("Refresh() = %v, want %v", dropped, tt.wantDropped)
			}
			if got := selectionString(m); got != tt.want {
				t.Errorf("selection = %q, want %q", got, tt.want)
			}
			if dropped && m.State() != Idle {
				t.Errorf("state = %s, want idle", m.State())
			}
			if !dropped && m.State() != wantState {
				t.Errorf("state = %s, want %s", m.State(), wantState)
			}
		})
	}
}

func TestRefresh_Idle(t *testing.T) {
	m := New(gridFromString("----"))
	if m.Refresh(gridFromString("-X--")) {
		t.Error("Refresh of an idle machine should not report a dropped selection")
	}
	if !m.Grid()[1].Busy {
		t.Error("Refresh should bind the new grid")
	}
}

func TestSelected_ReturnsCopy(t *testing.T) {
	m := New(gridFromString("----"))
	_ = m.Begin(0)
	_ = m.Extend(2)
	sel := m.Selected()
	sel[0] = 99
	if m.Selected()[0] != 0 {
		t.Error("mutating Selected result changed the machine")
	}
}

func TestState_String(t *testing.T) {
	if Idle.String() != "idle" || Selecting.String() != "selecting" || Committed.String() != "committed" {
		t.Error("unexpected state names")
	}
}
