package booking

import (
	"context"
	"errors"
	"testing"
)

// roomsOnly is a Repository that only knows about rooms.
type roomsOnly struct {
	Repository
	rooms []*Room
	err   error
}

func (r *roomsOnly) GetRoom(_ context.Context, id string) (*Room, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, room := range r.rooms {
		if room.ID == id {
			return room, nil
		}
	}
	return nil, ErrNotFound
}

func (r *roomsOnly) ListRooms(context.Context) ([]*Room, error) {
	return r.rooms, nil
}

func TestFindRoom(t *testing.T) {
	repo := &roomsOnly{rooms: []*Room{
		{ID: "r-1", Name: "Orion"},
		{ID: "r-2", Name: "Vega"},
	}}

	tests := []struct {
		name    string
		ref     string
		wantID  string
		wantErr error
	}{
		{name: "by id", ref: "r-2", wantID: "r-2"},
		{name: "by name", ref: "Orion", wantID: "r-1"},
		{name: "by name ignoring case", ref: " vEgA ", wantID: "r-2"},
		{name: "unknown", ref: "Lyra", wantErr: ErrNotFound},
		{name: "blank", ref: "  ", wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room, err := FindRoom(context.Background(), repo, tt.ref)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got error %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && room.ID != tt.wantID {
				t.Errorf("got room %q, want %q", room.ID, tt.wantID)
			}
		})
	}
}

func TestFindRoom_StorageError(t *testing.T) {
	boom := errors.New("disk on fire")
	repo := &roomsOnly{err: boom}

	if _, err := FindRoom(context.Background(), repo, "Orion"); !errors.Is(err, boom) {
		t.Errorf("got error %v, want %v", err, boom)
	}
}
