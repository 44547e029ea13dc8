package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS rooms (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL UNIQUE COLLATE NOCASE,
			capacity      INTEGER NOT NULL DEFAULT 0,
			amenities     TEXT NOT NULL DEFAULT '',
			description   TEXT NOT NULL DEFAULT '',
			active        INTEGER NOT NULL DEFAULT 1,
			open_minutes  INTEGER NOT NULL CHECK(open_minutes >= 0),
			close_minutes INTEGER NOT NULL CHECK(close_minutes <= 1440),
			CHECK(open_minutes < close_minutes)
		);

		CREATE TABLE IF NOT EXISTS bookings (
			id            TEXT PRIMARY KEY,
			room_id       TEXT NOT NULL REFERENCES rooms(id),
			booking_date  DATE NOT NULL,
			start_minutes INTEGER NOT NULL,
			end_minutes   INTEGER NOT NULL,
			title         TEXT NOT NULL,
			description   TEXT NOT NULL DEFAULT '',
			user_id       TEXT NOT NULL DEFAULT '',
			status        TEXT DEFAULT 'confirmed' CHECK(status IN ('confirmed', 'pending', 'cancelled', 'completed')),
			created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
			CHECK(start_minutes < end_minutes)
		);

		CREATE INDEX IF NOT EXISTS idx_bookings_room_date ON bookings(room_id, booking_date);
		CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id, booking_date);
		CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	return nil
}
