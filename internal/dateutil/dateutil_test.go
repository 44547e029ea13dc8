package dateutil

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Run("valid date", func(t *testing.T) {
		got, err := ParseDate("2025-01-15")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("empty defaults to today", func(t *testing.T) {
		got, err := ParseDate("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !SameDay(got, time.Now()) {
			t.Errorf("got %v, want today", got)
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := ParseDate("01-15-2025")
		if !errors.Is(err, ErrInvalidDateFormat) {
			t.Errorf("got error %v, want %v", err, ErrInvalidDateFormat)
		}
	})
}

func TestNewDateRange(t *testing.T) {
	// Friday, January 10, 2025
	friday := time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		start     string
		end       string
		wantStart int
		wantEnd   int
		wantErr   error
	}{
		{name: "absolute", start: "2025-01-15", end: "2025-01-20", wantStart: 15, wantEnd: 20},
		{name: "empty end is start", start: "2025-01-15", wantStart: 15, wantEnd: 15},
		{name: "empty start is today", end: "monday", wantStart: 10, wantEnd: 13},
		{name: "relative both", start: "yesterday", end: "tomorrow", wantStart: 9, wantEnd: 11},
		{name: "end before start", start: "2025-01-20", end: "2025-01-15", wantErr: ErrEndDateBeforeStart},
		{name: "relative end before start", start: "tomorrow", end: "today", wantErr: ErrEndDateBeforeStart},
		{name: "bad start", start: "someday", wantErr: ErrInvalidDateFormat},
		{name: "bad end", end: "01/20/2025", wantErr: ErrInvalidDateFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dr, err := NewDateRange(tt.start, tt.end, friday)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dr.Start.Day() != tt.wantStart || dr.End.Day() != tt.wantEnd {
				t.Errorf("got %v..%v, want days %d..%d", dr.Start, dr.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParseDay_AbsoluteInLocation(t *testing.T) {
	tokyo := time.FixedZone("UTC+9", 9*3600)
	got, err := ParseDay("2025-01-15", time.Date(2025, 1, 10, 8, 0, 0, 0, tokyo))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2025, 1, 15, 0, 0, 0, 0, tokyo); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWeekRange(t *testing.T) {
	tests := []struct {
		name       string
		input      time.Time
		wantMonday int
	}{
		{name: "monday", input: time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC), wantMonday: 6},
		{name: "wednesday", input: time.Date(2025, 1, 8, 14, 0, 0, 0, time.UTC), wantMonday: 6},
		{name: "sunday belongs to previous monday", input: time.Date(2025, 1, 12, 23, 59, 0, 0, time.UTC), wantMonday: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monday, sunday := WeekRange(tt.input)
			if monday.Day() != tt.wantMonday || monday.Weekday() != time.Monday {
				t.Errorf("monday: got %v", monday)
			}
			if sunday.Weekday() != time.Sunday || sunday.Sub(monday) != 6*24*time.Hour {
				t.Errorf("sunday: got %v", sunday)
			}
		})
	}
}

func TestWeekDays(t *testing.T) {
	days := WeekDays(time.Date(2025, 12, 4, 15, 0, 0, 0, time.UTC)) // Thursday
	if days[0].Day() != 1 || days[0].Weekday() != time.Monday {
		t.Fatalf("first day = %v, want Monday 1st", days[0])
	}
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) != 24*time.Hour {
			t.Errorf("day %d not consecutive: %v after %v", i, days[i], days[i-1])
		}
	}
}

func TestSameDay(t *testing.T) {
	local := time.FixedZone("UTC-5", -5*3600)
	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{
			name: "same instant",
			a:    time.Date(2025, 12, 2, 9, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 12, 2, 9, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "different times same day",
			a:    time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 12, 2, 23, 59, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "utc and local midnight of the same calendar day",
			a:    time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 12, 2, 0, 0, 0, 0, local),
			want: true,
		},
		{
			name: "adjacent days",
			a:    time.Date(2025, 12, 2, 23, 59, 0, 0, time.UTC),
			b:    time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "same day different month",
			a:    time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameDay(tt.a, tt.b); got != tt.want {
				t.Errorf("SameDay = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompareDays(t *testing.T) {
	a := time.Date(2025, 12, 2, 18, 0, 0, 0, time.UTC)
	b := time.Date(2025, 12, 3, 1, 0, 0, 0, time.UTC)
	if CompareDays(a, b) != -1 || CompareDays(b, a) != 1 || CompareDays(a, a) != 0 {
		t.Errorf("CompareDays ordering wrong")
	}
	if CompareDays(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) != -1 {
		t.Errorf("year boundary should order earlier")
	}
}

func TestTruncateToDay(t *testing.T) {
	input := time.Date(2025, 1, 15, 14, 30, 45, 123456789, time.UTC)
	got := TruncateToDay(input)
	want := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseDay(t *testing.T) {
	// Friday, January 10, 2025
	friday := time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
	}{
		{input: "", want: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)},
		{input: "TODAY", want: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)},
		{input: "tomorrow", want: time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)},
		{input: "yesterday", want: time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)},
		{input: "next-week", want: time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)},
		{input: "monday", want: time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)},
		{input: "friday", want: time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)},
		{input: "next-tuesday", want: time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC)},
		{input: "  Sunday ", want: time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)},
		{input: "2024-12-24", want: time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDay(tt.input, friday)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRelativeDate_Errors(t *testing.T) {
	friday := time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "past absolute date", input: "2025-01-09", wantErr: ErrDateInPast},
		{name: "yesterday", input: "yesterday", wantErr: ErrDateInPast},
		{name: "us style", input: "01-10-2025", wantErr: ErrInvalidDateFormat},
		{name: "typo weekday", input: "mondya", wantErr: ErrInvalidDateFormat},
		{name: "next- without weekday", input: "next-", wantErr: ErrInvalidDateFormat},
		{name: "random text", input: "foo", wantErr: ErrInvalidDateFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRelativeDate(tt.input, friday)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}

	got, err := ParseRelativeDate("2025-01-10", friday)
	if err != nil || got.Day() != 10 {
		t.Errorf("today as absolute date: got %v, %v", got, err)
	}
}
