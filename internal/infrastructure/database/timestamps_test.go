package database

import (
	"database/sql"
	"sort"
	"testing"
	"time"
)

func TestFormatTime_SortsChronologically(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 5, 0, time.UTC)
	times := []time.Time{
		base.Add(120 * time.Millisecond),
		base.Add(100 * time.Millisecond),
		base,
		base.Add(time.Second),
	}

	formatted := make([]string, len(times))
	for i, tm := range times {
		formatted[i] = FormatTime(tm)
	}
	sort.Strings(formatted)

	want := []string{
		FormatTime(base),
		FormatTime(base.Add(100 * time.Millisecond)),
		FormatTime(base.Add(120 * time.Millisecond)),
		FormatTime(base.Add(time.Second)),
	}
	for i := range want {
		if formatted[i] != want[i] {
			t.Errorf("sorted[%d] = %s, want %s", i, formatted[i], want[i])
		}
	}
}

func TestParseTime_RoundTrip(t *testing.T) {
	in := time.Date(2026, 3, 1, 9, 0, 5, 123456000, time.FixedZone("BRT", -3*3600))

	got, err := ParseTime(FormatTime(in))
	if err != nil {
		t.Fatalf("ParseTime() error = %v", err)
	}
	if !got.Equal(in) {
		t.Errorf("ParseTime() = %v, want %v", got, in)
	}
	if got.Location() != time.UTC {
		t.Errorf("ParseTime() location = %v, want UTC", got.Location())
	}
}

func TestParseTime_AcceptsRFC3339(t *testing.T) {
	if _, err := ParseTime("2026-03-01T09:00:05Z"); err != nil {
		t.Errorf("ParseTime(RFC3339) error = %v", err)
	}
	if _, err := ParseTime("yesterday"); err == nil {
		t.Error("ParseTime(garbage) expected error")
	}
}

func TestParseNullTime(t *testing.T) {
	got, err := ParseNullTime(sql.NullString{})
	if err != nil || got != nil {
		t.Errorf("ParseNullTime(NULL) = %v, %v; want nil, nil", got, err)
	}

	now := time.Now()
	got, err = ParseNullTime(sql.NullString{String: FormatTime(now), Valid: true})
	if err != nil {
		t.Fatalf("ParseNullTime() error = %v", err)
	}
	if got == nil || got.Sub(now).Abs() > time.Microsecond {
		t.Errorf("ParseNullTime() = %v, want %v", got, now)
	}

	if NullTime(nil) != nil {
		t.Error("NullTime(nil) should be nil")
	}
}
