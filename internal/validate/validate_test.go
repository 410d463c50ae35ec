package validate

import (
	"errors"
	"testing"
	"time"
)

var now = time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)

func TestDate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		allowPast bool
		wantErr   error
	}{
		{"future date", "2025-07-01", false, nil},
		{"past date rejected", "2025-06-01", false, ErrDateInPast},
		{"past date allowed", "2025-06-01", true, nil},
		{"today counts as past midday", "2025-06-15", false, ErrDateInPast},
		{"bad format", "15.06.2025", false, ErrDateFormat},
		{"garbage", "soon", false, ErrDateFormat},
		{"empty", "", false, ErrDateFormat},
		{"surrounding spaces", " 2025-07-01 ", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Date(tt.input, now, tt.allowPast)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Date(%q) err = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestOrdered(t *testing.T) {
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	if err := Ordered(start, start); err != nil {
		t.Fatalf("equal dates should be ordered: %v", err)
	}
	if err := Ordered(start, start.AddDate(0, 0, 3)); err != nil {
		t.Fatalf("later end should be ordered: %v", err)
	}
	if err := Ordered(start, start.AddDate(0, 0, -1)); !errors.Is(err, ErrEndBefore) {
		t.Fatalf("earlier end should fail, got %v", err)
	}
}

func TestEmail(t *testing.T) {
	valid := []string{"a@b.io", "first.last@corp.example.com", "x+tag@mail.co"}
	for _, s := range valid {
		if err := Email(s); err != nil {
			t.Errorf("Email(%q) = %v, want nil", s, err)
		}
	}
	invalid := []string{"", "plain", "a@b", "a b@c.io", "@no.local", "a@.io"}
	for _, s := range invalid {
		if err := Email(s); !errors.Is(err, ErrEmailFormat) {
			t.Errorf("Email(%q) = %v, want ErrEmailFormat", s, err)
		}
	}
}

func TestYear(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr error
	}{
		{"2024", 2024, nil},
		{"2025", 2025, nil},
		{"2026", 0, ErrYearFuture},
		{"1999", 0, ErrYearTooOld},
		{"2000", 2000, nil},
		{"20x4", 0, ErrYearFormat},
		{"", 0, ErrYearFormat},
	}
	for _, tt := range tests {
		got, err := Year(tt.input, now)
		if !errors.Is(err, tt.wantErr) || got != tt.want {
			t.Errorf("Year(%q) = (%d, %v), want (%d, %v)", tt.input, got, err, tt.want, tt.wantErr)
		}
	}
}
