package utils

import "testing"

func TestParseMonth(t *testing.T) {
	valid := []string{"2015-01", "2025-11", "1999-12"}
	for _, s := range valid {
		if _, err := ParseMonth(s); err != nil {
			t.Errorf("ParseMonth(%q) unexpected error: %v", s, err)
		}
	}

	invalid := []string{"", "2015-13", "2015/01", "2015-01-01", "Jan 2015"}
	for _, s := range invalid {
		if _, err := ParseMonth(s); err == nil {
			t.Errorf("ParseMonth(%q) expected error", s)
		}
	}
}

func TestMonthLabels(t *testing.T) {
	m := MustMonth("2015-01")
	if got := LongMonth(m); got != "January 2015" {
		t.Errorf("LongMonth: got %q, want %q", got, "January 2015")
	}
	if got := ShortMonthYear(m); got != "Jan '15" {
		t.Errorf("ShortMonthYear: got %q, want %q", got, "Jan '15")
	}
	if got := MonthLabel("2025-11"); got != "Nov 2025" {
		t.Errorf("MonthLabel: got %q, want %q", got, "Nov 2025")
	}
	if got := MonthLabel("bad"); got != "bad" {
		t.Errorf("MonthLabel(bad): got %q, want unchanged", got)
	}
	if got := FormatMonth(m); got != "2015-01" {
		t.Errorf("FormatMonth: got %q, want %q", got, "2015-01")
	}
}

func TestMonthsBetween(t *testing.T) {
	if got := MonthsBetween(MustMonth("2015-01"), MustMonth("2025-11")); got != 130 {
		t.Errorf("MonthsBetween: got %d, want 130", got)
	}
	if got := MonthsBetween(MustMonth("2020-06"), MustMonth("2020-03")); got != -3 {
		t.Errorf("MonthsBetween reversed: got %d, want -3", got)
	}
}

func TestAddYearsMonth(t *testing.T) {
	got, err := AddYearsMonth("2025-11", -5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2020-11" {
		t.Errorf("AddYearsMonth: got %q, want %q", got, "2020-11")
	}
	if _, err := AddYearsMonth("nope", 1); err == nil {
		t.Error("expected error for invalid month")
	}
}

func TestDurationLabel(t *testing.T) {
	tests := []struct {
		start, end string
		expected   string
	}{
		{"2015-01", "2025-11", "10 years, 10 months"},
		{"2020-01", "2021-01", "1 year"},
		{"2020-01", "2020-02", "1 month"},
		{"2020-01", "2020-01", "0 months"},
		{"2019-01", "2021-02", "2 years, 1 month"},
		{"2021-01", "2020-01", "0 months"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := DurationLabel(tt.start, tt.end); got != tt.expected {
				t.Errorf("DurationLabel(%s, %s) = %q, want %q", tt.start, tt.end, got, tt.expected)
			}
		})
	}
}
