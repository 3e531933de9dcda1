package utils

import (
	"math"
	"testing"
)

func TestToFixed(t *testing.T) {
	tests := []struct {
		input    float64
		digits   int
		expected string
	}{
		{33.00000000000001, 0, "33"},
		{2.5, 0, "3"},
		{-2.5, 0, "-3"},
		{1.25, 1, "1.3"},
		{0.004, 2, "0.00"},
		{-0.004, 2, "0.00"},
		{12.3456, 3, "12.346"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := ToFixed(tt.input, tt.digits)
			if result != tt.expected {
				t.Errorf("ToFixed(%v, %d) = %s, want %s", tt.input, tt.digits, result, tt.expected)
			}
		})
	}
}

func TestLabelClean(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0"},
		{950, "950"},
		{12.34, "12.3"},
		{2000, "2K"},
		{1234567, "1.2M"},
		{64_900_000, "64.9M"},
		{3_000_000_000, "3B"},
		{-4500, "-4.5K"},
		{math.NaN(), ""},
		{math.Inf(1), ""},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := LabelClean(tt.input)
			if result != tt.expected {
				t.Errorf("LabelClean(%v) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSignedFormats(t *testing.T) {
	if got := SignedPct(3.456); got != "+3.46%" {
		t.Errorf("SignedPct: got %q, want %q", got, "+3.46%")
	}
	if got := SignedPct(-1.2); got != "-1.20%" {
		t.Errorf("SignedPct: got %q, want %q", got, "-1.20%")
	}
	if got := SignedPP(0.4213, 2); got != "+0.42 pp" {
		t.Errorf("SignedPP: got %q, want %q", got, "+0.42 pp")
	}
	if got := SignedPP(-0.0421, 3); got != "-0.042 pp" {
		t.Errorf("SignedPP: got %q, want %q", got, "-0.042 pp")
	}
	if got := Signed(0, 1); got != "+0.0" {
		t.Errorf("Signed(0): got %q, want %q", got, "+0.0")
	}
}

func TestWholePct(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0.123, "+12%"},
		{0, "+0%"},
		{-0.05, "-5%"},
		{-0.025, "-2%"},
		{1.5, "+150%"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := WholePct(tt.input); got != tt.expected {
				t.Errorf("WholePct(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAxisPct(t *testing.T) {
	if got := AxisPct(0.5); got != "50%" {
		t.Errorf("AxisPct(0.5) = %q, want %q", got, "50%")
	}
	if got := AxisPct(-0.001); got != "0%" {
		t.Errorf("AxisPct(-0.001) = %q, want %q", got, "0%")
	}
}

func TestMultiplier(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{1, "1×"},
		{1.25, "1.25×"},
		{0.8, "0.8×"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := Multiplier(tt.input); got != tt.expected {
				t.Errorf("Multiplier(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
