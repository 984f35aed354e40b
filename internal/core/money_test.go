package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  any
		out float64
	}{
		{"Rp15.000,00", 15000},
		{"Rp10.000,00", 10000},
		{"Rp250.000", 250000},
		{"rp 1.500", 1500},
		{"15000", 15000},
		{"15.000,50", 15000.5},
		{"0,75", 0.75},
		{float64(12500), 12500},
		{42, 42},
		{"", 0},
		{nil, 0},
		{"n/a", 0},
		{"Rp", 0},
		{"abc", 0},
		{true, 0},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got != tc.out {
			t.Fatalf("ParseAmount(%v) = %v, want %v", tc.in, got, tc.out)
		}
	}
}

func TestParseAmountStrictReportsMalformedInput(t *testing.T) {
	if _, err := ParseAmountStrict("abc"); err == nil {
		t.Fatal("expected error for malformed string")
	}
	if _, err := ParseAmountStrict(struct{}{}); err == nil {
		t.Fatal("expected error for unsupported type")
	}
	// Empty input is absent, not malformed.
	if v, err := ParseAmountStrict(""); err != nil || v != 0 {
		t.Fatalf("empty string: got %v, %v", v, err)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{15000, "Rp15.000,00"},
		{250000, "Rp250.000,00"},
		{0, "Rp0,00"},
		{1234567.5, "Rp1.234.567,50"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.out {
			t.Fatalf("FormatAmount(%v) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 500, 15000, 250000.25} {
		if got := ParseAmount(FormatAmount(v)); got != v {
			t.Fatalf("round trip %v -> %q -> %v", v, FormatAmount(v), got)
		}
	}
}
