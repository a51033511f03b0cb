package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"0", 0, true},
		{"1.23", 1.23, true},
		{"1,23", 1.23, true},
		{"0.01", 0.01, true},
		{" 2.50 ", 2.5, true},
		{"5000", 5000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"12abc", 0, false},
		{"1.2.3", 0, false},
		{"1e5", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"", 0, false},
		{"   ", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error, got %v", tc.in, got)
			}
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{5000, "5000.00"},
		{0, "0.00"},
		{1.5, "1.50"},
		{12.345, "12.35"},
		{0.01, "0.01"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.out {
			t.Fatalf("%v expected %q, got %q", tc.in, tc.out, got)
		}
	}
}
