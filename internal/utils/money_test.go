package utils

import "testing"

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "Rp0"},
		{1500, "Rp1.500"},
		{150000, "Rp150.000"},
		{1234567, "Rp1.234.567"},
		{-2500, "-Rp2.500"},
	}
	for _, tc := range cases {
		if got := FormatRupiah(tc.in); got != tc.want {
			t.Fatalf("FormatRupiah(%d) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestHalfUp(t *testing.T) {
	cases := []struct {
		in   int64
		want int64
	}{
		{20000, 10000},
		{15001, 7501},
		{1, 1},
		{0, 0},
		{-5, 0},
	}
	for _, tc := range cases {
		if got := HalfUp(tc.in); got != tc.want {
			t.Fatalf("HalfUp(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseRupiahToInt(t *testing.T) {
	got, err := ParseRupiahToInt("Rp 1.500")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got != 1500 {
		t.Fatalf("got %d want 1500", got)
	}
	if _, err := ParseRupiahToInt("Rp"); err == nil {
		t.Fatalf("string kosong harus error")
	}
}
