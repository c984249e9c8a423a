package models

import "testing"

func TestCoverage_Valid(t *testing.T) {
	valid := []Coverage{CoverageFullyAddressed, CoveragePartiallyAddressed, CoverageNotAddressed}
	for _, c := range valid {
		if !c.Valid() {
			t.Errorf("%q should be valid", c)
		}
	}
	for _, c := range []Coverage{"", "addressed", "FULLY_ADDRESSED"} {
		if c.Valid() {
			t.Errorf("%q should be invalid", c)
		}
	}
}

func TestClampConfidence(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{-5, 0},
		{0, 0},
		{42, 42},
		{100, 100},
		{250, 100},
	}
	for _, c := range cases {
		if got := ClampConfidence(c.in); got != c.want {
			t.Errorf("ClampConfidence(%d)=%d, want %d", c.in, got, c.want)
		}
	}
}
