// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

package sp3

import (
	"testing"
	"time"
)

// TestFixedRoundTrip checks that decimals format back digit for digit.
func TestFixedRoundTrip(t *testing.T) {
	var testData = []struct {
		input string
		width int
		want  string
	}{
		{"0.00000000", 16, "      0.00000000"},
		{"259200.00000000", 16, " 259200.00000000"},
		{"900.00000000", 14, "  900.00000000"},
		{"0.0000000000000", 16, " 0.0000000000000"},
		{"0.4537037037037", 16, " 0.4537037037037"},
		{"604799.99999999", 16, " 604799.99999999"},
		{"12.", 4, " 12."},
	}

	for _, td := range testData {
		f, err := ParseFixed(td.input)
		if err != nil {
			t.Errorf("%q: %v", td.input, err)
			continue
		}
		if got := f.Format(td.width); got != td.want {
			t.Errorf("%q: want %q got %q", td.input, td.want, got)
		}
	}
}

// TestFixedValues checks the numeric views of a decimal.
func TestFixedValues(t *testing.T) {
	f, err := ParseFixed(" 1.25")
	if err != nil {
		t.Fatal(err)
	}
	if f.Int != 1 || f.Frac != 25 || f.Digits != 2 {
		t.Errorf("want {1 25 2} got %+v", f)
	}
	if f.Float64() != 1.25 {
		t.Errorf("want 1.25 got %g", f.Float64())
	}
	if f.Duration() != 1250*time.Millisecond {
		t.Errorf("want 1.25s got %s", f.Duration())
	}

	g := FixedFromDuration(900*time.Second+500*time.Millisecond, 8)
	if want := "900.50000000"; g.String() != want {
		t.Errorf("want %s got %s", want, g.String())
	}
}

// TestFixedErrors checks that signed or empty values are refused.
func TestFixedErrors(t *testing.T) {
	for _, bad := range []string{"", "-1.0", "+2.5", "1.2.3", "a.5", "1.0000000000000000000"} {
		if _, err := ParseFixed(bad); err == nil {
			t.Errorf("%q: want an error", bad)
		}
	}
}
