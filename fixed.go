// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.12
//

package sp3

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Fixed is a non-negative decimal kept as an integer part and a fractional
// numerator over 10^Digits, so that it formats back digit for digit.
type Fixed struct {
	Int    int64
	Frac   int64
	Digits int
}

func ParseFixed(s string) (Fixed, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return Fixed{}, fmt.Errorf("invalid decimal %q", s)
	}
	ip, fp, _ := strings.Cut(s, ".")
	var f Fixed
	var err error
	if ip != "" {
		f.Int, err = strconv.ParseInt(ip, 10, 64)
		if err != nil {
			return Fixed{}, err
		}
	}
	if fp != "" {
		if len(fp) > 18 {
			return Fixed{}, fmt.Errorf("too many fractional digits in %q", s)
		}
		f.Frac, err = strconv.ParseInt(fp, 10, 64)
		if err != nil || f.Frac < 0 {
			return Fixed{}, fmt.Errorf("invalid fraction in %q", s)
		}
		f.Digits = len(fp)
	}
	return f, nil
}

// Build from seconds and nanoseconds with the given number of fractional digits
func FixedFromDuration(d time.Duration, digits int) Fixed {
	sec := int64(d / time.Second)
	ns := int64(d % time.Second)
	return Fixed{Int: sec, Frac: rescale(ns, 9, digits), Digits: digits}
}

func (p Fixed) Float64() float64 {
	return float64(p.Int) + float64(p.Frac)/math.Pow10(p.Digits)
}

// Fractional part in nanoseconds (truncated below 1ns)
func (p Fixed) Nanos() int64 {
	return rescale(p.Frac, p.Digits, 9)
}

func (p Fixed) Duration() time.Duration {
	return time.Duration(p.Int)*time.Second + time.Duration(p.Nanos())
}

// Right-aligned in a field of the given width
func (p Fixed) Format(width int) string {
	var s string
	if p.Digits > 0 {
		s = fmt.Sprintf("%d.%0*d", p.Int, p.Digits, p.Frac)
	} else {
		s = fmt.Sprintf("%d.", p.Int)
	}
	return fmt.Sprintf("%*s", width, s)
}

func (p Fixed) String() string {
	return strings.TrimSpace(p.Format(0))
}

func rescale(v int64, from, to int) int64 {
	for ; from < to; from++ {
		v *= 10
	}
	for ; from > to; from-- {
		v /= 10
	}
	return v
}
