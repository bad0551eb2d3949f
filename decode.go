// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.13
//

package sp3

import (
	"strconv"
	"strings"
)

// Column range [from, to) of a line, clamped to the line length
func cols(l string, from, to int) string {
	if from >= len(l) {
		return ""
	}
	if to > len(l) {
		to = len(l)
	}
	return l[from:to]
}

func parseInt(s string, kind error) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fieldError(kind, s)
	}
	return v, nil
}

// Read real values, accepting the Fortran 'D' exponent some producers write
func parseFloat(s string, kind error) (float64, error) {
	t := strings.TrimSpace(s)
	if strings.ContainsAny(t, "Dd") {
		t = strings.Replace(t, "D", "E", 1)
		t = strings.Replace(t, "d", "e", 1)
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fieldError(kind, s)
	}
	return v, nil
}

func parseFixed(s string, kind error) (Fixed, error) {
	v, err := ParseFixed(s)
	if err != nil {
		return Fixed{}, fieldError(kind, s)
	}
	return v, nil
}

func parseSat(s string) (SatID, error) {
	sat, err := ParseSatID(strings.TrimRight(s, " "))
	if err != nil {
		return SatID{}, fieldError(ErrSatellite, s)
	}
	return sat, nil
}

func parseRanged(s string, lo, hi int, kind error) (int, error) {
	v, err := parseInt(s, kind)
	if err != nil {
		return 0, err
	}
	if v < lo || v > hi {
		return 0, fieldError(kind, s)
	}
	return v, nil
}

// Read date and time "yyyy mm dd hh mm ss.ffffffff" starting at column 3.
// Epoch lines and header line #1 share this layout.
func parseEpoch(l string, scale TimeScale) (Epoch, error) {
	year, err := parseInt(cols(l, 3, 7), ErrEpochYear)
	if err != nil {
		return Epoch{}, err
	}
	month, err := parseRanged(cols(l, 8, 10), 1, 12, ErrEpochMonth)
	if err != nil {
		return Epoch{}, err
	}
	day, err := parseRanged(cols(l, 11, 13), 1, 31, ErrEpochDay)
	if err != nil {
		return Epoch{}, err
	}
	hour, err := parseRanged(cols(l, 14, 16), 0, 23, ErrEpochHours)
	if err != nil {
		return Epoch{}, err
	}
	minute, err := parseRanged(cols(l, 17, 19), 0, 59, ErrEpochMinutes)
	if err != nil {
		return Epoch{}, err
	}
	sec, err := parseRanged(cols(l, 19, 22), 0, 60, ErrEpochSeconds)
	if err != nil {
		return Epoch{}, err
	}
	nsec, err := parseFraction(cols(l, 23, 31))
	if err != nil {
		return Epoch{}, err
	}
	return NewEpoch(year, month, day, hour, minute, sec, nsec, scale), nil
}

// Fractional seconds digits to nanoseconds
func parseFraction(s string) (int, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, nil
	}
	if len(t) > 9 {
		t = t[:9]
	}
	v, err := strconv.ParseUint(t, 10, 32)
	if err != nil {
		return 0, fieldError(ErrEpochFraction, s)
	}
	return int(rescale(int64(v), len(t), 9)), nil
}
