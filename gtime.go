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
	"strings"
	"time"
)

//-------------------------------------------------------------------
// GTime
//-------------------------------------------------------------------

// GPS week and seconds of week
type GTime struct {
	Week int
	Sec  float64
}

var gpsOrigin = time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC) // GPS time starts from 1980/1/6 00:00:00

func NewGTime(dt time.Time) *GTime {
	t := dt.Unix() - gpsOrigin.Unix() // Elapsed seconds since 1980/1/6 00:00:00
	return &GTime{
		Week: int(t / (3600 * 24 * 7)),
		Sec:  float64(t%(3600*24*7)) + float64(dt.Nanosecond())/1000000000,
	}
}

func (p *GTime) ToTime() time.Time {
	i := int64(math.Trunc(p.Sec))
	t := int64(3600*24*7*p.Week) + i + gpsOrigin.Unix()
	n := int64(math.Round((p.Sec - float64(i)) * 1e9))
	return time.Unix(t, n).UTC()
}

func (p *GTime) Less(b GTime) bool {
	if p.Week == b.Week {
		return p.Sec < b.Sec
	}
	return p.Week < b.Week
}

//-------------------------------------------------------------------
// TimeScale
//-------------------------------------------------------------------

// Time scale declared in the %c descriptor line
type TimeScale int

const (
	GPST TimeScale = iota
	GLONASST
	GST
	BDT
	QZSST
	IRNSST
	UTC
	TAI
)

var timeScaleLabels = map[TimeScale]string{
	GPST:     "GPS",
	GLONASST: "GLO",
	GST:      "GAL",
	BDT:      "BDT",
	QZSST:    "QZS",
	IRNSST:   "IRN",
	UTC:      "UTC",
	TAI:      "TAI",
}

var timeScaleNames = map[TimeScale]string{
	GPST:     "GPST",
	GLONASST: "GLONASST",
	GST:      "GST",
	BDT:      "BDT",
	QZSST:    "QZSST",
	IRNSST:   "IRNSST",
	UTC:      "UTC",
	TAI:      "TAI",
}

// Parse the 3-character label used in SP3 files ("GPS", "GAL", ...)
func ParseTimeScale(s string) (TimeScale, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for k, v := range timeScaleLabels {
		if v == s {
			return k, nil
		}
	}
	for k, v := range timeScaleNames {
		if v == s {
			return k, nil
		}
	}
	return GPST, fmt.Errorf("unknown time scale %q", s)
}

// Label as written in SP3 files
func (p TimeScale) Label() string {
	if s, ok := timeScaleLabels[p]; ok {
		return s
	}
	return "???"
}

func (p TimeScale) String() string {
	if s, ok := timeScaleNames[p]; ok {
		return s
	}
	return "UNKNOWN!"
}

// TAI-UTC history [s]
var leapSeconds = []struct {
	since time.Time
	delta time.Duration
}{
	{time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC), 37 * time.Second},
	{time.Date(2015, 7, 1, 0, 0, 0, 0, time.UTC), 36 * time.Second},
	{time.Date(2012, 7, 1, 0, 0, 0, 0, time.UTC), 35 * time.Second},
	{time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC), 34 * time.Second},
	{time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC), 33 * time.Second},
	{time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), 32 * time.Second},
	{time.Date(1997, 7, 1, 0, 0, 0, 0, time.UTC), 31 * time.Second},
	{time.Date(1996, 1, 1, 0, 0, 0, 0, time.UTC), 30 * time.Second},
	{time.Date(1994, 7, 1, 0, 0, 0, 0, time.UTC), 29 * time.Second},
	{time.Date(1993, 7, 1, 0, 0, 0, 0, time.UTC), 28 * time.Second},
	{time.Date(1992, 7, 1, 0, 0, 0, 0, time.UTC), 27 * time.Second},
	{time.Date(1991, 1, 1, 0, 0, 0, 0, time.UTC), 26 * time.Second},
	{time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), 25 * time.Second},
	{time.Date(1988, 1, 1, 0, 0, 0, 0, time.UTC), 24 * time.Second},
	{time.Date(1985, 7, 1, 0, 0, 0, 0, time.UTC), 23 * time.Second},
	{time.Date(1983, 7, 1, 0, 0, 0, 0, time.UTC), 22 * time.Second},
	{time.Date(1982, 7, 1, 0, 0, 0, 0, time.UTC), 21 * time.Second},
	{time.Date(1981, 7, 1, 0, 0, 0, 0, time.UTC), 20 * time.Second},
	{time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC), 19 * time.Second},
	{time.Date(1979, 1, 1, 0, 0, 0, 0, time.UTC), 18 * time.Second},
	{time.Date(1978, 1, 1, 0, 0, 0, 0, time.UTC), 17 * time.Second},
	{time.Date(1977, 1, 1, 0, 0, 0, 0, time.UTC), 16 * time.Second},
	{time.Date(1976, 1, 1, 0, 0, 0, 0, time.UTC), 15 * time.Second},
	{time.Date(1975, 1, 1, 0, 0, 0, 0, time.UTC), 14 * time.Second},
	{time.Date(1974, 1, 1, 0, 0, 0, 0, time.UTC), 13 * time.Second},
	{time.Date(1973, 1, 1, 0, 0, 0, 0, time.UTC), 12 * time.Second},
	{time.Date(1972, 7, 1, 0, 0, 0, 0, time.UTC), 11 * time.Second},
}

// TAI-UTC at the given UTC instant
func taiMinusUTC(utc time.Time) time.Duration {
	for _, l := range leapSeconds {
		if !utc.Before(l.since) {
			return l.delta
		}
	}
	return 10 * time.Second
}

// Offset to add to a reading in the given scale to obtain TAI (UTC based scales excluded)
func fixedOffset(s TimeScale) (time.Duration, bool) {
	switch s {
	case GPST, GST, QZSST, IRNSST:
		return 19 * time.Second, true
	case BDT:
		return 33 * time.Second, true
	case TAI:
		return 0, true
	}
	return 0, false
}

//-------------------------------------------------------------------
// Epoch
//-------------------------------------------------------------------

// Epoch is an instant read in a named time scale. Time holds the calendar
// reading (in time.UTC location) and never carries a monotonic clock.
type Epoch struct {
	Time  time.Time
	Scale TimeScale
}

func NewEpoch(year, month, day, hour, min, sec, nsec int, scale TimeScale) Epoch {
	return Epoch{
		Time:  time.Date(year, time.Month(month), day, hour, min, sec, nsec, time.UTC),
		Scale: scale,
	}
}

// Parse "2006-01-02T15:04:05[.fff] GPST" style strings
func ParseEpoch(s string) (Epoch, error) {
	f := strings.Fields(s)
	if len(f) != 2 {
		return Epoch{}, fmt.Errorf("epoch must be \"<datetime> <timescale>\": %q", s)
	}
	t, err := time.Parse("2006-01-02T15:04:05.999999999", f[0])
	if err != nil {
		return Epoch{}, err
	}
	ts, err := ParseTimeScale(f[1])
	if err != nil {
		return Epoch{}, err
	}
	return Epoch{Time: t, Scale: ts}, nil
}

// Absolute instant expressed as a TAI reading
func (e Epoch) TAI() time.Time {
	if d, ok := fixedOffset(e.Scale); ok {
		return e.Time.Add(d)
	}
	utc := e.Time
	if e.Scale == GLONASST {
		utc = utc.Add(-3 * time.Hour)
	}
	return utc.Add(taiMinusUTC(utc))
}

// Same instant expressed in another scale
func (e Epoch) In(scale TimeScale) Epoch {
	tai := e.TAI()
	if d, ok := fixedOffset(scale); ok {
		return Epoch{Time: tai.Add(-d), Scale: scale}
	}
	l := taiMinusUTC(tai.Add(-taiMinusUTC(tai)))
	utc := tai.Add(-l)
	if scale == GLONASST {
		utc = utc.Add(3 * time.Hour)
	}
	return Epoch{Time: utc, Scale: scale}
}

// Ordering by absolute instant
func (e Epoch) Compare(b Epoch) int {
	return e.TAI().Compare(b.TAI())
}

func (e Epoch) Before(b Epoch) bool {
	return e.Compare(b) < 0
}

func (e Epoch) Equal(b Epoch) bool {
	return e.Compare(b) == 0
}

func (e Epoch) Add(d time.Duration) Epoch {
	return Epoch{Time: e.Time.Add(d), Scale: e.Scale}
}

// GPS week and seconds of week of this instant
func (e Epoch) GTime() GTime {
	return *NewGTime(e.In(GPST).Time)
}

func (e Epoch) String() string {
	return e.Time.Format("2006-01-02T15:04:05.999999999") + " " + e.Scale.String()
}
