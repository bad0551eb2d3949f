// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.14
//

package sp3

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// SP3 revision ('a' to 'd')
type Version byte

const (
	VersionA Version = 'a'
	VersionB Version = 'b'
	VersionC Version = 'c'
	VersionD Version = 'd'
)

func ParseVersion(c byte) (Version, error) {
	switch v := Version(c); v {
	case VersionA, VersionB, VersionC, VersionD:
		return v, nil
	}
	return 0, fmt.Errorf("%w: '%c'", ErrUnsupportedRevision, c)
}

func (p Version) String() string {
	return string(rune(p))
}

// Position only ('P') or position and velocity ('V')
type DataType byte

const (
	DataPosition DataType = 'P'
	DataVelocity DataType = 'V'
)

func ParseDataType(c byte) (DataType, error) {
	switch d := DataType(c); d {
	case DataPosition, DataVelocity:
		return d, nil
	}
	return 0, fmt.Errorf("%w: '%c'", ErrUnknownDataType, c)
}

func (p DataType) String() string {
	switch p {
	case DataPosition:
		return "Position"
	case DataVelocity:
		return "Velocity"
	default:
		return "UNKNOWN!"
	}
}

// Orbit type written on header line #1
type OrbitType int

const (
	OrbitFIT OrbitType = iota // Fitted
	OrbitEXT                  // Extrapolated or predicted
	OrbitBCT                  // Broadcast
	OrbitBHN                  // Fitted after applying a Helmert transformation (SP3-a/b)
	OrbitHLM                  // Fitted after applying a Helmert transformation
)

var orbitTypeLabels = []string{"FIT", "EXT", "BCT", "BHN", "HLM"}

func ParseOrbitType(s string) (OrbitType, error) {
	if i := slices.Index(orbitTypeLabels, strings.TrimSpace(s)); i >= 0 {
		return OrbitType(i), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOrbitType, s)
}

func (p OrbitType) String() string {
	if int(p) < len(orbitTypeLabels) {
		return orbitTypeLabels[p]
	}
	return "???"
}

// Header holds everything read before the first epoch line
type Header struct {
	// Line #1
	Version        Version
	DataType       DataType
	Release        Epoch // Date & time written on line #1 (start of the orbit)
	NumberOfEpochs int
	DataUsed       string
	CoordSystem    string
	OrbitType      OrbitType
	Agency         string

	// Line #2
	Week        int
	WeekSeconds Fixed // Seconds of week, integer and fractional digits kept apart
	Interval    time.Duration
	MJD         int
	MJDFraction Fixed // Fraction of day

	// %c line #1
	Constellation Constellation
	TimeScale     TimeScale
	UnsetScale    string // Time scale text as written when it names none ("ccc" or blank)

	Satellites  []SatID  // Declared by + lines, then completed with ids met in the body
	Accuracy    []int    // Accuracy exponents from ++ lines, aligned with the declared satellites
	Descriptors []string // Other %c, %f and %i lines, verbatim
	Comments    []string
}

//-------------------------------------------------------------------
// Header line #1
//-------------------------------------------------------------------

func isLine1(l string) bool {
	return strings.HasPrefix(l, markerLine1) && !strings.HasPrefix(l, markerLine2)
}

func (h *Header) parseLine1(l string) error {
	if !isLine1(l) || len(l) < minLine1Len {
		return fmt.Errorf("%w: %q", ErrMalformedLine1, l)
	}
	var err error
	if h.Version, err = ParseVersion(l[1]); err != nil {
		return err
	}
	if h.DataType, err = ParseDataType(l[2]); err != nil {
		return err
	}
	// The time scale is only known after the %c line; fixed up at the end of the header
	if h.Release, err = parseEpoch(l, GPST); err != nil {
		return err
	}
	if h.NumberOfEpochs, err = parseInt(cols(l, 32, 39), ErrNumberOfEpochs); err != nil {
		return err
	}
	h.DataUsed = strings.TrimSpace(cols(l, 40, 45))
	h.CoordSystem = strings.TrimSpace(cols(l, 46, 51))
	if h.OrbitType, err = ParseOrbitType(cols(l, 52, 55)); err != nil {
		return err
	}
	h.Agency = strings.TrimSpace(cols(l, 56, len(l)))
	return nil
}

func (h *Header) Line1() string {
	return fmt.Sprintf("#%c%c%s %7d %5s %5s %3s %4s",
		h.Version, h.DataType, formatEpochFields(h.Release), h.NumberOfEpochs,
		h.DataUsed, h.CoordSystem, h.OrbitType, h.Agency)
}

// "yyyy mm dd hh mm ss.ffffffff"
func formatEpochFields(e Epoch) string {
	t := e.Time
	return fmt.Sprintf("%4d %2d %2d %2d %2d %2d.%08d",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/10)
}

//-------------------------------------------------------------------
// Header line #2
//-------------------------------------------------------------------

func isLine2(l string) bool {
	return strings.HasPrefix(l, markerLine2)
}

func (h *Header) parseLine2(l string) error {
	if !isLine2(l) || len(l) != line2Len {
		return fmt.Errorf("%w: %q", ErrMalformedLine2, l)
	}
	var err error
	if h.Week, err = parseInt(cols(l, 2, 7), ErrWeekCounter); err != nil {
		return err
	}
	if h.WeekSeconds, err = parseFixed(cols(l, 7, 23), ErrWeekSeconds); err != nil {
		return err
	}
	dt, err := parseFixed(cols(l, 24, 38), ErrSamplingInterval)
	if err != nil {
		return err
	}
	h.Interval = dt.Duration()
	if h.MJD, err = parseInt(cols(l, 38, 44), ErrMJD); err != nil {
		return err
	}
	if h.MJDFraction, err = parseFixed(cols(l, 44, 60), ErrMJD); err != nil {
		return err
	}
	return nil
}

func (h *Header) Line2() string {
	return fmt.Sprintf("##%5d%s %s%6d%s",
		h.Week, h.WeekSeconds.Format(16), FixedFromDuration(h.Interval, 8).Format(14),
		h.MJD, h.MJDFraction.Format(16))
}

//-------------------------------------------------------------------
// Meta lines (+, ++, %c, %f, %i, /*)
//-------------------------------------------------------------------

func isMeta(l string) bool {
	for _, m := range []string{markerSatList, markerAccuracy, markerDescriptor, markerFloatBase, markerIntBase, markerComment} {
		if strings.HasPrefix(l, m) {
			return true
		}
	}
	return false
}

// Read constellation and time scale from %c line #1. ok is false for
// continuation lines; an error is returned when the constellation is valid
// but the time scale is not (the parser keeps such a line as a continuation).
func parseDescriptor(l string) (c Constellation, ts TimeScale, ok bool, err error) {
	if len(l) < minDescriptorLen {
		return 0, 0, false, nil
	}
	c, err = ParseConstellation(cols(l, 3, 5))
	if err != nil {
		return 0, 0, false, nil
	}
	f := cols(l, 9, 12)
	if isUnsetScale(f) {
		return c, GPST, true, nil
	}
	f = strings.TrimSpace(f)
	if ts, err = ParseTimeScale(f); err != nil {
		return 0, 0, false, fmt.Errorf("%w: time scale %q", ErrInvalidDescriptor, f)
	}
	return c, ts, true, nil
}

// Time scale left unset in some SP3-b files, read as GPS
func isUnsetScale(f string) bool {
	f = strings.TrimSpace(f)
	return f == "" || f == "ccc"
}

func (h *Header) descriptorLine1() string {
	label := h.TimeScale.Label()
	if len(h.UnsetScale) > 0 {
		label = h.UnsetScale
	}
	return fmt.Sprintf("%%c %-2s cc %-3s ccc cccc cccc cccc cccc ccccc ccccc ccccc ccccc",
		string(rune(h.Constellation)), label)
}

// Satellite ids on a + line
func (h *Header) parseSatLine(l string) error {
	body := cols(l, 9, 9+3*satsPerLine)
	for i := 0; i+3 <= len(body); i += 3 {
		c := body[i : i+3]
		if isPlaceholder(c) {
			continue
		}
		sat, err := parseSat(c)
		if err != nil {
			return err
		}
		if !slices.Contains(h.Satellites, sat) {
			h.Satellites = append(h.Satellites, sat)
		}
	}
	return nil
}

// Accuracy exponents on a ++ line
func (h *Header) parseAccuracyLine(l string) error {
	body := cols(l, 9, 9+3*satsPerLine)
	for i := 0; i+3 <= len(body); i += 3 {
		c := body[i : i+3]
		if strings.TrimSpace(c) == "" {
			h.Accuracy = append(h.Accuracy, 0)
			continue
		}
		v, err := parseInt(c, ErrAccuracy)
		if err != nil {
			return err
		}
		h.Accuracy = append(h.Accuracy, v)
	}
	return nil
}

func isPlaceholder(c string) bool {
	t := strings.TrimSpace(c)
	return t == "" || strings.Trim(t, "0") == ""
}

func (h *Header) parseComment(l string) {
	if len(l) > commentOffset {
		h.Comments = append(h.Comments, l[commentOffset:])
	}
}

func (h *Header) numSatLines() int {
	return max(minSatLines, (len(h.Satellites)+satsPerLine-1)/satsPerLine)
}

func (h *Header) satLines() []string {
	ls := make([]string, 0, h.numSatLines())
	for i := range h.numSatLines() {
		var sb strings.Builder
		if i == 0 {
			fmt.Fprintf(&sb, "+  %3d   ", len(h.Satellites))
		} else {
			sb.WriteString("+        ")
		}
		for j := i * satsPerLine; j < (i+1)*satsPerLine; j++ {
			if j < len(h.Satellites) {
				sb.WriteString(h.Satellites[j].String())
			} else {
				sb.WriteString("  0")
			}
		}
		ls = append(ls, sb.String())
	}
	return ls
}

func (h *Header) accuracyLines() []string {
	ls := make([]string, 0, h.numSatLines())
	for i := range h.numSatLines() {
		var sb strings.Builder
		sb.WriteString("++       ")
		for j := i * satsPerLine; j < (i+1)*satsPerLine; j++ {
			a := 0
			if j < len(h.Accuracy) && j < len(h.Satellites) {
				a = h.Accuracy[j]
			}
			fmt.Fprintf(&sb, "%3d", a)
		}
		ls = append(ls, sb.String())
	}
	return ls
}

// Called once the first non-meta line has been reached
func (h *Header) finish() {
	if len(h.Accuracy) > len(h.Satellites) {
		h.Accuracy = h.Accuracy[:len(h.Satellites)]
	}
	h.Release.Scale = h.TimeScale
}

// Register a satellite met in the body (first-seen order)
func (h *Header) addSatellite(sat SatID) {
	if !slices.Contains(h.Satellites, sat) {
		h.Satellites = append(h.Satellites, sat)
	}
}

// Deep copy
func (h Header) clone() Header {
	h.Satellites = slices.Clone(h.Satellites)
	h.Accuracy = slices.Clone(h.Accuracy)
	h.Descriptors = slices.Clone(h.Descriptors)
	h.Comments = slices.Clone(h.Comments)
	return h
}
