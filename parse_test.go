// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package sp3

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Header lines shared by the in-memory test files
const testHeader = "#cV2020  6 24  0  0  0.00000000       2 __u+U IGS14 FIT  IAC\n" +
	"## 2111 259200.00000000   900.00000000 59024 0.0000000000000\n" +
	"%c M  cc GPS ccc cccc cccc cccc cccc ccccc ccccc ccccc ccccc\n" +
	"/* in-memory test file\n"

func recordLine(marker byte, sat string, x, y, z, clk float64) string {
	return fmt.Sprintf("%c%s%14.6f%14.6f%14.6f%14.6f", marker, sat, x, y, z, clk)
}

func parseString(t *testing.T, body ...string) *SP3 {
	t.Helper()
	ds, err := Parse(strings.NewReader(testHeader + strings.Join(body, "\n") + "\n"))
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func parseFile(t *testing.T, name string) *SP3 {
	t.Helper()
	f, err := os.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	ds, err := Parse(f)
	if err != nil {
		t.Fatalf("failed to parse %s: %v", name, err)
	}
	return ds
}

// TestParseExample reads a single epoch SP3-d file with five satellites,
// one of them flagged as predicted and in maneuver.
func TestParseExample(t *testing.T) {
	ds := parseFile(t, "testdata/sp3d_example.txt")
	h := &ds.Header

	if h.Version != VersionD {
		t.Errorf("want d got %s", h.Version)
	}
	if h.DataType != DataPosition {
		t.Errorf("want P got %s", h.DataType)
	}
	t0 := NewEpoch(2019, 10, 27, 0, 0, 0, 0, GPST)
	if fe, ok := ds.FirstEpoch(); !ok || !fe.Equal(t0) {
		t.Errorf("want %s got %s", t0, fe)
	}
	if n := ds.TotalEpochs(); n != 1 {
		t.Errorf("want 1 epoch got %d", n)
	}
	if !ds.HasClockOffset() || ds.HasClockDrift() || ds.HasVelocity() {
		t.Errorf("want clock only got clock=%v drift=%v velocity=%v",
			ds.HasClockOffset(), ds.HasClockDrift(), ds.HasVelocity())
	}
	if h.CoordSystem != "IGS14" || h.OrbitType != OrbitFIT || h.Agency != "IGS" {
		t.Errorf("want IGS14 FIT IGS got %s %s %s", h.CoordSystem, h.OrbitType, h.Agency)
	}
	if h.TimeScale != GPST || h.Constellation != Mixed {
		t.Errorf("want GPST Mixed got %s %s", h.TimeScale, h.Constellation)
	}
	if h.Week != 2077 || h.WeekSeconds.Float64() != 0 {
		t.Errorf("want week 2077/0 got %d/%s", h.Week, h.WeekSeconds)
	}
	if h.Interval != 300*time.Second {
		t.Errorf("want 5m0s got %s", h.Interval)
	}
	if h.MJD != 58783 || h.MJDFraction.Float64() != 0 {
		t.Errorf("want mjd 58783 got %d %s", h.MJD, h.MJDFraction)
	}
	if sats := ds.Satellites(); len(sats) != 5 {
		t.Errorf("want 5 satellites got %v", sats)
	}

	wantPos := map[string]r3.Vec{
		"C01": {X: -32312.652253, Y: 27060.656563, Z: 205.195454},
		"E01": {X: -15325.409333, Y: 5781.454973, Z: -24645.410980},
		"G01": {X: -22335.782004, Y: -14656.280389, Z: -1218.238499},
		"J01": {X: -30616.656355, Y: 26707.752269, Z: 16227.934145},
		"R01": {X: 15684.717752, Y: -12408.390324, Z: -15847.221180},
	}
	n := 0
	for s := range ds.States() {
		n++
		if !s.Epoch.Equal(t0) {
			t.Errorf("want %s got %s", t0, s.Epoch)
		}
		if s.Sat.String() == "G01" {
			if !s.OrbitPredicted || !s.Maneuver {
				t.Errorf("G01: want predicted and maneuver got %v %v", s.OrbitPredicted, s.Maneuver)
			}
		} else if s.OrbitPredicted || s.Maneuver {
			t.Errorf("%s: want no flags got %v %v", s.Sat, s.OrbitPredicted, s.Maneuver)
		}
		if want := wantPos[s.Sat.String()]; s.Position != want {
			t.Errorf("%s: want %v got %v", s.Sat, want, s.Position)
		}
		if s.Velocity != (r3.Vec{}) {
			t.Errorf("%s: want zero velocity got %v", s.Sat, s.Velocity)
		}
	}
	if n != 5 {
		t.Errorf("want 5 states got %d", n)
	}

	wantClock := map[string]float64{
		"C01": 63.035497e-6,
		"E01": -718.927492e-6,
		"G01": -176.397152e-6,
		"J01": -336.145158e-6,
		"R01": 51.759894e-6,
	}
	for k, clk := range ds.ClockOffsets() {
		if want := wantClock[k.Sat.String()]; math.Abs(clk-want) > 1e-12 {
			t.Errorf("%s: want %g got %g", k.Sat, want, clk)
		}
	}

	wantComments := []string{
		"PCV:IGS14_2074 OL/AL:FES2004  NONE     YN CLK:CoN ORB:CoN",
		"THIS EXAMPLE OF SP3 FILE IS PART OF THE gLAB TOOL SUITE",
		"FILE PREPARED BY: MOWEN LI",
		"PLEASE EMAIL ANY COMMENT OR REQUEST TO glab.gage @upc.edu",
	}
	if len(h.Comments) != len(wantComments) {
		t.Fatalf("want %d comments got %d", len(wantComments), len(h.Comments))
	}
	for i, want := range wantComments {
		if h.Comments[i] != want {
			t.Errorf("want %q got %q", want, h.Comments[i])
		}
	}
}

// TestParseVelocity reads a file with V records, clock rates and sdev columns.
func TestParseVelocity(t *testing.T) {
	ds := parseFile(t, "testdata/sp3c_velocity.txt")

	if !ds.HasVelocity() || !ds.HasClockDrift() {
		t.Errorf("want velocity and drift got %v %v", ds.HasVelocity(), ds.HasClockDrift())
	}
	if ds.Len() != 6 || ds.TotalEpochs() != 2 {
		t.Errorf("want 6 entries in 2 epochs got %d in %d", ds.Len(), ds.TotalEpochs())
	}
	if ds.Stats.PositionRecords != 6 || ds.Stats.VelocityRecords != 4 {
		t.Errorf("want 6 P and 4 V records got %d %d", ds.Stats.PositionRecords, ds.Stats.VelocityRecords)
	}
	if got := ds.Header.Accuracy; len(got) != 3 || got[0] != 5 || got[1] != 4 || got[2] != 7 {
		t.Errorf("want accuracy [5 4 7] got %v", got)
	}

	t0 := NewEpoch(2020, 6, 24, 0, 0, 0, 0, GPST)
	g01, ok := ds.Get(t0, SatID{'G', 1})
	if !ok {
		t.Fatal("G01 not found")
	}
	if g01.Velocity == nil || math.Abs(g01.Velocity.X - -0.7109862434) > 1e-12 {
		t.Errorf("want vx -0.7109862434 got %v", g01.Velocity)
	}
	if g01.ClockDrift == nil || math.Abs(*g01.ClockDrift - -1.734611e-10) > 1e-20 {
		t.Errorf("want drift -1.734611e-10 got %v", g01.ClockDrift)
	}
	if g01.PositionSdev != [3]Sdev{7, 8, 6} || g01.ClockSdev != 128 {
		t.Errorf("want sdev [7 8 6] 128 got %v %d", g01.PositionSdev, g01.ClockSdev)
	}

	g02, _ := ds.Get(t0, SatID{'G', 2})
	if g02.ClockDrift != nil {
		t.Errorf("G02: want no drift got %g", *g02.ClockDrift)
	}
	if !g02.ClockEvent || !g02.ClockPredicted {
		t.Errorf("G02: want clock event and prediction got %v %v", g02.ClockEvent, g02.ClockPredicted)
	}

	r05, _ := ds.Get(t0, SatID{'R', 5})
	if r05.ClockOffset != nil || !r05.OrbitPredicted || r05.Velocity != nil {
		t.Errorf("R05: want predicted orbit without clock and velocity got %+v", r05)
	}

	n := 0
	for range ds.SatelliteStates(SatID{'G', 2}) {
		n++
	}
	if n != 2 {
		t.Errorf("want 2 G02 states got %d", n)
	}
}

// TestZeroVectorDiscarded checks that all-zero records never create or change an entry.
func TestZeroVectorDiscarded(t *testing.T) {
	ds := parseString(t,
		"*  2020  6 24  0  0  0.00000000",
		recordLine('P', "G05", 0, 0, 0, 12.5),
		recordLine('P', "G07", 100, 200, 300, 12.5),
		recordLine('P', "G07", 0, 0, 0, 13.5),
		recordLine('V', "G07", 0, 0, 0, 1),
		"EOF")

	if ds.Len() != 1 {
		t.Fatalf("want 1 entry got %d", ds.Len())
	}
	e, _ := ds.Get(NewEpoch(2020, 6, 24, 0, 0, 0, 0, GPST), SatID{'G', 7})
	if e.Position != (r3.Vec{X: 100, Y: 200, Z: 300}) || e.Velocity != nil {
		t.Errorf("want untouched G07 got %+v", e)
	}
	if ds.Stats.ZeroDiscarded != 3 {
		t.Errorf("want 3 discarded got %d", ds.Stats.ZeroDiscarded)
	}
	// Discarded records still register their satellite
	if got := ds.Header.Satellites; len(got) != 2 || got[0] != (SatID{'G', 5}) {
		t.Errorf("want [G05 G07] got %v", got)
	}
}

// TestNearSentinelVelocityKept checks that only exact zero triggers the discard.
func TestNearSentinelVelocityKept(t *testing.T) {
	ds := parseString(t,
		"*  2020  6 24  0  0  0.00000000",
		recordLine('P', "G01", 100, 200, 300, 1),
		recordLine('V', "G01", 999999.999999, 999999.999999, 999999.999999, 999999.999999),
		recordLine('V', "G02", 0.000001, 0, 0, 999999.999999),
		"EOF")

	e, ok := ds.Get(NewEpoch(2020, 6, 24, 0, 0, 0, 0, GPST), SatID{'G', 1})
	if !ok || e.Velocity == nil {
		t.Fatalf("want G01 with velocity got %+v", e)
	}
	if math.Abs(e.Velocity.X-99.9999999999) > 1e-9 {
		t.Errorf("want 99.9999999999 km/s got %f", e.Velocity.X)
	}
	if e.ClockDrift != nil {
		t.Errorf("want no drift got %g", *e.ClockDrift)
	}
	if ds.Len() != 2 || ds.Stats.ZeroDiscarded != 0 {
		t.Errorf("want 2 entries and no discard got %d %d", ds.Len(), ds.Stats.ZeroDiscarded)
	}
}

// TestShortRecordSkipped checks that truncated records are skipped without error.
func TestShortRecordSkipped(t *testing.T) {
	line := recordLine('P', "G09", 100, 200, 300, 1)[:40]
	ds := parseString(t,
		"*  2020  6 24  0  0  0.00000000",
		recordLine('P', "G01", 100, 200, 300, 1),
		line,
		"EOF")

	if ds.Len() != 1 || ds.Stats.ShortRecords != 1 {
		t.Errorf("want 1 entry and 1 short record got %d %d", ds.Len(), ds.Stats.ShortRecords)
	}
	for _, sat := range ds.Header.Satellites {
		if sat == (SatID{'G', 9}) {
			t.Errorf("want G09 not registered got %v", ds.Header.Satellites)
		}
	}
}

// TestShortRecordBeforeEpoch skips a truncated record even before the first epoch line.
func TestShortRecordBeforeEpoch(t *testing.T) {
	ds := parseString(t,
		"PG01  123.0",
		"*  2020  6 24  0  0  0.00000000",
		recordLine('P', "G01", 100, 200, 300, 1),
		"EOF")

	if ds.Len() != 1 || ds.Stats.ShortRecords != 1 {
		t.Errorf("want 1 entry and 1 short record got %d %d", ds.Len(), ds.Stats.ShortRecords)
	}
}

// TestCoalescing checks the overwrite rules of position and velocity records.
func TestCoalescing(t *testing.T) {
	ds := parseString(t,
		"*  2020  6 24  0  0  0.00000000",
		recordLine('V', "R03", 10, 20, 30, 5),
		recordLine('P', "G01", 100, 200, 300, 1),
		recordLine('V', "G01", 10, 20, 30, 5),
		recordLine('P', "G01", 101, 201, 301, 2)+"                  MP",
		recordLine('V', "G01", 11, 21, 31, 999999.999999),
		"EOF")

	t0 := NewEpoch(2020, 6, 24, 0, 0, 0, 0, GPST)
	g01, _ := ds.Get(t0, SatID{'G', 1})
	if g01.Position != (r3.Vec{X: 101, Y: 201, Z: 301}) {
		t.Errorf("want later position got %v", g01.Position)
	}
	if g01.ClockOffset == nil || math.Abs(*g01.ClockOffset-1e-6) > 1e-15 {
		t.Errorf("want first clock kept got %v", g01.ClockOffset)
	}
	if !g01.Maneuver || !g01.OrbitPredicted {
		t.Errorf("want flags of the later record got %v %v", g01.Maneuver, g01.OrbitPredicted)
	}
	if g01.Velocity == nil || math.Abs(g01.Velocity.X-0.0011) > 1e-12 {
		t.Errorf("want later velocity got %v", g01.Velocity)
	}
	if g01.ClockDrift == nil || math.Abs(*g01.ClockDrift-5e-10) > 1e-20 {
		t.Errorf("want drift kept got %v", g01.ClockDrift)
	}

	r03, _ := ds.Get(t0, SatID{'R', 3})
	if r03.Position != (r3.Vec{}) || r03.Velocity == nil {
		t.Errorf("want zero position with velocity got %+v", r03)
	}
	if ds.Stats.VelocityFirst != 1 {
		t.Errorf("want 1 velocity first got %d", ds.Stats.VelocityFirst)
	}
}

// TestEpochOrder checks that keys iterate in (epoch, satellite) order.
func TestEpochOrder(t *testing.T) {
	ds := parseString(t,
		"*  2020  6 24  0 15  0.00000000",
		recordLine('P', "R01", 1, 1, 1, 1),
		recordLine('P', "G02", 1, 1, 1, 1),
		"*  2020  6 24  0  0  0.00000000",
		recordLine('P', "G01", 1, 1, 1, 1),
		"*  2020  6 24  0 30  0.00000000",
		recordLine('P', "E11", 1, 1, 1, 1),
		"EOF")

	var prev *RecordKey
	for k := range ds.Keys() {
		if prev != nil && k.Compare(*prev) < 0 {
			t.Errorf("want %s after %s", k, *prev)
		}
		prev = &k
	}
	want := NewEpoch(2020, 6, 24, 0, 0, 0, 0, GPST)
	if fe, _ := ds.FirstEpoch(); !fe.Equal(want) {
		t.Errorf("want %s got %s", want, fe)
	}
	want = NewEpoch(2020, 6, 24, 0, 30, 0, 0, GPST)
	if le, _ := ds.LastEpoch(); !le.Equal(want) {
		t.Errorf("want %s got %s", want, le)
	}
	if ds.TotalEpochs() != 3 {
		t.Errorf("want 3 epochs got %d", ds.TotalEpochs())
	}

	// Restartable
	n1, n2 := 0, 0
	for range ds.Entries() {
		n1++
	}
	for range ds.Entries() {
		n2++
	}
	if n1 != 4 || n2 != 4 {
		t.Errorf("want 4 entries twice got %d %d", n1, n2)
	}
}

// TestParseErrors checks the errors that abort a parse.
func TestParseErrors(t *testing.T) {
	var testData = []struct {
		description string
		input       string
		want        error
		wantLine    int
	}{
		{"empty", "", ErrMissingLine1, 0},
		{"line #1 only", "#cV2020  6 24  0  0  0.00000000       2 __u+U IGS14 FIT  IAC\n", ErrMissingLine2, 0},
		{"record before epoch", testHeader + recordLine('P', "G01", 1, 2, 3, 4) + "\n", ErrNoEpoch, 5},
		{"corrupt coordinate", testHeader + "*  2020  6 24  0  0  0.00000000\n" +
			"PG01 -13045.1x1052 -22372.125063   5678.937121    470.137421\n", ErrCoordinates, 6},
		{"corrupt epoch", testHeader + "*  2020 13 24  0  0  0.00000000\n", ErrEpochMonth, 5},
		{"short line #2", "#cV2020  6 24  0  0  0.00000000       2 __u+U IGS14 FIT  IAC\n## 2111\n", ErrMalformedLine2, 2},
	}

	for _, td := range testData {
		_, err := Parse(strings.NewReader(td.input))
		if !errors.Is(err, td.want) {
			t.Errorf("%s: want %v got %v", td.description, td.want, err)
			continue
		}
		var le *LineError
		if td.wantLine > 0 {
			if !errors.As(err, &le) || le.Line != td.wantLine {
				t.Errorf("%s: want line %d got %v", td.description, td.wantLine, err)
			}
		}
	}
}

// TestParseStopsAtEOF checks that lines after the EOF marker are not read.
func TestParseStopsAtEOF(t *testing.T) {
	ds := parseString(t,
		"*  2020  6 24  0  0  0.00000000",
		recordLine('P', "G01", 1, 2, 3, 4),
		"EOF",
		"garbage that would not parse",
		recordLine('P', "G02", 1, 2, 3, 4))

	if ds.Len() != 1 {
		t.Errorf("want 1 entry got %d", ds.Len())
	}
}

// TestParseUnknownBodyLines checks that correlation and blank lines are ignored.
func TestParseUnknownBodyLines(t *testing.T) {
	ds := parseString(t,
		"*  2020  6 24  0  0  0.00000000",
		recordLine('P', "G01", 1, 2, 3, 4),
		"EP  55 55 55     222 1234567 -1234567 5999999      -30      21 -1230000",
		"",
		"EOF")

	if ds.Len() != 1 || ds.Stats.IgnoredLines != 2 {
		t.Errorf("want 1 entry and 2 ignored lines got %d %d", ds.Len(), ds.Stats.IgnoredLines)
	}
}

// TestUnknownDescriptorScale keeps a %c line with an unknown time scale as a continuation line.
func TestUnknownDescriptorScale(t *testing.T) {
	bad := "%c M  cc XYZ ccc cccc cccc cccc cccc ccccc ccccc ccccc ccccc"
	input := strings.Replace(testHeader, "GPS", "XYZ", 1) +
		"*  2020  6 24  0  0  0.00000000\n" +
		recordLine('P', "G01", 100, 200, 300, 1) + "\n"
	ds, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	h := &ds.Header
	if h.Constellation != 0 {
		t.Errorf("want no constellation got %s", h.Constellation)
	}
	if len(h.Descriptors) != 1 || h.Descriptors[0] != bad {
		t.Errorf("want [%q] got %q", bad, h.Descriptors)
	}
	if ds.Len() != 1 {
		t.Errorf("want 1 entry got %d", ds.Len())
	}

	var n int
	for _, l := range h.Lines() {
		if strings.HasPrefix(l, "%c") {
			n++
		}
	}
	if n != 1 {
		t.Errorf("want the %%c line written once got %d", n)
	}
}
