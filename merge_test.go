// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package sp3

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Dataset of n epochs every 15 minutes from start. Positions encode the epoch index and x0.
func makeDataset(agency string, start Epoch, n int, x0 float64, sats ...SatID) *SP3 {
	g := start.GTime()
	ds := newSP3(Header{
		Version:       VersionD,
		DataType:      DataPosition,
		Release:       start,
		DataUsed:      "ORBIT",
		CoordSystem:   "IGS14",
		OrbitType:     OrbitFIT,
		Agency:        agency,
		Week:          g.Week,
		WeekSeconds:   FixedFromDuration(time.Duration(g.Sec)*time.Second, 8),
		Interval:      15 * time.Minute,
		MJD:           58783,
		MJDFraction:   Fixed{Digits: 13},
		Constellation: Mixed,
		TimeScale:     start.Scale,
		Satellites:    sats,
	})
	for i := range n {
		e := start.Add(time.Duration(i) * 15 * time.Minute)
		for j, sat := range sats {
			entry := newEntry()
			entry.Position = r3.Vec{X: x0 + float64(i), Y: 20000 + float64(j), Z: 1000}
			ds.insert(RecordKey{Epoch: e, Sat: sat}, entry)
		}
	}
	ds.Header.NumberOfEpochs = n
	return ds
}

var (
	g01 = SatID{'G', 1}
	g02 = SatID{'G', 2}
	r01 = SatID{'R', 1}
)

// TestMergeDisjoint merges a two-day file with the day before it.
func TestMergeDisjoint(t *testing.T) {
	day1 := NewEpoch(2019, 10, 27, 0, 0, 0, 0, GPST)
	day2 := NewEpoch(2019, 10, 28, 0, 0, 0, 0, GPST)
	a := makeDataset("IGS", day2, 192, 10000, g01, g02)
	b := makeDataset("IGS", day1, 96, 20000, g01, g02)
	b.Header.MJD = 58782

	got, err := Merge(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if n := got.TotalEpochs(); n != 288 {
		t.Errorf("want 288 epochs got %d", n)
	}
	if got.Len() != 576 {
		t.Errorf("want 576 entries got %d", got.Len())
	}
	if fe, _ := got.FirstEpoch(); !fe.Equal(day1) {
		t.Errorf("want first epoch %s got %s", day1, fe)
	}
	if le, _ := got.LastEpoch(); !le.Equal(day2.Add(191 * 15 * time.Minute)) {
		t.Errorf("want last epoch %s got %s", day2.Add(191*15*time.Minute), le)
	}
	if got.Header.NumberOfEpochs != 288 {
		t.Errorf("want 288 in header got %d", got.Header.NumberOfEpochs)
	}
	// b starts earlier, so the start fields come from b
	if got.Header.MJD != 58782 || got.Header.Week != b.Header.Week || !got.Header.Release.Equal(day1) {
		t.Errorf("want start of b got mjd %d week %d release %s", got.Header.MJD, got.Header.Week, got.Header.Release)
	}

	// Inputs are untouched
	if a.Len() != 384 || b.Len() != 192 || a.Header.NumberOfEpochs != 192 {
		t.Errorf("inputs changed: %d %d %d", a.Len(), b.Len(), a.Header.NumberOfEpochs)
	}

	// Merged entries do not share memory with the inputs
	e, _ := a.lookup(RecordKey{Epoch: day2, Sat: g01})
	e.Position.X = -1
	if m, _ := got.Get(day2, g01); m.Position.X != 10000 {
		t.Errorf("want 10000 got %f", m.Position.X)
	}
}

// TestMergeAgencyMismatch checks that different producers are never combined.
func TestMergeAgencyMismatch(t *testing.T) {
	t0 := NewEpoch(2019, 10, 27, 0, 0, 0, 0, GPST)
	a := makeDataset("IGS", t0, 4, 0, g01)
	b := makeDataset("COD", t0.Add(time.Hour), 4, 0, g01)

	_, err := Merge(a, b)
	if !errors.Is(err, ErrIncompatibleAgency) {
		t.Errorf("want %v got %v", ErrIncompatibleAgency, err)
	}
}

// TestMergePolicies checks the handling of keys present in both datasets.
func TestMergePolicies(t *testing.T) {
	t0 := NewEpoch(2019, 10, 27, 0, 0, 0, 0, GPST)
	a := makeDataset("IGS", t0, 4, 1000, g01, g02)
	b := makeDataset("IGS", t0.Add(30*time.Minute), 4, 2000, g02, r01)

	var testData = []struct {
		policy  MergePolicy
		wantX   float64 // G02 at t0 + 30 min
		wantErr error
	}{
		{PreferFirst, 1002, nil},
		{PreferSecond, 2000, nil},
		{RejectConflicts, 0, ErrMergeConflict},
	}

	for _, td := range testData {
		got, err := MergeWith(a, b, td.policy)
		if td.wantErr != nil {
			if !errors.Is(err, td.wantErr) {
				t.Errorf("%s: want %v got %v", td.policy, td.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", td.policy, err)
			continue
		}
		if n := got.TotalEpochs(); n != 6 {
			t.Errorf("%s: want 6 epochs got %d", td.policy, n)
		}
		// a: 4x2, b: 4x2, shared: G02 at two epochs
		if got.Len() != 14 || got.Stats.Conflicts != 2 {
			t.Errorf("%s: want 14 entries and 2 conflicts got %d %d", td.policy, got.Len(), got.Stats.Conflicts)
		}
		e, ok := got.Get(t0.Add(30*time.Minute), g02)
		if !ok || e.Position.X != td.wantX {
			t.Errorf("%s: want x %f got %f", td.policy, td.wantX, e.Position.X)
		}
		if sats := got.Header.Satellites; len(sats) != 3 || sats[0] != g01 || sats[1] != g02 || sats[2] != r01 {
			t.Errorf("%s: want [G01 G02 R01] got %v", td.policy, sats)
		}
	}

	// Default policy
	got, err := Merge(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if e, _ := got.Get(t0.Add(30*time.Minute), g02); e.Position.X != 1002 {
		t.Errorf("want a's entry got x %f", e.Position.X)
	}
}

// TestMergeTimeScales checks that the same instant read in two scales is one key.
func TestMergeTimeScales(t *testing.T) {
	gpst := NewEpoch(2019, 10, 27, 0, 0, 18, 0, GPST)
	utc := NewEpoch(2019, 10, 27, 0, 0, 0, 0, UTC)
	a := makeDataset("IGS", gpst, 2, 0, g01)
	b := makeDataset("IGS", utc, 3, 0, g01)

	_, err := MergeWith(a, b, RejectConflicts)
	if !errors.Is(err, ErrMergeConflict) {
		t.Fatalf("want %v got %v", ErrMergeConflict, err)
	}

	got, err := Merge(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalEpochs() != 3 {
		t.Errorf("want 3 epochs got %d", got.TotalEpochs())
	}
	// b's epochs are read in a's time scale
	for k := range got.Keys() {
		if k.Epoch.Scale != GPST {
			t.Errorf("want GPST got %s", k.Epoch)
		}
	}
}

// TestMergeFormat checks that a merged dataset formats and parses back.
func TestMergeFormat(t *testing.T) {
	t0 := NewEpoch(2019, 10, 27, 0, 0, 0, 0, GPST)
	a := makeDataset("IGS", t0.Add(time.Hour), 4, 1000, g01, g02)
	b := makeDataset("IGS", t0, 4, 2000, r01)

	m, err := Merge(a, b)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := m.Format(&buf); err != nil {
		t.Fatal(err)
	}
	ds, err := Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 12 || ds.TotalEpochs() != 8 || ds.Header.NumberOfEpochs != 8 {
		t.Errorf("want 12 entries in 8 epochs got %d in %d (%d)", ds.Len(), ds.TotalEpochs(), ds.Header.NumberOfEpochs)
	}
	if fe, _ := ds.FirstEpoch(); !fe.Equal(t0) {
		t.Errorf("want %s got %s", t0, fe)
	}
}

// TestParseMergePolicy checks the policy names used on the command line.
func TestParseMergePolicy(t *testing.T) {
	for _, want := range []MergePolicy{PreferFirst, PreferSecond, RejectConflicts} {
		got, err := ParseMergePolicy(want.String())
		if err != nil || got != want {
			t.Errorf("want %s got %s (%v)", want, got, err)
		}
	}
	var p MergePolicy
	if err := p.UnmarshalText([]byte("Reject")); err != nil || p != RejectConflicts {
		t.Errorf("want reject got %s (%v)", p, err)
	}
	if _, err := ParseMergePolicy("newest"); err == nil {
		t.Error("want an error")
	}
}
