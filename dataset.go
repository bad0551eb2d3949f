// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.16
//

package sp3

import (
	"fmt"
	"iter"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/spatial/r3"
)

// Identifies one data point of a dataset
type RecordKey struct {
	Epoch Epoch
	Sat   SatID
}

// Ordering by (epoch, satellite)
func (k RecordKey) Compare(b RecordKey) int {
	if c := k.Epoch.Compare(b.Epoch); c != 0 {
		return c
	}
	return k.Sat.Compare(b.Sat)
}

func (k RecordKey) String() string {
	return k.Epoch.String() + " " + k.Sat.String()
}

// Map key: the same instant read in different scales maps to the same id
type keyID struct {
	ns  int64 // TAI [ns]
	sat SatID
}

func (k RecordKey) id() keyID {
	return keyID{ns: k.Epoch.TAI().UnixNano(), sat: k.Sat}
}

// Unified record for one (epoch, satellite)
type Entry struct {
	Position    r3.Vec   // [km]; zero when only velocity was given
	Velocity    *r3.Vec  // [km/s]
	ClockOffset *float64 // [s]
	ClockDrift  *float64 // [s/s]

	Maneuver       bool
	OrbitPredicted bool
	ClockPredicted bool
	ClockEvent     bool

	PositionSdev  [3]Sdev
	ClockSdev     Sdev
	VelocitySdev  [3]Sdev
	ClockRateSdev Sdev
}

func newEntry() *Entry {
	return &Entry{
		PositionSdev:  [3]Sdev{NoSdev, NoSdev, NoSdev},
		ClockSdev:     NoSdev,
		VelocitySdev:  [3]Sdev{NoSdev, NoSdev, NoSdev},
		ClockRateSdev: NoSdev,
	}
}

// Entry created by a position record
func newPositionEntry(r *record) *Entry {
	e := newEntry()
	e.setPosition(r)
	if r.hasClock {
		c := r.clock * usToSec
		e.ClockOffset = &c
	}
	e.ClockSdev = r.clockSdev
	e.ClockPredicted = r.clockPredicted
	e.ClockEvent = r.clockEvent
	return e
}

// Position, maneuver and orbit prediction are superseded; the clock is kept
func (e *Entry) setPosition(r *record) {
	e.Position = r3.Vec{X: r.x, Y: r.y, Z: r.z}
	e.PositionSdev = r.sdev
	e.Maneuver = r.maneuver
	e.OrbitPredicted = r.orbitPredicted
}

// Velocity is superseded; the clock rate only when the record carries one
func (e *Entry) setVelocity(r *record) {
	e.Velocity = &r3.Vec{X: r.x * dmsToKms, Y: r.y * dmsToKms, Z: r.z * dmsToKms}
	e.VelocitySdev = r.sdev
	if r.hasClock {
		d := r.clock * subNsToSecSec
		e.ClockDrift = &d
		e.ClockRateSdev = r.clockSdev
	}
}

// Deep copy
func (e *Entry) clone() *Entry {
	c := *e
	if e.Velocity != nil {
		v := *e.Velocity
		c.Velocity = &v
	}
	if e.ClockOffset != nil {
		o := *e.ClockOffset
		c.ClockOffset = &o
	}
	if e.ClockDrift != nil {
		d := *e.ClockDrift
		c.ClockDrift = &d
	}
	return &c
}

// Back to file units
func (e *Entry) positionRecord(sat SatID) *record {
	r := &record{
		sat:            sat,
		x:              e.Position.X,
		y:              e.Position.Y,
		z:              e.Position.Z,
		sdev:           e.PositionSdev,
		clockSdev:      e.ClockSdev,
		clockEvent:     e.ClockEvent,
		clockPredicted: e.ClockPredicted,
		maneuver:       e.Maneuver,
		orbitPredicted: e.OrbitPredicted,
	}
	if e.ClockOffset != nil {
		r.clock = *e.ClockOffset / usToSec
		r.hasClock = true
	}
	return r
}

func (e *Entry) velocityRecord(sat SatID) *record {
	r := &record{
		sat:       sat,
		x:         e.Velocity.X / dmsToKms,
		y:         e.Velocity.Y / dmsToKms,
		z:         e.Velocity.Z / dmsToKms,
		sdev:      e.VelocitySdev,
		clockSdev: e.ClockRateSdev,
	}
	if e.ClockDrift != nil {
		r.clock = *e.ClockDrift / subNsToSecSec
		r.hasClock = true
	}
	return r
}

// State handed to orbit consumers. Velocity is zero when absent.
type State struct {
	Epoch          Epoch
	Sat            SatID
	Position       r3.Vec // [km]
	Velocity       r3.Vec // [km/s]
	Maneuver       bool
	OrbitPredicted bool
}

// Counters collected while parsing
type Stats struct {
	Lines           int // Input lines read
	EpochLines      int
	PositionRecords int // Decoded P lines
	VelocityRecords int // Decoded V lines
	ShortRecords    int // P/V lines skipped for being too short
	ZeroDiscarded   int // Records dropped by the zero vector rule
	VelocityFirst   int // Entries created by a velocity record
	IgnoredLines    int // Unknown body lines (EP, EV, blank ...)
	Conflicts       int // Keys found in both inputs of a merge
}

//-------------------------------------------------------------------
// SP3 dataset
//-------------------------------------------------------------------

// SP3 is a parsed or merged orbit file. Entries are ordered by RecordKey.
type SP3 struct {
	Header Header
	Stats  Stats

	keys    []RecordKey
	entries map[keyID]*Entry
	sorted  bool
}

func newSP3(h Header) *SP3 {
	return &SP3{
		Header:  h,
		entries: map[keyID]*Entry{},
		sorted:  true,
	}
}

func (p *SP3) lookup(k RecordKey) (*Entry, bool) {
	e, ok := p.entries[k.id()]
	return e, ok
}

// Add an entry under a key not yet present
func (p *SP3) insert(k RecordKey, e *Entry) {
	if n := len(p.keys); n > 0 && k.Compare(p.keys[n-1]) < 0 {
		p.sorted = false
	}
	p.keys = append(p.keys, k)
	p.entries[k.id()] = e
}

func (p *SP3) finalize() {
	if !p.sorted {
		slices.SortFunc(p.keys, func(a, b RecordKey) int {
			return a.Compare(b)
		})
		p.sorted = true
	}
}

// Number of entries
func (p *SP3) Len() int {
	return len(p.keys)
}

// Entry at the given epoch for the satellite
func (p *SP3) Get(epoch Epoch, sat SatID) (Entry, bool) {
	e, ok := p.lookup(RecordKey{Epoch: epoch, Sat: sat})
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (p *SP3) FirstEpoch() (Epoch, bool) {
	if len(p.keys) == 0 {
		return Epoch{}, false
	}
	return p.keys[0].Epoch, true
}

func (p *SP3) LastEpoch() (Epoch, bool) {
	if len(p.keys) == 0 {
		return Epoch{}, false
	}
	return p.keys[len(p.keys)-1].Epoch, true
}

// Distinct epochs in ascending order
func (p *SP3) Epochs() iter.Seq[Epoch] {
	return func(yield func(Epoch) bool) {
		for i, k := range p.keys {
			if i > 0 && k.Epoch.Equal(p.keys[i-1].Epoch) {
				continue
			}
			if !yield(k.Epoch) {
				return
			}
		}
	}
}

func (p *SP3) TotalEpochs() int {
	n := 0
	for range p.Epochs() {
		n++
	}
	return n
}

// Distinct satellites found in the body, sorted
func (p *SP3) Satellites() []SatID {
	m := map[SatID]struct{}{}
	for _, k := range p.keys {
		m[k.Sat] = struct{}{}
	}
	return Sorted(maps.Keys(m))
}

func (p *SP3) HasVelocity() bool {
	return p.any(func(e *Entry) bool { return e.Velocity != nil })
}

func (p *SP3) HasClockOffset() bool {
	return p.any(func(e *Entry) bool { return e.ClockOffset != nil })
}

func (p *SP3) HasClockDrift() bool {
	return p.any(func(e *Entry) bool { return e.ClockDrift != nil })
}

func (p *SP3) any(f func(*Entry) bool) bool {
	for _, e := range p.entries {
		if f(e) {
			return true
		}
	}
	return false
}

//-------------------------------------------------------------------
// Iterators (read views, restartable)
//-------------------------------------------------------------------

func (p *SP3) Keys() iter.Seq[RecordKey] {
	return func(yield func(RecordKey) bool) {
		for _, k := range p.keys {
			if !yield(k) {
				return
			}
		}
	}
}

// Entries are copies; modifying them does not change the dataset
func (p *SP3) Entries() iter.Seq2[RecordKey, Entry] {
	return func(yield func(RecordKey, Entry) bool) {
		for _, k := range p.keys {
			if !yield(k, *p.entries[k.id()]) {
				return
			}
		}
	}
}

func (p *SP3) States() iter.Seq[State] {
	return func(yield func(State) bool) {
		for k, e := range p.Entries() {
			if !yield(newState(k, &e)) {
				return
			}
		}
	}
}

func (p *SP3) SatelliteStates(sat SatID) iter.Seq[State] {
	return func(yield func(State) bool) {
		for s := range p.States() {
			if s.Sat == sat && !yield(s) {
				return
			}
		}
	}
}

func newState(k RecordKey, e *Entry) State {
	s := State{
		Epoch:          k.Epoch,
		Sat:            k.Sat,
		Position:       e.Position,
		Maneuver:       e.Maneuver,
		OrbitPredicted: e.OrbitPredicted,
	}
	if e.Velocity != nil {
		s.Velocity = *e.Velocity
	}
	return s
}

// Positions [km]
func (p *SP3) Positions() iter.Seq2[RecordKey, r3.Vec] {
	return func(yield func(RecordKey, r3.Vec) bool) {
		for k, e := range p.Entries() {
			if !yield(k, e.Position) {
				return
			}
		}
	}
}

// Velocities [km/s] of the entries carrying one
func (p *SP3) Velocities() iter.Seq2[RecordKey, r3.Vec] {
	return func(yield func(RecordKey, r3.Vec) bool) {
		for k, e := range p.Entries() {
			if e.Velocity != nil && !yield(k, *e.Velocity) {
				return
			}
		}
	}
}

// Clock offsets [s]
func (p *SP3) ClockOffsets() iter.Seq2[RecordKey, float64] {
	return func(yield func(RecordKey, float64) bool) {
		for k, e := range p.Entries() {
			if e.ClockOffset != nil && !yield(k, *e.ClockOffset) {
				return
			}
		}
	}
}

// Clock drifts [s/s]
func (p *SP3) ClockDrifts() iter.Seq2[RecordKey, float64] {
	return func(yield func(RecordKey, float64) bool) {
		for k, e := range p.Entries() {
			if e.ClockDrift != nil && !yield(k, *e.ClockDrift) {
				return
			}
		}
	}
}

// New dataset holding the entries accepted by keep
func (p *SP3) Filter(keep func(RecordKey) bool) *SP3 {
	out := newSP3(p.Header.clone())
	for _, k := range p.keys {
		if keep(k) {
			out.insert(k, p.entries[k.id()].clone())
		}
	}
	out.Header.NumberOfEpochs = out.TotalEpochs()
	return out
}

// Display dataset overview
func (p *SP3) String() string {
	if len(p.keys) == 0 {
		return "NO DATA"
	}
	sl := map[SysType][]SatID{}
	for _, sat := range p.Satellites() {
		sl[sat.Sys] = append(sl[sat.Sys], sat)
	}
	var sb strings.Builder
	for _, sys := range []SysType{'G', 'R', 'E', 'C', 'J', 'I', 'S', 'L'} {
		if a, ok := sl[sys]; ok {
			sb.WriteString(fmt.Sprintf("\t%c (%2d):", sys, len(a)))
			for _, b := range a {
				sb.WriteString(fmt.Sprintf(" %02d", b.PRN))
			}
			sb.WriteString("\n")
		}
	}
	h := &p.Header
	a := `
header:
	SP3-%s %s %s %s %s
	%s %s, interval %s
datetime:
	%s - %s (%d)
sats:
%s
data:
	velocity=%t clock=%t drift=%t`
	fe, _ := p.FirstEpoch()
	le, _ := p.LastEpoch()
	return fmt.Sprintf(a,
		h.Version, h.DataType, h.OrbitType, h.CoordSystem, h.Agency,
		h.Constellation, h.TimeScale, h.Interval,
		fe.Time.Format("2006/01/02 15:04:05.000"), le.Time.Format("2006/01/02 15:04:05.000"), p.TotalEpochs(),
		sb.String(),
		p.HasVelocity(), p.HasClockOffset(), p.HasClockDrift())
}
