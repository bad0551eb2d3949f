// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.16
//

package sp3

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Reader state
type parseState int

const (
	expectLine1      parseState = iota
	expectLine2                 // Line #1 read
	expectBodyOrMeta            // +, ++, %c, %f, %i and /* lines
	inBody                      // Header complete
	done                        // EOF marker read
)

// Working state of one Parse call
type parser struct {
	state  parseState
	lineNo int
	h      Header
	ds     *SP3
	epoch  *Epoch // Latched by the last epoch line

	descriptorRead bool // %c line #1 found
}

// Parse reads an SP3 (a to d) file. Decompression, if any, is up to the caller.
func Parse(r io.Reader) (*SP3, error) {
	p := &parser{state: expectLine1}

	// Reader to read line by line with newline as delimiter
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 128), 1024*1024)

	// Read line by line
	for s.Scan() {
		p.lineNo++
		if err := p.feed(strings.TrimRight(s.Text(), "\r")); err != nil {
			return nil, &LineError{Line: p.lineNo, Err: err}
		}
		if p.state == done {
			break
		}
	}

	// Check if reading completed without error
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read sp3: %w", err)
	}

	switch p.state {
	case expectLine1:
		return nil, ErrMissingLine1
	case expectLine2:
		return nil, ErrMissingLine2
	case expectBodyOrMeta: // Header only
		p.endHeader()
	}
	p.ds.Stats.Lines = p.lineNo
	p.ds.finalize()
	PrintD(1, "sp3: %d lines, %d entries, %d epochs\n", p.lineNo, p.ds.Len(), p.ds.TotalEpochs())
	return p.ds, nil
}

func (p *parser) feed(l string) error {
	switch p.state {
	case expectLine1:
		if err := p.h.parseLine1(l); err != nil {
			return err
		}
		PrintD(3, "sp3: line #1 version=%s type=%s agency=%s\n", p.h.Version, p.h.DataType, p.h.Agency)
		p.state = expectLine2
	case expectLine2:
		if err := p.h.parseLine2(l); err != nil {
			return err
		}
		PrintD(3, "sp3: line #2 week=%d interval=%s\n", p.h.Week, p.h.Interval)
		p.state = expectBodyOrMeta
	case expectBodyOrMeta:
		if isMeta(l) {
			return p.meta(l)
		}
		p.endHeader()
		return p.body(l)
	case inBody:
		return p.body(l)
	}
	return nil
}

//-------------------------------------------------------------------
// Header phase
//-------------------------------------------------------------------

func (p *parser) meta(l string) error {
	switch {
	case strings.HasPrefix(l, markerAccuracy):
		return p.h.parseAccuracyLine(l)
	case strings.HasPrefix(l, markerSatList):
		return p.h.parseSatLine(l)
	case strings.HasPrefix(l, markerDescriptor):
		if !p.descriptorRead {
			c, ts, ok, err := parseDescriptor(l)
			if err != nil {
				// Kept as a continuation line
				PrintD(2, "sp3: line %d: %v\n", p.lineNo, err)
			}
			if ok {
				p.h.Constellation, p.h.TimeScale = c, ts
				if f := cols(l, 9, 12); isUnsetScale(f) {
					p.h.UnsetScale = f
				}
				p.descriptorRead = true
				return nil
			}
		}
		p.h.Descriptors = append(p.h.Descriptors, l)
	case strings.HasPrefix(l, markerFloatBase), strings.HasPrefix(l, markerIntBase):
		p.h.Descriptors = append(p.h.Descriptors, l)
	case strings.HasPrefix(l, markerComment):
		p.h.parseComment(l)
	}
	return nil
}

func (p *parser) endHeader() {
	p.h.finish()
	p.ds = newSP3(p.h)
	p.state = inBody
	PrintD(3, "sp3: header done (%d satellites, %d comments)\n", len(p.h.Satellites), len(p.h.Comments))
}

//-------------------------------------------------------------------
// Body phase
//-------------------------------------------------------------------

func (p *parser) body(l string) error {
	switch {
	case l == markerEOF:
		p.state = done
	case strings.HasPrefix(l, markerEpoch):
		e, err := parseEpoch(l, p.ds.Header.TimeScale)
		if err != nil {
			return err
		}
		p.epoch = &e
		p.ds.Stats.EpochLines++
	case len(l) > 0 && (l[0] == markerPosition || l[0] == markerVelocity):
		if len(l) < minRecordLen {
			p.ds.Stats.ShortRecords++
			PrintD(2, "sp3: line %d too short (%d), skipped\n", p.lineNo, len(l))
			return nil
		}
		if p.epoch == nil {
			return ErrNoEpoch
		}
		r, err := parseRecord(l)
		if err != nil {
			return err
		}
		p.assemble(l[0], r)
	default:
		p.ds.Stats.IgnoredLines++
	}
	return nil
}

// Fold a decoded record into the entry of (current epoch, satellite)
func (p *parser) assemble(marker byte, r *record) {
	ds := p.ds
	if marker == markerPosition {
		ds.Stats.PositionRecords++
	} else {
		ds.Stats.VelocityRecords++
	}

	// Registered even when the record is discarded below
	ds.Header.addSatellite(r.sat)

	if r.isZero() {
		ds.Stats.ZeroDiscarded++
		PrintD(2, "sp3: line %d %s zero vector, discarded\n", p.lineNo, r.sat)
		return
	}

	k := RecordKey{Epoch: *p.epoch, Sat: r.sat}
	e, ok := ds.lookup(k)
	switch {
	case marker == markerPosition && !ok:
		ds.insert(k, newPositionEntry(r))
	case marker == markerPosition:
		e.setPosition(r)
	case !ok:
		ds.Stats.VelocityFirst++
		PrintD(2, "sp3: line %d %s velocity before position\n", p.lineNo, r.sat)
		e = newEntry()
		e.setVelocity(r)
		ds.insert(k, e)
	default:
		e.setVelocity(r)
	}
}
