// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.20
//

package sp3

import (
	"bufio"
	"fmt"
	"io"
)

// Header lines in file order
func (h *Header) Lines() []string {
	ls := []string{h.Line1(), h.Line2()}
	ls = append(ls, h.satLines()...)
	ls = append(ls, h.accuracyLines()...)
	if h.Constellation != 0 {
		ls = append(ls, h.descriptorLine1())
	}
	ls = append(ls, h.Descriptors...)
	for _, c := range h.Comments {
		ls = append(ls, markerComment+" "+c)
	}
	return ls
}

// Epoch line "*  yyyy mm dd hh mm ss.ffffffff"
func epochLine(e Epoch) string {
	return markerEpoch + formatEpochFields(e)
}

// Format writes the dataset in SP3 layout, ending with the EOF marker
func (p *SP3) Format(w io.Writer) error {
	p.finalize()
	bw := bufio.NewWriter(w)
	for _, l := range p.Header.Lines() {
		if _, err := fmt.Fprintln(bw, l); err != nil {
			return fmt.Errorf("write sp3 header: %w", err)
		}
	}

	var last Epoch
	first := true
	for k, e := range p.Entries() {
		if first || !k.Epoch.Equal(last) {
			if _, err := fmt.Fprintln(bw, epochLine(k.Epoch)); err != nil {
				return fmt.Errorf("write sp3 epoch: %w", err)
			}
			last, first = k.Epoch, false
		}
		if _, err := fmt.Fprintln(bw, e.positionRecord(k.Sat).format(markerPosition)); err != nil {
			return fmt.Errorf("write sp3 record: %w", err)
		}
		if e.Velocity != nil {
			if _, err := fmt.Fprintln(bw, e.velocityRecord(k.Sat).format(markerVelocity)); err != nil {
				return fmt.Errorf("write sp3 record: %w", err)
			}
		}
	}

	if _, err := fmt.Fprintln(bw, markerEOF); err != nil {
		return fmt.Errorf("write sp3 trailer: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write sp3: %w", err)
	}
	return nil
}
