// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.16
//

package sp3

import (
	"fmt"
	"strings"
)

// What to do with a key present in both datasets
type MergePolicy int

const (
	PreferFirst     MergePolicy = iota // Keep the entry of the first dataset
	PreferSecond                       // Keep the entry of the second dataset
	RejectConflicts                    // Fail with ErrMergeConflict
)

var mergePolicyNames = []string{"first", "second", "reject"}

func ParseMergePolicy(s string) (MergePolicy, error) {
	for i, n := range mergePolicyNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return MergePolicy(i), nil
		}
	}
	return PreferFirst, fmt.Errorf("unknown merge policy %q (first, second or reject)", s)
}

func (p MergePolicy) String() string {
	if p >= 0 && int(p) < len(mergePolicyNames) {
		return mergePolicyNames[p]
	}
	return "UNKNOWN!"
}

func (p MergePolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *MergePolicy) UnmarshalText(text []byte) error {
	v, err := ParseMergePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Merge combines two datasets of the same agency, keeping the entries of a
// where both hold the same key.
func Merge(a, b *SP3) (*SP3, error) {
	return MergeWith(a, b, PreferFirst)
}

// MergeWith combines two datasets of the same agency. The result is a new
// dataset with a's header, the union of the satellites and the entries of
// both. Neither input is modified.
func MergeWith(a, b *SP3, policy MergePolicy) (*SP3, error) {
	if a.Header.Agency != b.Header.Agency {
		return nil, fmt.Errorf("%w: %q and %q", ErrIncompatibleAgency, a.Header.Agency, b.Header.Agency)
	}
	a.finalize()
	b.finalize()

	h := a.Header.clone()
	for _, sat := range b.Header.Satellites {
		h.addSatellite(sat)
	}
	out := newSP3(h)

	// b's keys read in a's time scale
	bk := func(k RecordKey) RecordKey {
		if k.Epoch.Scale != h.TimeScale {
			k.Epoch = k.Epoch.In(h.TimeScale)
		}
		return k
	}

	// Both key lists are sorted; walk them side by side
	i, j := 0, 0
	for i < len(a.keys) || j < len(b.keys) {
		var c int
		switch {
		case i == len(a.keys):
			c = 1
		case j == len(b.keys):
			c = -1
		default:
			c = a.keys[i].Compare(b.keys[j])
		}
		switch {
		case c < 0:
			out.insert(a.keys[i], a.entries[a.keys[i].id()].clone())
			i++
		case c > 0:
			out.insert(bk(b.keys[j]), b.entries[b.keys[j].id()].clone())
			j++
		default:
			out.Stats.Conflicts++
			switch policy {
			case RejectConflicts:
				return nil, fmt.Errorf("%w: %s", ErrMergeConflict, a.keys[i])
			case PreferSecond:
				out.insert(a.keys[i], b.entries[b.keys[j].id()].clone())
			default:
				out.insert(a.keys[i], a.entries[a.keys[i].id()].clone())
			}
			i++
			j++
		}
	}
	out.finalize()

	// Start of the merged span
	af, aok := a.FirstEpoch()
	bf, bok := b.FirstEpoch()
	if bok && (!aok || bf.Before(af)) {
		out.Header.Release = bk(RecordKey{Epoch: b.Header.Release}).Epoch
		out.Header.Week = b.Header.Week
		out.Header.WeekSeconds = b.Header.WeekSeconds
		out.Header.MJD = b.Header.MJD
		out.Header.MJDFraction = b.Header.MJDFraction
	}
	out.Header.NumberOfEpochs = out.TotalEpochs()
	PrintD(1, "sp3: merged %d + %d entries into %d (%d conflicts, %s)\n",
		a.Len(), b.Len(), out.Len(), out.Stats.Conflicts, policy)
	return out, nil
}
