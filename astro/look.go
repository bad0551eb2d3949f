// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package astro

import (
	"iter"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mkhts/sp3"
)

// Direction and distance of a satellite seen from a station
type LookAngles struct {
	Az    float64 // Azimuth [rad], clockwise from north
	El    float64 // Elevation [rad]
	Range float64 // [km]
}

func Look(station PosLLH, sat r3.Vec) LookAngles {
	enu := ToENU(sat, station.ToXYZ())
	return LookAngles{Az: enu.Azimuth(), El: enu.Elevation(), Range: enu.Range()}
}

// Satellite attitude relative to a station at one epoch
type Attitude struct {
	Epoch    sp3.Epoch
	Sat      sp3.SatID
	Maneuver bool
	LookAngles
}

// Attitudes maps states (as given by SP3.States) to look angles from the station.
// The sequence is as lazy and restartable as its source.
func Attitudes(states iter.Seq[sp3.State], station PosLLH) iter.Seq[Attitude] {
	base := station.ToXYZ()
	return func(yield func(Attitude) bool) {
		for s := range states {
			enu := ToENU(s.Position, base)
			a := Attitude{
				Epoch:      s.Epoch,
				Sat:        s.Sat,
				Maneuver:   s.Maneuver,
				LookAngles: LookAngles{Az: enu.Azimuth(), El: enu.Elevation(), Range: enu.Range()},
			}
			if !yield(a) {
				return
			}
		}
	}
}

// Only the attitudes at or above the elevation mask [rad]
func AboveMask(atts iter.Seq[Attitude], mask float64) iter.Seq[Attitude] {
	return func(yield func(Attitude) bool) {
		for a := range atts {
			if a.El >= mask && !yield(a) {
				return
			}
		}
	}
}
