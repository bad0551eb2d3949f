// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package astro

import (
	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mkhts/sp3"
)

// Greenwich mean sidereal time [rad] at the epoch (UT1 taken as UTC)
func GMST(e sp3.Epoch) float64 {
	t := e.In(sp3.UTC).Time
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	jd += float64(t.Nanosecond()) / 1e9 / 86400
	return satellite.ThetaG_JD(jd)
}

func toVector3(v r3.Vec) satellite.Vector3 {
	return satellite.Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

func fromVector3(v satellite.Vector3) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// Earth-fixed to inertial rotation (rotate by -GMST)
func rotateToECI(v r3.Vec, gmst float64) r3.Vec {
	return fromVector3(satellite.ECIToECEF(toVector3(v), -gmst))
}

// ToECI rotates an Earth-fixed state into an Earth-centred inertial frame.
// Velocity gains the Earth rotation term. Polar motion and nutation are ignored.
func ToECI(s sp3.State) (pos, vel r3.Vec) {
	gmst := GMST(s.Epoch)
	pos = rotateToECI(s.Position, gmst)
	w := r3.Vec{Z: OmegaE}
	vel = rotateToECI(r3.Add(s.Velocity, r3.Cross(w, s.Position)), gmst)
	return pos, vel
}

// Inverse of ToECI for positions
func ToECEF(pos r3.Vec, e sp3.Epoch) r3.Vec {
	return fromVector3(satellite.ECIToECEF(toVector3(pos), GMST(e)))
}
