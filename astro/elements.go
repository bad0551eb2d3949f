// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package astro

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mkhts/sp3"
)

// Osculating Keplerian elements (angles in [rad])
type Elements struct {
	A    float64 // Semi-major axis [km]
	Ecc  float64 // Eccentricity
	Inc  float64 // Inclination
	RAAN float64 // Right ascension of the ascending node
	ArgP float64 // Argument of perigee
	Nu   float64 // True anomaly
}

var ErrNoVelocity = errors.New("state has no velocity")

// Below this eccentricity (or node vector length) the orbit is treated as circular (or equatorial)
const degenerate = 1e-11

// Elements from an inertial position [km] and velocity [km/s]
func NewElements(pos, vel r3.Vec) (Elements, error) {
	r := r3.Norm(pos)
	v := r3.Norm(vel)
	if r == 0 {
		return Elements{}, errors.New("zero position")
	}
	if v == 0 {
		return Elements{}, ErrNoVelocity
	}

	h := r3.Cross(pos, vel)
	hn := r3.Norm(h)
	n := r3.Vec{X: -h.Y, Y: h.X} // k x h
	nn := r3.Norm(n)

	// Eccentricity vector
	ev := r3.Scale(1/MuE, r3.Sub(r3.Scale(v*v-MuE/r, pos), r3.Scale(r3.Dot(pos, vel), vel)))
	ecc := r3.Norm(ev)

	energy := v*v/2 - MuE/r
	if energy >= 0 {
		return Elements{}, fmt.Errorf("orbit is not bound (energy=%g)", energy)
	}

	el := Elements{
		A:   -MuE / (2 * energy),
		Ecc: ecc,
		Inc: math.Acos(clamp(h.Z / hn)),
	}

	if nn > degenerate {
		el.RAAN = math.Acos(clamp(n.X / nn))
		if n.Y < 0 {
			el.RAAN = 2*PI - el.RAAN
		}
	}

	// Reference direction for perigee and anomaly
	ref := ev
	if ecc <= degenerate {
		ref = n
		if nn <= degenerate {
			ref = r3.Vec{X: 1}
		}
	} else if nn > degenerate {
		el.ArgP = math.Acos(clamp(r3.Dot(n, ev) / (nn * ecc)))
		if ev.Z < 0 {
			el.ArgP = 2*PI - el.ArgP
		}
	}

	el.Nu = math.Acos(clamp(r3.Dot(ref, pos) / (r3.Norm(ref) * r)))
	var past bool
	switch {
	case ecc > degenerate:
		past = r3.Dot(pos, vel) < 0
	case nn > degenerate: // Argument of latitude
		past = pos.Z < 0
	default: // True longitude
		past = pos.Y < 0
	}
	if past {
		el.Nu = 2*PI - el.Nu
	}
	return el, nil
}

// Elements of an SP3 state, after rotation to the inertial frame
func StateElements(s sp3.State) (Elements, error) {
	if s.Velocity == (r3.Vec{}) {
		return Elements{}, fmt.Errorf("%s %s: %w", s.Epoch, s.Sat, ErrNoVelocity)
	}
	pos, vel := ToECI(s)
	return NewElements(pos, vel)
}

// Orbital period [s]
func (el Elements) Period() float64 {
	return 2 * PI * math.Sqrt(el.A*el.A*el.A/MuE)
}

func (el Elements) String() string {
	return fmt.Sprintf("a=%.3fkm e=%.6f i=%.4f raan=%.4f w=%.4f nu=%.4f",
		el.A, el.Ecc, ToDeg(el.Inc), ToDeg(el.RAAN), ToDeg(el.ArgP), ToDeg(el.Nu))
}

func clamp(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
