// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.20
//

package astro

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Earth-fixed positions are r3.Vec in [km], the unit of SP3 files.

//-------------------------------------------------------------------
// PosLLH
//-------------------------------------------------------------------

// Geodetic position on WGS84 (latitude and longitude in [rad], height in [km])
type PosLLH struct {
	Lat float64
	Lon float64
	Hei float64
}

func NewPosLLH(lat, lon, hei float64) *PosLLH {
	return &PosLLH{
		Lat: lat,
		Lon: lon,
		Hei: hei,
	}
}

func (llh *PosLLH) ToXYZ() r3.Vec {
	// Ellipsoid parameters
	f := Fe                     // Flattening
	a := Re                     // Semi-major axis
	e := math.Sqrt(f * (2 - f)) // Eccentricity

	// Conversion to Cartesian coordinates
	n := a / math.Sqrt(1-e*e*math.Sin(llh.Lat)*math.Sin(llh.Lat))
	return r3.Vec{
		X: (n + llh.Hei) * math.Cos(llh.Lat) * math.Cos(llh.Lon),
		Y: (n + llh.Hei) * math.Cos(llh.Lat) * math.Sin(llh.Lon),
		Z: (n*(1-e*e) + llh.Hei) * math.Sin(llh.Lat),
	}
}

// Read "lat lon hei" in [deg], [deg] and [m]
func (llh *PosLLH) Set(s string) error {
	f := strings.Fields(s)
	if len(f) != 3 {
		return fmt.Errorf("position must be \"lat lon hei\": %q", s)
	}
	var v [3]float64
	for i := range f {
		x, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return err
		}
		v[i] = x
	}
	llh.Lat = ToRad(v[0])
	llh.Lon = ToRad(v[1])
	llh.Hei = v[2] / 1000
	return nil
}

// Convert to string ([deg], [deg], [m])
func (llh *PosLLH) String() string {
	return fmt.Sprintf("%.8f %.8f %.4f", ToDeg(llh.Lat), ToDeg(llh.Lon), llh.Hei*1000)
}

// Same text form as String, for yaml
func (llh *PosLLH) UnmarshalText(text []byte) error {
	return llh.Set(string(text))
}

//-------------------------------------------------------------------
// Earth-fixed Cartesian
//-------------------------------------------------------------------

func ToLLH(pos r3.Vec) PosLLH {
	// In case of origin
	if pos.X == 0 && pos.Y == 0 && pos.Z == 0 {
		return PosLLH{Lat: 0, Lon: 0, Hei: -Re}
	}

	// Ellipsoid parameters
	a := Re             // Semi-major axis
	e2 := Fe * (2 - Fe) // Eccentricity squared

	// Iterate on z + n*e^2*sin(lat) until it settles (valid up to GNSS altitudes)
	r2 := pos.X*pos.X + pos.Y*pos.Y
	z, zk, n := pos.Z, 0.0, a
	for i := 0; i < 20 && math.Abs(z-zk) >= 1e-12; i++ {
		zk = z
		sinp := z / math.Sqrt(r2+z*z)
		n = a / math.Sqrt(1-e2*sinp*sinp) // Radius of curvature in the prime vertical
		z = pos.Z + n*e2*sinp
	}

	llh := PosLLH{Hei: math.Sqrt(r2+z*z) - n}
	switch {
	case r2 > 1e-24:
		llh.Lat = math.Atan(z / math.Sqrt(r2))
		llh.Lon = math.Atan2(pos.Y, pos.X)
	case pos.Z > 0:
		llh.Lat = PI / 2
	default:
		llh.Lat = -PI / 2
	}
	return llh
}

// Rotation from Earth-fixed to local east, north, up at the given place
func enuRotation(llh PosLLH) *mat.Dense {
	s1 := math.Sin(llh.Lon)
	c1 := math.Cos(llh.Lon)
	s2 := math.Sin(llh.Lat)
	c2 := math.Cos(llh.Lat)
	return mat.NewDense(3, 3, []float64{
		-s1, c1, 0,
		-c1 * s2, -s1 * s2, c2,
		c1 * c2, s1 * c2, s2,
	})
}

// Position relative to base in local coordinates
func ToENU(pos, base r3.Vec) PosENU {
	d := r3.Sub(pos, base)
	var out mat.VecDense
	out.MulVec(enuRotation(ToLLH(base)), mat.NewVecDense(3, []float64{d.X, d.Y, d.Z}))
	return PosENU{E: out.AtVec(0), N: out.AtVec(1), U: out.AtVec(2)}
}

//-------------------------------------------------------------------
// PosENU
//-------------------------------------------------------------------

// Local coordinates [km]
type PosENU struct {
	E float64
	N float64
	U float64
}

func (enu *PosENU) ToXYZ(base r3.Vec) r3.Vec {
	// Rotate back with the transposed matrix
	var out mat.VecDense
	out.MulVec(enuRotation(ToLLH(base)).T(), mat.NewVecDense(3, []float64{enu.E, enu.N, enu.U}))

	// Add to the reference location
	return r3.Add(base, r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)})
}

func (enu *PosENU) Elevation() float64 {
	return math.Atan2(enu.U, math.Sqrt(enu.E*enu.E+enu.N*enu.N))
}

// Azimuth in [0, 2pi)
func (enu *PosENU) Azimuth() float64 {
	az := math.Atan2(enu.E, enu.N)
	if az < 0 {
		az += 2 * PI
	}
	return az
}

func (enu *PosENU) Range() float64 {
	return math.Sqrt(SQ(enu.E) + SQ(enu.N) + SQ(enu.U))
}
