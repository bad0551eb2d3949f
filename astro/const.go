// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package astro

const (
	PI     = 3.1415926535897932  // Pi
	Re     = 6378.137            // Earth's radius [km]
	Fe     = 1.0 / 298.257223563 // Earth's flattening
	MuE    = 398600.4418         // Earth's gravitational parameter [km^3/s^2]
	OmegaE = 7.2921151467e-5     // Earth's rotation rate [rad/s]
)

func SQ(x float64) float64 {
	return x * x
}

func ToDeg(rad float64) float64 {
	return rad / PI * 180.0
}

func ToRad(deg float64) float64 {
	return deg / 180.0 * PI
}
