// This code is adapted from RTKLIB.
// The author gratefully acknowledges T.Takasu for his outstanding contribution in developing RTKLIB.
//
// Last modified: 2026.10.19
//

package astro

import (
	"math"

	"github.com/mkhts/sp3"
)

// Zenith tropospheric delay [m] at the station (Saastamoinen, standard atmosphere, dry)
func ZenithDelay(st PosLLH) float64 {
	const temp0 = 15.0 // [degC]
	const humi = 0.0
	hgt := st.Hei * 1000 // [m]
	if hgt < -100.0 || 1e4 < hgt {
		return 0.0
	}
	hgt = math.Max(hgt, 0)
	pres := 1013.25 * math.Pow(1.0-2.2557e-5*hgt, 5.2568)
	temp := temp0 - 6.5e-3*hgt + 273.16
	e := 6.108 * humi * math.Exp((17.15*temp-4684.0)/(temp-38.45))
	trph := 0.0022768 * pres / (1.0 - 0.00266*math.Cos(2.0*st.Lat) - 0.00028*hgt/1e3)
	trpw := 0.002277 * (1255.0/temp + 0.05) * e
	return trph + trpw
}

// Slant delay [m] toward elevation el [rad], zenith delay scaled by the Niell mapping
func SlantDelay(st PosLLH, epoch sp3.Epoch, el float64) float64 {
	if el <= 0 || st.Hei < -1.0 || st.Hei > 20.0 {
		return 0.0
	}
	return ZenithDelay(st) * niell(epoch.Time.YearDay(), st, el)
}

// Hydrostatic coefficients a, b, c (average then amplitude) for latitudes 15, 30 ... 75 [deg]
var niellCoef = [6][5]float64{
	{1.2769934e-3, 1.2683230e-3, 1.2465397e-3, 1.2196049e-3, 1.2045996e-3},
	{2.9153695e-3, 2.9152299e-3, 2.9288445e-3, 2.9022565e-3, 2.9024912e-3},
	{62.610505e-3, 62.837393e-3, 63.721774e-3, 63.824265e-3, 64.258455e-3},

	{0.0000000e-0, 1.2709626e-5, 2.6523662e-5, 3.4000452e-5, 4.1202191e-5},
	{0.0000000e-0, 2.1414979e-5, 3.0160779e-5, 7.2562722e-5, 11.723375e-5},
	{0.0000000e-0, 9.0128400e-5, 4.3497037e-5, 84.795348e-5, 170.37206e-5},
}

// Height correction
var niellHeight = [3]float64{2.53e-5, 5.49e-3, 1.14e-3}

func niell(doy int, st PosLLH, el float64) float64 {
	lat := ToDeg(st.Lat)
	y := (float64(doy) - 28.0) / 365.25
	if lat < 0.0 {
		y += 0.5 // Seasons are reversed in the south
	}
	cosy := math.Cos(2 * PI * y)
	lat = math.Abs(lat)

	var ah [3]float64
	for i := range ah {
		ah[i] = interpLat(niellCoef[i], lat) - interpLat(niellCoef[i+3], lat)*cosy
	}
	dm := (1.0/math.Sin(el) - continuedFraction(el, niellHeight)) * st.Hei
	return continuedFraction(el, ah) + dm
}

func interpLat(coef [5]float64, lat float64) float64 {
	i := int(lat / 15.0)
	switch {
	case i < 1:
		return coef[0]
	case i > 4:
		return coef[4]
	}
	return coef[i-1]*(1.0-lat/15.0+float64(i)) + coef[i]*(lat/15.0-float64(i))
}

// Marini's form, normalised to 1 at zenith
func continuedFraction(el float64, k [3]float64) float64 {
	a, b, c := k[0], k[1], k[2]
	sinel := math.Sin(el)
	return (1.0 + a/(1.0+b/(1.0+c))) / (sinel + (a / (sinel + b/(sinel+c))))
}
