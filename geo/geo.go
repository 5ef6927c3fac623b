// Package geo implements the WGS-84 geodetic transforms the EKF consumes:
// LLA/ECEF/NED conversions, including Olson's closed-form ECEF->LLA.
package geo

import (
	"math"

	"github.com/TL-4319/ua-navigation/wgs84"
)

// LLA is a geodetic position: latitude and longitude in radians, altitude
// in meters, all double precision per the core's position-accuracy budget.
type LLA struct {
	LatRad float64
	LonRad float64
	AltM   float64
}

// ECEF is a Cartesian Earth-Centered, Earth-Fixed position, meters.
type ECEF struct {
	X, Y, Z float64
}

// NED is a local tangent-plane North/East/Down offset, meters.
type NED struct {
	N, E, D float64
}

// LLA2ECEF converts a geodetic position to ECEF Cartesian coordinates.
func LLA2ECEF(lla LLA) ECEF {
	sinLat, cosLat := math.Sincos(lla.LatRad)
	sinLon, cosLon := math.Sincos(lla.LonRad)
	rn := wgs84.A / math.Sqrt(math.Abs(1.0-wgs84.E2*sinLat*sinLat))
	return ECEF{
		X: (rn + lla.AltM) * cosLat * cosLon,
		Y: (rn + lla.AltM) * cosLat * sinLon,
		Z: (rn*(1.0-wgs84.E2) + lla.AltM) * sinLat,
	}
}

// ECEF2LLA converts ECEF coordinates to geodetic position using Olson's
// closed-form method. Returns the zero LLA if the input is degenerate
// (radius below wgs84.ECEFMinRadiusM) -- callers must treat a zero LLA as
// "no conversion", per the core's error-handling design.
func ECEF2LLA(ecef ECEF) LLA {
	x, y, z := ecef.X, ecef.Y, ecef.Z
	zp := math.Abs(z)
	w2 := x*x + y*y
	w := math.Sqrt(w2)
	z2 := z * z
	r2 := w2 + z2
	r := math.Sqrt(r2)
	if r < wgs84.ECEFMinRadiusM {
		return LLA{}
	}

	lon := math.Atan2(y, x)

	s2 := z2 / r2
	c2 := w2 / r2
	u := wgs84.A2 / r
	v := wgs84.A3 - wgs84.A4/r

	var lat, s, c, ss float64
	if c2 > 0.3 {
		s = (zp / r) * (1.0 + c2*(wgs84.A1+u+s2*v)/r)
		lat = math.Asin(s)
		ss = s * s
		c = math.Sqrt(1.0 - ss)
	} else {
		c = (w / r) * (1.0 - s2*(wgs84.A5-u-c2*v)/r)
		lat = math.Acos(c)
		ss = 1.0 - c*c
		s = math.Sqrt(ss)
	}

	g := 1.0 - wgs84.E2*ss
	rg := wgs84.A / math.Sqrt(g)
	rf := wgs84.A6 * rg
	u = w - rg*c
	v = zp - rf*s
	f := c*u + s*v
	m := c*v - s*u
	p := m / (rf/g + f)

	lat += p
	alt := f + m*p/2.0
	if z < 0 {
		lat = -lat
	}
	return LLA{LatRad: lat, LonRad: lon, AltM: alt}
}

// nedRotation returns the rotation matrix whose rows are the N, E, D unit
// vectors expressed in ECEF, evaluated at the given reference LLA.
func nedRotation(ref LLA) [3][3]float64 {
	sinLat, cosLat := math.Sincos(ref.LatRad)
	sinLon, cosLon := math.Sincos(ref.LonRad)
	return [3][3]float64{
		{-sinLat * cosLon, -sinLat * sinLon, cosLat},
		{-sinLon, cosLon, 0},
		{-cosLat * cosLon, -cosLat * sinLon, -sinLat},
	}
}

// ECEF2NED rotates an already-differenced ECEF vector into the local NED
// frame defined at llaRef.
func ECEF2NED(ecef ECEF, llaRef LLA) NED {
	r := nedRotation(llaRef)
	v := [3]float64{ecef.X, ecef.Y, ecef.Z}
	return NED{
		N: r[0][0]*v[0] + r[0][1]*v[1] + r[0][2]*v[2],
		E: r[1][0]*v[0] + r[1][1]*v[1] + r[1][2]*v[2],
		D: r[2][0]*v[0] + r[2][1]*v[1] + r[2][2]*v[2],
	}
}

// NED2ECEF rotates a NED vector back into ECEF using the transpose of the
// rotation ECEF2NED applies.
func NED2ECEF(ned NED, llaRef LLA) ECEF {
	r := nedRotation(llaRef)
	v := [3]float64{ned.N, ned.E, ned.D}
	return ECEF{
		X: r[0][0]*v[0] + r[1][0]*v[1] + r[2][0]*v[2],
		Y: r[0][1]*v[0] + r[1][1]*v[1] + r[2][1]*v[2],
		Z: r[0][2]*v[0] + r[1][2]*v[1] + r[2][2]*v[2],
	}
}

// LLA2NED gives the NED offset of loc relative to ref.
func LLA2NED(loc, ref LLA) NED {
	ecefLoc := LLA2ECEF(loc)
	ecefRef := LLA2ECEF(ref)
	diff := ECEF{X: ecefLoc.X - ecefRef.X, Y: ecefLoc.Y - ecefRef.Y, Z: ecefLoc.Z - ecefRef.Z}
	return ECEF2NED(diff, ref)
}

// NED2LLA is the inverse of LLA2NED: it recovers the absolute LLA of a NED
// offset from ref.
func NED2LLA(ned NED, ref LLA) LLA {
	ecefRef := LLA2ECEF(ref)
	d := NED2ECEF(ned, ref)
	return ECEF2LLA(ECEF{X: d.X + ecefRef.X, Y: d.Y + ecefRef.Y, Z: d.Z + ecefRef.Z})
}
