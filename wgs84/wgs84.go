// Package wgs84 collects the ellipsoid, gravity and closed-form-conversion
// constants shared by the geo and ekf packages so none of them re-derive
// the same tables per call.
package wgs84

const (
	// A is the WGS-84 semi-major axis length, meters.
	A = 6378137.0
	// E2 is the WGS-84 first eccentricity squared.
	E2 = 6.694379990141316e-3
	// G is gravity magnitude at sea level, m/s^2.
	G = 9.80665

	// Olson's coefficients for the closed-form ECEF->LLA transform
	// (Olson, D. K., "Converting Earth-Centered, Earth-Fixed Coordinates
	// to Geodetic Coordinates", IEEE Trans. Aerosp. Electron. Syst., 1996).
	A1 = A * E2
	A2 = A1 * A1
	A3 = A1 * E2 / 2
	A4 = 2.5 * A2
	A5 = A1 + A3
	A6 = 1 - E2

	// ECEFMinRadiusM is the ECEF radius below which ECEF2LLA is degenerate
	// (too close to the Earth's center to resolve reliably).
	ECEFMinRadiusM = 100000.0
)
