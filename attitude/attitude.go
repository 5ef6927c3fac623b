// Package attitude implements the quaternion/Euler/DCM hygiene the EKF
// mechanization needs: conversions between representations, the
// skew-symmetric cross-product operator, local-radii LLA rate, and the
// accelerometer+magnetometer tilt-compass used for initial alignment.
package attitude

import (
	"math"

	"github.com/TL-4319/ua-navigation/wgs84"
)

// Quat is a unit quaternion rotating body axes into the NED frame,
// scalar-first (w, x, y, z).
type Quat struct {
	W, X, Y, Z float64
}

// Euler holds roll, pitch, yaw in radians, body->NED, ZYX (yaw-pitch-roll)
// convention.
type Euler struct {
	Roll, Pitch, Yaw float64
}

// Vec3 is a plain 3-vector; the frame is determined by context.
type Vec3 struct {
	X, Y, Z float64
}

// Normalize returns q scaled to unit norm, with the scalar part forced
// non-negative (sign-flip guard so the same rotation always has a single
// quaternion representative).
func (q Quat) Normalize() Quat {
	n := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	q = Quat{q.W / n, q.X / n, q.Y / n, q.Z / n}
	if q.W < 0 {
		q = Quat{-q.W, -q.X, -q.Y, -q.Z}
	}
	return q
}

// Mul composes two quaternions, q = a ⊗ b.
func (a Quat) Mul(b Quat) Quat {
	return Quat{
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
	}
}

// Angle2Quat converts Euler angles (ZYX: yaw, then pitch, then roll) to the
// equivalent unit quaternion.
func Angle2Quat(e Euler) Quat {
	sr, cr := math.Sincos(e.Roll / 2)
	sp, cp := math.Sincos(e.Pitch / 2)
	sy, cy := math.Sincos(e.Yaw / 2)
	return Quat{
		W: cr*cp*cy + sr*sp*sy,
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
	}
}

// Quat2Angle converts a unit quaternion to Euler angles. The asin argument
// is clamped to [-1,1] so pitch near +-90 degrees never produces NaN.
func Quat2Angle(q Quat) Euler {
	sinp := 2 * (q.W*q.Y - q.Z*q.X)
	if sinp > 1 {
		sinp = 1
	} else if sinp < -1 {
		sinp = -1
	}
	return Euler{
		Roll:  math.Atan2(2*(q.W*q.X+q.Y*q.Z), 1-2*(q.X*q.X+q.Y*q.Y)),
		Pitch: math.Asin(sinp),
		Yaw:   math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z)),
	}
}

// Quat2DCM returns the NED->body direction cosine matrix (C_n2b) of a unit
// body->NED attitude quaternion. The filter uses its transpose as C_b2n.
func Quat2DCM(q Quat) [3][3]float64 {
	ww, xx, yy, zz := q.W*q.W, q.X*q.X, q.Y*q.Y, q.Z*q.Z
	return [3][3]float64{
		{ww + xx - yy - zz, 2 * (q.X*q.Y + q.W*q.Z), 2 * (q.X*q.Z - q.W*q.Y)},
		{2 * (q.X*q.Y - q.W*q.Z), ww - xx + yy - zz, 2 * (q.Y*q.Z + q.W*q.X)},
		{2 * (q.X*q.Z + q.W*q.Y), 2 * (q.Y*q.Z - q.W*q.X), ww - xx - yy + zz},
	}
}

// Transpose3 returns the transpose of a 3x3 matrix.
func Transpose3(m [3][3]float64) [3][3]float64 {
	var t [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[j][i] = m[i][j]
		}
	}
	return t
}

// Skew returns the skew-symmetric cross-product matrix of v, i.e. the
// matrix S such that S*u == v x u for any vector u.
func Skew(v Vec3) [3][3]float64 {
	return [3][3]float64{
		{0, -v.Z, v.Y},
		{v.Z, 0, -v.X},
		{-v.Y, v.X, 0},
	}
}

// LlaRate transforms a NED velocity into the rate of change of latitude,
// longitude and altitude at the given position, using the WGS-84 local
// radii of curvature: Rns (meridian) and Rew (prime vertical).
func LlaRate(nedVel Vec3, latRad, altM float64) (dLatRadPS, dLonRadPS, dAltMPS float64) {
	sinLat := math.Sin(latRad)
	denom := 1 - wgs84.E2*sinLat*sinLat
	rns := wgs84.A * (1 - wgs84.E2) / math.Pow(denom, 1.5)
	rew := wgs84.A / math.Sqrt(denom)

	dLatRadPS = nedVel.X / (rns + altM)
	dLonRadPS = nedVel.Y / ((rew + altM) * math.Cos(latRad))
	dAltMPS = -nedVel.Z
	return
}

// TiltCompass computes an initial roll/pitch/yaw from a single
// accelerometer (gravity direction) and magnetometer (tilt-compensated
// heading) sample, body frame.
func TiltCompass(accelBody, magBody Vec3) Euler {
	roll := math.Atan2(-accelBody.Y, -accelBody.Z)
	pitch := math.Atan2(accelBody.X, math.Hypot(accelBody.Y, accelBody.Z))

	sr, cr := math.Sincos(roll)
	sp, cp := math.Sincos(pitch)

	// Tilt-compensate the magnetometer reading onto the horizontal plane.
	mx := magBody.X*cp + magBody.Y*sr*sp + magBody.Z*cr*sp
	my := magBody.Y*cr - magBody.Z*sr
	yaw := math.Atan2(-my, mx)

	return Euler{Roll: roll, Pitch: pitch, Yaw: yaw}
}
