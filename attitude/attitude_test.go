package attitude

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAngle2QuatRoundTrip(t *testing.T) {
	assert := assert.New(t)
	cases := []Euler{
		{Roll: 0, Pitch: 0, Yaw: 0},
		{Roll: 0.3, Pitch: -0.2, Yaw: 1.5},
		{Roll: -1.0, Pitch: 0.1, Yaw: -2.9},
	}
	for _, e := range cases {
		q := Angle2Quat(e).Normalize()
		back := Quat2Angle(q)
		assert.InDelta(e.Roll, back.Roll, 1e-9)
		assert.InDelta(e.Pitch, back.Pitch, 1e-9)
		assert.InDelta(e.Yaw, back.Yaw, 1e-9)
	}
}

func TestQuatNormalizeUnitNormAndSign(t *testing.T) {
	assert := assert.New(t)
	q := Quat{W: -2, X: 1, Y: 1, Z: 1}.Normalize()
	n := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	assert.InDelta(1.0, n, 1e-12)
	assert.GreaterOrEqual(q.W, 0.0)
}

func TestQuat2DCMIsOrthonormal(t *testing.T) {
	assert := assert.New(t)
	q := Angle2Quat(Euler{Roll: 0.4, Pitch: 0.2, Yaw: 1.1})
	m := Quat2DCM(q)
	mt := Transpose3(m)
	prod := mat3Mul(m, mt)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(want, prod[i][j], 1e-9)
		}
	}
}

func mat3Mul(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

func TestSkewIsCrossProduct(t *testing.T) {
	assert := assert.New(t)
	v := Vec3{X: 1, Y: 2, Z: 3}
	u := Vec3{X: 4, Y: 5, Z: 6}
	s := Skew(v)
	got := Vec3{
		X: s[0][0]*u.X + s[0][1]*u.Y + s[0][2]*u.Z,
		Y: s[1][0]*u.X + s[1][1]*u.Y + s[1][2]*u.Z,
		Z: s[2][0]*u.X + s[2][1]*u.Y + s[2][2]*u.Z,
	}
	want := Vec3{X: v.Y*u.Z - v.Z*u.Y, Y: v.Z*u.X - v.X*u.Z, Z: v.X*u.Y - v.Y*u.X}
	assert.InDelta(want.X, got.X, 1e-12)
	assert.InDelta(want.Y, got.Y, 1e-12)
	assert.InDelta(want.Z, got.Z, 1e-12)
}

func TestLlaRateLevelNorthFlight(t *testing.T) {
	assert := assert.New(t)
	dLat, dLon, dAlt := LlaRate(Vec3{X: 100, Y: 0, Z: 0}, 0, 0)
	assert.Greater(dLat, 0.0)
	assert.InDelta(0, dLon, 1e-12)
	assert.InDelta(0, dAlt, 1e-12)
}

func TestLlaRateClimbIsNegativeDown(t *testing.T) {
	assert := assert.New(t)
	_, _, dAlt := LlaRate(Vec3{X: 0, Y: 0, Z: -5}, 0.5, 1000)
	assert.InDelta(5.0, dAlt, 1e-12)
}

func TestTiltCompassLevelNorth(t *testing.T) {
	assert := assert.New(t)
	accel := Vec3{X: 0, Y: 0, Z: -9.80665}
	mag := Vec3{X: 22, Y: 0, Z: 43}
	e := TiltCompass(accel, mag)
	assert.InDelta(0, e.Roll, 1e-6)
	assert.InDelta(0, e.Pitch, 1e-6)
	assert.InDelta(0, e.Yaw, 1e-6)
}
