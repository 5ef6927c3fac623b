package ekf

import (
	"log"
	"math"

	matrix "github.com/skelterjohn/go.matrix"

	"github.com/TL-4319/ua-navigation/attitude"
	"github.com/TL-4319/ua-navigation/geo"
	"github.com/TL-4319/ua-navigation/wgs84"
)

// MeasurementUpdate corrects the nominal state and covariance with a GNSS
// fix. If the innovation covariance S is non-invertible, the update is
// skipped, state and P are left unchanged, and StatusMeasurementRejected
// is returned.
func (f *Filter) MeasurementUpdate(gnss GNSS) (INS, Status) {
	// 1. Innovation y (6x1).
	posErr := geo.LLA2NED(gnss.LLA, f.ins.LLAPos)
	velErr := sub3(gnss.NEDVelMPS, f.ins.NEDVel)
	y := matrix.Zeros(6, 1)
	y.Set(0, 0, posErr.N)
	y.Set(1, 0, posErr.E)
	y.Set(2, 0, posErr.D)
	y.Set(3, 0, velErr.X)
	y.Set(4, 0, velErr.Y)
	y.Set(5, 0, velErr.Z)

	// 2. Innovation covariance and Kalman gain.
	s := matrix.Sum(matrix.Product(f.h, matrix.Product(f.p, f.h.Transpose())), f.r)
	sInv, err := s.Inverse()
	if err != nil {
		log.Println("ekf: measurement update rejected, innovation covariance is singular:", err)
		return f.ins, StatusMeasurementRejected
	}
	k := matrix.Product(f.p, matrix.Product(f.h.Transpose(), sInv))

	// 3. Joseph-form covariance update: P = (I-KH)*P*(I-KH)' + K*R*K'.
	ikh := matrix.Difference(matrix.Eye(15), matrix.Product(k, f.h))
	f.p = matrix.Sum(
		matrix.Product(ikh, matrix.Product(f.p, ikh.Transpose())),
		matrix.Product(k, matrix.Product(f.r, k.Transpose())),
	)

	// 4. Error state x = K*y.
	x := matrix.Product(k, y)

	// 5. Position correction using local radii at the current latitude.
	// NOTE: Rns (meridian) and Rew (prime vertical) are the same radii
	// attitude.LlaRate uses, but lat is scaled by 1/(Rew+alt) and lon by
	// 1/((Rns+alt)*cos lat), the reverse of the textbook pairing. This swap
	// is kept as literal behavior; see the Open Question decisions in
	// DESIGN.md.
	lat := f.ins.LLAPos.LatRad
	denom := math.Abs(1 - wgs84.E2*math.Sin(lat)*math.Sin(lat))
	sqrtDenom := math.Sqrt(denom)
	rns := wgs84.A * (1 - wgs84.E2) / (denom * sqrtDenom)
	rew := wgs84.A / sqrtDenom

	f.ins.LLAPos.AltM -= x.Get(2, 0)
	f.ins.LLAPos.LatRad += x.Get(0, 0) / (rew + f.ins.LLAPos.AltM)
	f.ins.LLAPos.LonRad += x.Get(1, 0) / ((rns + f.ins.LLAPos.AltM) * math.Cos(f.ins.LLAPos.LatRad))

	// 6. Velocity correction.
	f.ins.NEDVel.X += x.Get(3, 0)
	f.ins.NEDVel.Y += x.Get(4, 0)
	f.ins.NEDVel.Z += x.Get(5, 0)

	// 7. Attitude correction via small-angle quaternion.
	dq := attitude.Quat{W: 1, X: x.Get(6, 0), Y: x.Get(7, 0), Z: x.Get(8, 0)}
	f.quat = f.quat.Mul(dq).Normalize()
	f.ins.Attitude = attitude.Quat2Angle(f.quat)

	// 8. Bias updates.
	f.accelBias = add3(f.accelBias, attitude.Vec3{X: x.Get(9, 0), Y: x.Get(10, 0), Z: x.Get(11, 0)})
	f.gyroBias = add3(f.gyroBias, attitude.Vec3{X: x.Get(12, 0), Y: x.Get(13, 0), Z: x.Get(14, 0)})

	// 9. Re-apply new biases to the exposed accel/gyro fields.
	f.ins.Accel = sub3(f.ins.Accel, attitude.Vec3{X: x.Get(9, 0), Y: x.Get(10, 0), Z: x.Get(11, 0)})
	f.ins.Gyro = sub3(f.ins.Gyro, attitude.Vec3{X: x.Get(12, 0), Y: x.Get(13, 0), Z: x.Get(14, 0)})

	return f.ins, StatusOK
}
