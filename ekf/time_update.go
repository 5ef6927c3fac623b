package ekf

import (
	matrix "github.com/skelterjohn/go.matrix"

	"github.com/TL-4319/ua-navigation/attitude"
	"github.com/TL-4319/ua-navigation/wgs84"
)

// TimeUpdate propagates the nominal INS state with one IMU sample over dt
// seconds, and predicts the error-state covariance forward. dt==0 is a
// no-op up to floating point, since every term below scales with dt.
// Always returns StatusOK.
func (f *Filter) TimeUpdate(imu IMU, dt float64) (INS, Status) {
	// 1. Remove biases.
	f.ins.Accel = sub3(imu.AccelMPS2, f.accelBias)
	f.ins.Gyro = sub3(imu.GyroRadPS, f.gyroBias)
	ab, gb := f.ins.Accel, f.ins.Gyro

	// 2. Attitude propagation via small-angle quaternion increment.
	dq := attitude.Quat{W: 1, X: 0.5 * gb.X * dt, Y: 0.5 * gb.Y * dt, Z: 0.5 * gb.Z * dt}
	f.quat = f.quat.Mul(dq).Normalize()
	f.ins.Attitude = attitude.Quat2Angle(f.quat)

	// 3. Body->NED DCM, C_b2n = Quat2DCM(q)^T.
	cb2n := attitude.Transpose3(attitude.Quat2DCM(f.quat))

	// 4. Velocity update: v += dt*(C_b2n*a_b + g_NED).
	avN, avE, avD := mat3Vec(cb2n, ab.X, ab.Y, ab.Z)
	f.ins.NEDVel.X += dt * avN
	f.ins.NEDVel.Y += dt * avE
	f.ins.NEDVel.Z += dt * (avD + wgs84.G)

	// 5. Position update (double precision).
	dLat, dLon, dAlt := attitude.LlaRate(f.ins.NEDVel, f.ins.LLAPos.LatRad, f.ins.LLAPos.AltM)
	f.ins.LLAPos.LatRad += dt * dLat
	f.ins.LLAPos.LonRad += dt * dLon
	f.ins.LLAPos.AltM += dt * dAlt

	// 6. Continuous Jacobian F (15x15), zero except the blocks below.
	fs := matrix.Zeros(15, 15)
	setIdentity3(fs, 0, 3, 1)
	fs.Set(5, 2, -2*wgs84.G/wgs84.A)
	setBlock3(fs, 3, 6, mat3Mul(cb2n, attitude.Skew(ab)), -2)
	setBlock3(fs, 3, 9, cb2n, -1)
	setBlock3(fs, 6, 6, attitude.Skew(gb), -1)
	setIdentity3(fs, 6, 12, -0.5)
	setBlock3(fs, 9, 9, f.accelMarkov, 1)
	setBlock3(fs, 12, 12, f.gyroMarkov, 1)

	// 7. Discrete transition Phi = I + F*dt.
	phi := matrix.Sum(matrix.Eye(15), matrix.Scaled(fs, dt))

	// 8. Noise input G (15x12).
	gs := matrix.Zeros(15, 12)
	setBlock3(gs, 3, 0, cb2n, -1)
	setIdentity3(gs, 6, 3, -0.5)
	setIdentity3(gs, 9, 6, 1)
	setIdentity3(gs, 12, 9, 1)

	// 9. Discrete process noise, symmetrized.
	q := matrix.Product(matrix.Scaled(phi, dt), matrix.Product(gs, matrix.Product(f.rw, gs.Transpose())))
	q = matrix.Scaled(matrix.Sum(q, q.Transpose()), 0.5)

	// 10. Covariance predict, symmetrized.
	pPred := matrix.Sum(matrix.Product(phi, matrix.Product(f.p, phi.Transpose())), q)
	f.p = matrix.Scaled(matrix.Sum(pPred, pPred.Transpose()), 0.5)

	return f.ins, StatusOK
}
