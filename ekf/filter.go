// Package ekf implements the 15-state error-state Extended Kalman Filter:
// a strapdown inertial mechanization corrected by intermittent GNSS fixes.
// Filter is a single-threaded, synchronous, non-reentrant object; the
// caller owns sample scheduling and must call Configure, then Initialize,
// before any TimeUpdate/MeasurementUpdate, and must not call TimeUpdate and
// MeasurementUpdate concurrently on the same instance.
package ekf

import (
	matrix "github.com/skelterjohn/go.matrix"

	"github.com/TL-4319/ua-navigation/attitude"
)

// Filter holds the error-state covariance, noise models, and latent
// nominal state (quaternion, biases) of the 15-state EKF. Zero value is
// not ready to use; call New, then Configure, then Initialize.
type Filter struct {
	params Params

	h  *matrix.DenseMatrix // 6x15 observation matrix
	rw *matrix.DenseMatrix // 12x12 process noise
	r  *matrix.DenseMatrix // 6x6 GNSS measurement noise
	p  *matrix.DenseMatrix // 15x15 error-state covariance

	accelMarkov [3][3]float64 // -I3/tau_a
	gyroMarkov  [3][3]float64 // -I3/tau_g

	quat      attitude.Quat
	accelBias attitude.Vec3
	gyroBias  attitude.Vec3

	ins INS

	configured bool
}

// New returns a Filter with default parameters; call SetParams to override
// before Configure if needed.
func New() *Filter {
	return &Filter{params: DefaultParams()}
}

// SetParams overrides the filter's sensor/initial-covariance parameters.
// Must be called before Configure.
func (f *Filter) SetParams(p Params) {
	f.params = p
}

// Params returns the filter's current parameters.
func (f *Filter) Params() Params {
	return f.params
}

// Configure builds H, Rw, R, the initial P, and the Markov bias matrices
// from the current parameters. Must be called once, before Initialize.
// Returns an error (and refuses to configure) if tau<=0 or any sigma<0.
func (f *Filter) Configure() error {
	if err := f.params.validate(); err != nil {
		return err
	}
	p := f.params

	f.h = matrix.Zeros(6, 15)
	setIdentity3(f.h, 0, 0, 1) // pos N, E, D
	f.h.Set(3, 3, 1)           // vel N
	f.h.Set(4, 4, 1)           // vel E
	if p.FuseVertVel {
		f.h.Set(5, 5, 1) // vel D -- open question, see Params.FuseVertVel
	}

	f.rw = matrix.Zeros(12, 12)
	setIdentity3(f.rw, 0, 0, p.AccelStd*p.AccelStd)
	setIdentity3(f.rw, 3, 3, p.GyroStd*p.GyroStd)
	setIdentity3(f.rw, 6, 6, 2*p.AccelMarkovBiasStd*p.AccelMarkovBiasStd/p.AccelTau)
	setIdentity3(f.rw, 9, 9, 2*p.GyroMarkovBiasStd*p.GyroMarkovBiasStd/p.GyroTau)

	f.r = matrix.Zeros(6, 6)
	setIdentity2(f.r, 0, 0, p.GNSSPosNEStd*p.GNSSPosNEStd)
	f.r.Set(2, 2, p.GNSSPosDStd*p.GNSSPosDStd)
	setIdentity2(f.r, 3, 3, p.GNSSVelNEStd*p.GNSSVelNEStd)
	f.r.Set(5, 5, p.GNSSVelDStd*p.GNSSVelDStd)

	f.p = matrix.Zeros(15, 15)
	setIdentity3(f.p, 0, 0, p.InitPosErrStd*p.InitPosErrStd)
	setIdentity3(f.p, 3, 3, p.InitVelErrStd*p.InitVelErrStd)
	f.p.Set(6, 6, p.InitAttErrStd*p.InitAttErrStd)
	f.p.Set(7, 7, p.InitAttErrStd*p.InitAttErrStd)
	f.p.Set(8, 8, p.InitHeadingErrStd*p.InitHeadingErrStd)
	setIdentity3(f.p, 9, 9, p.InitAccelBiasStd*p.InitAccelBiasStd)
	setIdentity3(f.p, 12, 12, p.InitGyroBiasStd*p.InitGyroBiasStd)

	f.accelMarkov = [3][3]float64{{-1 / p.AccelTau, 0, 0}, {0, -1 / p.AccelTau, 0}, {0, 0, -1 / p.AccelTau}}
	f.gyroMarkov = [3][3]float64{{-1 / p.GyroTau, 0, 0}, {0, -1 / p.GyroTau, 0}, {0, 0, -1 / p.GyroTau}}

	f.configured = true
	return nil
}

// Initialize seeds the nominal state from one IMU + magnetometer + GNSS
// sample: position/velocity from the GNSS fix, gyro bias from the raw
// gyro sample (assumes the vehicle is stationary), and attitude from the
// tilt-compass.
func (f *Filter) Initialize(imu IMU, mag Mag, gnss GNSS) {
	f.ins.LLAPos = gnss.LLA
	f.ins.NEDVel = gnss.NEDVelMPS

	f.gyroBias = imu.GyroRadPS
	f.accelBias = attitude.Vec3{}

	f.ins.Gyro = sub3(imu.GyroRadPS, f.gyroBias)
	f.ins.Accel = sub3(imu.AccelMPS2, f.accelBias)

	f.ins.Attitude = attitude.TiltCompass(imu.AccelMPS2, mag.UT)
	f.quat = attitude.Angle2Quat(f.ins.Attitude).Normalize()
}

func sub3(a, b attitude.Vec3) attitude.Vec3 {
	return attitude.Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func add3(a, b attitude.Vec3) attitude.Vec3 {
	return attitude.Vec3{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}
