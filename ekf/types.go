package ekf

import (
	"github.com/TL-4319/ua-navigation/attitude"
	"github.com/TL-4319/ua-navigation/geo"
)

// IMU is one bias-uncorrected inertial sample: body-frame angular rate and
// specific force.
type IMU struct {
	GyroRadPS  attitude.Vec3 // rad/s, body frame
	AccelMPS2  attitude.Vec3 // m/s^2, body frame (specific force)
}

// Mag is a body-frame magnetometer sample, used only at Initialize.
type Mag struct {
	UT attitude.Vec3 // microtesla, body frame
}

// GNSS is a single position/velocity fix.
type GNSS struct {
	LLA       geo.LLA       // geodetic position
	NEDVelMPS attitude.Vec3 // NED velocity, m/s
}

// INS is the nominal navigation state reported back to the caller after
// every TimeUpdate/MeasurementUpdate.
type INS struct {
	LLAPos   geo.LLA
	NEDVel   attitude.Vec3
	Attitude attitude.Euler
	Accel    attitude.Vec3 // bias-corrected specific force, body
	Gyro     attitude.Vec3 // bias-corrected angular rate, body
}

// Status reports the outcome of an update call. The steady-state path never
// panics; failures are reported here instead.
type Status int

const (
	// StatusOK means the update applied normally.
	StatusOK Status = iota
	// StatusMeasurementRejected means MeasurementUpdate found the
	// innovation covariance S non-invertible and left state/P unchanged.
	StatusMeasurementRejected
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMeasurementRejected:
		return "measurement rejected"
	default:
		return "unknown"
	}
}
