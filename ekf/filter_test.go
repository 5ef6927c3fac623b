package ekf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TL-4319/ua-navigation/attitude"
	"github.com/TL-4319/ua-navigation/geo"
)

func levelGNSS() GNSS {
	return GNSS{
		LLA:       geo.LLA{LatRad: 37.4 * math.Pi / 180, LonRad: -122.1 * math.Pi / 180, AltM: 100},
		NEDVelMPS: attitude.Vec3{},
	}
}

func levelIMU() IMU {
	return IMU{
		GyroRadPS: attitude.Vec3{},
		AccelMPS2: attitude.Vec3{Z: -9.80665},
	}
}

func levelMag() Mag {
	return Mag{UT: attitude.Vec3{X: 22, Y: 0, Z: 43}}
}

func newConfigured(t *testing.T) *Filter {
	t.Helper()
	f := New()
	require.NoError(t, f.Configure())
	return f
}

func assertPSymmetric(t *testing.T, f *Filter) {
	t.Helper()
	assert := assert.New(t)
	for i := 0; i < 15; i++ {
		for j := i + 1; j < 15; j++ {
			assert.InDelta(f.p.Get(i, j), f.p.Get(j, i), 1e-9)
		}
	}
}

func TestConfigureRejectsInvalidParams(t *testing.T) {
	assert := assert.New(t)
	f := New()
	p := f.Params()
	p.AccelTau = 0
	f.SetParams(p)
	assert.Error(f.Configure())
}

func TestStaticLevelAlignment(t *testing.T) {
	assert := assert.New(t)
	f := newConfigured(t)
	f.Initialize(levelIMU(), levelMag(), levelGNSS())

	assert.InDelta(0, f.ins.Attitude.Roll, 1e-6)
	assert.InDelta(0, f.ins.Attitude.Pitch, 1e-6)
	assert.InDelta(0, f.ins.Attitude.Yaw, 1e-6)
}

func TestZeroDtTimeUpdateIsNoOp(t *testing.T) {
	assert := assert.New(t)
	f := newConfigured(t)
	f.Initialize(levelIMU(), levelMag(), levelGNSS())
	before := f.ins

	ins, status := f.TimeUpdate(levelIMU(), 0)
	assert.Equal(StatusOK, status)
	assert.InDelta(before.LLAPos.LatRad, ins.LLAPos.LatRad, 1e-15)
	assert.InDelta(before.LLAPos.LonRad, ins.LLAPos.LonRad, 1e-15)
	assert.InDelta(before.NEDVel.X, ins.NEDVel.X, 1e-15)
	assert.InDelta(before.Attitude.Yaw, ins.Attitude.Yaw, 1e-15)
}

func TestLevelStationaryStaysLevel(t *testing.T) {
	assert := assert.New(t)
	f := newConfigured(t)
	f.Initialize(levelIMU(), levelMag(), levelGNSS())

	var ins INS
	for i := 0; i < 100; i++ {
		var status Status
		ins, status = f.TimeUpdate(levelIMU(), 0.01)
		assert.Equal(StatusOK, status)
	}
	assert.InDelta(0, ins.NEDVel.X, 1e-6)
	assert.InDelta(0, ins.NEDVel.Y, 1e-6)
	assert.InDelta(0, ins.NEDVel.Z, 1e-6)
	assert.InDelta(0, ins.Attitude.Roll, 1e-6)
	assert.InDelta(0, ins.Attitude.Pitch, 1e-6)
}

func TestPureYawDeadReckoning(t *testing.T) {
	assert := assert.New(t)
	f := newConfigured(t)
	f.Initialize(levelIMU(), levelMag(), levelGNSS())

	yawRate := 0.1 // rad/s
	imu := levelIMU()
	imu.GyroRadPS.Z = yawRate
	dt := 0.01
	var ins INS
	for i := 0; i < 100; i++ {
		ins, _ = f.TimeUpdate(imu, dt)
	}
	assert.InDelta(yawRate*1.0, ins.Attitude.Yaw, 0.05)
}

func TestGNSSResetOfOffsetStart(t *testing.T) {
	assert := assert.New(t)
	f := newConfigured(t)
	f.Initialize(levelIMU(), levelMag(), levelGNSS())

	truth := levelGNSS()
	truth.LLA.LatRad += 0.001
	truth.LLA.LonRad -= 0.0007
	truth.NEDVelMPS = attitude.Vec3{X: 5, Y: -2, Z: 0}

	var ins INS
	var status Status
	for i := 0; i < 20; i++ {
		ins, status = f.MeasurementUpdate(truth)
		assert.Equal(StatusOK, status)
	}

	// With no time update in between, P stays diagonal and each N/E channel
	// is a scalar Kalman filter: after 20 fixes the estimate still holds the
	// fraction (1/P0)/(1/P0 + 20/R) of the initial offset from the truth.
	p := f.Params()
	posFrac := (1 / (p.InitPosErrStd * p.InitPosErrStd)) /
		(1/(p.InitPosErrStd*p.InitPosErrStd) + 20/(p.GNSSPosNEStd*p.GNSSPosNEStd))
	velFrac := (1 / (p.InitVelErrStd * p.InitVelErrStd)) /
		(1/(p.InitVelErrStd*p.InitVelErrStd) + 20/(p.GNSSVelNEStd*p.GNSSVelNEStd))
	start := levelGNSS()
	assert.InDelta(truth.LLA.LatRad+posFrac*(start.LLA.LatRad-truth.LLA.LatRad), ins.LLAPos.LatRad, 1e-6)
	assert.InDelta(truth.LLA.LonRad+posFrac*(start.LLA.LonRad-truth.LLA.LonRad), ins.LLAPos.LonRad, 1e-6)
	assert.InDelta(truth.NEDVelMPS.X+velFrac*(start.NEDVelMPS.X-truth.NEDVelMPS.X), ins.NEDVel.X, 1e-3)
	assert.InDelta(truth.NEDVelMPS.Y+velFrac*(start.NEDVelMPS.Y-truth.NEDVelMPS.Y), ins.NEDVel.Y, 1e-3)
}

func TestCovarianceSymmetricAfterTimeAndMeasurementUpdates(t *testing.T) {
	f := newConfigured(t)
	f.Initialize(levelIMU(), levelMag(), levelGNSS())

	gnss := levelGNSS()
	for i := 0; i < 10000; i++ {
		f.TimeUpdate(levelIMU(), 0.01)
		if i%100 == 0 {
			f.MeasurementUpdate(gnss)
		}
	}
	assertPSymmetric(t, f)
}

func TestMeasurementUpdateRejectsSingularInnovationCovariance(t *testing.T) {
	assert := assert.New(t)
	f := newConfigured(t)
	f.Initialize(levelIMU(), levelMag(), levelGNSS())

	// Zero out R and H's corresponding rows of P so S is singular.
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			f.r.Set(i, j, 0)
		}
	}
	for i := 0; i < 15; i++ {
		for j := 0; j < 15; j++ {
			f.p.Set(i, j, 0)
		}
	}
	before := f.ins
	ins, status := f.MeasurementUpdate(levelGNSS())
	assert.Equal(StatusMeasurementRejected, status)
	assert.Equal(before, ins)
}

func TestGyroBiasConvergesUnderGNSSAiding(t *testing.T) {
	assert := assert.New(t)
	f := newConfigured(t)

	trueBias := attitude.Vec3{Z: 0.01}
	imu0 := levelIMU()
	imu0.GyroRadPS = trueBias
	f.Initialize(imu0, levelMag(), levelGNSS())

	biasedIMU := levelIMU()
	biasedIMU.GyroRadPS = trueBias
	gnss := levelGNSS()
	dt := 0.05
	for i := 0; i < 2000; i++ {
		f.TimeUpdate(biasedIMU, dt)
		if i%20 == 0 {
			f.MeasurementUpdate(gnss)
		}
	}
	assert.InDelta(trueBias.Z, f.gyroBias.Z, 0.02)
}
