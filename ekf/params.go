package ekf

import "github.com/pkg/errors"

// Params holds the sensor and initial-covariance parameters the filter is
// configured with. All fields are float64, SI units, set before Configure.
type Params struct {
	// Sensor noise, modeled as white noise plus a first-order Gauss-Markov
	// bias (see the GLOSSARY in SPEC_FULL.md).
	AccelStd           float64 // m/s^2
	AccelMarkovBiasStd float64 // m/s^2
	AccelTau           float64 // s
	GyroStd            float64 // rad/s
	GyroMarkovBiasStd  float64 // rad/s
	GyroTau            float64 // s

	// GNSS measurement noise.
	GNSSPosNEStd  float64 // m
	GNSSPosDStd   float64 // m
	GNSSVelNEStd  float64 // m/s
	GNSSVelDStd   float64 // m/s

	// Initial covariance.
	InitPosErrStd     float64 // m
	InitVelErrStd     float64 // m/s
	InitAttErrStd     float64 // rad (roll/pitch)
	InitHeadingErrStd float64 // rad (yaw)
	InitAccelBiasStd  float64 // m/s^2
	InitGyroBiasStd   float64 // rad/s

	// FuseVertVel resolves an open question in the observation matrix: the
	// literal design leaves H's 6th row (vertical GNSS velocity) at zero,
	// so R's vel_d entry is modeled but never used in the correction. Set
	// true to fuse it (H[5,5]=1); default false preserves the literal
	// decoupled behavior.
	FuseVertVel bool
}

// DefaultParams returns the required defaults from the filter's data model.
func DefaultParams() Params {
	return Params{
		AccelStd:           0.05,
		AccelMarkovBiasStd: 0.01,
		AccelTau:           100,
		GyroStd:            0.00175,
		GyroMarkovBiasStd:  0.00025,
		GyroTau:            50,

		GNSSPosNEStd: 3,
		GNSSPosDStd:  6,
		GNSSVelNEStd: 0.5,
		GNSSVelDStd:  1.0,

		InitPosErrStd:     10,
		InitVelErrStd:     1,
		InitAttErrStd:     0.34906,
		InitHeadingErrStd: 3.14159,
		InitAccelBiasStd:  0.981,
		InitGyroBiasStd:   0.01745,

		FuseVertVel: false,
	}
}

// validate checks the configuration errors Configure must refuse to run
// with: non-positive correlation times, negative standard deviations.
func (p Params) validate() error {
	if p.AccelTau <= 0 {
		return errors.New("ekf: accel_tau must be > 0")
	}
	if p.GyroTau <= 0 {
		return errors.New("ekf: gyro_tau must be > 0")
	}
	stds := map[string]float64{
		"accel_std":             p.AccelStd,
		"accel_markov_bias_std": p.AccelMarkovBiasStd,
		"gyro_std":              p.GyroStd,
		"gyro_markov_bias_std":  p.GyroMarkovBiasStd,
		"gnss_pos_ne_std":       p.GNSSPosNEStd,
		"gnss_pos_d_std":        p.GNSSPosDStd,
		"gnss_vel_ne_std":       p.GNSSVelNEStd,
		"gnss_vel_d_std":        p.GNSSVelDStd,
		"init_pos_err_std":      p.InitPosErrStd,
		"init_vel_err_std":      p.InitVelErrStd,
		"init_att_err_std":      p.InitAttErrStd,
		"init_heading_err_std":  p.InitHeadingErrStd,
		"init_accel_bias_std":   p.InitAccelBiasStd,
		"init_gyro_bias_std":    p.InitGyroBiasStd,
	}
	for name, v := range stds {
		if v < 0 {
			return errors.Errorf("ekf: %s must be >= 0, got %g", name, v)
		}
	}
	return nil
}
