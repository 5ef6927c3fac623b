// navsim exercises the ekf package against a synthesized flight: define a
// piecewise-linear ground-truth trajectory, synthesize the matching IMU and
// GNSS samples (with noise if requested), run them through ekf.Filter and
// see how closely the estimate tracks the truth.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"

	"github.com/TL-4319/ua-navigation/attitude"
	"github.com/TL-4319/ua-navigation/ekf"
	"github.com/TL-4319/ua-navigation/geo"
	"github.com/TL-4319/ua-navigation/wgs84"
)

// Situation defines a scenario by piecewise-linear interpolation of
// position, attitude and NED velocity.
type Situation struct {
	t                  []float64 // times, s
	lat, lon, alt      []float64 // position, rad, rad, m
	vn, ve, vd         []float64 // NED velocity, m/s
	phi, theta, psi    []float64 // attitude, rad
}

// State is the ground-truth nav state at one instant.
type State struct {
	Pos   geo.LLA
	Vel   attitude.Vec3 // NED
	Euler attitude.Euler
	T     float64
}

func (s *Situation) interpolate(t float64) (State, error) {
	if t < s.t[0] || t > s.t[len(s.t)-1] {
		return State{}, errors.New("requested time is outside of scenario")
	}
	ix := 0
	if t > s.t[0] {
		ix = sort.SearchFloat64s(s.t, t) - 1
	}
	f := (s.t[ix+1] - t) / (s.t[ix+1] - s.t[ix])
	lerp := func(a []float64) float64 { return f*a[ix] + (1-f)*a[ix+1] }

	return State{
		Pos: geo.LLA{
			LatRad: lerp(s.lat),
			LonRad: lerp(s.lon),
			AltM:   lerp(s.alt),
		},
		Vel: attitude.Vec3{X: lerp(s.vn), Y: lerp(s.ve), Z: lerp(s.vd)},
		Euler: attitude.Euler{
			Roll:  lerp(s.phi),
			Pitch: lerp(s.theta),
			Yaw:   lerp(s.psi),
		},
		T: t,
	}, nil
}

// derivative returns the time derivative of each field of State at t, via
// central-difference-free forward finite differences (mirrors the numerical
// differentiation the teacher scenario used for its own kinematics).
func (s *Situation) derivative(t float64) (State, error) {
	if t < s.t[0] || t > s.t[len(s.t)-1] {
		return State{}, errors.New("requested time is outside of scenario")
	}
	const ddt = 0.001
	t0, t1 := t, t+ddt
	if t1 > s.t[len(s.t)-1] {
		t1 = s.t[len(s.t)-1]
		t0 = t1 - ddt
	}
	s0, _ := s.interpolate(t0)
	s1, _ := s.interpolate(t1)
	return State{
		Pos: geo.LLA{
			LatRad: (s1.Pos.LatRad - s0.Pos.LatRad) / ddt,
			LonRad: (s1.Pos.LonRad - s0.Pos.LonRad) / ddt,
			AltM:   (s1.Pos.AltM - s0.Pos.AltM) / ddt,
		},
		Vel: attitude.Vec3{
			X: (s1.Vel.X - s0.Vel.X) / ddt,
			Y: (s1.Vel.Y - s0.Vel.Y) / ddt,
			Z: (s1.Vel.Z - s0.Vel.Z) / ddt,
		},
		Euler: attitude.Euler{
			Roll:  (s1.Euler.Roll - s0.Euler.Roll) / ddt,
			Pitch: (s1.Euler.Pitch - s0.Euler.Pitch) / ddt,
			Yaw:   (s1.Euler.Yaw - s0.Euler.Yaw) / ddt,
		},
		T: t,
	}, nil
}

// control synthesizes the IMU sample (gyro, specific force) that would have
// produced this trajectory: the gyro is the standard Euler-rate-to-body-rate
// transform, and the specific force is the inverse of the velocity mechanics
// in ekf's TimeUpdate -- a_b = C_n2b*(dv/dt - g_NED).
func (s *Situation) control(t float64) (ekf.IMU, error) {
	x, erri := s.interpolate(t)
	dx, errd := s.derivative(t)
	if erri != nil || errd != nil {
		return ekf.IMU{}, errors.New("requested time is outside of scenario")
	}

	phi, theta := x.Euler.Roll, x.Euler.Pitch
	sphi, cphi := math.Sincos(phi)
	stheta, ctheta := math.Sincos(theta)

	p := dx.Euler.Roll - stheta*dx.Euler.Yaw
	q := cphi*dx.Euler.Pitch + sphi*ctheta*dx.Euler.Yaw
	r := -sphi*dx.Euler.Pitch + cphi*ctheta*dx.Euler.Yaw

	q4 := attitude.Angle2Quat(x.Euler)
	cn2b := attitude.Quat2DCM(q4)
	gNED := attitude.Vec3{Z: wgs84.G}
	dvMinusG := attitude.Vec3{X: dx.Vel.X, Y: dx.Vel.Y, Z: dx.Vel.Z - gNED.Z}
	ab := mat3Vec(cn2b, dvMinusG)

	return ekf.IMU{
		GyroRadPS: attitude.Vec3{X: p, Y: q, Z: r},
		AccelMPS2: ab,
	}, nil
}

// measurement synthesizes the GNSS fix and magnetometer reading at t.
func (s *Situation) measurement(t float64) (ekf.GNSS, ekf.Mag, error) {
	x, err := s.interpolate(t)
	if err != nil {
		return ekf.GNSS{}, ekf.Mag{}, err
	}
	q4 := attitude.Angle2Quat(x.Euler)
	cn2b := attitude.Quat2DCM(q4)
	magBody := mat3Vec(cn2b, refMagNED)
	return ekf.GNSS{LLA: x.Pos, NEDVelMPS: x.Vel}, ekf.Mag{UT: magBody}, nil
}

// refMagNED is a representative mid-latitude NED magnetic field, microtesla.
var refMagNED = attitude.Vec3{X: 22.0, Y: 5.0, Z: 43.0}

func mat3Vec(m [3][3]float64, v attitude.Vec3) attitude.Vec3 {
	return attitude.Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

func addIMUNoise(imu *ekf.IMU, gyroStd, accelStd float64) {
	if gyroStd > 0 {
		imu.GyroRadPS.X += gyroStd * rand.NormFloat64()
		imu.GyroRadPS.Y += gyroStd * rand.NormFloat64()
		imu.GyroRadPS.Z += gyroStd * rand.NormFloat64()
	}
	if accelStd > 0 {
		imu.AccelMPS2.X += accelStd * rand.NormFloat64()
		imu.AccelMPS2.Y += accelStd * rand.NormFloat64()
		imu.AccelMPS2.Z += accelStd * rand.NormFloat64()
	}
}

func addGNSSNoise(g *ekf.GNSS, posStd, velStd float64) {
	if posStd > 0 {
		g.LLA.LatRad += (posStd / wgs84.A) * rand.NormFloat64()
		g.LLA.LonRad += (posStd / wgs84.A) * rand.NormFloat64()
		g.LLA.AltM += posStd * rand.NormFloat64()
	}
	if velStd > 0 {
		g.NEDVelMPS.X += velStd * rand.NormFloat64()
		g.NEDVelMPS.Y += velStd * rand.NormFloat64()
		g.NEDVelMPS.Z += velStd * rand.NormFloat64()
	}
}

// sitTurnDef is a standard-rate turn entered from straight-and-level flight,
// held for two laps, then rolled back out.
var pi = math.Pi
var airspeed = 60.0
var bank = math.Atan((2 * pi * airspeed) / (wgs84.G * 120))
var sitTurnDef = Situation{
	t:     []float64{0, 10, 15, 255, 260, 270},
	lat:   []float64{d2r(37), d2r(37), d2r(37), d2r(37.05), d2r(37.05), d2r(37.05)},
	lon:   []float64{d2r(-122), d2r(-122), d2r(-122), d2r(-121.95), d2r(-121.95), d2r(-121.95)},
	alt:   []float64{1000, 1000, 1000, 1000, 1000, 1000},
	vn:    []float64{airspeed, airspeed, airspeed, airspeed, airspeed, airspeed},
	ve:    []float64{0, 0, 0, 0, 0, 0},
	vd:    []float64{0, 0, 0, 0, 0, 0},
	phi:   []float64{0, 0, bank, bank, 0, 0},
	theta: []float64{0, 0, pi / 90, pi / 90, 0, 0},
	psi:   []float64{0, 0, 0, 4 * pi, 4 * pi, 4 * pi},
}

func d2r(deg float64) float64 { return deg * pi / 180 }

func main() {
	var dt, gnssPeriod, gyroNoise, accelNoise, gnssPosNoise, gnssVelNoise float64

	flag.Float64Var(&dt, "dt", 0.02, "IMU sample period, seconds")
	flag.Float64Var(&gnssPeriod, "gnss-period", 1.0, "GNSS fix period, seconds")
	flag.Float64Var(&gyroNoise, "gyro-noise", 0.0, "gyro noise stdev, rad/s")
	flag.Float64Var(&accelNoise, "accel-noise", 0.0, "accel noise stdev, m/s^2")
	flag.Float64Var(&gnssPosNoise, "gnss-pos-noise", 0.0, "GNSS position noise stdev, m")
	flag.Float64Var(&gnssVelNoise, "gnss-vel-noise", 0.0, "GNSS velocity noise stdev, m/s")
	flag.Parse()

	fTruth, err := os.Create("nav_truth.csv")
	if err != nil {
		panic(err)
	}
	defer fTruth.Close()
	fmt.Fprint(fTruth, "T,Lat,Lon,Alt,Vn,Ve,Vd,Roll,Pitch,Yaw\n")

	fEst, err := os.Create("nav_estimate.csv")
	if err != nil {
		panic(err)
	}
	defer fEst.Close()
	fmt.Fprint(fEst, "T,Lat,Lon,Alt,Vn,Ve,Vd,Roll,Pitch,Yaw,Status\n")

	f := ekf.New()
	if err := f.Configure(); err != nil {
		panic(err)
	}

	t0 := sitTurnDef.t[0]
	imu0, err := sitTurnDef.control(t0)
	if err != nil {
		panic(err)
	}
	gnss0, mag0, err := sitTurnDef.measurement(t0)
	if err != nil {
		panic(err)
	}
	f.Initialize(imu0, mag0, gnss0)

	fmt.Println("Running simulation")
	nextGNSS := t0 + gnssPeriod
	for t := t0; t < sitTurnDef.t[len(sitTurnDef.t)-1]; t += dt {
		truth, err := sitTurnDef.interpolate(t)
		if err != nil {
			panic(err)
		}
		fmt.Fprintf(fTruth, "%f,%f,%f,%f,%f,%f,%f,%f,%f,%f\n",
			truth.T, truth.Pos.LatRad, truth.Pos.LonRad, truth.Pos.AltM,
			truth.Vel.X, truth.Vel.Y, truth.Vel.Z,
			truth.Euler.Roll, truth.Euler.Pitch, truth.Euler.Yaw)

		imu, err := sitTurnDef.control(t)
		if err != nil {
			panic(err)
		}
		addIMUNoise(&imu, gyroNoise, accelNoise)

		ins, status := f.TimeUpdate(imu, dt)

		if t >= nextGNSS {
			gnss, _, err := sitTurnDef.measurement(t)
			if err != nil {
				panic(err)
			}
			addGNSSNoise(&gnss, gnssPosNoise, gnssVelNoise)
			ins, status = f.MeasurementUpdate(gnss)
			nextGNSS += gnssPeriod
		}

		fmt.Fprintf(fEst, "%f,%f,%f,%f,%f,%f,%f,%f,%f,%f,%s\n",
			t, ins.LLAPos.LatRad, ins.LLAPos.LonRad, ins.LLAPos.AltM,
			ins.NEDVel.X, ins.NEDVel.Y, ins.NEDVel.Z,
			ins.Attitude.Roll, ins.Attitude.Pitch, ins.Attitude.Yaw, status)
	}

	fmt.Println("Serving plots on :8080")
	http.Handle("/", http.FileServer(http.Dir("./")))
	if err := http.ListenAndServe(":8080", nil); err != nil {
		panic(err)
	}
}
