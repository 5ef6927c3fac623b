// Package mpu9250 is an I2C driver for the InvenSense MPU-9250 IMU+
// magnetometer, adapted from the original DMP-driver-derived register
// sequence to emit samples directly in the types the ekf package consumes.
// It is the "sensor driver" external collaborator the core estimator
// deliberately does not own: scheduling, I2C transport and unit scaling
// live here, not in ekf.
package mpu9250

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all"
	_ "github.com/kidoman/embd/host/rpi"

	"github.com/TL-4319/ua-navigation/attitude"
	"github.com/TL-4319/ua-navigation/ekf"
)

// Register map (subset actually exercised by this driver).
const (
	mpuAddress      = 0x68
	regPwrMgmt1     = 0x6B
	regPwrMgmt2     = 0x6C
	regGyroConfig   = 0x1B
	regAccelConfig  = 0x1C
	regSmplrtDiv    = 0x19
	regIntEnable    = 0x38
	regGyroXOutH    = 0x43
	regAccelXOutH   = 0x3B
	regIntPinCfg    = 0x37
	regUserCtrl     = 0x6A
	regI2CMstCtrl   = 0x24
	regI2CSlv0Addr  = 0x25
	regI2CSlv0Reg   = 0x26
	regI2CSlv0Ctrl  = 0x27
	regExtSensData0 = 0x49

	bitHReset   = 0x80
	bitBypassEn = 0x02
	bitI2CRead  = 0x80

	ak8963Addr = 0x0C
	ak8963HXL  = 0x03

	sensFS2000DPS = 0x18
	sensFS16G     = 0x18
)

// Sensor is an MPU-9250 IMU + AK8963 magnetometer driver that continuously
// accumulates raw samples on a background goroutine and reports their
// running average, in ekf-ready units, on each Read.
type Sensor struct {
	bus        embd.I2CBus
	sampleHz   int
	scaleGyro  float64 // rad/s per LSB
	scaleAccel float64 // m/s^2 per LSB

	mu        sync.Mutex
	sumGyro   attitude.Vec3
	sumAccel  attitude.Vec3
	sumMag    attitude.Vec3
	nInertial float64
	nMag      float64
	stop      chan struct{}
}

// NewSensor opens the MPU-9250 over I2C bus 1, configures full-scale
// ranges for +-2000 dps / +-16g, and starts the background sampler at
// sampleHz.
func NewSensor(sampleHz int) (*Sensor, error) {
	s := &Sensor{
		bus:        embd.NewI2CBus(1),
		sampleHz:   sampleHz,
		scaleGyro:  (2000.0 * math.Pi / 180.0) / float64(math.MaxInt16),
		scaleAccel: (16.0 * 9.80665) / float64(math.MaxInt16),
		stop:       make(chan struct{}),
	}

	if err := s.write(regPwrMgmt1, bitHReset); err != nil {
		return nil, fmt.Errorf("mpu9250: reset: %w", err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := s.write(regPwrMgmt1, 0x00); err != nil {
		return nil, fmt.Errorf("mpu9250: wake: %w", err)
	}
	if err := s.write(regGyroConfig, sensFS2000DPS); err != nil {
		return nil, fmt.Errorf("mpu9250: gyro config: %w", err)
	}
	if err := s.write(regAccelConfig, sensFS16G); err != nil {
		return nil, fmt.Errorf("mpu9250: accel config: %w", err)
	}
	if err := s.write(regSmplrtDiv, byte(1000/sampleHz-1)); err != nil {
		return nil, fmt.Errorf("mpu9250: sample rate: %w", err)
	}
	if err := s.write(regIntEnable, 0x00); err != nil {
		return nil, fmt.Errorf("mpu9250: int enable: %w", err)
	}
	if err := s.configureMagPassthrough(); err != nil {
		return nil, fmt.Errorf("mpu9250: mag setup: %w", err)
	}
	if err := s.write(regPwrMgmt2, 0x00); err != nil {
		return nil, fmt.Errorf("mpu9250: enable axes: %w", err)
	}

	go s.sampleLoop()
	time.Sleep(100 * time.Millisecond)
	return s, nil
}

// configureMagPassthrough wires the AK8963 onto the MPU's auxiliary I2C bus
// in bypass mode so regExtSensData0 mirrors its output registers.
func (s *Sensor) configureMagPassthrough() error {
	if err := s.write(regUserCtrl, 0x00); err != nil {
		return err
	}
	if err := s.write(regIntPinCfg, bitBypassEn); err != nil {
		return err
	}
	if err := s.write(regI2CMstCtrl, 0x40); err != nil {
		return err
	}
	if err := s.write(regI2CSlv0Addr, bitI2CRead|ak8963Addr); err != nil {
		return err
	}
	if err := s.write(regI2CSlv0Reg, ak8963HXL); err != nil {
		return err
	}
	return s.write(regI2CSlv0Ctrl, 0x87)
}

// sampleLoop reads gyro, accel and magnetometer registers at sampleHz and
// accumulates them for averaging in Read.
func (s *Sensor) sampleLoop() {
	tick := time.NewTicker(time.Second / time.Duration(s.sampleHz))
	defer tick.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-tick.C:
			s.sampleOnce()
		}
	}
}

func (s *Sensor) sampleOnce() {
	gx, errG1 := s.read16(regGyroXOutH)
	gy, errG2 := s.read16(regGyroXOutH + 2)
	gz, errG3 := s.read16(regGyroXOutH + 4)
	ax, errA1 := s.read16(regAccelXOutH)
	ay, errA2 := s.read16(regAccelXOutH + 2)
	az, errA3 := s.read16(regAccelXOutH + 4)

	s.mu.Lock()
	defer s.mu.Unlock()
	if errG1 == nil && errG2 == nil && errG3 == nil && errA1 == nil && errA2 == nil && errA3 == nil {
		s.sumGyro.X += float64(gx) * s.scaleGyro
		s.sumGyro.Y += float64(gy) * s.scaleGyro
		s.sumGyro.Z += float64(gz) * s.scaleGyro
		s.sumAccel.X += float64(ax) * s.scaleAccel
		s.sumAccel.Y += float64(ay) * s.scaleAccel
		s.sumAccel.Z += float64(az) * s.scaleAccel
		s.nInertial++
	} else {
		log.Println("mpu9250: error reading gyro/accel")
	}

	mx, errM1 := s.read16(regExtSensData0 + 1)
	my, errM2 := s.read16(regExtSensData0 + 3)
	mz, errM3 := s.read16(regExtSensData0 + 5)
	if errM1 == nil && errM2 == nil && errM3 == nil {
		const utPerLSB = 0.15
		s.sumMag.X += float64(mx) * utPerLSB
		s.sumMag.Y += float64(my) * utPerLSB
		s.sumMag.Z += float64(mz) * utPerLSB
		s.nMag++
	}
}

// Read drains the accumulated samples since the last call and returns their
// average as an ekf.IMU and ekf.Mag, along with the count of inertial
// samples actually averaged (0 means no valid sample was read).
func (s *Sensor) Read() (ekf.IMU, ekf.Mag, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var imu ekf.IMU
	n := s.nInertial
	if n > 0 {
		imu.GyroRadPS = attitude.Vec3{X: s.sumGyro.X / n, Y: s.sumGyro.Y / n, Z: s.sumGyro.Z / n}
		imu.AccelMPS2 = attitude.Vec3{X: s.sumAccel.X / n, Y: s.sumAccel.Y / n, Z: s.sumAccel.Z / n}
	}

	var mag ekf.Mag
	if s.nMag > 0 {
		mag.UT = attitude.Vec3{X: s.sumMag.X / s.nMag, Y: s.sumMag.Y / s.nMag, Z: s.sumMag.Z / s.nMag}
	}

	s.sumGyro, s.sumAccel, s.sumMag = attitude.Vec3{}, attitude.Vec3{}, attitude.Vec3{}
	s.nInertial, s.nMag = 0, 0
	return imu, mag, int(n)
}

// Close stops the background sampler.
func (s *Sensor) Close() {
	close(s.stop)
}

func (s *Sensor) write(register byte, value byte) error {
	if err := s.bus.WriteByteToReg(mpuAddress, register, value); err != nil {
		return err
	}
	time.Sleep(time.Millisecond)
	return nil
}

func (s *Sensor) read16(register byte) (int16, error) {
	v, err := s.bus.ReadWordFromReg(mpuAddress, register)
	if err != nil {
		return 0, err
	}
	return int16(v), nil
}
