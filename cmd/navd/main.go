// navd is the live wiring collaborator: it owns the periodic task loop the
// ekf package assumes a caller provides, reads the mpu9250 sensor, and
// drives ekf.Filter's TimeUpdate/MeasurementUpdate in temporal order.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/TL-4319/ua-navigation/ekf"
	"github.com/TL-4319/ua-navigation/mpu9250"
)

// gnssSource is the GNSS receiver collaborator navd depends on. No GNSS
// driver ships in this repo; stubGNSS below is a placeholder a real
// integration replaces.
type gnssSource interface {
	Fix() (ekf.GNSS, bool)
}

type stubGNSS struct{}

// Fix always reports no fix. TODO: wire to a real NMEA/ublox receiver.
func (stubGNSS) Fix() (ekf.GNSS, bool) { return ekf.GNSS{}, false }

func main() {
	var imuHz int
	var gnssHz float64
	flag.IntVar(&imuHz, "imu-hz", 100, "IMU sample rate, Hz")
	flag.Float64Var(&gnssHz, "gnss-hz", 5, "GNSS fix rate, Hz")
	flag.Parse()

	sensor, err := mpu9250.NewSensor(imuHz)
	if err != nil {
		log.Fatalf("navd: opening mpu9250: %v", err)
	}
	defer sensor.Close()

	var gnss gnssSource = stubGNSS{}

	filter := ekf.New()
	if err := filter.Configure(); err != nil {
		log.Fatalf("navd: configuring filter: %v", err)
	}

	imu, mag, n := sensor.Read()
	for n == 0 {
		time.Sleep(time.Second / time.Duration(imuHz))
		imu, mag, n = sensor.Read()
	}
	gnssFix, ok := gnss.Fix()
	for !ok {
		time.Sleep(time.Second / time.Duration(gnssHz))
		gnssFix, ok = gnss.Fix()
	}
	filter.Initialize(imu, mag, gnssFix)
	log.Println("navd: filter initialized")

	dt := 1.0 / float64(imuHz)
	tick := time.NewTicker(time.Second / time.Duration(imuHz))
	defer tick.Stop()

	for range tick.C {
		imu, _, n := sensor.Read()
		if n == 0 {
			continue
		}
		ins, status := filter.TimeUpdate(imu, dt)
		if status != ekf.StatusOK {
			log.Println("navd: time update status:", status)
		}

		if fix, ok := gnss.Fix(); ok {
			ins, status = filter.MeasurementUpdate(fix)
			if status != ekf.StatusOK {
				log.Println("navd: measurement update status:", status)
			}
		}

		log.Printf("navd: lat=%.7f lon=%.7f alt=%.1f roll=%.3f pitch=%.3f yaw=%.3f",
			ins.LLAPos.LatRad, ins.LLAPos.LonRad, ins.LLAPos.AltM,
			ins.Attitude.Roll, ins.Attitude.Pitch, ins.Attitude.Yaw)
	}
}
