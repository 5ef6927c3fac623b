package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLLA2ECEF2LLARoundTrip(t *testing.T) {
	assert := assert.New(t)
	cases := []LLA{
		{LatRad: 0, LonRad: 0, AltM: 0},
		{LatRad: 37.4 * math.Pi / 180, LonRad: -122.1 * math.Pi / 180, AltM: 1500},
		{LatRad: -33.9 * math.Pi / 180, LonRad: 151.2 * math.Pi / 180, AltM: 50},
		{LatRad: 89.9 * math.Pi / 180, LonRad: 10 * math.Pi / 180, AltM: 8000},
	}
	for _, want := range cases {
		got := ECEF2LLA(LLA2ECEF(want))
		assert.InDelta(want.LatRad, got.LatRad, 1e-9)
		assert.InDelta(want.LonRad, got.LonRad, 1e-9)
		assert.InDelta(want.AltM, got.AltM, 1e-6)
	}
}

func TestECEF2LLADegenerateNearCenter(t *testing.T) {
	assert := assert.New(t)
	got := ECEF2LLA(ECEF{X: 1, Y: 1, Z: 1})
	assert.Equal(LLA{}, got)
}

func TestLLA2NEDZeroAtReference(t *testing.T) {
	assert := assert.New(t)
	ref := LLA{LatRad: 0.5, LonRad: 1.1, AltM: 300}
	ned := LLA2NED(ref, ref)
	assert.InDelta(0, ned.N, 1e-9)
	assert.InDelta(0, ned.E, 1e-9)
	assert.InDelta(0, ned.D, 1e-9)
}

func TestNED2LLARoundTrip(t *testing.T) {
	assert := assert.New(t)
	ref := LLA{LatRad: 0.3, LonRad: -1.2, AltM: 100}
	in := NED{N: 1000, E: -500, D: 25}
	out := NED2LLA(in, ref)
	back := LLA2NED(out, ref)
	assert.InDelta(in.N, back.N, 1e-6)
	assert.InDelta(in.E, back.E, 1e-6)
	assert.InDelta(in.D, back.D, 1e-6)
}

func TestLLA2NEDNorthIsPositiveLatitude(t *testing.T) {
	assert := assert.New(t)
	ref := LLA{LatRad: 0, LonRad: 0, AltM: 0}
	north := LLA{LatRad: 0.001, LonRad: 0, AltM: 0}
	ned := LLA2NED(north, ref)
	assert.Greater(ned.N, 0.0)
	assert.InDelta(0, ned.E, 1e-3)
}
