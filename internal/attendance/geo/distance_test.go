package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceM(t *testing.T) {
	// Anchor from the campus deployment this was tuned against.
	anchor := Anchor{ClassID: "CSE-3A", Lat: 28.6000, Lng: 77.2000}

	t.Run("nearby point is under threshold", func(t *testing.T) {
		d := DistanceM(28.6000, 77.2020, anchor.Lat, anchor.Lng)
		assert.InDelta(t, 198, d, 5)
		assert.True(t, WithinRange(28.6000, 77.2020, anchor, 250))
	})

	t.Run("far point is over threshold", func(t *testing.T) {
		d := DistanceM(28.6000, 77.2050, anchor.Lat, anchor.Lng)
		assert.InDelta(t, 495, d, 10)
		assert.False(t, WithinRange(28.6000, 77.2050, anchor, 250))
	})

	t.Run("zero distance to itself", func(t *testing.T) {
		assert.Zero(t, DistanceM(28.6, 77.2, 28.6, 77.2))
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][4]float64{
			{28.6, 77.2, 28.7, 77.1},
			{0, 0, 0, 180},
			{-33.87, 151.21, 51.51, -0.13},
			{89.9, 0, -89.9, 0},
		}
		for _, p := range pairs {
			assert.Equal(t, DistanceM(p[0], p[1], p[2], p[3]), DistanceM(p[2], p[3], p[0], p[1]))
		}
	})

	t.Run("antipodal points are half the circumference", func(t *testing.T) {
		d := DistanceM(0, 0, 0, 180)
		assert.InDelta(t, 20015086, d, 2000)
	})
}
