package domain

import "time"

// Velocity is a constant travel speed in meters per second.
// It converts between the distance and time dimensions of a route budget.
type Velocity float64

// DistanceFor returns the meters covered in d.
func (v Velocity) DistanceFor(d time.Duration) float64 {
	return float64(v) * d.Seconds()
}

// TimeFor returns the time needed to cover meters.
func (v Velocity) TimeFor(meters float64) time.Duration {
	if v <= 0 {
		return 0
	}
	return time.Duration(meters / float64(v) * float64(time.Second))
}
