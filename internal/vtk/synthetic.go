package vtk

import (
	"math"
	"time"

	"github.com/velocitek/vtk-protocol/internal/orientation"
)

const (
	metresPerDegreeLat = 111320.0
	metresPerNautMile  = 1852.0
)

// SyntheticTrack generates a plausible sailing track: a slow turn at a
// steady speed with the boat heeling and pitching in a swell. Output is
// deterministic for a given start.
type SyntheticTrack struct {
	t        time.Time
	lat, lon float64
	step     time.Duration
	i        int
}

// NewSyntheticTrack starts a track at the given time and position, emitting
// one fix per step. step is rounded down to whole centiseconds.
func NewSyntheticTrack(start time.Time, lat, lon float64, step time.Duration) *SyntheticTrack {
	step = step.Truncate(10 * time.Millisecond)
	if step <= 0 {
		step = 10 * time.Millisecond
	}
	return &SyntheticTrack{t: start.Truncate(10 * time.Millisecond), lat: lat, lon: lon, step: step}
}

// Next returns the next fix and advances the track.
func (g *SyntheticTrack) Next() TrackPoint {
	n := float64(g.i)
	heading := math.Mod(n*2, 360)
	sog := 6 + math.Sin(n/15)
	att := orientation.Attitude{
		MagHeading: heading,
		Heel:       12 + 6*math.Sin(n/10),
		Pitch:      2 * math.Cos(n/7),
	}
	q := orientation.QuaternionFromEuler(orientation.EulerFromAttitude(att))

	tp := TrackPoint{
		Seconds:      uint32(g.t.Unix()),
		Centiseconds: uint32(g.t.Nanosecond() / int(nanosPerCenti)),
		LatitudeE7:   int32(math.Round(g.lat * coordScale)),
		LongitudeE7:  int32(math.Round(g.lon * coordScale)),
		SogKnotsE1:   uint32(math.Round(sog * speedScale)),
		Cog:          float32(heading),
		Q1E3:         int32(math.Round(q.Real * quaternionScale)),
		Q2E3:         int32(math.Round(q.Imag * quaternionScale)),
		Q3E3:         int32(math.Round(q.Jmag * quaternionScale)),
		Q4E3:         int32(math.Round(q.Kmag * quaternionScale)),
	}

	dist := sog * metresPerNautMile / 3600 * g.step.Seconds()
	rad := heading / orientation.RadiansToDegrees
	g.lat += dist * math.Cos(rad) / metresPerDegreeLat
	g.lon += dist * math.Sin(rad) / (metresPerDegreeLat * math.Cos(g.lat/orientation.RadiansToDegrees))
	g.t = g.t.Add(g.step)
	g.i++
	return tp
}
