package vtk

import (
	"time"

	"gonum.org/v1/gonum/num/quat"

	"github.com/velocitek/vtk-protocol/internal/orientation"
)

// Scale factors of the fixed-point TrackPoint fields.
const (
	coordScale      = 1e7
	speedScale      = 1e1
	quaternionScale = 1e3
	nanosPerCenti   = int64(time.Second / 100)
)

// Point is a descaled track point with derived attitude angles.
type Point struct {
	Time       time.Time
	Latitude   float64 // decimal degrees
	Longitude  float64 // decimal degrees
	SOG        float64 // knots
	COG        float64 // degrees
	Q1         float64
	Q2         float64
	Q3         float64
	Q4         float64
	MagHeading float64 // degrees, [0, 360)
	Heel       float64 // degrees, starboard down positive
	Pitch      float64 // degrees, bow up positive
}

// Quaternion returns the orientation as a gonum quaternion (w, x, y, z).
func (p Point) Quaternion() quat.Number {
	return quat.Number{Real: p.Q1, Imag: p.Q2, Jmag: p.Q3, Kmag: p.Q4}
}

// Project descales tp and derives heading, heel and pitch from its
// quaternion. The quaternion is not validated; non-unit values are
// normalised by the conversion and a zero quaternion reads as level.
func Project(tp TrackPoint) Point {
	p := Point{
		Time:      time.Unix(int64(tp.Seconds), int64(tp.Centiseconds)*nanosPerCenti).UTC(),
		Latitude:  float64(tp.LatitudeE7) / coordScale,
		Longitude: float64(tp.LongitudeE7) / coordScale,
		SOG:       float64(tp.SogKnotsE1) / speedScale,
		COG:       float64(tp.Cog),
		Q1:        float64(tp.Q1E3) / quaternionScale,
		Q2:        float64(tp.Q2E3) / quaternionScale,
		Q3:        float64(tp.Q3E3) / quaternionScale,
		Q4:        float64(tp.Q4E3) / quaternionScale,
	}

	a := orientation.AttitudeFromEuler(orientation.EulerFromQuaternion(p.Quaternion()))
	p.MagHeading = a.MagHeading
	p.Heel = a.Heel
	p.Pitch = a.Pitch
	return p
}
