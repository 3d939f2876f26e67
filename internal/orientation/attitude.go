package orientation

import "math"

// RadiansToDegrees converts radians to degrees
const RadiansToDegrees = 180.0 / math.Pi

// Degrees converts an angle in radians to degrees.
func Degrees(rad float64) float64 {
	return rad * RadiansToDegrees
}

// MagHeading returns the compass heading in degrees for a yaw angle in
// radians. Yaw grows counter-clockwise, headings clockwise, hence the sign
// flip. The result is folded into [0, 360) the way a floored modulo does,
// with negative zero reported as zero.
func MagHeading(yaw float64) float64 {
	return floorMod(-Degrees(yaw), 360)
}

// Heel returns the roll angle in degrees, positive with starboard down.
func Heel(roll float64) float64 {
	return Degrees(roll)
}

// Pitch returns the pitch angle in degrees, positive with the bow up.
func Pitch(pitch float64) float64 {
	return -Degrees(pitch)
}

// Attitude is the sailor-facing view of an orientation.
type Attitude struct {
	MagHeading float64
	Heel       float64
	Pitch      float64
}

// AttitudeFromEuler maps static X-Y-Z angles to heading, heel and pitch.
func AttitudeFromEuler(e Euler) Attitude {
	return Attitude{
		MagHeading: MagHeading(e.Yaw),
		Heel:       Heel(e.Roll),
		Pitch:      Pitch(e.Pitch),
	}
}

// floorMod is a modulo whose result takes the sign of the divisor.
func floorMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r != 0 && (r < 0) != (m < 0) {
		r += m
	}
	if r == 0 {
		return 0 // drop the sign of -0
	}
	return r
}
