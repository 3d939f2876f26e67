// Package orientation converts attitude quaternions into the Euler angles
// sailors read off the instruments: magnetic heading, heel and pitch.
//
// Quaternions are ordered (w, x, y, z). Angles are extracted with the static
// (extrinsic) X-Y-Z convention, i.e. the "sxyz" axes of the classic
// transformations.py routines that downstream tooling was built against.
package orientation

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// eps matches the tolerance used by the reference routines: four float64 ulps
// at 1.0. Quaternions with a squared norm below it map to the identity.
const eps = 4 * 2.220446049250313e-16

// Euler holds rotation angles in radians about the static X, Y and Z axes.
type Euler struct {
	Roll  float64 // about X
	Pitch float64 // about Y
	Yaw   float64 // about Z
}

// RotationMatrix returns the 3x3 rotation matrix for q. The quaternion is
// normalised first, so any non-zero scale gives the same matrix. A quaternion
// whose squared norm is below eps yields the identity.
func RotationMatrix(q quat.Number) *mat.Dense {
	n := q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag
	if n < eps {
		return identity3()
	}

	q = quat.Scale(math.Sqrt(2.0/n), q)
	o := outer(q)

	return mat.NewDense(3, 3, []float64{
		1 - o.At(2, 2) - o.At(3, 3), o.At(1, 2) - o.At(3, 0), o.At(1, 3) + o.At(2, 0),
		o.At(1, 2) + o.At(3, 0), 1 - o.At(1, 1) - o.At(3, 3), o.At(2, 3) - o.At(1, 0),
		o.At(1, 3) - o.At(2, 0), o.At(2, 3) + o.At(1, 0), 1 - o.At(1, 1) - o.At(2, 2),
	})
}

// EulerFromMatrix extracts static X-Y-Z angles from a rotation matrix.
// Near gimbal lock (cos(pitch) ~ 0) yaw is pinned to zero and the remaining
// rotation is attributed to roll.
func EulerFromMatrix(m mat.Matrix) Euler {
	const i, j, k = 0, 1, 2

	cy := math.Sqrt(m.At(i, i)*m.At(i, i) + m.At(j, i)*m.At(j, i))
	if cy > eps {
		return Euler{
			Roll:  math.Atan2(m.At(k, j), m.At(k, k)),
			Pitch: math.Atan2(-m.At(k, i), cy),
			Yaw:   math.Atan2(m.At(j, i), m.At(i, i)),
		}
	}
	return Euler{
		Roll:  math.Atan2(-m.At(j, k), m.At(j, j)),
		Pitch: math.Atan2(-m.At(k, i), cy),
		Yaw:   0,
	}
}

// EulerFromQuaternion converts q = (w, x, y, z) to static X-Y-Z Euler angles.
// Zero and non-unit quaternions are not rejected: the former maps to the
// identity rotation, the latter is normalised.
func EulerFromQuaternion(q quat.Number) Euler {
	return EulerFromMatrix(RotationMatrix(q))
}

// QuaternionFromEuler is the inverse of EulerFromQuaternion: the rotation
// about X by Roll, then Y by Pitch, then Z by Yaw, all about static axes.
func QuaternionFromEuler(e Euler) quat.Number {
	about := func(angle float64, axis quat.Number) quat.Number {
		s, c := math.Sincos(angle / 2)
		return quat.Add(quat.Number{Real: c}, quat.Scale(s, axis))
	}
	qx := about(e.Roll, quat.Number{Imag: 1})
	qy := about(e.Pitch, quat.Number{Jmag: 1})
	qz := about(e.Yaw, quat.Number{Kmag: 1})
	return quat.Mul(qz, quat.Mul(qy, qx))
}

// EulerFromAttitude maps heading, heel and pitch in degrees back to static
// X-Y-Z angles in radians.
func EulerFromAttitude(a Attitude) Euler {
	return Euler{
		Roll:  a.Heel / RadiansToDegrees,
		Pitch: -a.Pitch / RadiansToDegrees,
		Yaw:   -a.MagHeading / RadiansToDegrees,
	}
}

// outer returns the 4x4 outer product of q with itself. Each entry is the
// plain product q[i]*q[j]; Dense.Outer accumulates into zero and would turn
// -0 entries into +0, which flips atan2 results on the +-pi branch cut.
func outer(q quat.Number) *mat.Dense {
	v := [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag}
	prods := make([]float64, 0, 16)
	for _, a := range v {
		for _, b := range v {
			prods = append(prods, a*b)
		}
	}
	return mat.NewDense(4, 4, prods)
}

func identity3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}
