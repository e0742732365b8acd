// Package headpose estimates rigid head orientation from 2-D facial
// landmark observations and classifies it against an "in position"
// envelope. The pipeline is: perspective-n-point solve, Euler
// decomposition, threshold classification, temporal stabilization.
package headpose

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// EulerAngles is a head orientation in degrees.
type EulerAngles struct {
	Pitch float64 `json:"pitch"` // rotation about the lateral (x) axis
	Yaw   float64 `json:"yaw"`   // rotation about the vertical (y) axis
	Roll  float64 `json:"roll"`  // rotation about the longitudinal (z) axis
}

// Degrees converts radians to degrees.
func Degrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// RotationFromEuler builds the 3x3 rotation matrix Rz(roll)*Ry(yaw)*Rx(pitch)
// from angles in degrees. This is the inverse of DecomposeRotation away from
// the yaw ±90° singularity.
func RotationFromEuler(a EulerAngles) *mat.Dense {
	p := Radians(a.Pitch)
	y := Radians(a.Yaw)
	r := Radians(a.Roll)

	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, math.Cos(p), -math.Sin(p),
		0, math.Sin(p), math.Cos(p),
	})
	ry := mat.NewDense(3, 3, []float64{
		math.Cos(y), 0, math.Sin(y),
		0, 1, 0,
		-math.Sin(y), 0, math.Cos(y),
	})
	rz := mat.NewDense(3, 3, []float64{
		math.Cos(r), -math.Sin(r), 0,
		math.Sin(r), math.Cos(r), 0,
		0, 0, 1,
	})

	var zy, zyx mat.Dense
	zy.Mul(rz, ry)
	zyx.Mul(&zy, rx)
	return &zyx
}
