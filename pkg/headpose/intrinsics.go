package headpose

import "gonum.org/v1/gonum/mat"

// Intrinsics holds the fixed pinhole camera parameters used for every
// solve. A single focal length is shared by both axes and lens
// distortion is assumed to be zero. Immutable after construction.
type Intrinsics struct {
	FocalLength float64 // pixels
	CenterX     float64 // principal point x, pixels
	CenterY     float64 // principal point y, pixels
}

// DefaultIntrinsics returns the pinhole parameters for the reference
// capture setup (f=1000, principal point at 640,480).
func DefaultIntrinsics() Intrinsics {
	return Intrinsics{
		FocalLength: 1000,
		CenterX:     640,
		CenterY:     480,
	}
}

// Matrix returns the 3x3 camera matrix [[f,0,cx],[0,f,cy],[0,0,1]].
func (in Intrinsics) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		in.FocalLength, 0, in.CenterX,
		0, in.FocalLength, in.CenterY,
		0, 0, 1,
	})
}
