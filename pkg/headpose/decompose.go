package headpose

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// singularThreshold is the cutoff on sy below which the ZYX decomposition
// is treated as gimbal locked. The classification thresholds were tuned
// against this exact convention; do not change it.
const singularThreshold = 1e-6

// DecomposeRotation extracts ZYX Euler angles in degrees from a 3x3
// rotation matrix.
//
// Away from the singularity (sy = sqrt(R00² + R10²) > 1e-6):
//
//	pitch = atan2(R21, R22)
//	yaw   = atan2(-R20, sy)
//	roll  = atan2(R10, R00)
//
// At gimbal lock (yaw ≈ ±90°, sy ≤ 1e-6) the roll axis is degenerate and
// roll is reported as 0:
//
//	pitch = atan2(-R12, R11)
//	yaw   = atan2(-R20, sy)
//	roll  = 0
//
// Any finite rotation produces finite angles; there is no error path.
func DecomposeRotation(r *mat.Dense) EulerAngles {
	sy := math.Sqrt(r.At(0, 0)*r.At(0, 0) + r.At(1, 0)*r.At(1, 0))

	var pitch, yaw, roll float64
	if sy > singularThreshold {
		pitch = math.Atan2(r.At(2, 1), r.At(2, 2))
		yaw = math.Atan2(-r.At(2, 0), sy)
		roll = math.Atan2(r.At(1, 0), r.At(0, 0))
	} else {
		pitch = math.Atan2(-r.At(1, 2), r.At(1, 1))
		yaw = math.Atan2(-r.At(2, 0), sy)
		roll = 0
	}

	return EulerAngles{
		Pitch: Degrees(pitch),
		Yaw:   Degrees(yaw),
		Roll:  Degrees(roll),
	}
}
