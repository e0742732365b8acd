package headpose

import "errors"

// Sentinel errors for solve failures. All of these are recoverable: the
// estimator masks them with the last cached result.
var (
	// ErrPointMismatch is returned when the observation does not carry
	// exactly as many points as the reference model.
	ErrPointMismatch = errors.New("headpose: observation and model point counts differ")

	// ErrDegenerate is returned when the observed points do not span
	// enough of the image to anchor a solve.
	ErrDegenerate = errors.New("headpose: degenerate point configuration")

	// ErrSolveDiverged is returned when the iterative refinement does
	// not converge to a usable reprojection residual.
	ErrSolveDiverged = errors.New("headpose: pnp solve did not converge")

	// ErrBadRotation is returned when the solve produces a rotation
	// that is not orthonormal with determinant +1.
	ErrBadRotation = errors.New("headpose: solve produced an improper rotation")
)
