package headpose

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/attentive-robotics/go-headpose/pkg/headpose/landmark"
)

// Pose is one solve hypothesis: a proper rotation matrix and a
// translation vector in camera coordinates. Ephemeral per-frame value.
type Pose struct {
	Rotation    *mat.Dense // 3x3, orthonormal, det +1
	Translation [3]float64
}

// Solver solves the perspective-n-point problem for a fixed reference
// model and camera intrinsics: it estimates the rotation and
// translation that minimize reprojection error between the projected
// model points and the observed 2-D landmarks.
//
// The solve is a Levenberg–Marquardt refinement over an axis-angle
// rotation vector and translation, seeded by a direct geometric
// estimate from the point centroids and spreads.
type Solver struct {
	model      *ReferenceModel
	intrinsics Intrinsics

	maxIterations int
	tolerance     float64
	maxResidual   float64 // RMS reprojection error bound, pixels
}

// NewSolver creates a solver bound to a reference model and intrinsics.
func NewSolver(model *ReferenceModel, intr Intrinsics) *Solver {
	return &Solver{
		model:         model,
		intrinsics:    intr,
		maxIterations: 60,
		tolerance:     1e-12,
		maxResidual:   8.0,
	}
}

// Solve estimates the pose for one observation. The observation must
// carry exactly as many points as the reference model; a mismatch is a
// caller error. Non-convergence and degenerate geometry are reported
// as recoverable errors, never panics.
func (s *Solver) Solve(obs *landmark.Observation) (*Pose, error) {
	if obs == nil || len(obs.Points) != s.model.Len() {
		return nil, ErrPointMismatch
	}
	n := s.model.Len()
	if n < 3 {
		return nil, ErrDegenerate
	}

	// De-normalize observed points into pixel coordinates.
	us := make([]float64, n)
	vs := make([]float64, n)
	for i, p := range obs.Points {
		us[i] = p.X * float64(obs.Width)
		vs[i] = p.Y * float64(obs.Height)
	}

	theta, err := s.initialGuess(us, vs)
	if err != nil {
		return nil, err
	}

	theta, converged := s.refine(theta, us, vs)
	for _, v := range theta {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrSolveDiverged
		}
	}
	if !converged {
		return nil, ErrSolveDiverged
	}

	rot := rodrigues(theta[0], theta[1], theta[2])
	if !isProperRotation(rot) {
		return nil, ErrBadRotation
	}

	return &Pose{
		Rotation:    rot,
		Translation: [3]float64{theta[3], theta[4], theta[5]},
	}, nil
}

// initialGuess seeds the refinement with an identity rotation and a
// translation derived from the centroid offset and the ratio of model
// spread to pixel spread (a crude depth-from-scale estimate).
func (s *Solver) initialGuess(us, vs []float64) ([6]float64, error) {
	var theta [6]float64
	pts := s.model.Points()
	n := float64(len(pts))

	var cm Point3
	for _, p := range pts {
		cm.X += p.X / n
		cm.Y += p.Y / n
		cm.Z += p.Z / n
	}
	var modelSpread float64
	for _, p := range pts {
		dx, dy, dz := p.X-cm.X, p.Y-cm.Y, p.Z-cm.Z
		modelSpread += (dx*dx + dy*dy + dz*dz) / n
	}
	modelSpread = math.Sqrt(modelSpread)

	var uc, vc float64
	for i := range us {
		uc += us[i] / n
		vc += vs[i] / n
	}
	var pixelSpread float64
	for i := range us {
		du, dv := us[i]-uc, vs[i]-vc
		pixelSpread += (du*du + dv*dv) / n
	}
	pixelSpread = math.Sqrt(pixelSpread)

	if modelSpread < 1e-9 || pixelSpread < 1e-9 {
		return theta, ErrDegenerate
	}

	f := s.intrinsics.FocalLength
	z0 := f * modelSpread / pixelSpread
	theta[3] = (uc-s.intrinsics.CenterX)*z0/f - cm.X
	theta[4] = (vc-s.intrinsics.CenterY)*z0/f - cm.Y
	theta[5] = z0 - cm.Z
	return theta, nil
}

// refine runs damped Gauss-Newton (Levenberg–Marquardt) iterations on
// the reprojection residuals. The Jacobian is evaluated by central
// differences; six parameters keep that cheap.
func (s *Solver) refine(theta [6]float64, us, vs []float64) ([6]float64, bool) {
	n := len(us)
	m := 2 * n

	residuals := func(t [6]float64) []float64 {
		r := make([]float64, m)
		rot := rodrigues(t[0], t[1], t[2])
		f := s.intrinsics.FocalLength
		for i, p := range s.model.Points() {
			px := rot.At(0, 0)*p.X + rot.At(0, 1)*p.Y + rot.At(0, 2)*p.Z + t[3]
			py := rot.At(1, 0)*p.X + rot.At(1, 1)*p.Y + rot.At(1, 2)*p.Z + t[4]
			pz := rot.At(2, 0)*p.X + rot.At(2, 1)*p.Y + rot.At(2, 2)*p.Z + t[5]
			if pz < 1e-9 {
				// Point behind the camera: a large residual steers the
				// iteration away without dividing by zero.
				r[2*i] = 1e6
				r[2*i+1] = 1e6
				continue
			}
			r[2*i] = f*px/pz + s.intrinsics.CenterX - us[i]
			r[2*i+1] = f*py/pz + s.intrinsics.CenterY - vs[i]
		}
		return r
	}

	cost := func(r []float64) float64 {
		c := 0.0
		for _, v := range r {
			c += v * v
		}
		return 0.5 * c
	}

	r := residuals(theta)
	c := cost(r)
	lambda := 1e-3
	converged := false

	for iter := 0; iter < s.maxIterations; iter++ {
		// Numeric Jacobian, central differences.
		jac := mat.NewDense(m, 6, nil)
		for k := 0; k < 6; k++ {
			h := 1e-6 * (1 + math.Abs(theta[k]))
			tp, tm := theta, theta
			tp[k] += h
			tm[k] -= h
			rp := residuals(tp)
			rm := residuals(tm)
			for j := 0; j < m; j++ {
				jac.Set(j, k, (rp[j]-rm[j])/(2*h))
			}
		}

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		grad := mat.NewVecDense(6, nil)
		grad.MulVec(jac.T(), mat.NewVecDense(m, r))

		if mat.Norm(grad, math.Inf(1)) < 1e-9 {
			converged = true
			break
		}

		// Damped normal equations: (JᵀJ + λ·diag(JᵀJ)) δ = Jᵀr.
		accepted := false
		for attempt := 0; attempt < 10; attempt++ {
			damped := mat.NewDense(6, 6, nil)
			damped.Copy(&jtj)
			for k := 0; k < 6; k++ {
				damped.Set(k, k, jtj.At(k, k)*(1+lambda)+1e-12)
			}

			delta := mat.NewVecDense(6, nil)
			if err := delta.SolveVec(damped, grad); err != nil {
				lambda *= 10
				continue
			}

			trial := theta
			for k := 0; k < 6; k++ {
				trial[k] -= delta.AtVec(k)
			}
			rt := residuals(trial)
			ct := cost(rt)
			if ct < c {
				if c-ct < s.tolerance*(1+c) {
					converged = true
				}
				theta, r, c = trial, rt, ct
				lambda = math.Max(lambda/3, 1e-12)
				accepted = true
				break
			}
			lambda *= 10
		}
		if !accepted || converged {
			break
		}
	}

	// A stalled iteration (no downhill step left) is a local minimum;
	// accept it when the fit is within the reprojection bound.
	if !converged && math.Sqrt(2*c/float64(m)) <= s.maxResidual {
		converged = true
	}

	return theta, converged
}

// rodrigues converts an axis-angle rotation vector to a 3x3 rotation
// matrix.
func rodrigues(wx, wy, wz float64) *mat.Dense {
	angle := math.Sqrt(wx*wx + wy*wy + wz*wz)
	k := mat.NewDense(3, 3, []float64{
		0, -wz, wy,
		wz, 0, -wx,
		-wy, wx, 0,
	})

	eye := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	if angle < 1e-12 {
		// First-order approximation near zero.
		var r mat.Dense
		r.Add(eye, k)
		return orthonormalize(&r)
	}

	var k2, r mat.Dense
	k2.Mul(k, k)
	r.Scale(math.Sin(angle)/angle, k)
	k2.Scale((1-math.Cos(angle))/(angle*angle), &k2)
	r.Add(&r, &k2)
	r.Add(&r, eye)
	return mat.DenseCopyOf(&r)
}

// orthonormalize projects a near-rotation onto SO(3) via SVD.
func orthonormalize(r *mat.Dense) *mat.Dense {
	var svd mat.SVD
	if ok := svd.Factorize(r, mat.SVDFull); !ok {
		return mat.DenseCopyOf(r)
	}
	var u, v, out mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	out.Mul(&u, v.T())
	return mat.DenseCopyOf(&out)
}

// isProperRotation checks orthonormality and determinant +1 within
// numeric tolerance.
func isProperRotation(r *mat.Dense) bool {
	rows, cols := r.Dims()
	if rows != 3 || cols != 3 {
		return false
	}
	var rtr mat.Dense
	rtr.Mul(r.T(), r)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(rtr.At(i, j)-want) > 1e-6 {
				return false
			}
		}
	}
	return math.Abs(mat.Det(r)-1) < 1e-6
}
