package headpose

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/attentive-robotics/go-headpose/pkg/headpose/landmark"
)

const (
	testImageW = 1280
	testImageH = 960
)

// projectObservation renders the model through a known pose and
// intrinsics into a normalized observation, for synthetic solve tests.
func projectObservation(t *testing.T, model *ReferenceModel, rot *mat.Dense, trans [3]float64, intr Intrinsics) *landmark.Observation {
	t.Helper()

	points := make([]landmark.Point, 0, model.Len())
	for _, p := range model.Points() {
		px := rot.At(0, 0)*p.X + rot.At(0, 1)*p.Y + rot.At(0, 2)*p.Z + trans[0]
		py := rot.At(1, 0)*p.X + rot.At(1, 1)*p.Y + rot.At(1, 2)*p.Z + trans[1]
		pz := rot.At(2, 0)*p.X + rot.At(2, 1)*p.Y + rot.At(2, 2)*p.Z + trans[2]
		if pz <= 0 {
			t.Fatalf("synthetic pose puts point behind camera: %+v", p)
		}
		u := intr.FocalLength*px/pz + intr.CenterX
		v := intr.FocalLength*py/pz + intr.CenterY
		points = append(points, landmark.Point{X: u / testImageW, Y: v / testImageH})
	}
	return &landmark.Observation{Points: points, Width: testImageW, Height: testImageH}
}

func TestSolver_RecoversSyntheticPose(t *testing.T) {
	model := DefaultModel()
	intr := DefaultIntrinsics()
	solver := NewSolver(model, intr)

	tests := []struct {
		name   string
		angles EulerAngles
		trans  [3]float64
	}{
		{"frontal", EulerAngles{}, [3]float64{0, 0, 900}},
		{"mild rotation", EulerAngles{Pitch: 8, Yaw: -12, Roll: 5}, [3]float64{30, -20, 900}},
		{"offset translation", EulerAngles{Pitch: -5, Yaw: 15, Roll: -8}, [3]float64{-80, 60, 1100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := RotationFromEuler(tt.angles)
			obs := projectObservation(t, model, want, tt.trans, intr)

			pose, err := solver.Solve(obs)
			if err != nil {
				t.Fatalf("solve failed: %v", err)
			}

			got := DecomposeRotation(pose.Rotation)
			if math.Abs(got.Pitch-tt.angles.Pitch) > 0.1 ||
				math.Abs(got.Yaw-tt.angles.Yaw) > 0.1 ||
				math.Abs(got.Roll-tt.angles.Roll) > 0.1 {
				t.Errorf("recovered %+v, want %+v", got, tt.angles)
			}

			for i := 0; i < 3; i++ {
				if math.Abs(pose.Translation[i]-tt.trans[i]) > 5 {
					t.Errorf("translation[%d] = %v, want %v", i, pose.Translation[i], tt.trans[i])
				}
			}
		})
	}
}

func TestSolver_ProperRotation(t *testing.T) {
	model := DefaultModel()
	intr := DefaultIntrinsics()
	solver := NewSolver(model, intr)

	rot := RotationFromEuler(EulerAngles{Pitch: 10, Yaw: 20, Roll: -15})
	obs := projectObservation(t, model, rot, [3]float64{0, 0, 1000}, intr)

	pose, err := solver.Solve(obs)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if !isProperRotation(pose.Rotation) {
		t.Error("solver must return an orthonormal rotation with det +1")
	}
}

func TestSolver_PointCountMismatch(t *testing.T) {
	solver := NewSolver(DefaultModel(), DefaultIntrinsics())

	obs := &landmark.Observation{
		Points: []landmark.Point{{X: 0.5, Y: 0.5}},
		Width:  testImageW,
		Height: testImageH,
	}

	if _, err := solver.Solve(obs); !errors.Is(err, ErrPointMismatch) {
		t.Errorf("expected ErrPointMismatch, got %v", err)
	}

	if _, err := solver.Solve(nil); !errors.Is(err, ErrPointMismatch) {
		t.Errorf("nil observation: expected ErrPointMismatch, got %v", err)
	}
}

func TestSolver_DegenerateObservation(t *testing.T) {
	solver := NewSolver(DefaultModel(), DefaultIntrinsics())

	// All landmarks collapsed onto one pixel: no spread to anchor depth.
	points := make([]landmark.Point, DefaultModel().Len())
	for i := range points {
		points[i] = landmark.Point{X: 0.5, Y: 0.5}
	}
	obs := &landmark.Observation{Points: points, Width: testImageW, Height: testImageH}

	if _, err := solver.Solve(obs); !errors.Is(err, ErrDegenerate) {
		t.Errorf("expected ErrDegenerate, got %v", err)
	}
}

func TestRodrigues_RoundTrip(t *testing.T) {
	// Axis-angle construction must agree with the Euler construction
	// for a rotation about a single axis.
	angle := Radians(30)
	got := rodrigues(0, angle, 0)
	want := RotationFromEuler(EulerAngles{Yaw: 30})

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(got.At(i, j)-want.At(i, j)) > 1e-12 {
				t.Fatalf("rodrigues mismatch at (%d,%d): %v vs %v", i, j, got.At(i, j), want.At(i, j))
			}
		}
	}
}
