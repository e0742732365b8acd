// posecheck solves a single head pose from a landmarks file and prints
// the Euler angles and in-position classification.
//
// The landmarks file holds whitespace-separated normalized x y pairs,
// one pair per reference model point, in model order.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/attentive-robotics/go-headpose/internal/log"
	"github.com/attentive-robotics/go-headpose/pkg/headpose"
	"github.com/attentive-robotics/go-headpose/pkg/headpose/landmark"
)

func main() {
	var (
		modelPath     = flag.String("model", "", "reference model points file (default: embedded 6-point template)")
		landmarksPath = flag.String("landmarks", "", "normalized landmark x y pairs (required)")
		width         = flag.Int("width", 1280, "source image width in pixels")
		height        = flag.Int("height", 960, "source image height in pixels")
		focal         = flag.Float64("f", 1000, "focal length in pixels")
		cx            = flag.Float64("cx", 640, "principal point x")
		cy            = flag.Float64("cy", 480, "principal point y")
	)
	flag.Parse()
	log.Init("warn")

	if *landmarksPath == "" {
		fmt.Fprintln(os.Stderr, "usage: posecheck -landmarks points.txt [-model model.txt]")
		os.Exit(2)
	}

	model := headpose.DefaultModel()
	if *modelPath != "" {
		model = headpose.LoadFile(*modelPath)
	}

	points, err := readLandmarks(*landmarksPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read landmarks: %v\n", err)
		os.Exit(1)
	}

	obs := &landmark.Observation{Points: points, Width: *width, Height: *height}
	solver := headpose.NewSolver(model, headpose.Intrinsics{
		FocalLength: *focal,
		CenterX:     *cx,
		CenterY:     *cy,
	})

	pose, err := solver.Solve(obs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "solve: %v\n", err)
		os.Exit(1)
	}

	angles := headpose.DecomposeRotation(pose.Rotation)
	thresholds := headpose.DefaultThresholds()

	fmt.Printf("pitch: %8.3f°\n", angles.Pitch)
	fmt.Printf("yaw:   %8.3f°\n", angles.Yaw)
	fmt.Printf("roll:  %8.3f°\n", angles.Roll)
	fmt.Printf("in position: %v\n", thresholds.InPosition(angles))
}

func readLandmarks(path string) ([]landmark.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)

	var values []float64
	for scanner.Scan() {
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("token %q: %w", scanner.Text(), err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(values) == 0 || len(values)%2 != 0 {
		return nil, fmt.Errorf("expected x y pairs, got %d values", len(values))
	}

	points := make([]landmark.Point, 0, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		points = append(points, landmark.Point{X: values[i], Y: values[i+1]})
	}
	return points, nil
}
