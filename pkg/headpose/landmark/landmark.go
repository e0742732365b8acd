// Package landmark defines the boundary to the external facial
// landmark detector: the observation format it emits and the source
// interface the pipeline consumes.
package landmark

import "context"

// Point is a 2-D landmark in normalized [0,1] image coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Observation is one detection result: ordered landmark points paired
// positionally with the reference model, plus the pixel dimensions of
// the frame they were measured on (used to de-normalize).
type Observation struct {
	Points []Point
	Width  int // source frame width, pixels
	Height int // source frame height, pixels
}

// Source is the interface to the external landmark detector. Detect
// returns (nil, nil) when no face is present in the frame; an error is
// a detector fault, not a missing face. Implementations may run
// inference on their own thread; Detect must be safe to call from the
// pipeline worker.
type Source interface {
	Detect(ctx context.Context, jpeg []byte) (*Observation, error)

	// Close releases detector resources.
	Close() error
}

// Config carries detector confidence knobs. They are forwarded
// opaquely to the detector backend; the pose pipeline does not
// interpret them.
type Config struct {
	MinDetectionConfidence float64 // minimum confidence to report a face
	MinTrackingConfidence  float64 // minimum confidence to keep tracking
	MinPresenceConfidence  float64 // minimum landmark presence confidence
	MaxFaces               int     // detector-side cap on faces per frame
}

// DefaultConfig returns production detector defaults.
func DefaultConfig() Config {
	return Config{
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
		MinPresenceConfidence:  0.5,
		MaxFaces:               1,
	}
}
