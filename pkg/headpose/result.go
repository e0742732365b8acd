package headpose

import "github.com/google/uuid"

// Kind tags the terminal outcome of one admitted frame.
type Kind int

const (
	// KindPose is a successful (fresh or cached) pose estimate.
	KindPose Kind = iota
	// KindNoFace means the landmark source saw no face. Distinct from
	// failure and never served from cache.
	KindNoFace
	// KindError is an unexpected fault surfaced to the listener.
	KindError
)

// String returns the outcome tag name.
func (k Kind) String() string {
	switch k {
	case KindPose:
		return "pose"
	case KindNoFace:
		return "no_face"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// HeadPose is a classified head orientation in degrees.
type HeadPose struct {
	Pitch      float64 `json:"pitch"`
	Yaw        float64 `json:"yaw"`
	Roll       float64 `json:"roll"`
	InPosition bool    `json:"in_position"`
}

// Angles returns the orientation without the classification bit.
func (h HeadPose) Angles() EulerAngles {
	return EulerAngles{Pitch: h.Pitch, Yaw: h.Yaw, Roll: h.Roll}
}

// Result is the tagged outcome delivered to the listener: exactly one
// of a pose, a no-face signal, or an error message.
type Result struct {
	Kind    Kind      `json:"kind"`
	Pose    HeadPose  `json:"pose,omitempty"` // valid when Kind == KindPose
	Err     string    `json:"error,omitempty"`
	FrameID uuid.UUID `json:"frame_id,omitempty"`
}

// PoseResult wraps a classified pose.
func PoseResult(p HeadPose) Result {
	return Result{Kind: KindPose, Pose: p}
}

// NoFaceResult reports that no face was visible.
func NoFaceResult() Result {
	return Result{Kind: KindNoFace}
}

// ErrorResult surfaces an unexpected fault with a human-readable
// message.
func ErrorResult(msg string) Result {
	return Result{Kind: KindError, Err: msg}
}
