package headpose

import (
	"time"

	"github.com/attentive-robotics/go-headpose/pkg/headpose/landmark"
)

// Config holds all tunable parameters for the pose pipeline.
type Config struct {
	// Classification envelope.
	Thresholds Thresholds

	// Camera model.
	Intrinsics Intrinsics

	// ThrottleInterval bounds how often the solver runs. Frames that
	// arrive inside the window are served from the cached result.
	ThrottleInterval time.Duration

	// Landmark holds detector confidence knobs, forwarded opaquely to
	// the landmark source.
	Landmark landmark.Config
}

// DefaultConfig returns the recommended configuration for the
// reference capture setup.
func DefaultConfig() Config {
	return Config{
		Thresholds:       DefaultThresholds(),
		Intrinsics:       DefaultIntrinsics(),
		ThrottleInterval: 50 * time.Millisecond,
		Landmark:         landmark.DefaultConfig(),
	}
}

// RelaxedConfig returns a configuration with a wider acceptance
// envelope and a slower solve cadence, for low-power devices.
func RelaxedConfig() Config {
	cfg := DefaultConfig()
	cfg.Thresholds.Yaw = AngleRange{Min: 30, Max: 54}
	cfg.Thresholds.Pitch = AngleRange{Min: -160, Max: -152}
	cfg.Thresholds.Roll = AngleRange{Min: 85, Max: 107}
	cfg.ThrottleInterval = 100 * time.Millisecond
	return cfg
}
