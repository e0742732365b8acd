package headpose

// AngleRange is an inclusive closed interval in degrees. Boundary
// values classify as in range.
type AngleRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside the closed interval.
func (r AngleRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Thresholds is the "in position" envelope: one inclusive range per
// axis. The defaults look unusual relative to zero-centred "facing
// forward" semantics; they are coupled to the reference model and
// solver frame conventions and must be kept as-is.
type Thresholds struct {
	Yaw   AngleRange `json:"yaw"`
	Pitch AngleRange `json:"pitch"`
	Roll  AngleRange `json:"roll"`
}

// DefaultThresholds returns the tuned envelope for the reference setup.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Yaw:   AngleRange{Min: 35, Max: 49},
		Pitch: AngleRange{Min: -158, Max: -154},
		Roll:  AngleRange{Min: 90, Max: 102},
	}
}

// InPosition reports whether all three angles fall inside the envelope.
// Pure function: no state, no side effects.
func (t Thresholds) InPosition(a EulerAngles) bool {
	return t.Pitch.Contains(a.Pitch) &&
		t.Yaw.Contains(a.Yaw) &&
		t.Roll.Contains(a.Roll)
}
