package headpose

import "testing"

func TestThresholds_InPosition(t *testing.T) {
	thresholds := DefaultThresholds()

	tests := []struct {
		name   string
		angles EulerAngles
		want   bool
	}{
		{
			name:   "centre of envelope",
			angles: EulerAngles{Pitch: -156, Yaw: 42, Roll: 96},
			want:   true,
		},
		{
			name:   "yaw at lower boundary",
			angles: EulerAngles{Pitch: -156, Yaw: 35.0, Roll: 96},
			want:   true,
		},
		{
			name:   "yaw at upper boundary",
			angles: EulerAngles{Pitch: -156, Yaw: 49.0, Roll: 96},
			want:   true,
		},
		{
			name:   "all three at boundaries",
			angles: EulerAngles{Pitch: -158.0, Yaw: 35.0, Roll: 102.0},
			want:   true,
		},
		{
			name:   "yaw just below range",
			angles: EulerAngles{Pitch: -156, Yaw: 34.999, Roll: 96},
			want:   false,
		},
		{
			name:   "pitch out of range",
			angles: EulerAngles{Pitch: -150, Yaw: 42, Roll: 96},
			want:   false,
		},
		{
			name:   "roll out of range",
			angles: EulerAngles{Pitch: -156, Yaw: 42, Roll: 103},
			want:   false,
		},
		{
			name:   "two in range is not enough",
			angles: EulerAngles{Pitch: -156, Yaw: 42, Roll: 0},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := thresholds.InPosition(tt.angles); got != tt.want {
				t.Errorf("InPosition(%+v) = %v, want %v", tt.angles, got, tt.want)
			}
		})
	}
}

func TestAngleRange_Contains(t *testing.T) {
	r := AngleRange{Min: 35, Max: 49}

	if !r.Contains(35) || !r.Contains(49) {
		t.Error("boundaries must be inclusive")
	}
	if r.Contains(34.999) || r.Contains(49.001) {
		t.Error("values outside the closed interval must be excluded")
	}
}
