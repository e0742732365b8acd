// Package config provides configuration helpers for go-headpose commands.
package config

import "os"

// Default daemon configuration.
const (
	DefaultDashboardPort = "8090"
	DefaultYuNetModel    = "models/face_detection_yunet.onnx"
)

// LogLevel returns the log level from LOG_LEVEL env var or "info".
func LogLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}

// DashboardPort returns the dashboard port from DASHBOARD_PORT env var.
func DashboardPort() string {
	if port := os.Getenv("DASHBOARD_PORT"); port != "" {
		return port
	}
	return DefaultDashboardPort
}

// ModelPointsPath returns the reference model override path from
// MODEL_POINTS env var. Empty means use the embedded default.
func ModelPointsPath() string {
	return os.Getenv("MODEL_POINTS")
}

// YuNetModelPath returns the YuNet ONNX model path from YUNET_MODEL env var.
// Empty means the daemon runs with the mock landmark source.
func YuNetModelPath() string {
	return os.Getenv("YUNET_MODEL")
}
