package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/attentive-robotics/go-headpose/pkg/hub"
)

// handleStatus returns the current pipeline state snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	st := s.snapshot()
	st.Subscribers = s.poseHub.ClientCount()
	return c.JSON(st)
}

// handleConfig returns the active pipeline configuration.
func (s *Server) handleConfig(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"thresholds": s.cfg.Thresholds,
		"intrinsics": fiber.Map{
			"focal_length": s.cfg.Intrinsics.FocalLength,
			"center_x":     s.cfg.Intrinsics.CenterX,
			"center_y":     s.cfg.Intrinsics.CenterY,
		},
		"throttle_ms": s.cfg.ThrottleInterval.Milliseconds(),
	})
}

// handleIngestFrame offers a posted JPEG frame to the dispatch gate.
// A frame arriving while one is in flight is dropped and reported as
// accepted=false rather than an error.
func (s *Server) handleIngestFrame(c *fiber.Ctx) error {
	if s.OnFrame == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "pipeline not attached",
		})
	}

	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "empty frame",
		})
	}

	// Fiber reuses the request buffer after the handler returns.
	frame := make([]byte, len(body))
	copy(frame, body)

	accepted := s.OnFrame(frame)

	s.stateMu.Lock()
	s.state.FramesIngest++
	s.stateMu.Unlock()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"accepted": accepted,
	})
}

// handlePoseWS streams pose results to a websocket subscriber.
func (s *Server) handlePoseWS(c *websocket.Conn) {
	client := hub.NewClient(s.poseHub, c)
	client.Run() // blocks until the connection closes
}
