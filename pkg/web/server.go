// Package web provides a real-time dashboard for the pose pipeline.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/attentive-robotics/go-headpose/internal/log"
	"github.com/attentive-robotics/go-headpose/pkg/headpose"
	"github.com/attentive-robotics/go-headpose/pkg/hub"
)

// PipelineState summarizes the pose pipeline for the dashboard.
type PipelineState struct {
	SourceReady   bool              `json:"source_ready"`
	LastOutcome   string            `json:"last_outcome"`
	Pose          headpose.HeadPose `json:"pose"`
	HasPose       bool              `json:"has_pose"`
	NoFaceStreak  int               `json:"no_face_streak"`
	FramesIngest  uint64            `json:"frames_ingested"`
	FramesDropped uint64            `json:"frames_dropped"`
	Subscribers   int               `json:"subscribers"`
	LastError     string            `json:"last_error"`
	UpdatedAt     string            `json:"updated_at"`
}

// Server is the pose dashboard server. It doubles as the pipeline
// listener: every terminal result updates the status snapshot and is
// broadcast to websocket subscribers.
type Server struct {
	app  *fiber.App
	port string

	cfg headpose.Config

	// State
	state   PipelineState
	stateMu sync.RWMutex

	// Hub for websocket broadcast (thread-safe)
	poseHub *hub.Hub

	// OnFrame ingests a frame into the pipeline; it reports whether
	// the gate accepted it.
	OnFrame func(jpeg []byte) bool
}

// NewServer creates the dashboard server.
func NewServer(port string, cfg headpose.Config) *Server {
	s := &Server{
		port:    port,
		cfg:     cfg,
		poseHub: hub.New("pose"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Head Pose Dashboard",
		DisableStartupMessage: true,
		BodyLimit:             8 * 1024 * 1024, // JPEG frames
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/config", s.handleConfig)
	api.Post("/frame", s.handleIngestFrame)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/pose", websocket.New(s.handlePoseWS))

	s.app = app
	return s
}

// Start starts the dashboard server. Blocks until the listener fails.
func (s *Server) Start() error {
	go s.poseHub.Run()
	log.Info("dashboard listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// SetSourceReady marks whether the landmark source is operational.
func (s *Server) SetSourceReady(ready bool) {
	s.stateMu.Lock()
	s.state.SourceReady = ready
	s.stateMu.Unlock()
}

// NoteDropped records the gate's running drop count.
func (s *Server) NoteDropped(n uint64) {
	s.stateMu.Lock()
	s.state.FramesDropped = n
	s.stateMu.Unlock()
}

// HandleResult is the pipeline listener: it updates the status
// snapshot and fans the result out to websocket subscribers. It is
// called from the pipeline worker goroutine and makes no assumption
// about the calling thread.
func (s *Server) HandleResult(res headpose.Result) {
	s.stateMu.Lock()
	s.state.LastOutcome = res.Kind.String()
	s.state.UpdatedAt = time.Now().Format(time.RFC3339Nano)
	switch res.Kind {
	case headpose.KindPose:
		s.state.Pose = res.Pose
		s.state.HasPose = true
		s.state.NoFaceStreak = 0
	case headpose.KindNoFace:
		s.state.NoFaceStreak++
	case headpose.KindError:
		s.state.LastError = res.Err
	}
	s.stateMu.Unlock()

	if err := s.poseHub.BroadcastJSON(res); err != nil {
		log.Warn("pose broadcast failed", "error", err)
	}
}

func (s *Server) snapshot() PipelineState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}
