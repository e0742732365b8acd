// posetrackd runs the head pose pipeline behind a web dashboard.
//
// Frames are ingested as JPEG bodies on POST /api/frame; terminal
// results stream to subscribers on /ws/pose and the latest snapshot is
// served on /api/status.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/attentive-robotics/go-headpose/internal/config"
	"github.com/attentive-robotics/go-headpose/internal/log"
	"github.com/attentive-robotics/go-headpose/pkg/headpose"
	"github.com/attentive-robotics/go-headpose/pkg/headpose/landmark"
	"github.com/attentive-robotics/go-headpose/pkg/web"
)

func main() {
	log.Init(config.LogLevel())

	cfg := headpose.DefaultConfig()

	var (
		source landmark.Source
		model  *headpose.ReferenceModel
	)
	if path := config.YuNetModelPath(); path != "" {
		yn, err := landmark.NewYuNet(landmark.DefaultYuNetConfig(path))
		if err != nil {
			log.Error("failed to open YuNet model", "path", path, "error", err)
			os.Exit(1)
		}
		source = yn
		model = headpose.YuNetModel()
		log.Info("landmark source: YuNet", "model", path)
	} else {
		log.Warn("YUNET_MODEL not set, using mock landmark source")
		source = &landmark.Mock{}
		model = headpose.DefaultModel()
	}
	defer source.Close()

	// Optional reference model override from disk.
	if path := config.ModelPointsPath(); path != "" {
		model = headpose.LoadFile(path)
		log.Info("reference model override", "path", path, "points", model.Len())
	}

	server := web.NewServer(config.DashboardPort(), cfg)
	pipe := headpose.NewPipeline(cfg, model, source, server.HandleResult)

	server.OnFrame = func(jpeg []byte) bool {
		accepted := pipe.Submit(headpose.NewFrame(jpeg, nil))
		server.NoteDropped(pipe.Dropped())
		return accepted
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pipe.Start(ctx)
	server.SetSourceReady(true)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			log.Warn("dashboard shutdown", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		log.Error("dashboard server failed", "error", err)
	}

	cancel()
	<-pipe.Done()
}
