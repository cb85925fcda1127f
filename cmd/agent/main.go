package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subedit/subedit-agent/internal/api"
	"github.com/subedit/subedit-agent/internal/config"
	"github.com/subedit/subedit-agent/internal/db"
	"github.com/subedit/subedit-agent/internal/jobs"
	"github.com/subedit/subedit-agent/internal/logging"
	"github.com/subedit/subedit-agent/internal/playback"
	"github.com/subedit/subedit-agent/internal/store"
	"github.com/subedit/subedit-agent/internal/transcribe"
	"github.com/subedit/subedit-agent/internal/ui"
	"github.com/subedit/subedit-agent/internal/watcher"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.MediaDir(), 0755); err != nil {
		return fmt.Errorf("failed to create media dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting subedit agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := store.NewRepository(database.Conn())

	deviceID, err := ensureConfigValue(repo, "device_id", 16)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureConfigValue(repo, "auth_token", 32)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                    SUBEDIT AGENT v0.1.0                   ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	subtitles := store.NewService(repo, logger)
	playbackSvc := playback.NewServer(cfg.MediaDir(), logger)

	jobManager := jobs.NewManager(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var jobRunner *jobs.Runner

	transcribeCfg := transcribe.DefaultConfig(cfg.DataDir(), logger)
	transcribeCfg.PythonPath = cfg.PythonPath()

	transcriber, err := transcribe.New(transcribeCfg)
	if err != nil {
		logger.Warn("transcriber unavailable, transcription disabled", "error", err)
	} else {
		doctor := transcribe.NewCachedDoctor(transcriber, logger)
		initCtx, initCancel := context.WithTimeout(ctx, transcribeCfg.DoctorTimeout)
		if caps, err := doctor.Refresh(initCtx); err != nil {
			logger.Warn("initial doctor probe failed", "error", err)
		} else {
			logger.Info("speech capabilities detected",
				"speech", caps.HasSpeech,
				"deps", fmt.Sprintf("%d/%d", caps.Summary.Available, caps.Summary.Total),
			)
		}
		initCancel()

		jobRunner = jobs.NewRunner(jobManager, subtitles, transcriber, logger)
		jobRunner.SetJobMaxAge(cfg.JobMaxAge())
		go jobRunner.Start(ctx)

		mediaWatcher := watcher.New(cfg.MediaDir(), jobManager, subtitles, logger)
		go mediaWatcher.Run(ctx)
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Subtitles:  subtitles,
		Repository: repo,
		Jobs:       jobManager,
		Playback:   playbackSvc,
		Logger:     logger,
		StartTime:  startTime,
		DeviceID:   deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Runner: jobRunner,
			Logger: logger,
			OnOpenEditor: func() error {
				logger.Info("open editor requested from tray (browser launch not implemented in v0)")
				return nil
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// ensureConfigValue reads a config-table secret, generating and storing
// a random hex value of byteLen bytes on first run.
func ensureConfigValue(repo store.Repository, key string, byteLen int) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, key)
	if err == nil && existing != "" {
		return existing, nil
	}

	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	value := hex.EncodeToString(buf)

	if err := repo.SetConfig(ctx, key, value); err != nil {
		return "", err
	}

	return value, nil
}
