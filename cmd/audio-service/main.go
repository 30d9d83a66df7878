// main package for the audio-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/glowline/audio-service/internal/archive"
	"github.com/glowline/audio-service/internal/catalog"
	"github.com/glowline/audio-service/internal/chunker"
	"github.com/glowline/audio-service/internal/config"
	"github.com/glowline/audio-service/internal/jobstore"
	"github.com/glowline/audio-service/internal/linker"
	"github.com/glowline/audio-service/internal/objectstore"
	"github.com/glowline/audio-service/internal/poststore"
	"github.com/glowline/audio-service/internal/processor"
	"github.com/glowline/audio-service/internal/synth"
	"github.com/glowline/audio-service/internal/translate"
	"github.com/glowline/audio-service/internal/worker"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "audio-service-bootstrap.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create bootstrap logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	// 4. Connect to NATS and assemble the pipeline
	jobWorker, err := buildWorker(cfg, finalLog)
	if err != nil {
		finalLog.Error("Failed to assemble pipeline: %v", err)

		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	finalLog.System("Audio service initialized. Listening for jobs on subject: %s", cfg.NATS.ProcessSubject)

	runErr := jobWorker.Run(ctx)
	if runErr != nil {
		return fmt.Errorf("worker stopped with error: %w", runErr)
	}

	return nil
}

// buildWorker wires the stores, the provider clients, and the processor into
// a trigger worker.
func buildWorker(cfg *config.Config, log *logger.Logger) (*worker.NatsWorker, error) {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	audioStore, err := objectstore.New(
		jetstreamContext,
		cfg.NATS.AudioBucket,
		cfg.Storage.PublicURLBase,
		time.Duration(cfg.Storage.CacheMaxAgeSeconds)*time.Second,
	)
	if err != nil {
		return nil, err
	}

	assetCatalog, err := catalog.New(jetstreamContext, cfg.NATS.AssetsBucket)
	if err != nil {
		return nil, err
	}

	jobs, err := jobstore.New(
		jetstreamContext,
		cfg.NATS.JobsBucket,
		cfg.NATS.LeasesBucket,
		time.Duration(cfg.Pipeline.LeaseTTLMinutes)*time.Minute,
	)
	if err != nil {
		return nil, err
	}

	posts, err := poststore.New(jetstreamContext, cfg.NATS.PostsBucket)
	if err != nil {
		return nil, err
	}

	translator := translate.NewClient(
		cfg.Translation.BaseURL,
		cfg.Translation.APIKey,
		cfg.Translation.Model,
		time.Duration(cfg.Translation.TimeoutSeconds)*time.Second,
	)

	speechClient := synth.NewClient(
		cfg.TTS.BaseURL,
		cfg.TTS.APIKey,
		cfg.TTS.Model,
		time.Duration(cfg.TTS.TimeoutSeconds)*time.Second,
	)

	synthesizer := synth.New(speechClient, chunker.New(cfg.Pipeline.MaxChunkSize), log)
	archiver := archive.New(audioStore, assetCatalog, cfg.Pipeline.Engine, log)
	postLinker := linker.New(assetCatalog, posts, log)
	jobProcessor := processor.New(jobs, translator, synthesizer, archiver, postLinker, log)

	return worker.NewNatsWorker(natsConnection, cfg.NATS.ProcessSubject, jobProcessor, log), nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
