package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"github.com/Bitcomethub/Somnus/ai"
	"github.com/Bitcomethub/Somnus/httpapi"
	"github.com/Bitcomethub/Somnus/internal"
	"github.com/Bitcomethub/Somnus/moderation"
	"github.com/Bitcomethub/Somnus/observability"
	"github.com/Bitcomethub/Somnus/projection"
	"github.com/Bitcomethub/Somnus/repositories"
	"github.com/Bitcomethub/Somnus/runtime"
	"github.com/Bitcomethub/Somnus/runtime/workers"
	"github.com/Bitcomethub/Somnus/services"
	"github.com/Bitcomethub/Somnus/sink"
	"github.com/Bitcomethub/Somnus/ws"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Somnus terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// The sound catalog is static and re-indexed at every boot, so the
	// search index never needs to touch disk.
	blugeWriter, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Presence core
	stats := observability.NewPresenceStats(logger)
	registry := runtime.NewRegistry()
	scheduler := runtime.NewPulseScheduler(logger, stats, config.PulseInterval)
	hub := runtime.NewHub(logger, registry, scheduler, stats, config.CommandBufferSize, config.SinkTimeout)
	scheduler.Bind(hub)

	board := projection.NewOccupancyBoard()
	statsSink := sink.NewStatsSink()
	hub.AddSinks(board, statsSink)

	if config.EnableDebug {
		url := fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort)
		logger.Info("Debug Badger inspector available", "url", url)
		internal.StartDebugServer(db, config.DebugPort, internal.DefaultMapper,
			mergedStats(stats, board, statsSink))
	}

	// 4. Supervision
	capacityWorker := workers.NewChannelCapacityWorker(logger,
		[]workers.NamedChannel{{Name: "hub-commands", Channel: hub.CommandChannel()}},
		stats, config.MetricInterval)
	healthWorker := workers.NewHealthWorker(logger, stats, config.MetricInterval)

	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(hub, capacityWorker, healthWorker)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Starting supervisor...")
		sup.Run(ctx)
	}()

	// 5. Moderation & AI
	censored, err := moderation.LoadCensored()
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to load censored words: %w", err)
	}
	moderator, err := moderation.NewModerator(censored.Words, '*')
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to build moderator: %w", err)
	}
	aiClient := ai.NewClient(config.CompletionEndpoint, config.ImagesEndpoint,
		config.CompletionAPIKey, config.CompletionModel, config.ImageModel,
		config.CompletionTimeout)

	// 6. Repositories & Services
	userRepository := repositories.NewUserRepository(db, logger)
	whisperRepository := repositories.NewWhisperRepository(db, logger)
	blockRepository := repositories.NewBlockRepository(db, logger)

	galleryService, err := services.NewGalleryService(logger, blugeWriter)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to index sound catalog: %w", err)
	}

	controller := httpapi.NewController(
		logger,
		services.NewUserService(logger, userRepository),
		services.NewMatchService(logger, userRepository),
		services.NewWalletService(logger, userRepository),
		services.NewWhisperService(logger, whisperRepository, blockRepository),
		services.NewVibeService(logger, aiClient, &moderator, userRepository),
		galleryService,
		services.NewBlockService(logger, blockRepository),
		services.NewDreamscapeService(logger, aiClient, userRepository),
	)

	// 7. HTTP & Websocket listener
	wsServer := ws.NewServer(logger, hub, stats, config.SinkBufferSize)
	router := controller.Router()
	router.GET("/ws", gin.WrapF(wsServer.ServeWS))

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv := &http.Server{Addr: address, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	// The execution blocks here until either a signal is received or the server crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 9. Final Cleanup (Graceful Shutdown)
	// Active sockets get a grace period to flush, then workers drain.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	scheduler.StopAll()
	sup.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

// mergedStats folds live occupancy and per-event totals into the
// inspector's stats table next to the core counters.
func mergedStats(stats *observability.PresenceStats, board *projection.OccupancyBoard, events *sink.StatsSink) func() map[string]any {
	return func() map[string]any {
		m := stats.AsMap()
		for _, occ := range board.Snapshot() {
			m["room "+string(occ.Room)] = occ.Count
		}
		for name, total := range events.Totals() {
			m["sent "+name] = total
		}
		return m
	}
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
