package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fida-id/fida-extractor/internal/config"
	"github.com/fida-id/fida-extractor/internal/httpapi"
	"github.com/fida-id/fida-extractor/internal/idcard"
	"github.com/fida-id/fida-extractor/internal/imaging"
	"github.com/fida-id/fida-extractor/internal/logging"
	"github.com/fida-id/fida-extractor/internal/mcp"
	"github.com/fida-id/fida-extractor/internal/ocr"
	"github.com/fida-id/fida-extractor/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsStdioMode())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logging.Sync(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("exiting", zap.Error(err))
		logging.Sync(logger)
		os.Exit(1)
	}
}

// run wires the parser and serves it in the configured mode until ctx ends
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Debug("starting", zap.Stringer("config", cfg))

	engine, err := ocr.New(ctx, ocr.Options{
		Engine:            cfg.OCREngine,
		Languages:         cfg.OCRLanguages,
		VisionCredentials: cfg.VisionCredentials,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	var remover idcard.BackgroundRemover = imaging.NoopRemover{}
	if cfg.BackgroundRemovalEnabled() {
		remover = imaging.NewRembgRemover(cfg.RembgURL, cfg.RembgTimeout)
	}

	parser, err := idcard.NewParser(
		pdf.NewOpener(cfg.MaxFileSize, logger.Named("pdf")),
		imaging.NewQRDecoder(),
		engine,
		idcard.WithLogger(logger.Named("idcard")),
		idcard.WithBackgroundRemover(remover),
		idcard.WithOCRWorkers(cfg.OCRWorkers),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	logger.Info("parser ready",
		zap.String("mode", cfg.Mode),
		zap.String("ocr_engine", engine.Name()),
		zap.Bool("background_removal", cfg.BackgroundRemovalEnabled()))

	if cfg.IsStdioMode() {
		server, err := mcp.NewServer(cfg, parser, logger.Named("mcp"))
		if err != nil {
			return fmt.Errorf("failed to create MCP server: %w", err)
		}
		return server.Run(ctx)
	}

	server, err := httpapi.NewServer(cfg, parser, logger.Named("http"))
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	return server.Run(ctx)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("FIDA Extractor\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
