// Package ocr selects and constructs the text recognition engine used to
// read the printed fields on card images.
package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/fida-id/fida-extractor/internal/ocr/tesseract"
	"github.com/fida-id/fida-extractor/internal/ocr/vision"
)

// Engine names accepted by New
const (
	EngineTesseract = "tesseract"
	EngineVision    = "vision"
	EngineNone      = "none"
)

// Engine recognizes text in an encoded image
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img []byte) (string, error)
	Close() error
}

// Options configures engine construction
type Options struct {
	Engine            string
	Languages         []string
	VisionCredentials string
}

// New builds the engine named by opts.Engine
func New(ctx context.Context, opts Options) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Engine)) {
	case EngineTesseract, "":
		return tesseract.New(opts.Languages...), nil
	case EngineVision:
		engine, err := vision.New(ctx, opts.VisionCredentials)
		if err != nil {
			return nil, fmt.Errorf("failed to create vision engine: %w", err)
		}
		return engine, nil
	case EngineNone:
		return NoopEngine{}, nil
	default:
		return nil, fmt.Errorf("unknown OCR engine: %s", opts.Engine)
	}
}

// NoopEngine recognizes nothing. Cards processed with it rely on the
// text layer alone.
type NoopEngine struct{}

func (NoopEngine) Name() string { return EngineNone }

func (NoopEngine) Recognize(context.Context, []byte) (string, error) { return "", nil }

func (NoopEngine) Close() error { return nil }
