// Package tesseract recognizes text with a local Tesseract installation
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// client is the subset of *gosseract.Client used here
type client interface {
	SetLanguage(langs ...string) error
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	Close() error
}

// Engine runs Tesseract on each image with a fresh client. gosseract
// clients are not safe for concurrent use.
type Engine struct {
	languages     []string
	clientFactory func() client
}

// New constructs a Tesseract-backed engine for the given languages
func New(languages ...string) *Engine {
	return &Engine{
		languages:     cleanLanguages(languages),
		clientFactory: func() client { return gosseract.NewClient() },
	}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize returns the trimmed plain text Tesseract finds in img
func (e *Engine) Recognize(ctx context.Context, img []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := e.clientFactory()
	defer c.Close()

	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (e *Engine) Close() error { return nil }

func cleanLanguages(languages []string) []string {
	var out []string
	for _, lang := range languages {
		if lang = strings.TrimSpace(lang); lang != "" {
			out = append(out, lang)
		}
	}
	return out
}
