package idcard

import (
	"context"
	"fmt"
)

// Image is a raster image embedded in a document.
type Image struct {
	Page  int    // zero-based page index
	Index int    // position within the page
	Data  []byte // encoded image bytes
	Ext   string // file extension without dot, e.g. "png", "jpg"
}

// ID returns the identifier used for logging and OCR bookkeeping.
func (img Image) ID() string {
	return fmt.Sprintf("extracted_%d_%d", img.Page, img.Index)
}

// Document is an opened, read-only multi-page document.
type Document interface {
	Images() []Image
	Text() string
	Close() error
}

// DocumentOpener opens raw document bytes.
type DocumentOpener interface {
	Open(data []byte) (Document, error)
}

// QRDecoder decodes the first QR symbol found in an image.
// An empty string with a nil error means no symbol was found.
type QRDecoder interface {
	Decode(img []byte) (string, error)
}

// TextRecognizer runs OCR over an encoded image.
type TextRecognizer interface {
	Recognize(ctx context.Context, img []byte) (string, error)
}

// BackgroundRemover strips the background from a portrait and returns PNG bytes.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, img []byte) ([]byte, error)
}

// DataURIEncoder turns image bytes into a base64 data URI.
type DataURIEncoder func(img []byte, ext string) string
