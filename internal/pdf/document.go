package pdf

import (
	"go.uber.org/zap"

	"github.com/fida-id/fida-extractor/internal/idcard"
)

// Document is an opened PDF held in memory
type Document struct {
	images []idcard.Image
	text   string
}

// Images returns the embedded images in discovery order
func (d *Document) Images() []idcard.Image {
	return d.images
}

// Text returns the concatenated text layer of all pages
func (d *Document) Text() string {
	return d.text
}

// Close releases the extracted images
func (d *Document) Close() error {
	d.images = nil
	d.text = ""
	return nil
}

// Opener opens PDF bytes into Documents
type Opener struct {
	validator *Validator
	text      *textExtractor
	images    *imageExtractor
	logger    *zap.Logger
}

// NewOpener creates a new PDF opener with the specified size limit
func NewOpener(maxFileSize int64, logger *zap.Logger) *Opener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Opener{
		validator: NewValidator(maxFileSize),
		text:      newTextExtractor(),
		images:    &imageExtractor{},
		logger:    logger,
	}
}

// Open validates and parses data. Only invalid or unparseable input is an
// error; a document whose images cannot be extracted opens with no images.
func (o *Opener) Open(data []byte) (idcard.Document, error) {
	if err := o.validator.ValidateBytes(data); err != nil {
		return nil, err
	}

	r, err := o.text.open(data)
	if err != nil {
		return nil, err
	}

	images, err := o.images.extract(data)
	if err != nil {
		o.logger.Warn("image extraction failed, continuing without images", zap.Error(err))
		images = nil
	}

	return &Document{
		images: images,
		text:   o.text.extract(r),
	}, nil
}
