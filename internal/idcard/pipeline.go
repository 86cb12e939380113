package idcard

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fida-id/fida-extractor/internal/imaging"
)

// Result is the outcome of parsing one ID card document.
type Result struct {
	Record IdentityRecord
	QR     *QRFields // nil when no image decoded as a QR code
	Images int       // number of images extracted from the document
}

// Parser drives image selection, QR decoding, OCR and text parsing for a
// single document and merges the outcome into an IdentityRecord. A Parser
// holds no per-request state and is safe for concurrent use when its
// collaborators are.
type Parser struct {
	opener     DocumentOpener
	qr         QRDecoder
	ocr        TextRecognizer
	remover    BackgroundRemover
	encode     DataURIEncoder
	ocrWorkers int
	logger     *zap.Logger
}

// Option configures a Parser
type Option func(*Parser)

// WithLogger sets the logger used for recoverable per-image failures.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithBackgroundRemover sets the collaborator applied to the portrait image.
func WithBackgroundRemover(r BackgroundRemover) Option {
	return func(p *Parser) { p.remover = r }
}

// WithDataURIEncoder overrides how images are encoded in the record.
func WithDataURIEncoder(e DataURIEncoder) Option {
	return func(p *Parser) {
		if e != nil {
			p.encode = e
		}
	}
}

// WithOCRWorkers bounds how many images are recognized concurrently.
func WithOCRWorkers(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.ocrWorkers = n
		}
	}
}

// NewParser creates a Parser from its required collaborators.
func NewParser(opener DocumentOpener, qr QRDecoder, ocr TextRecognizer, opts ...Option) (*Parser, error) {
	if opener == nil || qr == nil || ocr == nil {
		return nil, ErrNilCollaborator
	}

	p := &Parser{
		opener:     opener,
		qr:         qr,
		ocr:        ocr,
		encode:     imaging.DataURI,
		ocrWorkers: 1,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Parse extracts an IdentityRecord from raw PDF bytes.
//
// Only a document that cannot be opened is reported as an error (of kind
// ErrorKindDocumentOpen). Failures of individual images, the layout or the
// background removal step degrade the affected fields to empty values.
func (p *Parser) Parse(ctx context.Context, data []byte) (*Result, error) {
	doc, err := p.opener.Open(data)
	if err != nil {
		return nil, newError(ErrorKindDocumentOpen, "open document", err)
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			p.logger.Warn("failed to close document", zap.Error(cerr))
		}
	}()

	images := doc.Images()
	p.logger.Debug("document opened", zap.Int("images", len(images)))

	payload, qrImage := p.findQR(images)

	var face *Image
	if len(images) > 0 {
		face = &images[0]
	} else if qrImage != nil {
		face = qrImage
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}
	texts := p.recognizeAll(ctx, images)

	layout, err := ParseLayout(doc.Text())
	if err != nil {
		p.logger.Info("text layout not recognized", zap.Error(err))
	}

	fields := ScanOCR(texts)
	fields.Backfill()

	portrait := p.portrait(ctx, face)
	qrURI := ""
	if qrImage != nil {
		qrURI = p.encode(qrImage.Data, qrImage.Ext)
	}

	result := &Result{
		Record: Merge(layout, fields, portrait, qrURI),
		Images: len(images),
	}
	if payload != "" {
		q := ParseQR(payload)
		if qerr := q.Err(); qerr != nil {
			p.logger.Info("QR payload not structured", zap.Error(qerr))
		}
		result.QR = &q
	}
	return result, nil
}

// findQR returns the first non-empty QR payload in image order together with
// the image it came from. Decoding stops at the first hit.
func (p *Parser) findQR(images []Image) (string, *Image) {
	for i := range images {
		img := &images[i]
		var payload string
		err := safely(func() error {
			var derr error
			payload, derr = p.qr.Decode(img.Data)
			return derr
		})
		if err != nil {
			p.logger.Debug("QR decode failed", zap.String("image", img.ID()),
				zap.Error(newError(ErrorKindImageDecode, "decode qr", err)))
			continue
		}
		if payload != "" {
			return payload, img
		}
	}
	return "", nil
}

// recognizeAll runs OCR over every image. Results keep image discovery order
// regardless of how many workers run concurrently.
func (p *Parser) recognizeAll(ctx context.Context, images []Image) []OCRText {
	texts := make([]OCRText, len(images))

	var g errgroup.Group
	g.SetLimit(p.ocrWorkers)
	for i, img := range images {
		g.Go(func() error {
			var text string
			err := safely(func() error {
				var rerr error
				text, rerr = p.ocr.Recognize(ctx, img.Data)
				return rerr
			})
			if err != nil {
				p.logger.Warn("OCR failed", zap.String("image", img.ID()),
					zap.Error(newError(ErrorKindImageDecode, "recognize text", err)))
				text = ""
			}
			texts[i] = OCRText{ImageID: img.ID(), Text: text}
			return nil
		})
	}
	_ = g.Wait()

	return texts
}

// portrait removes the background of the face image and encodes it. The
// original image is used when background removal fails.
func (p *Parser) portrait(ctx context.Context, face *Image) string {
	if face == nil {
		return ""
	}
	if p.remover == nil {
		return p.encode(face.Data, face.Ext)
	}

	var out []byte
	err := safely(func() error {
		var rerr error
		out, rerr = p.remover.RemoveBackground(ctx, face.Data)
		return rerr
	})
	if err != nil || len(out) == 0 {
		if err == nil {
			err = fmt.Errorf("empty output")
		}
		p.logger.Warn("background removal failed, using original image",
			zap.String("image", face.ID()),
			zap.Error(newError(ErrorKindBackgroundRemoval, "remove background", err)))
		return p.encode(face.Data, face.Ext)
	}
	return p.encode(out, imaging.SniffExt(out, "png"))
}

// safely runs fn and converts a panic into an error
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
