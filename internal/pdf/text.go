package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// defaultMaxTextSize caps the text extracted from one document
const defaultMaxTextSize = 10 * 1024 * 1024

// textExtractor pulls the text layer out of a PDF, one output line per
// visual row, pages concatenated in order.
type textExtractor struct {
	maxTextSize int
}

func newTextExtractor() *textExtractor {
	return &textExtractor{maxTextSize: defaultMaxTextSize}
}

// open parses data; a failure here means the document is unreadable
func (t *textExtractor) open(data []byte) (*pdf.Reader, error) {
	var (
		r   *pdf.Reader
		err error
	)
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("PDF parser panicked: %v", rec)
			}
		}()
		r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	}()
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return r, nil
}

// extract returns the NFC-normalized text of every page
func (t *textExtractor) extract(r *pdf.Reader) string {
	var builder strings.Builder
	totalLength := 0

	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		content := t.pageText(r, pageNum)
		if content == "" {
			continue
		}

		if totalLength+len(content) > t.maxTextSize {
			builder.WriteString(truncateUTF8(content, t.maxTextSize-totalLength))
			break
		}

		builder.WriteString(content)
		totalLength += len(content)
	}

	return norm.NFC.String(builder.String())
}

// pageText renders one page as newline-separated lines. The plain text
// stream keeps line breaks; rows are used only when it cannot be read.
func (t *textExtractor) pageText(r *pdf.Reader, pageNum int) (text string) {
	defer func() {
		// Text extraction failed for this page, continue with others
		if recover() != nil {
			text = ""
		}
	}()

	page := r.Page(pageNum)
	if page.V.IsNull() {
		return ""
	}

	plain, err := page.GetPlainText(nil)
	if err == nil && strings.TrimSpace(plain) != "" {
		if !strings.HasSuffix(plain, "\n") {
			plain += "\n"
		}
		return plain
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, row := range rows {
		for _, word := range row.Content {
			b.WriteString(word.S)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
