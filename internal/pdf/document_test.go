package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

type cardImage struct {
	name string
	typ  string
	data []byte
}

// buildCardPDF renders a one-page PDF with one text object per line and the
// given images
func buildCardPDF(t *testing.T, lines []string, images ...cardImage) []byte {
	t.Helper()

	doc := fpdf.New("P", "pt", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	for i, line := range lines {
		doc.Text(40, float64(60+i*20), line)
	}

	for i, img := range images {
		opts := fpdf.ImageOptions{ReadDpi: false, ImageType: img.typ}
		doc.RegisterImageOptionsReader(img.name, opts, bytes.NewReader(img.data))
		doc.ImageOptions(img.name, 400, float64(40+i*80), 64, 64, false, opts, 0, "")
	}

	require.NoError(t, doc.Error())
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func textLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestOpener_Open(t *testing.T) {
	data := buildCardPDF(t, []string{
		"Disclaimer: For your personal use only!",
		"Ethiopian Digital ID",
	}, cardImage{name: "portrait", typ: "JPG", data: testJPEG(t)})

	opener := NewOpener(10*1024*1024, nil)
	doc, err := opener.Open(data)
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, []string{
		"Disclaimer: For your personal use only!",
		"Ethiopian Digital ID",
	}, textLines(doc.Text()))

	images := doc.Images()
	require.Len(t, images, 1)
	assert.Equal(t, 0, images[0].Page)
	assert.Equal(t, 0, images[0].Index)
	assert.Equal(t, "jpg", images[0].Ext)
	assert.NotEmpty(t, images[0].Data)
	assert.Equal(t, "extracted_0_0", images[0].ID())
}

func TestOpener_OpenWithoutImages(t *testing.T) {
	data := buildCardPDF(t, []string{"no pictures here"})

	doc, err := NewOpener(10*1024*1024, nil).Open(data)
	require.NoError(t, err)
	defer doc.Close()

	assert.Empty(t, doc.Images())
}

func TestOpener_OpenRejectsInvalidInput(t *testing.T) {
	opener := NewOpener(1024, nil)

	_, err := opener.Open(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = opener.Open([]byte("not a pdf at all"))
	assert.ErrorIs(t, err, ErrNotPDF)

	_, err = opener.Open([]byte("%PDF-1.4\nthis is not a real document"))
	assert.Error(t, err)
}

func TestDocument_Close(t *testing.T) {
	doc := &Document{text: "x", images: nil}
	assert.NoError(t, doc.Close())
	assert.Empty(t, doc.Text())
}

func TestNormalizeExt(t *testing.T) {
	tests := map[string]string{
		"jpg":  "jpg",
		"JPEG": "jpg",
		".png": "png",
		"tiff": "tif",
		"":     "png",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeExt(in), in)
	}
}
