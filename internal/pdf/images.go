package pdf

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/fida-id/fida-extractor/internal/idcard"
)

// imageExtractor pulls embedded raster images out of a PDF with pdfcpu
type imageExtractor struct{}

// extract returns every image XObject in page order, ordered by object
// number within a page. Page indexes are zero-based.
func (e *imageExtractor) extract(data []byte) (images []idcard.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			images, err = nil, fmt.Errorf("image extraction panicked: %v", rec)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pages, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	var raw []model.Image
	for _, page := range pages {
		for _, img := range page {
			raw = append(raw, img)
		}
	}
	sort.SliceStable(raw, func(i, j int) bool {
		if raw[i].PageNr != raw[j].PageNr {
			return raw[i].PageNr < raw[j].PageNr
		}
		return raw[i].ObjNr < raw[j].ObjNr
	})

	images = make([]idcard.Image, 0, len(raw))
	index, lastPage := 0, -1
	for _, img := range raw {
		if img.PageNr != lastPage {
			index, lastPage = 0, img.PageNr
		}
		if img.Reader == nil {
			continue
		}
		content, rerr := io.ReadAll(img)
		if rerr != nil || len(content) == 0 {
			continue
		}
		images = append(images, idcard.Image{
			Page:  img.PageNr - 1,
			Index: index,
			Data:  content,
			Ext:   normalizeExt(img.FileType),
		})
		index++
	}

	return images, nil
}

// normalizeExt maps pdfcpu file types to plain lowercase extensions
func normalizeExt(fileType string) string {
	ext := strings.ToLower(strings.TrimPrefix(fileType, "."))
	switch ext {
	case "jpeg":
		return "jpg"
	case "tiff":
		return "tif"
	case "":
		return "png"
	default:
		return ext
	}
}
