// Package imaging holds the image collaborators of the ID card pipeline:
// QR decoding, background removal and data URI encoding.
package imaging

import (
	"encoding/base64"
	"net/http"
	"strings"
)

const defaultMIME = "image/png"

// MIMEType maps an image file extension to the MIME type used in data URIs.
// Only png, jpg and jpeg keep their own type; anything else is reported as PNG.
func MIMEType(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "png", "jpg", "jpeg":
		return "image/" + ext
	default:
		return defaultMIME
	}
}

// DataURI encodes img as a base64 data URI. Empty input yields "".
func DataURI(img []byte, ext string) string {
	if len(img) == 0 {
		return ""
	}
	return "data:" + MIMEType(ext) + ";base64," + base64.StdEncoding.EncodeToString(img)
}

// SniffExt reports the extension matching the content of img, or fallback
// when the content is not a PNG or JPEG.
func SniffExt(img []byte, fallback string) string {
	switch http.DetectContentType(img) {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	default:
		return fallback
	}
}
