package idcard

import (
	"strings"
	"unicode"
)

// LayoutAnchor is the line that precedes the fixed-order field block in the
// text layer of a digital ID card PDF.
const LayoutAnchor = "Disclaimer: For your personal use only!"

const (
	layoutSkipAfterAnchor = 2
	layoutFieldCount      = 16
)

// LayoutFields holds the values read positionally from the PDF text layer.
type LayoutFields struct {
	DOBEC         string
	DOBGC         string
	SexAM         string
	SexEN         string
	NationalityAM string
	NationalityEN string
	PhoneNumber   string
	RegionAM      string
	RegionEN      string
	SubcityAM     string
	SubcityEN     string
	WoredaAM      string
	WoredaEN      string
	FCN           string
	NameAM        string
	NameEN        string
}

// ParseLayout reads the sixteen fields that follow the anchor line.
//
// Lines are trimmed and blank lines dropped before the anchor is located.
// Values start two lines after the anchor. When the anchor is missing or fewer
// than sixteen lines follow, zero-valued fields are returned along with a
// recoverable layout mismatch error.
func ParseLayout(fullText string) (LayoutFields, error) {
	lines := nonBlankLines(fullText)

	anchor := -1
	for i, line := range lines {
		if line == LayoutAnchor {
			anchor = i
			break
		}
	}
	if anchor == -1 {
		return LayoutFields{}, newError(ErrorKindLayoutMismatch, "parse layout", ErrAnchorNotFound)
	}

	start := anchor + layoutSkipAfterAnchor
	if start > len(lines) || len(lines)-start < layoutFieldCount {
		return LayoutFields{}, newError(ErrorKindLayoutMismatch, "parse layout", ErrTooFewLines)
	}
	v := lines[start : start+layoutFieldCount]

	return LayoutFields{
		DOBEC:         v[0],
		DOBGC:         v[1],
		SexAM:         v[2],
		SexEN:         v[3],
		NationalityAM: v[4],
		NationalityEN: v[5],
		PhoneNumber:   v[6],
		RegionAM:      v[7],
		RegionEN:      v[8],
		SubcityAM:     v[9],
		SubcityEN:     v[10],
		WoredaAM:      v[11],
		WoredaEN:      v[12],
		FCN:           stripSpace(v[13]),
		NameAM:        v[14],
		NameEN:        v[15],
	}, nil
}

func nonBlankLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
