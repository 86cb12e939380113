package idcard

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/fida-id/fida-extractor/internal/calendar"
)

const (
	finLabel          = "FIN"
	issueLabel        = "Date of Issue"
	expiryLabel       = "Date of Expiry"
	expiryLookaheadLn = 3
)

var datePattern = regexp.MustCompile(`\d{4}/(?:\d{2}|[\p{L}\p{N}_]{3})/\d{2}`)

var monthNumbers = map[string]string{
	"Jan": "01", "Feb": "02", "Mar": "03", "Apr": "04", "May": "05", "Jun": "06",
	"Jul": "07", "Aug": "08", "Sep": "09", "Oct": "10", "Nov": "11", "Dec": "12",
}

// OCRText is the recognized text of one extracted image.
type OCRText struct {
	ImageID string
	Text    string
}

// OCRFields holds values recovered from OCR text. A nil field was never
// matched; a non-nil empty string was matched with no content.
type OCRFields struct {
	FIN      *string
	IssueEC  *string
	IssueGC  *string
	ExpireEC *string
	ExpireGC *string
}

// ScanOCR searches OCR text blocks, in image discovery order, for the FIN,
// issue date and expiry date.
//
// FIN is taken from the first block mentioning it. Issue dates are read from
// lines carrying the issue label: two dates give EC then GC, a single date is
// EC. Expiry dates are read from the label line and the two lines after it:
// two dates give EC then GC, a single date is GC. The expiry scan runs
// whenever the EC expiry is still unset, or the GC expiry is unset and the
// block mentions the expiry label.
func ScanOCR(blocks []OCRText) OCRFields {
	var f OCRFields

	for _, b := range blocks {
		text := b.Text

		if f.FIN == nil && strings.Contains(text, finLabel) {
			for _, line := range strings.Split(text, "\n") {
				if _, after, ok := strings.Cut(line, finLabel); ok {
					fin := strings.TrimSpace(after)
					f.FIN = &fin
				}
			}
		}

		if (f.IssueEC == nil || f.IssueGC == nil) && strings.Contains(text, issueLabel) {
			for _, line := range strings.Split(text, "\n") {
				if !strings.Contains(line, issueLabel) {
					continue
				}
				dates := findDates(line)
				switch {
				case len(dates) >= 2:
					f.IssueEC, f.IssueGC = &dates[0], &dates[1]
				case len(dates) == 1:
					f.IssueEC = &dates[0]
				}
			}
		}

		if f.ExpireEC == nil || (f.ExpireGC == nil && strings.Contains(text, expiryLabel)) {
			lines := strings.Split(text, "\n")
			for i, line := range lines {
				if !strings.Contains(line, expiryLabel) {
					continue
				}
				end := min(i+expiryLookaheadLn, len(lines))
				var dates []string
				for _, l := range lines[i:end] {
					dates = append(dates, findDates(l)...)
				}
				switch {
				case len(dates) >= 2:
					f.ExpireEC, f.ExpireGC = &dates[0], &dates[1]
				case len(dates) == 1:
					f.ExpireGC = &dates[0]
				}
			}
		}
	}

	return f
}

// Backfill derives missing Ethiopian dates from their Gregorian counterparts.
// The reverse direction is never filled.
func (f *OCRFields) Backfill() {
	f.IssueEC = backfillEC(f.IssueEC, f.IssueGC)
	f.ExpireEC = backfillEC(f.ExpireEC, f.ExpireGC)
}

func backfillEC(ec, gc *string) *string {
	if gc == nil || *gc == "" || (ec != nil && *ec != "") {
		return ec
	}
	if converted, ok := calendar.GregorianToEthiopian(*gc); ok {
		return &converted
	}
	return ec
}

// findDates extracts YYYY/MM/DD-like dates from line, replacing three-letter
// English month abbreviations with their two-digit number.
func findDates(line string) []string {
	matches := datePattern.FindAllString(line, -1)
	dates := make([]string, 0, len(matches))
	for _, m := range matches {
		parts := strings.Split(m, "/")
		if len(parts) != 3 {
			continue
		}
		year, month, day := parts[0], parts[1], parts[2]
		if isAlpha(month) {
			if n, ok := monthNumbers[month]; ok {
				month = n
			}
		}
		dates = append(dates, year+"/"+month+"/"+day)
	}
	return dates
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
