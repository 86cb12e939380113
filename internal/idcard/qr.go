package idcard

import (
	"strings"
)

const (
	qrMarker       = "DLT:"
	qrSeparator    = ":"
	qrMinSegments  = 10
	qrDOBFlag      = "D"
	qrSignFlag     = "SIGN"
	qrSignStartIdx = 11
)

// QRShape describes how much of a QR payload matched the expected grammar.
type QRShape string

const (
	QRShapeEmpty      QRShape = ""
	QRShapeRaw        QRShape = "raw"
	QRShapePartial    QRShape = "partial"
	QRShapeStructured QRShape = "structured"
)

// QRFields holds the parsed contents of an ID card QR payload.
//
// Only the fields matching Shape are populated: Raw for QRShapeRaw,
// Blob and StructuredPart for QRShapePartial, and everything except Raw and
// StructuredPart for QRShapeStructured.
type QRFields struct {
	Shape          QRShape  `json:"-"`
	Raw            string   `json:"raw_qr,omitempty"`
	Blob           string   `json:"qr_blob,omitempty"`
	StructuredPart string   `json:"structured_part,omitempty"`
	Type           string   `json:"type,omitempty"`
	FullName       string   `json:"full_name,omitempty"`
	Version        string   `json:"version,omitempty"`
	OtherFlags     []string `json:"other_flags,omitempty"`
	FCN            string   `json:"fcn,omitempty"`
	DOB            *string  `json:"dob,omitempty"`
	Signature      *string  `json:"signature,omitempty"`
}

// ParseQR splits a decoded QR payload into its fields.
//
// Everything before the "DLT:" marker is opaque blob data; the structured part
// starts at the marker and its colon-delimited segments are counted from the
// first segment after the marker. Payloads without the marker or with too few segments are
// returned in their raw or partial fallback shapes rather than as errors.
func ParseQR(raw string) QRFields {
	if raw == "" {
		return QRFields{Shape: QRShapeEmpty}
	}

	idx := strings.Index(raw, qrMarker)
	if idx == -1 {
		return QRFields{Shape: QRShapeRaw, Raw: raw}
	}

	blob := raw[:idx]
	structured := raw[idx:]
	parts := strings.Split(structured[len(qrMarker):], qrSeparator)
	if len(parts) < qrMinSegments {
		return QRFields{Shape: QRShapePartial, Blob: blob, StructuredPart: structured}
	}

	fields := QRFields{
		Shape:      QRShapeStructured,
		Blob:       blob,
		Type:       parts[0],
		FullName:   parts[1],
		Version:    parts[2],
		OtherFlags: append([]string(nil), parts[3:7]...),
		FCN:        parts[7],
	}

	if parts[8] == qrDOBFlag {
		dob := parts[9]
		fields.DOB = &dob
	}

	if len(parts) > qrSignStartIdx && parts[10] == qrSignFlag {
		sig := strings.Join(parts[qrSignStartIdx:], qrSeparator)
		fields.Signature = &sig
	}

	return fields
}

// Err returns the grammar mismatch behind a fallback shape, or nil when the
// payload was empty or fully structured.
func (q QRFields) Err() error {
	switch q.Shape {
	case QRShapeRaw:
		return newError(ErrorKindGrammarMismatch, "parse qr", ErrMarkerNotFound)
	case QRShapePartial:
		return newError(ErrorKindGrammarMismatch, "parse qr", ErrTooFewSegments)
	default:
		return nil
	}
}
