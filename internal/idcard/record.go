package idcard

// Bilingual is a value printed on the card in Amharic and English (or in
// the Ethiopian and Gregorian calendars for dates).
type Bilingual struct {
	Amharic string `json:"amharic"`
	English string `json:"english"`
}

// IdentityRecord is the merged output returned to callers.
type IdentityRecord struct {
	DateOfIssue   Bilingual `json:"dataOfIssue"`
	FullName      Bilingual `json:"fullName"`
	DateOfBirth   Bilingual `json:"dateOfBirth"`
	Sex           Bilingual `json:"sex"`
	ExpireDate    Bilingual `json:"expireDate"`
	FAN           string    `json:"FAN"`
	PhoneNumber   string    `json:"phoneNumber"`
	Region        Bilingual `json:"region"`
	City          Bilingual `json:"city"`
	Kebele        Bilingual `json:"kebele"`
	FIN           string    `json:"FIN"`
	PersonalImage string    `json:"personelImage"`
	QRCodeImage   string    `json:"qrcodeImage"`
}

// Merge assembles an IdentityRecord from the layout fields, the OCR fields
// and the already encoded portrait and QR images. FAN always comes from the
// text layout, never from the QR payload.
func Merge(layout LayoutFields, ocr OCRFields, portrait, qrImage string) IdentityRecord {
	return IdentityRecord{
		DateOfIssue:   Bilingual{Amharic: deref(ocr.IssueEC), English: deref(ocr.IssueGC)},
		FullName:      Bilingual{Amharic: layout.NameAM, English: layout.NameEN},
		DateOfBirth:   Bilingual{Amharic: layout.DOBEC, English: layout.DOBGC},
		Sex:           Bilingual{Amharic: layout.SexAM, English: layout.SexEN},
		ExpireDate:    Bilingual{Amharic: deref(ocr.ExpireEC), English: deref(ocr.ExpireGC)},
		FAN:           layout.FCN,
		PhoneNumber:   layout.PhoneNumber,
		Region:        Bilingual{Amharic: layout.RegionAM, English: layout.RegionEN},
		City:          Bilingual{Amharic: layout.SubcityAM, English: layout.SubcityEN},
		Kebele:        Bilingual{Amharic: layout.WoredaAM, English: layout.WoredaEN},
		FIN:           deref(ocr.FIN),
		PersonalImage: portrait,
		QRCodeImage:   qrImage,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
