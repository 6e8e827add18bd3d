package constants

import (
	"strings"
)

// DocumentType is the closed set of immigration documents the pipeline understands.
// The zero value means "not set".
type DocumentType string

const (
	DocumentTypePassport       DocumentType = "passport"
	DocumentTypeVisa           DocumentType = "visa"
	DocumentTypeI94            DocumentType = "i94"
	DocumentTypeI797           DocumentType = "i797"
	DocumentTypeEAD            DocumentType = "ead"
	DocumentTypeGreenCard      DocumentType = "green_card"
	DocumentTypeDriversLicense DocumentType = "drivers_license"
	DocumentTypeOther          DocumentType = "other"

	// DocumentTypeUnknown is a classifier outcome, never a stored type.
	DocumentTypeUnknown DocumentType = "unknown"
)

var allDocumentTypes = []DocumentType{
	DocumentTypePassport,
	DocumentTypeVisa,
	DocumentTypeI94,
	DocumentTypeI797,
	DocumentTypeEAD,
	DocumentTypeGreenCard,
	DocumentTypeDriversLicense,
	DocumentTypeOther,
}

// AllDocumentTypes returns the supported document types in a stable order.
func AllDocumentTypes() []DocumentType {
	out := make([]DocumentType, len(allDocumentTypes))
	copy(out, allDocumentTypes)
	return out
}

func (t DocumentType) String() string { return string(t) }

// IsSet reports whether t is one of the supported types.
func (t DocumentType) IsSet() bool {
	for _, dt := range allDocumentTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// Label is the human-facing name used in prompts and reports.
func (t DocumentType) Label() string {
	switch t {
	case DocumentTypePassport:
		return "Passport"
	case DocumentTypeVisa:
		return "U.S. Visa"
	case DocumentTypeI94:
		return "I-94 Arrival/Departure Record"
	case DocumentTypeI797:
		return "I-797 Notice of Action"
	case DocumentTypeEAD:
		return "Employment Authorization Document"
	case DocumentTypeGreenCard:
		return "Permanent Resident Card"
	case DocumentTypeDriversLicense:
		return "Driver's License"
	case DocumentTypeOther:
		return "Other Document"
	default:
		return "Unknown Document"
	}
}

// ParseDocumentType accepts user supplied hints such as "I-94", "i 797",
// "Green Card" or "driver's license".
func ParseDocumentType(input string) (DocumentType, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return "", false
	}
	r := strings.NewReplacer("-", "", " ", "", "_", "", "'", "", ".", "")
	key := r.Replace(s)

	synonyms := map[string]DocumentType{
		"passport":              DocumentTypePassport,
		"visa":                  DocumentTypeVisa,
		"i94":                   DocumentTypeI94,
		"i797":                  DocumentTypeI797,
		"i797a":                 DocumentTypeI797,
		"i797c":                 DocumentTypeI797,
		"ead":                   DocumentTypeEAD,
		"i766":                  DocumentTypeEAD,
		"greencard":             DocumentTypeGreenCard,
		"i551":                  DocumentTypeGreenCard,
		"permanentresidentcard": DocumentTypeGreenCard,
		"driverslicense":        DocumentTypeDriversLicense,
		"driverlicense":         DocumentTypeDriversLicense,
		"other":                 DocumentTypeOther,
	}
	if dt, ok := synonyms[key]; ok {
		return dt, true
	}
	return "", false
}
