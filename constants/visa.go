package constants

import (
	"regexp"
	"strings"
)

var visaAliases = map[string]string{
	"H1B":   "H-1B",
	"H1B1":  "H-1B1",
	"H4":    "H-4",
	"L1":    "L-1",
	"L1A":   "L-1A",
	"L1B":   "L-1B",
	"L2":    "L-2",
	"F1":    "F-1",
	"F2":    "F-2",
	"J1":    "J-1",
	"J2":    "J-2",
	"O1":    "O-1",
	"O1A":   "O-1A",
	"O1B":   "O-1B",
	"E2":    "E-2",
	"E3":    "E-3",
	"TN":    "TN",
	"B1":    "B-1",
	"B2":    "B-2",
	"B1B2":  "B-1/B-2",
	"B1/B2": "B-1/B-2",
}

var reVisaShape = regexp.MustCompile(`^([A-Z])(\d{1,2})([A-Z]?\d?)$`)

// CanonicalVisaType normalizes visa/admission class spellings: "H1B", "h-1b"
// and "H 1B" all become "H-1B". The bool is false when the input does not look
// like a visa class at all.
func CanonicalVisaType(input string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(input))
	if s == "" {
		return "", false
	}
	key := strings.NewReplacer("-", "", " ", "", ".", "").Replace(s)
	if v, ok := visaAliases[key]; ok {
		return v, true
	}
	if m := reVisaShape.FindStringSubmatch(key); m != nil {
		return m[1] + "-" + m[2] + m[3], true
	}
	return s, false
}

// EADCategory describes an employment authorization eligibility code.
type EADCategory struct {
	Code        string
	Description string
	StatusCode  string // related immigration status, advisory only
}

var eadCategories = map[string]EADCategory{
	"C09": {Code: "C09", Description: "H-4 spouse of H-1B", StatusCode: "H-4"},
	"C10": {Code: "C10", Description: "L-2 spouse of L-1", StatusCode: "L-2"},
	"A05": {Code: "A05", Description: "Asylee", StatusCode: "ASYLEE"},
	"C03": {Code: "C03", Description: "F-1 student", StatusCode: "F-1"},
	"C08": {Code: "C08", Description: "Asylum applicant", StatusCode: "ASYLUM_APPLICANT"},
}

// LookupEADCategory accepts "c09", "C9", "(C09)" and similar spellings.
func LookupEADCategory(code string) (EADCategory, bool) {
	s := strings.ToUpper(strings.Trim(strings.TrimSpace(code), "()"))
	s = strings.ReplaceAll(s, " ", "")
	if len(s) == 2 {
		s = s[:1] + "0" + s[1:]
	}
	if len(s) > 3 {
		// drop a trailing sub-letter such as C03C
		if c, ok := eadCategories[s[:3]]; ok {
			return c, true
		}
	}
	c, ok := eadCategories[s]
	return c, ok
}
