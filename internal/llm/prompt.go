package llm

import (
	"strings"

	"github.com/joseph-ayodele/immigration-docs/constants"
)

// SystemPrompt is sent as the system message by providers that support one.
const SystemPrompt = "You are an expert at extracting structured data from immigration documents. " +
	"Return ONLY a single JSON object. Do NOT wrap the response in code fences."

var baseKeys = []promptKey{
	{"document_type", "passport, visa, i94, i797, ead, green_card, drivers_license or other"},
	{"document_number", "primary document number"},
	{"full_name", "full name as printed"},
	{"first_name", "given name(s)"},
	{"last_name", "surname / family name"},
	{"date_of_birth", "YYYY-MM-DD"},
	{"nationality", "country of citizenship"},
	{"passport_number", "passport number if shown"},
	{"issue_date", "YYYY-MM-DD"},
	{"expiry_date", "YYYY-MM-DD"},
	{"issuing_authority", "issuing authority or office"},
	{"place_of_issue", "place of issue"},
	{"gender", "M or F"},
}

var typeKeys = map[constants.DocumentType][]promptKey{
	constants.DocumentTypeVisa: {
		{"visa_type", "visa type, e.g. H-1B, F-1, L-1"},
		{"visa_class", "visa class / annotation"},
		{"control_number", "control number"},
		{"entries", "number of entries, e.g. M or 1"},
	},
	constants.DocumentTypeI94: {
		{"i94_number", "11 digit admission record number"},
		{"admission_date", "YYYY-MM-DD"},
		{"admit_until_date", "YYYY-MM-DD or 'D/S'"},
		{"class_of_admission", "class of admission, e.g. H1B"},
	},
	constants.DocumentTypeI797: {
		{"receipt_number", "receipt number, e.g. EAC2190012345"},
		{"priority_date", "YYYY-MM-DD"},
		{"notice_type", "Approval Notice, Receipt Notice, ..."},
		{"validity_from", "YYYY-MM-DD"},
		{"validity_to", "YYYY-MM-DD"},
		{"beneficiary_name", "beneficiary name"},
		{"petitioner_name", "petitioner / employer name"},
	},
	constants.DocumentTypeEAD: {
		{"uscis_number", "USCIS # / A-number"},
		{"category", "category code, e.g. C09"},
		{"card_number", "card number"},
	},
	constants.DocumentTypeGreenCard: {
		{"uscis_number", "USCIS # / A-number"},
		{"category", "category code"},
		{"card_number", "card number"},
	},
}

type promptKey struct {
	name string
	hint string
}

// PromptKeys lists the JSON keys requested for docType, in prompt order.
func PromptKeys(docType constants.DocumentType) []string {
	keys := append(append([]promptKey{}, baseKeys...), typeKeys[docType]...)
	out := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		out = append(out, k.name)
	}
	return append(out, "confidence_scores")
}

// BuildVisionPrompt returns the user instruction for extracting docType from
// an image. It names every expected key so the answer maps onto ExtractedData.
func BuildVisionPrompt(docType constants.DocumentType) string {
	label := "immigration document"
	if docType.IsSet() {
		label = docType.Label()
	}

	var b strings.Builder
	b.WriteString("Extract the information from this ")
	b.WriteString(label)
	b.WriteString(" and return it as a JSON object with these keys:\n")
	for _, k := range append(append([]promptKey{}, baseKeys...), typeKeys[docType]...) {
		b.WriteString("- \"")
		b.WriteString(k.name)
		b.WriteString("\": ")
		b.WriteString(k.hint)
		b.WriteString("\n")
	}
	b.WriteString("- \"confidence_scores\": {\"overall\": 0.0-1.0, \"document_type\": 0.0-1.0, \"dates\": 0.0-1.0, \"names\": 0.0-1.0}\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- All dates must be YYYY-MM-DD.\n")
	if docType == constants.DocumentTypeI94 {
		b.WriteString("- If the admit until date reads D/S, return the literal string \"D/S\".\n")
	}
	b.WriteString("- Omit keys that are not visible on the document. Never output null.\n")
	b.WriteString("- Return ONLY the JSON object.\n")
	return b.String()
}
