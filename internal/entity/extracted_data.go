package entity

import (
	"cloud.google.com/go/civil"

	"github.com/joseph-ayodele/immigration-docs/constants"
)

// ExtractedData is the canonical extraction record. One instance is produced per
// strategy (regex, vision); the merge step builds a new one from both.
// Nil pointers mean "not extracted"; a non-nil string is never empty.
type ExtractedData struct {
	DocumentType constants.DocumentType `json:"document_type,omitempty"`

	// identity
	FullName    *string     `json:"full_name,omitempty"`
	FirstName   *string     `json:"first_name,omitempty"`
	LastName    *string     `json:"last_name,omitempty"`
	DateOfBirth *civil.Date `json:"date_of_birth,omitempty"`
	Nationality *string     `json:"nationality,omitempty"`
	Gender      *string     `json:"gender,omitempty"`

	// document control
	DocumentNumber   *string     `json:"document_number,omitempty"`
	IssuingAuthority *string     `json:"issuing_authority,omitempty"`
	PlaceOfIssue     *string     `json:"place_of_issue,omitempty"`
	IssueDate        *civil.Date `json:"issue_date,omitempty"`
	ExpiryDate       *civil.Date `json:"expiry_date,omitempty"`

	PassportNumber *string `json:"passport_number,omitempty"`

	// visa
	VisaType      *string `json:"visa_type,omitempty"`
	VisaClass     *string `json:"visa_class,omitempty"`
	ControlNumber *string `json:"control_number,omitempty"`
	Entries       *string `json:"entries,omitempty"`

	// I-94
	I94Number        *string     `json:"i94_number,omitempty"`
	AdmissionDate    *civil.Date `json:"admission_date,omitempty"`
	AdmitUntilDate   *civil.Date `json:"admit_until_date,omitempty"`
	ClassOfAdmission *string     `json:"class_of_admission,omitempty"`

	// I-797
	ReceiptNumber   *string     `json:"receipt_number,omitempty"`
	PriorityDate    *civil.Date `json:"priority_date,omitempty"`
	NoticeType      *string     `json:"notice_type,omitempty"`
	ValidityFrom    *civil.Date `json:"validity_from,omitempty"`
	ValidityTo      *civil.Date `json:"validity_to,omitempty"`
	BeneficiaryName *string     `json:"beneficiary_name,omitempty"`
	PetitionerName  *string     `json:"petitioner_name,omitempty"`

	// EAD
	USCISNumber *string `json:"uscis_number,omitempty"`
	Category    *string `json:"category,omitempty"`
	CardNumber  *string `json:"card_number,omitempty"`

	// DurationOfStatus is set when the admit-until value was "D/S". The date
	// field stays nil in that case.
	DurationOfStatus bool `json:"duration_of_status,omitempty"`

	ConfidenceScores map[string]float64 `json:"confidence_scores,omitempty"`
	Warnings         []string           `json:"warnings,omitempty"`
	ExtractedText    string             `json:"extracted_text,omitempty"`
}

// Confidence group names.
const (
	ConfidenceOverall        = "overall"
	ConfidenceDocumentType   = "document_type"
	ConfidenceDocumentNumber = "document_number"
	ConfidenceDates          = "dates"
	ConfidenceNames          = "names"
)

// AddWarning appends a human readable caveat.
func (d *ExtractedData) AddWarning(msg string) {
	d.Warnings = append(d.Warnings, msg)
}

// SetConfidence records a 0..1 score for a field group, clamping out-of-range values.
func (d *ExtractedData) SetConfidence(group string, v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	if d.ConfidenceScores == nil {
		d.ConfidenceScores = make(map[string]float64)
	}
	d.ConfidenceScores[group] = v
}

// IsEmpty reports whether no field was populated. Warnings and text do not count.
func (d *ExtractedData) IsEmpty() bool {
	for _, f := range extractedFields {
		if f.IsSet(d) {
			return false
		}
	}
	return !d.DurationOfStatus
}

// PopulatedFields lists the names of populated fields in declaration order.
func (d *ExtractedData) PopulatedFields() []string {
	var out []string
	for _, f := range extractedFields {
		if f.IsSet(d) {
			out = append(out, f.Name)
		}
	}
	return out
}

// Str returns a pointer to a trimmed copy of s, or nil when s is blank.
func Str(s string) *string {
	s = trimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Date returns a pointer to d, or nil when d is not a valid calendar date.
func Date(d civil.Date) *civil.Date {
	if !d.IsValid() {
		return nil
	}
	return &d
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
