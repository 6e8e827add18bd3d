package entity

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// FieldKind distinguishes text fields from calendar-date fields.
type FieldKind int

const (
	KindString FieldKind = iota
	KindDate
)

// Field is a named accessor into ExtractedData. The table below replaces
// attribute iteration by name; adding a field to ExtractedData means adding a row.
type Field struct {
	Name string
	Kind FieldKind
	str  func(*ExtractedData) **string
	date func(*ExtractedData) **civil.Date
}

func strField(name string, f func(*ExtractedData) **string) Field {
	return Field{Name: name, Kind: KindString, str: f}
}

func dateField(name string, f func(*ExtractedData) **civil.Date) Field {
	return Field{Name: name, Kind: KindDate, date: f}
}

var extractedFields = []Field{
	strField("full_name", func(d *ExtractedData) **string { return &d.FullName }),
	strField("first_name", func(d *ExtractedData) **string { return &d.FirstName }),
	strField("last_name", func(d *ExtractedData) **string { return &d.LastName }),
	dateField("date_of_birth", func(d *ExtractedData) **civil.Date { return &d.DateOfBirth }),
	strField("nationality", func(d *ExtractedData) **string { return &d.Nationality }),
	strField("gender", func(d *ExtractedData) **string { return &d.Gender }),
	strField("document_number", func(d *ExtractedData) **string { return &d.DocumentNumber }),
	strField("issuing_authority", func(d *ExtractedData) **string { return &d.IssuingAuthority }),
	strField("place_of_issue", func(d *ExtractedData) **string { return &d.PlaceOfIssue }),
	dateField("issue_date", func(d *ExtractedData) **civil.Date { return &d.IssueDate }),
	dateField("expiry_date", func(d *ExtractedData) **civil.Date { return &d.ExpiryDate }),
	strField("passport_number", func(d *ExtractedData) **string { return &d.PassportNumber }),
	strField("visa_type", func(d *ExtractedData) **string { return &d.VisaType }),
	strField("visa_class", func(d *ExtractedData) **string { return &d.VisaClass }),
	strField("control_number", func(d *ExtractedData) **string { return &d.ControlNumber }),
	strField("entries", func(d *ExtractedData) **string { return &d.Entries }),
	strField("i94_number", func(d *ExtractedData) **string { return &d.I94Number }),
	dateField("admission_date", func(d *ExtractedData) **civil.Date { return &d.AdmissionDate }),
	dateField("admit_until_date", func(d *ExtractedData) **civil.Date { return &d.AdmitUntilDate }),
	strField("class_of_admission", func(d *ExtractedData) **string { return &d.ClassOfAdmission }),
	strField("receipt_number", func(d *ExtractedData) **string { return &d.ReceiptNumber }),
	dateField("priority_date", func(d *ExtractedData) **civil.Date { return &d.PriorityDate }),
	strField("notice_type", func(d *ExtractedData) **string { return &d.NoticeType }),
	dateField("validity_from", func(d *ExtractedData) **civil.Date { return &d.ValidityFrom }),
	dateField("validity_to", func(d *ExtractedData) **civil.Date { return &d.ValidityTo }),
	strField("beneficiary_name", func(d *ExtractedData) **string { return &d.BeneficiaryName }),
	strField("petitioner_name", func(d *ExtractedData) **string { return &d.PetitionerName }),
	strField("uscis_number", func(d *ExtractedData) **string { return &d.USCISNumber }),
	strField("category", func(d *ExtractedData) **string { return &d.Category }),
	strField("card_number", func(d *ExtractedData) **string { return &d.CardNumber }),
}

var fieldIndex = func() map[string]Field {
	m := make(map[string]Field, len(extractedFields))
	for _, f := range extractedFields {
		m[f.Name] = f
	}
	return m
}()

// ExtractedFields returns the field table in declaration order.
func ExtractedFields() []Field {
	out := make([]Field, len(extractedFields))
	copy(out, extractedFields)
	return out
}

// FieldByName looks up a field by its JSON name.
func FieldByName(name string) (Field, bool) {
	f, ok := fieldIndex[name]
	return f, ok
}

// IsSet reports whether the field holds a value in d.
func (f Field) IsSet(d *ExtractedData) bool {
	if f.Kind == KindDate {
		return *f.date(d) != nil
	}
	return *f.str(d) != nil
}

// Value renders the field as a string; dates use ISO YYYY-MM-DD.
func (f Field) Value(d *ExtractedData) (string, bool) {
	if f.Kind == KindDate {
		v := *f.date(d)
		if v == nil {
			return "", false
		}
		return v.String(), true
	}
	v := *f.str(d)
	if v == nil {
		return "", false
	}
	return *v, true
}

// DateValue returns the date held by a date field.
func (f Field) DateValue(d *ExtractedData) (civil.Date, bool) {
	if f.Kind != KindDate {
		return civil.Date{}, false
	}
	v := *f.date(d)
	if v == nil {
		return civil.Date{}, false
	}
	return *v, true
}

// CopyFrom sets dst's field to src's value (including nil).
func (f Field) CopyFrom(dst, src *ExtractedData) {
	if f.Kind == KindDate {
		if v := *f.date(src); v != nil {
			c := *v
			*f.date(dst) = &c
		} else {
			*f.date(dst) = nil
		}
		return
	}
	if v := *f.str(src); v != nil {
		c := *v
		*f.str(dst) = &c
	} else {
		*f.str(dst) = nil
	}
}

// SetString parses and stores value. Date fields require YYYY-MM-DD.
// A blank value clears the field.
func (f Field) SetString(d *ExtractedData, value string) error {
	value = strings.TrimSpace(value)
	if f.Kind == KindDate {
		if value == "" {
			*f.date(d) = nil
			return nil
		}
		parsed, err := civil.ParseDate(value)
		if err != nil || !parsed.IsValid() {
			return fmt.Errorf("%s: invalid date %q", f.Name, value)
		}
		*f.date(d) = &parsed
		return nil
	}
	*f.str(d) = Str(value)
	return nil
}

// SetDate stores a date into a date field.
func (f Field) SetDate(d *ExtractedData, value civil.Date) error {
	if f.Kind != KindDate {
		return fmt.Errorf("%s: not a date field", f.Name)
	}
	*f.date(d) = Date(value)
	return nil
}

func trimSpace(s string) string { return strings.TrimSpace(s) }
