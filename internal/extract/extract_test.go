package extract

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/classify"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

func date(y int, m int, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func requireDate(t *testing.T, want civil.Date, got *civil.Date) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want civil.Date
	}{
		{"03/01/2024", date(2024, 3, 1)},
		{"3-1-24", date(2024, 3, 1)},
		{"12/31/99", date(1999, 12, 31)},
		{"01/01/30", date(1930, 1, 1)},
		{"01/01/29", date(2029, 1, 1)},
		{"15 JAN 23", date(2023, 1, 15)},
		{"05 January 1998", date(1998, 1, 5)},
		{"JAN 05, 1998", date(1998, 1, 5)},
		{"Feb 29 2024", date(2024, 2, 29)},
		{"2024-03-01", date(2024, 3, 1)},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDate(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want.String(), got.String())
		})
	}

	for _, bad := range []string{"13/45/2020", "02/30/2023", "hello", "", "15 JAN 202"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestFindDateNear(t *testing.T) {
	got, warnings := FindDateNear("Passport\nDate issued: 15 JAN 23\nExpires 01/01/2030", "issued")
	assert.Empty(t, warnings)
	requireDate(t, date(2023, 1, 15), got)

	got, _ = FindDateNear("DOB JAN 05, 1998", "dob")
	requireDate(t, date(1998, 1, 5), got)

	// The window ends at the line break.
	got, _ = FindDateNear("Expires\n01/01/2030", "expires")
	assert.Nil(t, got)
}

func TestFindDateNear_MalformedIsWarnedAndSkipped(t *testing.T) {
	got, warnings := FindDateNear("Date of Expiry: 13/45/2030\nExpires 01/02/2030", "date of expiry", "expires")
	requireDate(t, date(2030, 1, 2), got)
	require.Len(t, warnings, 1)
	assert.Equal(t, `Could not parse date near "date of expiry": 13/45/2030`, warnings[0])
}

func TestExtract_I797EndToEnd(t *testing.T) {
	text := "Receipt Number: WAC1234567890\nNotice of Approval\nValid from: 03/01/2024\nValid to: 02/28/2027"

	docType := classify.Classify(text).DocumentType
	require.Equal(t, constants.DocumentTypeI797, docType)

	got := New(nil).Extract(text, docType)
	assert.Equal(t, constants.DocumentTypeI797, got.DocumentType)
	assert.Equal(t, "WAC1234567890", entity.Deref(got.ReceiptNumber))
	assert.Equal(t, "WAC1234567890", entity.Deref(got.DocumentNumber))
	assert.Equal(t, "APPROVAL", entity.Deref(got.NoticeType))
	requireDate(t, date(2024, 3, 1), got.ValidityFrom)
	requireDate(t, date(2027, 2, 28), got.ValidityTo)
	assert.Empty(t, got.Warnings)
	assert.Equal(t, text, got.ExtractedText)
}

func TestExtract_I797Details(t *testing.T) {
	text := strings.Join([]string{
		"I-797 NOTICE OF ACTION",
		"Receipt Number EAC2190012345",
		"Notice Type: Approval Notice",
		"Petitioner: ACME CORP",
		"Beneficiary: JOHN DOE",
		"Priority Date: 05/10/2021",
		"Valid from 10/01/2023 to 09/30/2026",
	}, "\n")
	got := New(nil).Extract(text, constants.DocumentTypeI797)

	assert.Equal(t, "EAC2190012345", entity.Deref(got.ReceiptNumber))
	assert.Equal(t, "APPROVAL", entity.Deref(got.NoticeType))
	assert.Equal(t, "ACME CORP", entity.Deref(got.PetitionerName))
	assert.Equal(t, "JOHN DOE", entity.Deref(got.BeneficiaryName))
	requireDate(t, date(2021, 5, 10), got.PriorityDate)
	requireDate(t, date(2023, 10, 1), got.ValidityFrom)
	requireDate(t, date(2026, 9, 30), got.ValidityTo)
}

func TestExtract_Passport(t *testing.T) {
	text := strings.Join([]string{
		"UNITED STATES OF AMERICA PASSPORT",
		"Passport No. X12345678",
		"Surname: DOE",
		"Given Names: JOHN MICHAEL",
		"Nationality: UNITED STATES OF AMERICA",
		"Date of Birth: 15 MAR 1985",
		"Sex: M",
		"Date of Issue: 10 JAN 2020",
		"Date of Expiry: 09 JAN 2030",
		"Authority: United States Department of State",
	}, "\n")
	got := New(nil).Extract(text, constants.DocumentTypePassport)

	assert.Equal(t, "X12345678", entity.Deref(got.PassportNumber))
	assert.Equal(t, "X12345678", entity.Deref(got.DocumentNumber))
	assert.Equal(t, "JOHN MICHAEL DOE", entity.Deref(got.FullName))
	assert.Equal(t, "JOHN MICHAEL", entity.Deref(got.FirstName))
	assert.Equal(t, "DOE", entity.Deref(got.LastName))
	assert.Equal(t, "UNITED STATES OF AMERICA", entity.Deref(got.Nationality))
	assert.Equal(t, "M", entity.Deref(got.Gender))
	assert.Equal(t, "United States Department of State", entity.Deref(got.IssuingAuthority))
	requireDate(t, date(1985, 3, 15), got.DateOfBirth)
	requireDate(t, date(2020, 1, 10), got.IssueDate)
	requireDate(t, date(2030, 1, 9), got.ExpiryDate)
	assert.Empty(t, got.Warnings)

	assert.InDelta(t, 0.7, got.ConfidenceScores[entity.ConfidenceOverall], 1e-9)
	assert.Contains(t, got.ConfidenceScores, entity.ConfidenceNames)
}

func TestExtract_PassportGenderNeedsLabel(t *testing.T) {
	got := New(nil).Extract("PASSPORT\nM F\nPassport No. X12345678", constants.DocumentTypePassport)
	assert.Nil(t, got.Gender)
}

func TestExtract_PassportMRZFillsGaps(t *testing.T) {
	text := "PASSPORT\n" +
		"P<USADOE<<JOHN<MICHAEL<<<<<<<<<<<<<<<<<<<<<<\n" +
		"X123456784USA8503151M3001095<<<<<<<<<<<<<<04"
	got := New(nil).Extract(text, constants.DocumentTypePassport)

	assert.Equal(t, "X12345678", entity.Deref(got.PassportNumber))
	assert.Equal(t, "X12345678", entity.Deref(got.DocumentNumber))
	assert.Equal(t, "USA", entity.Deref(got.Nationality))
	assert.Equal(t, "M", entity.Deref(got.Gender))
	assert.Equal(t, "DOE", entity.Deref(got.LastName))
	assert.Equal(t, "JOHN MICHAEL", entity.Deref(got.FirstName))
	assert.Equal(t, "JOHN MICHAEL DOE", entity.Deref(got.FullName))
	requireDate(t, date(1985, 3, 15), got.DateOfBirth)
	requireDate(t, date(2030, 1, 9), got.ExpiryDate)
}

func TestExtract_Visa(t *testing.T) {
	text := strings.Join([]string{
		"UNITED STATES OF AMERICA NONIMMIGRANT VISA",
		"Control Number: 20231234567",
		"Visa Type/Class: H1B",
		"Name: JOHN DOE",
		"Issue Date: 15 JAN 2023",
		"Expiration Date: 14 JAN 2026",
		"MULTIPLE ENTRY",
	}, "\n")
	got := New(nil).Extract(text, constants.DocumentTypeVisa)

	assert.Equal(t, "20231234567", entity.Deref(got.ControlNumber))
	assert.Equal(t, "20231234567", entity.Deref(got.DocumentNumber))
	assert.Equal(t, "H-1B", entity.Deref(got.VisaType))
	assert.Equal(t, "H-1B", entity.Deref(got.VisaClass))
	assert.Equal(t, "MULTIPLE", entity.Deref(got.Entries))
	assert.Equal(t, "JOHN DOE", entity.Deref(got.FullName))
	requireDate(t, date(2023, 1, 15), got.IssueDate)
	requireDate(t, date(2026, 1, 14), got.ExpiryDate)
}

func TestExtract_I94DurationOfStatus(t *testing.T) {
	text := strings.Join([]string{
		"Most Recent I-94",
		"Admission (I-94) Record Number: 12345678901",
		"Admitted: 08/15/2023",
		"Class of Admission: F1",
		"Admit Until Date: D/S",
	}, "\n")
	got := New(nil).Extract(text, constants.DocumentTypeI94)

	assert.Equal(t, "12345678901", entity.Deref(got.I94Number))
	assert.Equal(t, "12345678901", entity.Deref(got.DocumentNumber))
	assert.Equal(t, "F-1", entity.Deref(got.ClassOfAdmission))
	requireDate(t, date(2023, 8, 15), got.AdmissionDate)
	assert.Nil(t, got.AdmitUntilDate)
	assert.True(t, got.DurationOfStatus)
	assert.Contains(t, got.Warnings, "admit_until_date: Duration of Status (D/S)")
}

func TestExtract_I94AdmitUntilDate(t *testing.T) {
	text := "I-94 Number 98765432101\nAdmitted Until: 08/14/2026\nAdmission Date: 08/15/2023"
	got := New(nil).Extract(text, constants.DocumentTypeI94)

	requireDate(t, date(2026, 8, 14), got.AdmitUntilDate)
	requireDate(t, date(2023, 8, 15), got.AdmissionDate)
	assert.False(t, got.DurationOfStatus)
}

func TestExtract_EAD(t *testing.T) {
	text := strings.Join([]string{
		"EMPLOYMENT AUTHORIZATION CARD",
		"USCIS# 123-456-789",
		"Category: C09",
		"Card# SRC1234567890",
		"Name: JANE ROE SMITH",
		"Valid From: 01/01/2024",
		"Card Expires: 12/31/2025",
	}, "\n")
	got := New(nil).Extract(text, constants.DocumentTypeEAD)

	assert.Equal(t, "123-456-789", entity.Deref(got.USCISNumber))
	assert.Equal(t, "SRC1234567890", entity.Deref(got.CardNumber))
	assert.Equal(t, "SRC1234567890", entity.Deref(got.DocumentNumber))
	assert.Equal(t, "C09", entity.Deref(got.Category))
	assert.Equal(t, "JANE ROE SMITH", entity.Deref(got.FullName))
	requireDate(t, date(2024, 1, 1), got.IssueDate)
	requireDate(t, date(2025, 12, 31), got.ExpiryDate)

	got = New(nil).Extract("Employment Authorization\nCategory (c08)", constants.DocumentTypeEAD)
	assert.Equal(t, "C08", entity.Deref(got.Category))
}

func TestExtract_GreenCard(t *testing.T) {
	text := "PERMANENT RESIDENT\nUSCIS# 123-456-789\nCategory: IR1\nCard# SRC1234567890\nName: JOHN DOE\nCard Expires: 04/01/2031"
	got := New(nil).Extract(text, constants.DocumentTypeGreenCard)

	assert.Equal(t, "123-456-789", entity.Deref(got.USCISNumber))
	assert.Equal(t, "IR1", entity.Deref(got.Category))
	assert.Equal(t, "SRC1234567890", entity.Deref(got.CardNumber))
	assert.Equal(t, "SRC1234567890", entity.Deref(got.DocumentNumber))
	requireDate(t, date(2031, 4, 1), got.ExpiryDate)
}

func TestExtract_DriversLicense(t *testing.T) {
	text := "DRIVER LICENSE\nDL NO: D1234567\nName: JANE ROE\nIssued 01/01/2020\nExpires 01/01/2028"
	got := New(nil).Extract(text, constants.DocumentTypeDriversLicense)

	assert.Equal(t, "D1234567", entity.Deref(got.DocumentNumber))
	assert.Equal(t, "JANE ROE", entity.Deref(got.FullName))
	requireDate(t, date(2020, 1, 1), got.IssueDate)
	requireDate(t, date(2028, 1, 1), got.ExpiryDate)
}

func TestExtract_Generic(t *testing.T) {
	text := "Some Document\nName: JANE ROE\nIssued: 01/02/2020\nExpires: 01/02/2030\nNumber A12345678"
	for _, dt := range []constants.DocumentType{constants.DocumentTypeOther, constants.DocumentTypeUnknown, ""} {
		got := New(nil).Extract(text, dt)
		assert.Equal(t, dt, got.DocumentType)
		assert.Equal(t, "A12345678", entity.Deref(got.DocumentNumber))
		assert.Equal(t, "JANE ROE", entity.Deref(got.FullName))
		requireDate(t, date(2020, 1, 2), got.IssueDate)
		requireDate(t, date(2030, 1, 2), got.ExpiryDate)

		assert.InDelta(t, 0.7, got.ConfidenceScores[entity.ConfidenceDocumentNumber], 1e-9)
		assert.InDelta(t, 0.7, got.ConfidenceScores[entity.ConfidenceDates], 1e-9)
		assert.InDelta(t, 0.7, got.ConfidenceScores[entity.ConfidenceNames], 1e-9)
		assert.InDelta(t, 0.7, got.ConfidenceScores[entity.ConfidenceOverall], 1e-9)
	}
}

func TestExtract_NameLengthBounds(t *testing.T) {
	x := New(nil)
	assert.Nil(t, x.Extract("Name: ABC", constants.DocumentTypeOther).FullName)
	assert.Equal(t, "ABCD", entity.Deref(x.Extract("Name: ABCD", constants.DocumentTypeOther).FullName))
	long := "Name: " + strings.Repeat("A", 100)
	assert.Nil(t, x.Extract(long, constants.DocumentTypeOther).FullName)
	assert.Equal(t, "JOHN DOE", entity.Deref(x.Extract("Name:   JOHN    DOE", constants.DocumentTypeOther).FullName))
}

func TestExtract_EmptyText(t *testing.T) {
	for _, dt := range constants.AllDocumentTypes() {
		got := New(nil).Extract("", dt)
		assert.True(t, got.IsEmpty(), dt)
		assert.Empty(t, got.Warnings, dt)
		assert.Empty(t, got.ConfidenceScores, dt)
	}
}
