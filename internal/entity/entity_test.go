package entity

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldTableCoversAccessors(t *testing.T) {
	var d ExtractedData
	for _, f := range ExtractedFields() {
		if f.Kind == KindDate {
			require.NoError(t, f.SetString(&d, "2024-03-01"), f.Name)
		} else {
			require.NoError(t, f.SetString(&d, "X"), f.Name)
		}
		assert.True(t, f.IsSet(&d), f.Name)
	}
	assert.Len(t, d.PopulatedFields(), len(ExtractedFields()))
	assert.False(t, d.IsEmpty())
}

func TestFieldSetStringRejectsBadDate(t *testing.T) {
	var d ExtractedData
	f, ok := FieldByName("expiry_date")
	require.True(t, ok)
	assert.Error(t, f.SetString(&d, "D/S"))
	assert.Nil(t, d.ExpiryDate)
}

func TestBlankStringStaysUnset(t *testing.T) {
	var d ExtractedData
	f, _ := FieldByName("full_name")
	require.NoError(t, f.SetString(&d, "   "))
	assert.Nil(t, d.FullName)
	assert.True(t, d.IsEmpty())
}

func TestExtractedDataJSONUsesISODates(t *testing.T) {
	d := ExtractedData{
		ReceiptNumber: Str("WAC1234567890"),
		ValidityFrom:  Date(civil.Date{Year: 2024, Month: 3, Day: 1}),
	}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"receipt_number":"WAC1234567890","validity_from":"2024-03-01"}`, string(b))
}

func TestProfileGetSet(t *testing.T) {
	var p Profile
	require.NoError(t, p.Set(ProfileVisaExpiryDate, "2025-06-01"))
	v, ok := p.Get(ProfileVisaExpiryDate)
	assert.True(t, ok)
	assert.Equal(t, "2025-06-01", v)

	require.NoError(t, p.Set(ProfilePassportNumber, "X12345678"))
	assert.Equal(t, "X12345678", Deref(p.PassportNumber))

	assert.Error(t, p.Set("favourite_colour", "blue"))
	assert.Error(t, p.Set(ProfileEADExpiryDate, "soon"))
}
