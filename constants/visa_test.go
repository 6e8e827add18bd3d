package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalVisaType(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"H1B", "H-1B", true},
		{"h-1b", "H-1B", true},
		{"H 1B", "H-1B", true},
		{"L1", "L-1", true},
		{"B1/B2", "B-1/B-2", true},
		{"R1", "R-1", true},
		{"TN", "TN", true},
		{"", "", false},
		{"banana", "BANANA", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := CanonicalVisaType(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestLookupEADCategory(t *testing.T) {
	c, ok := LookupEADCategory("c09")
	assert.True(t, ok)
	assert.Equal(t, "H-4", c.StatusCode)

	c, ok = LookupEADCategory("(C9)")
	assert.True(t, ok)
	assert.Equal(t, "C09", c.Code)

	_, ok = LookupEADCategory("Z99")
	assert.False(t, ok)
}

func TestParseDocumentType(t *testing.T) {
	tests := map[string]DocumentType{
		"I-94":             DocumentTypeI94,
		"i 797":            DocumentTypeI797,
		"Green Card":       DocumentTypeGreenCard,
		"driver's license": DocumentTypeDriversLicense,
		"EAD":              DocumentTypeEAD,
	}
	for in, want := range tests {
		got, ok := ParseDocumentType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseDocumentType("receipt")
	assert.False(t, ok)
}

func TestMIMEHelpers(t *testing.T) {
	assert.Equal(t, PDF, MapMIMEToFormat("application/pdf"))
	assert.Equal(t, IMAGE, MapMIMEToFormat("image/webp"))
	assert.Equal(t, IMAGE, MapMIMEToFormat("IMAGE/JPG; q=1"))
	assert.Equal(t, "", MapMIMEToFormat("image/gif"))
	assert.False(t, IsSupportedMIME("text/plain"))
	assert.Equal(t, MIMETIFF, MIMEFromExt(".TIF"))
}
