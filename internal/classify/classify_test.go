package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/immigration-docs/constants"
)

const i797Text = `DEPARTMENT OF HOMELAND SECURITY
U.S. CITIZENSHIP AND IMMIGRATION SERVICES
I-797 NOTICE OF ACTION
Receipt Number WAC1234567890
Notice Type: Approval Notice
Valid from 03/01/2024 to 02/28/2027`

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want constants.DocumentType
	}{
		{"i797", i797Text, constants.DocumentTypeI797},
		{"passport", "UNITED STATES OF AMERICA PASSPORT\nPassport No. X12345678\nNationality: USA", constants.DocumentTypePassport},
		{"i94", "Most Recent I-94\nAdmission (I-94) Record Number 12345678901\nAdmit Until Date: D/S\nClass of Admission: F-1", constants.DocumentTypeI94},
		{"ead", "EMPLOYMENT AUTHORIZATION DOCUMENT\nUSCIS# 123-456-789\nCategory: C09\nCard Expires 01/01/2026", constants.DocumentTypeEAD},
		{"visa", "NONIMMIGRANT VISA\nVisa Type: H-1B\nControl No: 20231234567", constants.DocumentTypeVisa},
		{"green card", "PERMANENT RESIDENT CARD\nLawful permanent resident since 2019", constants.DocumentTypeGreenCard},
		{"drivers license", "DRIVER LICENSE\nDL NO: D1234567\nDepartment of Motor Vehicle", constants.DocumentTypeDriversLicense},
		{"unrelated", "A blog post about our engineering team and the software project", constants.DocumentTypeOther},
		{"nothing", "lorem ipsum dolor sit amet", constants.DocumentTypeUnknown},
		{"empty", "", constants.DocumentTypeUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.text).DocumentType)
		})
	}
}

func TestClassify_TwoUnrelatedKeywordsStayUnknown(t *testing.T) {
	res := Classify("a newsletter tutorial")
	assert.Equal(t, constants.DocumentTypeUnknown, res.DocumentType)
	assert.Equal(t, MethodNone, res.Method)
}

func TestClassify_TieIsUnknown(t *testing.T) {
	// passport: high "passport number" + medium "passport" = 15
	// i94: high "admission number" + medium "i94" = 15
	even := "passport number\nadmission number i94"
	s := Score(even)
	require.Equal(t, WeightHigh+WeightMedium, s[constants.DocumentTypePassport])
	require.Equal(t, s[constants.DocumentTypePassport], s[constants.DocumentTypeI94])

	res := Classify(even)
	assert.Equal(t, constants.DocumentTypeUnknown, res.DocumentType)
	assert.Equal(t, MethodRules, res.Method)
	assert.Len(t, res.Scores, 2)
}

func TestClassify_Deterministic(t *testing.T) {
	first := Classify(i797Text)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Classify(i797Text))
	}
}

func TestScore_Weights(t *testing.T) {
	s := Score("receipt number")
	// high "receipt number" + pattern `receipt\s+number`
	assert.Equal(t, WeightHigh+WeightPattern, s[constants.DocumentTypeI797])

	s = Score("RECEIPT NUMBER")
	assert.Equal(t, WeightHigh+WeightPattern, s[constants.DocumentTypeI797], "matching is case-insensitive")
}

func TestScore_AddingHighKeywordNeverLowers(t *testing.T) {
	base := "Admission 12345678901\npassport"
	before := Score(base)
	for _, r := range rules {
		for _, kw := range r.high {
			after := Score(base + "\n" + kw)
			assert.GreaterOrEqual(t, after[r.docType], before[r.docType]+WeightHigh, "%s/%s", r.docType, kw)
		}
	}
}

func TestScore_LosingTypeStaysLosingAfterOneHighMatch(t *testing.T) {
	before := Score(i797Text)
	require.Greater(t, before[constants.DocumentTypeI797]-before[constants.DocumentTypeEAD], WeightHigh)

	res := Classify(i797Text + "\nwork permit")
	assert.Equal(t, constants.DocumentTypeI797, res.DocumentType)
}

func TestDetect(t *testing.T) {
	d := Detect(i797Text, constants.DocumentTypePassport)
	assert.Equal(t, constants.DocumentTypeI797, d.DocumentType)
	assert.Equal(t, constants.DetectionOCR, d.Method)
	assert.InDelta(t, 0.9, d.Confidence, 1e-9)

	d = Detect("nothing here", constants.DocumentTypeEAD)
	assert.Equal(t, constants.DocumentTypeEAD, d.DocumentType)
	assert.Equal(t, constants.DetectionHint, d.Method)
	assert.InDelta(t, 0.5, d.Confidence, 1e-9)

	d = Detect("nothing here", "")
	assert.Equal(t, constants.DocumentTypeOther, d.DocumentType)
	assert.Equal(t, constants.DetectionDefault, d.Method)
	assert.InDelta(t, 0.1, d.Confidence, 1e-9)

	d = DetectOnError(constants.DocumentTypeVisa)
	assert.Equal(t, constants.DetectionHintOnError, d.Method)
	d = DetectOnError(constants.DocumentTypeUnknown)
	assert.Equal(t, constants.DocumentTypeOther, d.DocumentType)
	assert.Equal(t, constants.DetectionErrorDefault, d.Method)
}

func TestRulesCoverEveryConcreteType(t *testing.T) {
	seen := map[constants.DocumentType]bool{}
	for _, r := range rules {
		seen[r.docType] = true
		for _, kw := range append(append([]string{}, r.high...), r.medium...) {
			assert.Equal(t, strings.ToLower(kw), kw, "keywords are matched against lower-cased text")
		}
	}
	for _, dt := range constants.AllDocumentTypes() {
		if dt == constants.DocumentTypeOther {
			continue
		}
		assert.True(t, seen[dt], dt)
	}
}
