// Package classify decides which immigration document a block of OCR text is.
package classify

import (
	"strings"

	"github.com/joseph-ayodele/immigration-docs/constants"
)

const (
	MethodRules     = "keyword_rules"
	MethodUnrelated = "unrelated_content"
	MethodNone      = "no_match"
)

// Result is the outcome of scoring one text.
type Result struct {
	DocumentType constants.DocumentType         `json:"document_type"`
	Scores       map[constants.DocumentType]int `json:"scores,omitempty"`
	Confidence   float64                        `json:"confidence"`
	Method       string                         `json:"method"`
}

// Score sums the weights of every rule entry that matches text. Types with no
// match are omitted.
func Score(text string) map[constants.DocumentType]int {
	lower := strings.ToLower(text)
	scores := make(map[constants.DocumentType]int)
	for _, r := range rules {
		s := 0
		for _, kw := range r.high {
			if strings.Contains(lower, kw) {
				s += WeightHigh
			}
		}
		for _, kw := range r.medium {
			if strings.Contains(lower, kw) {
				s += WeightMedium
			}
		}
		for _, p := range r.patterns {
			if p.MatchString(text) {
				s += WeightPattern
			}
		}
		if s > 0 {
			scores[r.docType] = s
		}
	}
	return scores
}

// Classify returns the type with the strictly highest score. A tie at the top
// is reported as unknown rather than resolved by table order.
func Classify(text string) Result {
	scores := Score(text)
	if len(scores) == 0 {
		if unrelatedHits(text) >= unrelatedThreshold {
			return Result{DocumentType: constants.DocumentTypeOther, Confidence: 0.3, Method: MethodUnrelated}
		}
		return Result{DocumentType: constants.DocumentTypeUnknown, Method: MethodNone}
	}

	var (
		best  constants.DocumentType
		top   int
		tie   bool
		total int
	)
	for dt, s := range scores {
		total += s
		switch {
		case s > top:
			best, top, tie = dt, s, false
		case s == top:
			tie = true
		}
	}
	if tie {
		return Result{DocumentType: constants.DocumentTypeUnknown, Scores: scores, Method: MethodRules}
	}
	return Result{
		DocumentType: best,
		Scores:       scores,
		Confidence:   float64(top) / float64(total),
		Method:       MethodRules,
	}
}

func unrelatedHits(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range unrelatedKeywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

// Detection is the type decision the pipeline acts on, combining the
// classifier with a caller hint.
type Detection struct {
	DocumentType constants.DocumentType         `json:"document_type"`
	Confidence   float64                        `json:"confidence"`
	Method       constants.DetectionMethod      `json:"detection_method"`
	Scores       map[constants.DocumentType]int `json:"scores,omitempty"`
}

// Detect classifies text and falls back to hint, then to "other".
func Detect(text string, hint constants.DocumentType) Detection {
	res := Classify(text)
	if res.DocumentType != constants.DocumentTypeUnknown {
		return Detection{DocumentType: res.DocumentType, Confidence: 0.9, Method: constants.DetectionOCR, Scores: res.Scores}
	}
	if hint.IsSet() {
		return Detection{DocumentType: hint, Confidence: 0.5, Method: constants.DetectionHint, Scores: res.Scores}
	}
	return Detection{DocumentType: constants.DocumentTypeOther, Confidence: 0.1, Method: constants.DetectionDefault, Scores: res.Scores}
}

// DetectOnError is used when no text could be acquired at all.
func DetectOnError(hint constants.DocumentType) Detection {
	if hint.IsSet() {
		return Detection{DocumentType: hint, Confidence: 0.3, Method: constants.DetectionHintOnError}
	}
	return Detection{DocumentType: constants.DocumentTypeOther, Method: constants.DetectionErrorDefault}
}
