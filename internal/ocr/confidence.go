package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate     = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b\d{1,2}\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{2,4}\b`)
	reDocNum   = regexp.MustCompile(`\b[a-z]{3}\d{10}\b|\b\d{3}-\d{3}-\d{3}\b|\b[a-z]{1,2}\d{7,8}\b|\b\d{11}\b`)
	reDocLabel = regexp.MustCompile(`passport|visa|uscis|i-?94|i-?797|admission|receipt|employment authorization|permanent resident|license`)
)

// heuristicConfidence scores how much decoded text looks like an identity document.
func heuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	if reDate.MatchString(txtL) {
		score += 0.2
	}
	if reDocNum.MatchString(txtL) {
		score += 0.2
	}
	if reDocLabel.MatchString(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// blendConfidence weights tesseract's word confidence over the text heuristic.
func blendConfidence(ocrConf, heurConf float32) float32 {
	conf := heurConf
	if ocrConf > 0 {
		conf = 0.7*ocrConf + 0.3*heurConf
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
