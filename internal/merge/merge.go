// Package merge combines the regex and vision extraction results.
package merge

import (
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

// Merge builds a new record from base (regex) and vision. Vision values win
// wherever they are set; base fills the gaps. Warnings are concatenated base
// first without de-duplication, and the extracted text always comes from base.
// Neither input is modified.
func Merge(base, vision entity.ExtractedData) entity.ExtractedData {
	out := entity.ExtractedData{
		DocumentType:  base.DocumentType,
		ExtractedText: base.ExtractedText,
	}
	if vision.DocumentType.IsSet() {
		out.DocumentType = vision.DocumentType
	}

	for _, f := range entity.ExtractedFields() {
		if f.IsSet(&vision) {
			f.CopyFrom(&out, &vision)
		} else {
			f.CopyFrom(&out, &base)
		}
	}

	// A vision D/S reading overrides a regex date; a regex D/S only survives
	// when vision produced no admit-until date of its own.
	out.DurationOfStatus = vision.DurationOfStatus ||
		(base.DurationOfStatus && vision.AdmitUntilDate == nil)
	if out.DurationOfStatus {
		out.AdmitUntilDate = nil
	}

	if n := len(base.Warnings) + len(vision.Warnings); n > 0 {
		out.Warnings = make([]string, 0, n)
		out.Warnings = append(out.Warnings, base.Warnings...)
		out.Warnings = append(out.Warnings, vision.Warnings...)
	}

	for k, v := range base.ConfidenceScores {
		out.SetConfidence(k, v)
	}
	for k, v := range vision.ConfidenceScores {
		out.SetConfidence(k, v)
	}
	return out
}
