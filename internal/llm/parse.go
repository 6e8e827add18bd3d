package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

var reDurationOfStatus = regexp.MustCompile(`(?i)^d\s*/\s*s$`)

// upperFields are normalized to upper case after mapping.
var upperFields = []string{"gender", "visa_class", "class_of_admission", "category", "entries"}

type visionAnswer struct {
	DocumentType     string             `json:"document_type"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
}

// ParseVisionResponse turns a raw model answer into ExtractedData. The answer
// is located, sanitized and schema checked; individual values that fail to
// parse become warnings instead of failing the whole answer.
func ParseVisionResponse(text string, docType constants.DocumentType) (entity.ExtractedData, error) {
	return parseVisionResponse(text, docType, nil)
}

func parseVisionResponse(text string, docType constants.DocumentType, logger *slog.Logger) (entity.ExtractedData, error) {
	out := entity.ExtractedData{DocumentType: docType}

	obj, err := ExtractJSONObject(text)
	if err != nil {
		return out, err
	}
	clean, _, err := NormalizeAndSanitizeJSON([]byte(obj), logger)
	if err != nil {
		return out, err
	}
	if err := ValidateJSONAgainstSchema(BuildVisionJSONSchema(), clean); err != nil {
		return out, fmt.Errorf("schema validation failed: %w", err)
	}

	var values map[string]any
	if err := json.Unmarshal(clean, &values); err != nil {
		return out, fmt.Errorf("unmarshal fields: %w", err)
	}
	var answer visionAnswer
	if err := json.Unmarshal(clean, &answer); err != nil {
		return out, fmt.Errorf("unmarshal fields: %w", err)
	}

	if dt := constants.DocumentType(strings.ToLower(answer.DocumentType)); dt.IsSet() {
		out.DocumentType = dt
	} else if dt, ok := constants.ParseDocumentType(answer.DocumentType); ok {
		out.DocumentType = dt
	}

	for _, f := range entity.ExtractedFields() {
		raw, ok := values[f.Name].(string)
		if !ok {
			continue
		}
		if f.Kind == entity.KindDate {
			if reDurationOfStatus.MatchString(raw) {
				out.AddWarning(f.Name + ": Duration of Status (D/S)")
				if f.Name == "admit_until_date" {
					out.DurationOfStatus = true
				}
				continue
			}
			if err := f.SetString(&out, raw); err != nil {
				out.AddWarning(fmt.Sprintf("Could not parse date: %s=%s", f.Name, raw))
			}
			continue
		}
		_ = f.SetString(&out, raw)
	}

	for _, name := range upperFields {
		f, _ := entity.FieldByName(name)
		if v, ok := f.Value(&out); ok {
			_ = f.SetString(&out, strings.ToUpper(v))
		}
	}
	if out.VisaType != nil {
		if v, ok := constants.CanonicalVisaType(*out.VisaType); ok {
			out.VisaType = entity.Str(v)
		}
	}
	if out.Entries != nil && (*out.Entries == "MULTI" || *out.Entries == "M") {
		out.Entries = entity.Str("MULTIPLE")
	}

	for group, score := range answer.ConfidenceScores {
		out.SetConfidence(group, score)
	}
	return out, nil
}
