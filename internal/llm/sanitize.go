package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

// synonyms maps keys models commonly invent onto the canonical field names.
var synonyms = map[string]string{
	"surname":          "last_name",
	"family_name":      "last_name",
	"given_name":       "first_name",
	"given_names":      "first_name",
	"name":             "full_name",
	"dob":              "date_of_birth",
	"birth_date":       "date_of_birth",
	"sex":              "gender",
	"expiration_date":  "expiry_date",
	"date_of_expiry":   "expiry_date",
	"date_of_issue":    "issue_date",
	"citizenship":      "nationality",
	"a_number":         "uscis_number",
	"alien_number":     "uscis_number",
	"admission_number": "i94_number",
	"admit_until":      "admit_until_date",
	"valid_from":       "validity_from",
	"valid_to":         "validity_to",
	"valid_until":      "validity_to",
	"confidence":       "confidence_scores",
}

// placeholders are answers that mean "not present".
var placeholders = map[string]struct{}{
	"null": {}, "none": {}, "n/a": {}, "na": {}, "unknown": {}, "not visible": {}, "not available": {}, "-": {},
}

// NormalizeAndSanitizeJSON
// - Renames known synonyms (surname -> last_name)
// - Drops null/empty/placeholder values
// - Coerces numbers to strings for text fields
// - Keeps only numeric confidence scores, rescaling percentages
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	// 1) rename synonyms
	for from, to := range synonyms {
		v, ok := m[from]
		if !ok {
			continue
		}
		if _, exists := m[to]; !exists {
			m[to] = v
		}
		delete(m, from)
		dropped = append(dropped, from+"->"+to)
	}

	// 2) confidence scores: numbers only, 0..1
	if v, ok := m["confidence_scores"]; ok {
		scores, reason := sanitizeScores(v)
		if scores == nil {
			delete(m, "confidence_scores")
			dropped = append(dropped, "confidence_scores("+reason+")")
		} else {
			m["confidence_scores"] = scores
		}
	}

	// 3) scalar fields: strings only, no placeholders
	for k, v := range maps.Clone(m) {
		if k == "confidence_scores" {
			continue
		}
		if _, known := entity.FieldByName(k); !known && k != "document_type" {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if _, ph := placeholders[strings.ToLower(s)]; s == "" || ph {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		slices.Sort(dropped)
		logger.Warn("vision.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func sanitizeScores(v any) (map[string]any, string) {
	in, ok := v.(map[string]any)
	if !ok {
		if f, ok := scoreValue(v); ok {
			return map[string]any{entity.ConfidenceOverall: f}, ""
		}
		return nil, "type"
	}
	out := make(map[string]any, len(in))
	for k, raw := range in {
		if f, ok := scoreValue(raw); ok {
			out[k] = f
		}
	}
	if len(out) == 0 {
		return nil, "empty"
	}
	return out, ""
}

func scoreValue(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(t), "%")
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if f > 1 && f <= 100 {
		f /= 100
	}
	if f < 0 || f > 1 {
		return 0, false
	}
	return f, true
}
