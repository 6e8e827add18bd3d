// Package mapping turns merged extraction results into document metadata and
// candidate profile updates.
package mapping

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"cloud.google.com/go/civil"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

const (
	warnGeneric          = "Unknown document type - using generic mapping"
	warnDurationOfStatus = "I-94 shows Duration of Status (D/S) - no specific end date"
	maxDocumentNumberLen = 64
)

// Mapper applies the static per-type tables. It holds no per-document state
// and is safe for concurrent use.
type Mapper struct {
	logger *slog.Logger
}

func NewMapper(logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{logger: logger}
}

// Map builds the MappingResult for data interpreted as docType. Types without
// a table fall back to the four generic fields.
func (m *Mapper) Map(data entity.ExtractedData, docType constants.DocumentType) entity.MappingResult {
	res := entity.NewMappingResult(docType)
	maps.Copy(res.ConfidenceInfo, data.ConfidenceScores)

	mapping, ok := mappings[docType]
	if !ok {
		m.logger.Warn("mapping.generic", "document_type", docType)
		res.Warnings = append(res.Warnings, warnGeneric)
		copyFields(res.DocumentMetadata, genericMapping.MetadataFields, &data)
		return res
	}

	copyFields(res.DocumentMetadata, mapping.MetadataFields, &data)
	updates := map[string]string{}
	copyFields(updates, mapping.ProfileFields, &data)

	applyDocumentRules(&res, updates, &data, docType)
	gateProfileUpdates(&res, updates, mapping.ConfidenceThreshold)

	m.logger.Info("mapping.ok",
		"document_type", docType,
		"metadata", len(res.DocumentMetadata),
		"profile_updates", len(res.ProfileUpdates),
		"warnings", len(res.Warnings),
	)
	return res
}

func copyFields(dst map[string]string, fields []FieldMap, data *entity.ExtractedData) {
	for _, f := range fields {
		for _, src := range f.Sources {
			field, ok := entity.FieldByName(src)
			if !ok {
				continue
			}
			if v, ok := field.Value(data); ok {
				dst[f.Target] = v
				break
			}
		}
	}
}

func applyDocumentRules(res *entity.MappingResult, updates map[string]string, data *entity.ExtractedData, docType constants.DocumentType) {
	switch docType {
	case constants.DocumentTypePassport:
		if data.Nationality != nil {
			res.CountryLookup = entity.Str(*data.Nationality)
		}

	case constants.DocumentTypeVisa:
		related := entity.Deref(data.VisaClass)
		if v, ok := constants.CanonicalVisaType(entity.Deref(data.VisaType)); ok {
			related = v
		} else if v, ok := constants.CanonicalVisaType(related); ok {
			related = v
		}
		if related != "" {
			res.DocumentMetadata[MetaRelatedImmigrationType] = related
		}

	case constants.DocumentTypeI94:
		if v, ok := constants.CanonicalVisaType(entity.Deref(data.ClassOfAdmission)); ok {
			res.DocumentMetadata[MetaRelatedImmigrationType] = v
		}
		if data.DurationOfStatus {
			delete(updates, entity.ProfileAuthorizedStayUntil)
			delete(res.DocumentMetadata, MetaExpiryDate)
			res.Warnings = append(res.Warnings, warnDurationOfStatus)
		}

	case constants.DocumentTypeI797:
		if data.PriorityDate != nil {
			res.PriorityDateUpdate = &entity.PriorityDateUpdate{
				Date:         data.PriorityDate.String(),
				DocumentType: constants.DocumentTypeI797,
			}
		}

	case constants.DocumentTypeEAD:
		if data.Category != nil {
			if cat, ok := constants.LookupEADCategory(*data.Category); ok {
				res.StatusHint = &entity.StatusHint{
					Category:    cat.Code,
					Description: cat.Description,
					StatusCode:  cat.StatusCode,
				}
			}
		}
	}
}

// gateProfileUpdates copies updates into res.ProfileUpdates, withholding those
// whose confidence group (or the overall score) is below threshold. Groups
// without a score pass.
func gateProfileUpdates(res *entity.MappingResult, updates map[string]string, threshold float64) {
	low := map[string]bool{}
	for _, group := range slices.Sorted(maps.Keys(res.ConfidenceInfo)) {
		if score := res.ConfidenceInfo[group]; score < threshold {
			low[group] = true
			res.Warnings = append(res.Warnings, fmt.Sprintf("low confidence for %s: %.2f < %.2f", group, score, threshold))
		}
	}

	for _, field := range slices.Sorted(maps.Keys(updates)) {
		group := entity.ConfidenceDocumentNumber
		if entity.IsDateField(field) {
			group = entity.ConfidenceDates
		}
		if low[entity.ConfidenceOverall] || low[group] {
			res.Warnings = append(res.Warnings, "profile update withheld for "+field+": low confidence")
			continue
		}
		res.ProfileUpdates[field] = updates[field]
	}
}

// SupportedDocumentTypes lists the types with a dedicated mapping table.
func SupportedDocumentTypes() []constants.DocumentType {
	return slices.Clone(supportedOrder)
}

// Info describes a mapping table.
type Info struct {
	MetadataFields      []string `json:"document_metadata_fields"`
	ProfileFields       []string `json:"profile_update_fields"`
	ConfidenceThreshold float64  `json:"confidence_threshold"`
}

// MappingInfo reports the targets of docType's table.
func MappingInfo(docType constants.DocumentType) (Info, bool) {
	mapping, ok := mappings[docType]
	if !ok {
		return Info{}, false
	}
	info := Info{
		MetadataFields:      make([]string, 0, len(mapping.MetadataFields)),
		ProfileFields:       make([]string, 0, len(mapping.ProfileFields)),
		ConfidenceThreshold: mapping.ConfidenceThreshold,
	}
	for _, f := range mapping.MetadataFields {
		info.MetadataFields = append(info.MetadataFields, f.Target)
	}
	for _, f := range mapping.ProfileFields {
		info.ProfileFields = append(info.ProfileFields, f.Target)
	}
	return info, true
}

// Validate re-checks a result before it is persisted: date-valued entries must
// be YYYY-MM-DD and the document number must be a plausible length. Offending
// entries are dropped with a warning. The input is not modified.
func Validate(res entity.MappingResult) entity.MappingResult {
	out := res
	out.DocumentMetadata = maps.Clone(res.DocumentMetadata)
	out.ProfileUpdates = maps.Clone(res.ProfileUpdates)
	out.Warnings = slices.Clone(res.Warnings)

	for _, group := range []map[string]string{out.DocumentMetadata, out.ProfileUpdates} {
		for _, field := range slices.Sorted(maps.Keys(group)) {
			if !isDateKey(field) {
				continue
			}
			if _, err := civil.ParseDate(group[field]); err != nil {
				out.Warnings = append(out.Warnings, fmt.Sprintf("Invalid date format for %s: %s", field, group[field]))
				delete(group, field)
			}
		}
	}

	if n, ok := out.DocumentMetadata[MetaDocumentNumber]; ok {
		switch {
		case n == "":
			out.Warnings = append(out.Warnings, "Empty or invalid document number")
			delete(out.DocumentMetadata, MetaDocumentNumber)
		case len(n) > maxDocumentNumberLen:
			out.Warnings = append(out.Warnings, fmt.Sprintf("Document number too long (%d characters)", len(n)))
			delete(out.DocumentMetadata, MetaDocumentNumber)
		}
	}
	if out.PriorityDateUpdate != nil {
		if _, err := civil.ParseDate(out.PriorityDateUpdate.Date); err != nil {
			out.Warnings = append(out.Warnings, "Invalid date format for priority_date: "+out.PriorityDateUpdate.Date)
			out.PriorityDateUpdate = nil
		}
	}
	return out
}

func isDateKey(field string) bool {
	return field == MetaIssueDate || field == MetaExpiryDate || entity.IsDateField(field)
}
