// Package extract turns acquired document text into an ExtractedData record
// using per-type regular expressions and keyword proximity.
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

// regexConfidence sits at the default auto-populate threshold of the mapper.
const regexConfidence = 0.7

var errNoDate = errors.New("no date found")

var nowFunc = time.Now

type FieldExtractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *FieldExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldExtractor{logger: logger}
}

// Extract never fails: missing fields stay nil and malformed matches become
// warnings.
func (x *FieldExtractor) Extract(text string, docType constants.DocumentType) (out entity.ExtractedData) {
	out.DocumentType = docType
	out.ExtractedText = text

	defer func() {
		if r := recover(); r != nil {
			x.logger.Error("extract.panic", "document_type", docType, "panic", r)
			out.AddWarning(fmt.Sprintf("Extraction error: %v", r))
		}
	}()

	switch docType {
	case constants.DocumentTypePassport:
		extractPassport(text, &out)
	case constants.DocumentTypeVisa:
		extractVisa(text, &out)
	case constants.DocumentTypeI94:
		extractI94(text, &out)
	case constants.DocumentTypeI797:
		extractI797(text, &out)
	case constants.DocumentTypeEAD:
		extractEAD(text, &out)
	case constants.DocumentTypeGreenCard:
		extractGeneric(text, &out)
		extractGreenCard(text, &out)
	case constants.DocumentTypeDriversLicense:
		extractGeneric(text, &out)
		extractDriversLicense(text, &out)
	default:
		extractGeneric(text, &out)
	}

	scoreGroups(&out)
	x.logger.Debug("extract.done",
		"document_type", docType,
		"fields", len(out.PopulatedFields()),
		"warnings", len(out.Warnings),
	)
	return out
}

func scoreGroups(d *entity.ExtractedData) {
	scored := false
	set := func(group string, ok bool) {
		if ok {
			d.SetConfidence(group, regexConfidence)
			scored = true
		}
	}
	set(entity.ConfidenceDocumentNumber, d.DocumentNumber != nil)
	set(entity.ConfidenceDates, hasDate(d))
	set(entity.ConfidenceNames, d.FullName != nil || d.FirstName != nil || d.LastName != nil ||
		d.BeneficiaryName != nil || d.PetitionerName != nil)
	if scored {
		d.SetConfidence(entity.ConfidenceOverall, regexConfidence)
	}
}

func hasDate(d *entity.ExtractedData) bool {
	for _, f := range entity.ExtractedFields() {
		if f.Kind == entity.KindDate && f.IsSet(d) {
			return true
		}
	}
	return false
}
