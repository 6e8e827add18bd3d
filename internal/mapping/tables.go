package mapping

import (
	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

// Document metadata keys.
const (
	MetaDocumentNumber         = "document_number"
	MetaDocumentSubtype        = "document_subtype"
	MetaIssuingAuthority       = "issuing_authority"
	MetaIssueDate              = "issue_date"
	MetaExpiryDate             = "expiry_date"
	MetaRelatedImmigrationType = "related_immigration_type"
)

// DefaultConfidenceThreshold is the minimum group score for auto-populating
// profile fields.
const DefaultConfidenceThreshold = 0.7

// FieldMap copies the first set source field into Target.
type FieldMap struct {
	Target  string
	Sources []string
}

func fm(target string, sources ...string) FieldMap {
	return FieldMap{Target: target, Sources: sources}
}

// DocumentMapping is the static mapping table for one document type.
type DocumentMapping struct {
	MetadataFields      []FieldMap
	ProfileFields       []FieldMap
	ConfidenceThreshold float64
}

var genericMapping = DocumentMapping{
	MetadataFields: []FieldMap{
		fm(MetaDocumentNumber, "document_number"),
		fm(MetaIssueDate, "issue_date"),
		fm(MetaExpiryDate, "expiry_date"),
		fm(MetaIssuingAuthority, "issuing_authority"),
	},
	ConfidenceThreshold: DefaultConfidenceThreshold,
}

var mappings = map[constants.DocumentType]DocumentMapping{
	constants.DocumentTypePassport: {
		MetadataFields: []FieldMap{
			fm(MetaDocumentNumber, "passport_number", "document_number"),
			fm(MetaIssuingAuthority, "issuing_authority"),
			fm(MetaIssueDate, "issue_date"),
			fm(MetaExpiryDate, "expiry_date"),
		},
		ProfileFields: []FieldMap{
			fm(entity.ProfilePassportNumber, "passport_number", "document_number"),
			fm(entity.ProfilePassportExpiryDate, "expiry_date"),
		},
		ConfidenceThreshold: DefaultConfidenceThreshold,
	},
	constants.DocumentTypeVisa: {
		MetadataFields: []FieldMap{
			fm(MetaDocumentNumber, "control_number"),
			fm(MetaDocumentSubtype, "visa_type"),
			fm(MetaIssuingAuthority, "issuing_authority"),
			fm(MetaIssueDate, "issue_date"),
			fm(MetaExpiryDate, "expiry_date"),
			fm(MetaRelatedImmigrationType, "visa_class"),
		},
		ProfileFields: []FieldMap{
			fm(entity.ProfileVisaExpiryDate, "expiry_date"),
		},
		ConfidenceThreshold: DefaultConfidenceThreshold,
	},
	constants.DocumentTypeI94: {
		MetadataFields: []FieldMap{
			fm(MetaDocumentNumber, "i94_number"),
			fm(MetaIssueDate, "admission_date"),
			fm(MetaExpiryDate, "admit_until_date"),
			fm(MetaRelatedImmigrationType, "class_of_admission"),
		},
		ProfileFields: []FieldMap{
			fm(entity.ProfileMostRecentI94Number, "i94_number"),
			fm(entity.ProfileMostRecentEntryDate, "admission_date"),
			fm(entity.ProfileAuthorizedStayUntil, "admit_until_date"),
		},
		ConfidenceThreshold: DefaultConfidenceThreshold,
	},
	constants.DocumentTypeI797: {
		MetadataFields: []FieldMap{
			fm(MetaDocumentNumber, "receipt_number"),
			fm(MetaDocumentSubtype, "notice_type"),
			fm(MetaIssueDate, "validity_from"),
			fm(MetaExpiryDate, "validity_to"),
			fm(MetaIssuingAuthority, "issuing_authority"),
		},
		ConfidenceThreshold: DefaultConfidenceThreshold,
	},
	constants.DocumentTypeEAD: {
		MetadataFields: []FieldMap{
			fm(MetaDocumentNumber, "card_number"),
			fm(MetaDocumentSubtype, "category"),
			fm(MetaIssueDate, "issue_date"),
			fm(MetaExpiryDate, "expiry_date"),
		},
		ProfileFields: []FieldMap{
			fm(entity.ProfileEADExpiryDate, "expiry_date"),
			fm(entity.ProfileAlienRegistrationNumber, "uscis_number"),
		},
		ConfidenceThreshold: DefaultConfidenceThreshold,
	},
	constants.DocumentTypeGreenCard: {
		MetadataFields: []FieldMap{
			fm(MetaDocumentNumber, "card_number", "document_number"),
			fm(MetaIssueDate, "issue_date"),
			fm(MetaExpiryDate, "expiry_date"),
		},
		ProfileFields: []FieldMap{
			fm(entity.ProfileAlienRegistrationNumber, "uscis_number"),
		},
		ConfidenceThreshold: DefaultConfidenceThreshold,
	},
	constants.DocumentTypeDriversLicense: {
		MetadataFields: []FieldMap{
			fm(MetaDocumentNumber, "document_number"),
			fm(MetaIssuingAuthority, "issuing_authority"),
			fm(MetaIssueDate, "issue_date"),
			fm(MetaExpiryDate, "expiry_date"),
		},
		ConfidenceThreshold: DefaultConfidenceThreshold,
	},
}

// supportedOrder fixes the order SupportedDocumentTypes reports.
var supportedOrder = []constants.DocumentType{
	constants.DocumentTypePassport,
	constants.DocumentTypeVisa,
	constants.DocumentTypeI94,
	constants.DocumentTypeI797,
	constants.DocumentTypeEAD,
	constants.DocumentTypeGreenCard,
	constants.DocumentTypeDriversLicense,
}
