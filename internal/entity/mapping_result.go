package entity

import "github.com/joseph-ayodele/immigration-docs/constants"

// PriorityDateUpdate is a pending, additive priority-date record.
type PriorityDateUpdate struct {
	Date         string                 `json:"date"`
	DocumentType constants.DocumentType `json:"document_type"`
}

// StatusHint is advisory; it never overwrites recorded status.
type StatusHint struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	StatusCode  string `json:"status_code,omitempty"`
}

// MappingResult is produced per extraction and consumed by the persistence layer.
type MappingResult struct {
	DocumentType       constants.DocumentType `json:"document_type"`
	DocumentMetadata   map[string]string      `json:"document_metadata"`
	ProfileUpdates     map[string]string      `json:"profile_updates"`
	ConfidenceInfo     map[string]float64     `json:"confidence_info,omitempty"`
	Warnings           []string               `json:"warnings,omitempty"`
	CountryLookup      *string                `json:"country_lookup,omitempty"`
	PriorityDateUpdate *PriorityDateUpdate    `json:"priority_date_update,omitempty"`
	StatusHint         *StatusHint            `json:"status_hint,omitempty"`
}

// NewMappingResult returns a result with initialized maps.
func NewMappingResult(dt constants.DocumentType) MappingResult {
	return MappingResult{
		DocumentType:     dt,
		DocumentMetadata: map[string]string{},
		ProfileUpdates:   map[string]string{},
		ConfidenceInfo:   map[string]float64{},
	}
}
