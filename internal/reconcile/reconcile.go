// Package reconcile decides which mapped profile updates may overwrite the
// stored immigration profile. Ingestion augments a profile; it never regresses it.
package reconcile

import (
	"maps"
	"slices"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

// Reasons recorded on each FieldChange.
const (
	ReasonUnset        = "unset"
	ReasonNewerEntry   = "newer_i94"
	ReasonOlderEntry   = "older_i94"
	ReasonEntryUnknown = "entry_date_unknown"
	ReasonLaterDate    = "later_date"
	ReasonNotLater     = "not_later"
	ReasonIdentityOnce = "identity_already_set"
	ReasonNoRule       = "no_overwrite_rule"
	ReasonUnchanged    = "unchanged"
	ReasonInvalidValue = "invalid_value"
	ReasonUnknownField = "unknown_field"
)

// Options carries the context needed by the I-94 rule.
type Options struct {
	// SourceDate is the entry date of the incoming document when the update
	// set itself carries none.
	SourceDate *civil.Date
	// CurrentI94Date is the entry date of the I-94 the stored values came
	// from, when the profile itself has none recorded.
	CurrentI94Date *civil.Date
}

// FieldChange describes one decision.
type FieldChange struct {
	Field  string `json:"field"`
	Old    string `json:"old,omitempty"`
	New    string `json:"new"`
	Reason string `json:"reason"`
}

// Decision is the reconciled profile plus the audit of every update.
type Decision struct {
	Profile entity.Profile `json:"profile"`
	Applied []FieldChange  `json:"applied"`
	Skipped []FieldChange  `json:"skipped"`
}

// Reconcile applies updates to a copy of current. Fields are visited in name
// order so the outcome is deterministic. Rules, by precedence: an unset field
// is written; I-94 fields follow the newest entry; expiry dates only move
// forward; identity numbers are written once; anything else is left alone.
func Reconcile(current entity.Profile, updates map[string]string, opts Options) Decision {
	d := Decision{Profile: current}
	incomingEntry := entryDate(updates, opts.SourceDate)
	storedEntry := current.MostRecentEntryDate
	if storedEntry == nil {
		storedEntry = opts.CurrentI94Date
	}

	for _, field := range slices.Sorted(maps.Keys(updates)) {
		value := strings.TrimSpace(updates[field])
		old, isSet := current.Get(field)
		change := FieldChange{Field: field, Old: old, New: value}

		if !slices.Contains(entity.ProfileFields, field) {
			d.skip(change, ReasonUnknownField)
			continue
		}
		if value == "" {
			d.skip(change, ReasonInvalidValue)
			continue
		}
		if isSet && old == value {
			d.skip(change, ReasonUnchanged)
			continue
		}

		var reason string
		switch {
		case !isSet:
			reason = ReasonUnset
		case isI94Field(field):
			reason = compareEntry(incomingEntry, storedEntry)
		case isExpiryField(field):
			reason = compareExpiry(current, field, value)
		case field == entity.ProfilePassportNumber || field == entity.ProfileAlienRegistrationNumber:
			reason = ReasonIdentityOnce
		default:
			reason = ReasonNoRule
		}

		if !writes(reason) {
			d.skip(change, reason)
			continue
		}
		if err := d.Profile.Set(field, value); err != nil {
			d.skip(change, ReasonInvalidValue)
			continue
		}
		change.Reason = reason
		d.Applied = append(d.Applied, change)
	}
	return d
}

func (d *Decision) skip(c FieldChange, reason string) {
	c.Reason = reason
	d.Skipped = append(d.Skipped, c)
}

func writes(reason string) bool {
	return reason == ReasonUnset || reason == ReasonNewerEntry || reason == ReasonLaterDate
}

// isI94Field covers every profile field sourced from an I-94 admission record.
func isI94Field(field string) bool {
	switch field {
	case entity.ProfileMostRecentEntryDate, entity.ProfileMostRecentI94Number, entity.ProfileAuthorizedStayUntil:
		return true
	}
	return false
}

func isExpiryField(field string) bool {
	return strings.HasSuffix(field, "_expiry_date")
}

func entryDate(updates map[string]string, fallback *civil.Date) *civil.Date {
	if v, ok := updates[entity.ProfileMostRecentEntryDate]; ok {
		if d, err := civil.ParseDate(strings.TrimSpace(v)); err == nil {
			return &d
		}
	}
	return fallback
}

// compareEntry accepts an incoming I-94 that is not older than the stored one.
func compareEntry(incoming, stored *civil.Date) string {
	switch {
	case incoming == nil:
		return ReasonEntryUnknown
	case stored == nil || !incoming.Before(*stored):
		return ReasonNewerEntry
	default:
		return ReasonOlderEntry
	}
}

func compareExpiry(current entity.Profile, field, value string) string {
	incoming, err := civil.ParseDate(value)
	if err != nil {
		return ReasonInvalidValue
	}
	stored, ok := current.GetDate(field)
	if !ok || incoming.After(stored) {
		return ReasonLaterDate
	}
	return ReasonNotLater
}
