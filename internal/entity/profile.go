package entity

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Profile field names shared by the mapper, reconciler and store.
const (
	ProfileMostRecentI94Number     = "most_recent_i94_number"
	ProfileMostRecentEntryDate     = "most_recent_entry_date"
	ProfileAlienRegistrationNumber = "alien_registration_number"
	ProfileAuthorizedStayUntil     = "authorized_stay_until"
	ProfileEADExpiryDate           = "ead_expiry_date"
	ProfileVisaExpiryDate          = "visa_expiry_date"
	ProfilePassportNumber          = "passport_number"
	ProfilePassportExpiryDate      = "passport_expiry_date"
	ProfilePassportCountry         = "passport_country"
	ProfileCurrentStatusCode       = "current_status_code"
)

// ProfileFields lists every reconcilable profile field.
var ProfileFields = []string{
	ProfileMostRecentI94Number,
	ProfileMostRecentEntryDate,
	ProfileAlienRegistrationNumber,
	ProfileAuthorizedStayUntil,
	ProfileEADExpiryDate,
	ProfileVisaExpiryDate,
	ProfilePassportNumber,
	ProfilePassportExpiryDate,
	ProfilePassportCountry,
	ProfileCurrentStatusCode,
}

// Profile is the immigration profile a document upload may update.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MostRecentI94Number     *string     `json:"most_recent_i94_number,omitempty"`
	MostRecentEntryDate     *civil.Date `json:"most_recent_entry_date,omitempty"`
	AlienRegistrationNumber *string     `json:"alien_registration_number,omitempty"`
	AuthorizedStayUntil     *civil.Date `json:"authorized_stay_until,omitempty"`
	EADExpiryDate           *civil.Date `json:"ead_expiry_date,omitempty"`
	VisaExpiryDate          *civil.Date `json:"visa_expiry_date,omitempty"`
	PassportNumber          *string     `json:"passport_number,omitempty"`
	PassportExpiryDate      *civil.Date `json:"passport_expiry_date,omitempty"`
	PassportCountry         *string     `json:"passport_country,omitempty"`
	CurrentStatusCode       *string     `json:"current_status_code,omitempty"`
}

// IsDateField reports whether a profile field holds a calendar date.
func IsDateField(field string) bool {
	switch field {
	case ProfileMostRecentEntryDate, ProfileAuthorizedStayUntil, ProfileEADExpiryDate,
		ProfileVisaExpiryDate, ProfilePassportExpiryDate:
		return true
	}
	return false
}

func (p *Profile) datePtr(field string) **civil.Date {
	switch field {
	case ProfileMostRecentEntryDate:
		return &p.MostRecentEntryDate
	case ProfileAuthorizedStayUntil:
		return &p.AuthorizedStayUntil
	case ProfileEADExpiryDate:
		return &p.EADExpiryDate
	case ProfileVisaExpiryDate:
		return &p.VisaExpiryDate
	case ProfilePassportExpiryDate:
		return &p.PassportExpiryDate
	}
	return nil
}

func (p *Profile) strPtr(field string) **string {
	switch field {
	case ProfileMostRecentI94Number:
		return &p.MostRecentI94Number
	case ProfileAlienRegistrationNumber:
		return &p.AlienRegistrationNumber
	case ProfilePassportNumber:
		return &p.PassportNumber
	case ProfilePassportCountry:
		return &p.PassportCountry
	case ProfileCurrentStatusCode:
		return &p.CurrentStatusCode
	}
	return nil
}

// Get returns a field's value as a string (dates as YYYY-MM-DD).
func (p *Profile) Get(field string) (string, bool) {
	if dp := p.datePtr(field); dp != nil {
		if *dp == nil {
			return "", false
		}
		return (*dp).String(), true
	}
	if sp := p.strPtr(field); sp != nil {
		if *sp == nil {
			return "", false
		}
		return **sp, true
	}
	return "", false
}

// GetDate returns a date field's value.
func (p *Profile) GetDate(field string) (civil.Date, bool) {
	dp := p.datePtr(field)
	if dp == nil || *dp == nil {
		return civil.Date{}, false
	}
	return **dp, true
}

// Set stores value into field. Date fields must be YYYY-MM-DD; blank clears.
func (p *Profile) Set(field, value string) error {
	value = strings.TrimSpace(value)
	if dp := p.datePtr(field); dp != nil {
		if value == "" {
			*dp = nil
			return nil
		}
		d, err := civil.ParseDate(value)
		if err != nil || !d.IsValid() {
			return fmt.Errorf("profile %s: invalid date %q", field, value)
		}
		*dp = &d
		return nil
	}
	if sp := p.strPtr(field); sp != nil {
		*sp = Str(value)
		return nil
	}
	return fmt.Errorf("unknown profile field %q", field)
}
