package reconcile

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

func profileWith(t *testing.T, fields map[string]string) entity.Profile {
	t.Helper()
	var p entity.Profile
	for k, v := range fields {
		require.NoError(t, p.Set(k, v))
	}
	return p
}

func get(p entity.Profile, field string) string {
	v, _ := p.Get(field)
	return v
}

func TestReconcile_ExpiryNeverRegresses(t *testing.T) {
	current := profileWith(t, map[string]string{entity.ProfileVisaExpiryDate: "2025-06-01"})

	d := Reconcile(current, map[string]string{entity.ProfileVisaExpiryDate: "2024-01-01"}, Options{})
	assert.Equal(t, "2025-06-01", get(d.Profile, entity.ProfileVisaExpiryDate))
	assert.Empty(t, d.Applied)
	require.Len(t, d.Skipped, 1)
	assert.Equal(t, ReasonNotLater, d.Skipped[0].Reason)

	d = Reconcile(current, map[string]string{entity.ProfileVisaExpiryDate: "2026-01-01"}, Options{})
	assert.Equal(t, "2026-01-01", get(d.Profile, entity.ProfileVisaExpiryDate))
	require.Len(t, d.Applied, 1)
	assert.Equal(t, FieldChange{Field: entity.ProfileVisaExpiryDate, Old: "2025-06-01", New: "2026-01-01", Reason: ReasonLaterDate}, d.Applied[0])

	assert.Equal(t, "2025-06-01", get(current, entity.ProfileVisaExpiryDate), "input profile untouched")
}

func TestReconcile_ExpiryFields(t *testing.T) {
	current := profileWith(t, map[string]string{
		entity.ProfileVisaExpiryDate:     "2026-06-14",
		entity.ProfileEADExpiryDate:      "2025-12-31",
		entity.ProfilePassportExpiryDate: "2030-01-01",
	})
	d := Reconcile(current, map[string]string{
		entity.ProfileVisaExpiryDate:     "2025-01-01",
		entity.ProfileEADExpiryDate:      "2027-12-31",
		entity.ProfilePassportExpiryDate: "2030-01-01",
	}, Options{})

	assert.Equal(t, "2026-06-14", get(d.Profile, entity.ProfileVisaExpiryDate))
	assert.Equal(t, "2027-12-31", get(d.Profile, entity.ProfileEADExpiryDate))
	assert.Equal(t, "2030-01-01", get(d.Profile, entity.ProfilePassportExpiryDate))

	reasons := map[string]string{}
	for _, c := range d.Skipped {
		reasons[c.Field] = c.Reason
	}
	assert.Equal(t, map[string]string{
		entity.ProfileVisaExpiryDate:     ReasonNotLater,
		entity.ProfilePassportExpiryDate: ReasonUnchanged,
	}, reasons)
}

func TestReconcile_AuthorizedStayFollowsNewestEntry(t *testing.T) {
	current := profileWith(t, map[string]string{
		entity.ProfileAuthorizedStayUntil: "2025-06-01",
		entity.ProfileMostRecentEntryDate: "2023-06-15",
	})

	tests := []struct {
		name    string
		updates map[string]string
		opts    Options
		want    string
		reason  string
	}{
		{
			name:    "no entry date",
			updates: map[string]string{entity.ProfileAuthorizedStayUntil: "2027-01-01"},
			want:    "2025-06-01",
			reason:  ReasonEntryUnknown,
		},
		{
			name: "older admission",
			updates: map[string]string{
				entity.ProfileAuthorizedStayUntil: "2027-01-01",
				entity.ProfileMostRecentEntryDate: "2022-01-10",
			},
			want:   "2025-06-01",
			reason: ReasonOlderEntry,
		},
		{
			name: "newer admission with later stay",
			updates: map[string]string{
				entity.ProfileAuthorizedStayUntil: "2027-01-01",
				entity.ProfileMostRecentEntryDate: "2024-09-01",
			},
			want:   "2027-01-01",
			reason: ReasonNewerEntry,
		},
		{
			name:    "newer admission with shorter stay",
			updates: map[string]string{entity.ProfileAuthorizedStayUntil: "2024-12-31"},
			opts:    Options{SourceDate: &civil.Date{Year: 2024, Month: 9, Day: 1}},
			want:    "2024-12-31",
			reason:  ReasonNewerEntry,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Reconcile(current, tt.updates, tt.opts)
			assert.Equal(t, tt.want, get(d.Profile, entity.ProfileAuthorizedStayUntil))
			var reason string
			for _, c := range append(d.Applied, d.Skipped...) {
				if c.Field == entity.ProfileAuthorizedStayUntil {
					reason = c.Reason
				}
			}
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestReconcile_UnsetAlwaysWrites(t *testing.T) {
	d := Reconcile(entity.Profile{}, map[string]string{
		entity.ProfilePassportNumber:     "X12345678",
		entity.ProfilePassportExpiryDate: "2030-01-09",
		entity.ProfileCurrentStatusCode:  "H-1B",
	}, Options{})

	assert.Len(t, d.Applied, 3)
	assert.Empty(t, d.Skipped)
	for _, c := range d.Applied {
		assert.Equal(t, ReasonUnset, c.Reason)
	}
	assert.Equal(t, "X12345678", get(d.Profile, entity.ProfilePassportNumber))
}

func TestReconcile_IdentityOnce(t *testing.T) {
	current := profileWith(t, map[string]string{
		entity.ProfilePassportNumber:          "X12345678",
		entity.ProfileAlienRegistrationNumber: "A111111111",
	})
	d := Reconcile(current, map[string]string{
		entity.ProfilePassportNumber:          "Y87654321",
		entity.ProfileAlienRegistrationNumber: "A222222222",
	}, Options{})

	assert.Empty(t, d.Applied)
	assert.Equal(t, "X12345678", get(d.Profile, entity.ProfilePassportNumber))
	assert.Equal(t, "A111111111", get(d.Profile, entity.ProfileAlienRegistrationNumber))
	for _, c := range d.Skipped {
		assert.Equal(t, ReasonIdentityOnce, c.Reason)
	}
}

func TestReconcile_I94FollowsNewestEntry(t *testing.T) {
	current := profileWith(t, map[string]string{
		entity.ProfileMostRecentI94Number: "11111111111",
		entity.ProfileMostRecentEntryDate: "2023-06-15",
	})

	older := Reconcile(current, map[string]string{
		entity.ProfileMostRecentI94Number: "22222222222",
		entity.ProfileMostRecentEntryDate: "2021-01-01",
	}, Options{})
	assert.Empty(t, older.Applied)
	assert.Equal(t, "11111111111", get(older.Profile, entity.ProfileMostRecentI94Number))
	for _, c := range older.Skipped {
		assert.Equal(t, ReasonOlderEntry, c.Reason)
	}

	newer := Reconcile(current, map[string]string{
		entity.ProfileMostRecentI94Number: "33333333333",
		entity.ProfileMostRecentEntryDate: "2024-09-01",
	}, Options{})
	assert.Len(t, newer.Applied, 2)
	assert.Equal(t, "33333333333", get(newer.Profile, entity.ProfileMostRecentI94Number))
	assert.Equal(t, "2024-09-01", get(newer.Profile, entity.ProfileMostRecentEntryDate))
}

func TestReconcile_I94NumberOnlyUsesOptions(t *testing.T) {
	current := profileWith(t, map[string]string{entity.ProfileMostRecentI94Number: "11111111111"})
	updates := map[string]string{entity.ProfileMostRecentI94Number: "22222222222"}

	d := Reconcile(current, updates, Options{})
	require.Len(t, d.Skipped, 1)
	assert.Equal(t, ReasonEntryUnknown, d.Skipped[0].Reason)

	src := civil.Date{Year: 2024, Month: 2, Day: 1}
	prev := civil.Date{Year: 2023, Month: 2, Day: 1}
	d = Reconcile(current, updates, Options{SourceDate: &src, CurrentI94Date: &prev})
	require.Len(t, d.Applied, 1)
	assert.Equal(t, ReasonNewerEntry, d.Applied[0].Reason)

	d = Reconcile(current, updates, Options{SourceDate: &prev, CurrentI94Date: &src})
	assert.Empty(t, d.Applied)
}

func TestReconcile_LeavesOtherFieldsAlone(t *testing.T) {
	current := profileWith(t, map[string]string{
		entity.ProfileCurrentStatusCode: "F-1",
		entity.ProfilePassportCountry:   "CANADA",
	})
	d := Reconcile(current, map[string]string{
		entity.ProfileCurrentStatusCode: "H-4",
		entity.ProfilePassportCountry:   "INDIA",
		"favourite_colour":              "blue",
	}, Options{})

	assert.Empty(t, d.Applied)
	assert.Equal(t, "F-1", get(d.Profile, entity.ProfileCurrentStatusCode))
	reasons := map[string]string{}
	for _, c := range d.Skipped {
		reasons[c.Field] = c.Reason
	}
	assert.Equal(t, ReasonNoRule, reasons[entity.ProfileCurrentStatusCode])
	assert.Equal(t, ReasonUnknownField, reasons["favourite_colour"])
}

func TestReconcile_InvalidValues(t *testing.T) {
	current := profileWith(t, map[string]string{entity.ProfileVisaExpiryDate: "2025-06-01"})
	d := Reconcile(current, map[string]string{
		entity.ProfileVisaExpiryDate: "next year",
		entity.ProfileEADExpiryDate:  "31/12/2025",
		entity.ProfilePassportNumber: "  ",
	}, Options{})

	assert.Empty(t, d.Applied)
	require.Len(t, d.Skipped, 3)
	for _, c := range d.Skipped {
		assert.Equal(t, ReasonInvalidValue, c.Reason, c.Field)
	}
}
