package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrate is idempotent")
	return NewStore(db, nil)
}

func TestOpenSQLite_BindStyle(t *testing.T) {
	db, err := OpenSQLite(context.Background(), "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	assert.Equal(t, SQLite, db.Dialect())
	assert.Equal(t, "SELECT 1 WHERE a = ?", db.Rebind("SELECT 1 WHERE a = ?"))
}

func TestProfiles_DateFieldsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p, err := s.Profiles.CreateProfile(ctx, "dates")
	require.NoError(t, err)

	values := map[string]string{
		entity.ProfileMostRecentEntryDate: "2023-08-14",
		entity.ProfileAuthorizedStayUntil: "2025-06-01",
		entity.ProfileEADExpiryDate:       "2026-12-31",
		entity.ProfileVisaExpiryDate:      "2024-02-29",
		entity.ProfilePassportExpiryDate:  "2031-01-01",
	}
	fields := make([]string, 0, len(values))
	for f, v := range values {
		require.NoError(t, p.Set(f, v))
		fields = append(fields, f)
	}
	require.NoError(t, s.Profiles.UpdateFields(ctx, p, fields))

	got, err := s.Profiles.GetByID(ctx, p.ID)
	require.NoError(t, err)
	for f, want := range values {
		v, ok := got.Get(f)
		assert.True(t, ok, f)
		assert.Equal(t, want, v, f)
	}

	require.NoError(t, p.Set(entity.ProfileVisaExpiryDate, ""))
	require.NoError(t, s.Profiles.UpdateFields(ctx, p, []string{entity.ProfileVisaExpiryDate}))
	got, err = s.Profiles.GetByName(ctx, "dates")
	require.NoError(t, err)
	assert.Nil(t, got.VisaExpiryDate)
	assert.Equal(t, "2031-01-01", got.PassportExpiryDate.String())
}

func TestProfiles_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.Profiles.CreateProfile(ctx, "Jane Doe")
	require.NoError(t, err)

	ok, err := s.Profiles.Exists(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, p.Set(entity.ProfilePassportNumber, "X1234567"))
	require.NoError(t, p.Set(entity.ProfilePassportExpiryDate, "2031-05-05"))
	require.NoError(t, s.Profiles.UpdateFields(ctx, p, []string{entity.ProfilePassportNumber, entity.ProfilePassportExpiryDate}))

	got, err := s.Profiles.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "X1234567", entity.Deref(got.PassportNumber))
	require.NotNil(t, got.PassportExpiryDate)
	assert.Equal(t, "2031-05-05", got.PassportExpiryDate.String())
	assert.Nil(t, got.EADExpiryDate)

	err = s.Profiles.UpdateFields(ctx, p, []string{"name; DROP TABLE profiles"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	list, err := s.Profiles.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProfiles_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Profiles.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.Profiles.GetForUpdate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDocuments_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p, err := s.Profiles.CreateProfile(ctx, "owner")
	require.NoError(t, err)

	d := &entity.Document{
		ProfileID:       p.ID,
		Filename:        "i797.pdf",
		MIMEType:        constants.MIMEPDF,
		ContentHash:     "abc123",
		SizeBytes:       42,
		DocumentType:    constants.DocumentTypeI797,
		DetectionMethod: constants.DetectionOCR,
		Confidence:      0.9,
		Metadata:        map[string]string{"document_number": "WAC1234567890"},
		Warnings:        []string{"low confidence for dates: 0.50 < 0.70"},
	}
	require.NoError(t, s.Documents.Create(ctx, d))
	require.NotEqual(t, uuid.Nil, d.ID)

	got, err := s.Documents.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Metadata, got.Metadata)
	assert.Equal(t, d.Warnings, got.Warnings)
	assert.Equal(t, constants.DocumentTypeI797, got.DocumentType)
	assert.Equal(t, constants.DetectionOCR, got.DetectionMethod)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)

	byHash, err := s.Documents.GetByProfileAndHash(ctx, p.ID, "abc123")
	require.NoError(t, err)
	assert.Equal(t, d.ID, byHash.ID)

	_, err = s.Documents.GetByProfileAndHash(ctx, p.ID, "other")
	assert.ErrorIs(t, err, common.ErrNotFound)

	list, err := s.Documents.ListByProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestExtractJobs_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p, err := s.Profiles.CreateProfile(ctx, "owner")
	require.NoError(t, err)

	job, err := s.Jobs.Start(ctx, p.ID, constants.IMAGE, constants.JobStatusQueued)
	require.NoError(t, err)
	require.NoError(t, s.Jobs.SetStatus(ctx, job.ID, constants.JobStatusRunning))

	doc := &entity.Document{ProfileID: p.ID, Filename: "a.png", MIMEType: constants.MIMEPNG, ContentHash: "h"}
	require.NoError(t, s.Documents.Create(ctx, doc))

	require.NoError(t, s.Jobs.FinishSuccess(ctx, job.ID, JobResult{
		DocumentID:    doc.ID,
		Method:        "tesseract",
		OCRText:       "PASSPORT",
		Confidence:    0.7,
		NeedsReview:   true,
		ExtractedJSON: []byte(`{"document_type":"passport"}`),
	}))

	got, err := s.Jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusMapped, got.Status)
	require.NotNil(t, got.DocumentID)
	assert.Equal(t, doc.ID, *got.DocumentID)
	assert.NotNil(t, got.FinishedAt)
	assert.True(t, got.NeedsReview)
	assert.JSONEq(t, `{"document_type":"passport"}`, string(got.ExtractedJSON))

	failed, err := s.Jobs.Start(ctx, p.ID, constants.PDF, constants.JobStatusRunning)
	require.NoError(t, err)
	require.NoError(t, s.Jobs.FinishFailure(ctx, failed.ID, "boom"))
	got, err = s.Jobs.GetByID(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	assert.Equal(t, "boom", *got.ErrorMessage)

	assert.ErrorIs(t, s.Jobs.SetStatus(ctx, uuid.New(), constants.JobStatusRunning), common.ErrNotFound)
}

func TestPriorityDates_AppendIsAdditiveAndDeduplicated(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p, err := s.Profiles.CreateProfile(ctx, "owner")
	require.NoError(t, err)

	added, err := s.PriorityDates.Append(ctx, &entity.PriorityDate{ProfileID: p.ID, Date: "2019-05-20", DocumentType: constants.DocumentTypeI797})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.PriorityDates.Append(ctx, &entity.PriorityDate{ProfileID: p.ID, Date: "2019-05-20", DocumentType: constants.DocumentTypeI797})
	require.NoError(t, err)
	assert.False(t, added)

	added, err = s.PriorityDates.Append(ctx, &entity.PriorityDate{ProfileID: p.ID, Date: "2015-01-02", DocumentType: constants.DocumentTypeI797})
	require.NoError(t, err)
	assert.True(t, added)

	list, err := s.PriorityDates.ListByProfile(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2015-01-02", list[0].Date)
	assert.Equal(t, "2019-05-20", list[1].Date)

	_, err = s.PriorityDates.Append(ctx, &entity.PriorityDate{ProfileID: p.ID, Date: "05/20/2019", DocumentType: constants.DocumentTypeI797})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p, err := s.Profiles.CreateProfile(ctx, "owner")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithTx(ctx, func(tx *Store) error {
		locked, err := tx.Profiles.GetForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := locked.Set(entity.ProfileEADExpiryDate, "2027-01-01"); err != nil {
			return err
		}
		if err := tx.Profiles.UpdateFields(ctx, locked, []string{entity.ProfileEADExpiryDate}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Profiles.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.EADExpiryDate)

	require.NoError(t, s.WithTx(ctx, func(tx *Store) error {
		locked, err := tx.Profiles.GetForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		_ = locked.Set(entity.ProfileEADExpiryDate, "2027-01-01")
		return tx.Profiles.UpdateFields(ctx, locked, []string{entity.ProfileEADExpiryDate})
	}))
	got, err = s.Profiles.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EADExpiryDate)
	assert.Equal(t, "2027-01-01", got.EADExpiryDate.String())
}
