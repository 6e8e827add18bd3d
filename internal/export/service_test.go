package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
	"github.com/joseph-ayodele/immigration-docs/internal/repository"
)

func TestDocumentsXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.OpenSQLite(ctx, "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	store := repository.NewStore(db, nil)

	p, err := store.Profiles.CreateProfile(ctx, "Jane Doe")
	require.NoError(t, err)
	require.NoError(t, p.Set(entity.ProfileEADExpiryDate, "2027-01-01"))
	require.NoError(t, store.Profiles.UpdateFields(ctx, p, []string{entity.ProfileEADExpiryDate}))

	doc := &entity.Document{
		ProfileID:       p.ID,
		Filename:        "ead.pdf",
		MIMEType:        constants.MIMEPDF,
		ContentHash:     "h1",
		DocumentType:    constants.DocumentTypeEAD,
		DetectionMethod: constants.DetectionOCR,
		Confidence:      0.9,
		Metadata:        map[string]string{"document_number": "SRC1234567890", "expiry_date": "2027-01-01", "document_subtype": "C09"},
		Warnings:        []string{"a", "b"},
	}
	require.NoError(t, store.Documents.Create(ctx, doc))
	_, err = store.PriorityDates.Append(ctx, &entity.PriorityDate{ProfileID: p.ID, Date: "2019-05-20", DocumentType: constants.DocumentTypeI797})
	require.NoError(t, err)

	out, err := NewService(store, nil).DocumentsXLSX(ctx, p.ID)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetDocuments, sheetProfile, sheetPriority}, f.GetSheetList())

	rows, err := f.GetRows(sheetDocuments)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, documentHeaders, rows[0])
	assert.Equal(t, "ead.pdf", rows[1][1])
	assert.Equal(t, "ead", rows[1][2])
	assert.Equal(t, "SRC1234567890", rows[1][5])
	assert.Equal(t, "2027-01-01", rows[1][7])
	assert.Equal(t, "C09", rows[1][8])
	assert.Equal(t, "a; b", rows[1][11])

	profileRows, err := f.GetRows(sheetProfile)
	require.NoError(t, err)
	found := false
	for _, r := range profileRows {
		if len(r) == 2 && r[0] == entity.ProfileEADExpiryDate {
			found = true
			assert.Equal(t, "2027-01-01", r[1])
		}
	}
	assert.True(t, found)

	prio, err := f.GetRows(sheetPriority)
	require.NoError(t, err)
	require.Len(t, prio, 2)
	assert.Equal(t, "2019-05-20", prio[1][0])
	assert.Equal(t, "i797", prio[1][1])
}

func TestDocumentsXLSX_UnknownProfile(t *testing.T) {
	ctx := context.Background()
	db, err := repository.OpenSQLite(ctx, "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	_, err = NewService(repository.NewStore(db, nil), nil).DocumentsXLSX(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
