package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/immigration-docs/internal/async"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
)

func testConfig() *common.Config {
	cfg := common.LoadConfig()
	cfg.Vision.Provider = "none"
	cfg.Cache = common.CacheConfig{TTL: time.Minute}
	return cfg
}

func TestNew_InMemory(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), StoreOptions{InMemory: true}, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()

	p, err := a.Profiles.GetOrCreate(ctx, "Local Batch")
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.NotNil(t, a.Documents)
	assert.NotNil(t, a.Export)
}

func TestOpenStore_RequiresDSN(t *testing.T) {
	cfg := testConfig()
	cfg.Database.DSN = ""
	_, err := OpenStore(context.Background(), cfg, StoreOptions{}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestNew_RejectsUnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Vision.Provider = "watson"
	_, err := New(context.Background(), cfg, StoreOptions{InMemory: true}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestHandleJob(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), StoreOptions{InMemory: true}, nil)
	require.NoError(t, err)
	defer a.Close()

	p, err := a.Profiles.GetOrCreate(ctx, "Inbox")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 not really a pdf"), 0o644))

	err = a.HandleJob(ctx, async.Job{ProfileID: p.ID, Path: path, MIMEType: "application/pdf"})
	require.NoError(t, err)

	// same content again is skipped
	require.NoError(t, a.HandleJob(ctx, async.Job{ProfileID: p.ID, Path: path, MIMEType: "application/pdf"}))

	docs, err := a.Store.Documents.ListByProfile(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "scan.pdf", docs[0].Filename)

	err = a.HandleJob(ctx, async.Job{ProfileID: p.ID, Path: filepath.Join(t.TempDir(), "missing.pdf"), MIMEType: "application/pdf"})
	assert.Error(t, err)
}
