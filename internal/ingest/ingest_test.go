package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/immigration-docs/constants"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalkDirectory(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a_passport.jpg"), "same bytes")
	write(t, filepath.Join(root, "b_copy.JPEG"), "same bytes")
	write(t, filepath.Join(root, "nested", "i797.pdf"), "%PDF-1.7")
	write(t, filepath.Join(root, "notes.txt"), "ignored")
	write(t, filepath.Join(root, ".hidden", "secret.png"), "hidden")
	write(t, filepath.Join(root, ".dot.png"), "hidden file")

	got, stats, err := WalkDirectory(root, true)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, filepath.Join(root, "a_passport.jpg"), got[0].Path)
	assert.Equal(t, constants.MIMEJPEG, got[0].MIMEType)
	assert.Len(t, got[0].HashHex, 64)
	assert.Equal(t, int64(len("same bytes")), got[0].Size)
	assert.Empty(t, got[0].DuplicateOf)

	assert.Equal(t, got[0].Path, got[1].DuplicateOf)
	assert.Equal(t, got[0].HashHex, got[1].HashHex)

	assert.Equal(t, constants.MIMEPDF, got[2].MIMEType)

	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Zero(t, stats.Failed)

	all, _, err := WalkDirectory(root, false)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestWalkDirectory_Errors(t *testing.T) {
	_, _, err := WalkDirectory("  ", false)
	assert.Error(t, err)

	_, _, err = WalkDirectory(filepath.Join(t.TempDir(), "missing"), false)
	assert.Error(t, err)
}

func TestIsHiddenAndAllowedExt(t *testing.T) {
	assert.True(t, IsHidden("/x/.git"))
	assert.False(t, IsHidden("."))
	assert.False(t, IsHidden("/x/doc.pdf"))
	assert.True(t, AllowedExt(".TIFF"))
	assert.True(t, AllowedExt("webp"))
	assert.False(t, AllowedExt(".heic"))
}

func TestStartWatcher_InitialScanAndNewFiles(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "existing.png"), "png")
	write(t, filepath.Join(root, "skip.txt"), "txt")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	next := func() string {
		select {
		case p := <-events:
			return p
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for watcher event")
			return ""
		}
	}
	assert.Equal(t, filepath.Join(root, "existing.png"), next())

	created := filepath.Join(root, "new.pdf")
	write(t, created, "%PDF")
	assert.Equal(t, created, next())

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}
