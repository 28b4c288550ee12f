package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	f, err := New(t.TempDir(), 5*time.Second)
	require.NoError(t, err)
	return f
}

func TestFetch_InvalidURL(t *testing.T) {
	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), "not-a-real-url")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)

	// the failed clone dir must not linger
	entries, err := os.ReadDir(f.scratchDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRead(t *testing.T) {
	f := newTestFetcher(t)
	repo := filepath.Join(f.scratchDir, "repo-test")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "docs", "plan.md"), []byte("# Plan\n"), 0o644))

	content, err := f.Read(repo, "docs/plan.md")
	require.NoError(t, err)
	assert.Equal(t, "# Plan\n", content)
}

func TestRead_MissingFile(t *testing.T) {
	f := newTestFetcher(t)
	repo := filepath.Join(f.scratchDir, "repo-test")
	require.NoError(t, os.MkdirAll(repo, 0o755))

	_, err := f.Read(repo, "nope.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRead_ReplacesInvalidUTF8(t *testing.T) {
	f := newTestFetcher(t)
	repo := filepath.Join(f.scratchDir, "repo-test")
	require.NoError(t, os.MkdirAll(repo, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "x.md"), []byte{'o', 'k', 0xff, 0xfe}, 0o644))

	content, err := f.Read(repo, "x.md")
	require.NoError(t, err)
	assert.Equal(t, "ok��", content)
}

func TestRead_RejectsEscapes(t *testing.T) {
	f := newTestFetcher(t)
	repo := filepath.Join(f.scratchDir, "repo-test")
	require.NoError(t, os.MkdirAll(repo, 0o755))

	for _, p := range []string{"../secret", "../../etc/passwd", "/etc/passwd", "docs/../../other"} {
		_, err := f.Read(repo, p)
		assert.ErrorIs(t, err, ErrNotFound, p)
	}
}

func TestCleanup(t *testing.T) {
	f := newTestFetcher(t)
	repo := filepath.Join(f.scratchDir, "repo-test")
	require.NoError(t, os.MkdirAll(repo, 0o755))

	require.NoError(t, f.Cleanup(repo))
	_, err := os.Stat(repo)
	assert.True(t, os.IsNotExist(err))

	// idempotent on a path that is already gone
	assert.NoError(t, f.Cleanup(repo))
	assert.NoError(t, f.Cleanup(""))
}

func TestCleanup_RefusesOutsideScratch(t *testing.T) {
	f := newTestFetcher(t)
	outside := t.TempDir()
	assert.Error(t, f.Cleanup(outside))
	assert.Error(t, f.Cleanup(f.scratchDir))
	_, err := os.Stat(outside)
	assert.NoError(t, err)
}
