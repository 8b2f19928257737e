package share

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreCommit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := NewFileStore(dir)

	docs := []Document{
		{Collection: SharesCollection, ID: "S1", Data: map[string]any{"date": "2024-05-14"}},
		{Collection: BlocksCollection, ID: "S1_B1", Data: map[string]any{"content": "hello"}},
	}
	require.NoError(t, fs.Commit(context.Background(), docs))

	got, err := fs.Load(SharesCollection, "S1")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-14", got["date"])

	got, err = fs.Load(BlocksCollection, "S1_B1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got["content"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".commit-"), "staging dir left behind")
	}
}

func TestFileStoreCommitIsAllOrNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := NewFileStore(dir)

	docs := []Document{
		{Collection: SharesCollection, ID: "S1", Data: map[string]any{"ok": true}},
		{Collection: BlocksCollection, ID: "S1_B1", Data: map[string]any{"bad": make(chan int)}},
	}
	require.Error(t, fs.Commit(context.Background(), docs))

	_, err := fs.Load(SharesCollection, "S1")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreCommitCollectionBlocked(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, BlocksCollection), []byte("x"), 0o644))
	fs := NewFileStore(dir)

	docs := []Document{
		{Collection: SharesCollection, ID: "S1", Data: map[string]any{"ok": true}},
		{Collection: BlocksCollection, ID: "S1_B1", Data: map[string]any{"content": "hello"}},
	}
	require.Error(t, fs.Commit(context.Background(), docs))

	_, err := fs.Load(SharesCollection, "S1")
	assert.True(t, os.IsNotExist(err), "share doc visible after failed commit")
}

func TestFileStoreCommitRollsBackMoves(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := NewFileStore(dir)
	require.NoError(t, fs.Commit(context.Background(), []Document{
		{Collection: SharesCollection, ID: "S0", Data: map[string]any{"v": "old"}},
	}))

	// Let the first two moves through (backup of S0 and S0 itself), fail after.
	moves := 0
	fs.rename = func(oldpath, newpath string) error {
		moves++
		if moves > 2 {
			return errors.New("disk full")
		}
		return os.Rename(oldpath, newpath)
	}

	docs := []Document{
		{Collection: SharesCollection, ID: "S0", Data: map[string]any{"v": "new"}},
		{Collection: SharesCollection, ID: "S1", Data: map[string]any{"v": "new"}},
		{Collection: BlocksCollection, ID: "S1_B1", Data: map[string]any{"v": "new"}},
	}
	err := fs.Commit(context.Background(), docs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	got, err := fs.Load(SharesCollection, "S0")
	require.NoError(t, err)
	assert.Equal(t, "old", got["v"])

	_, err = fs.Load(SharesCollection, "S1")
	assert.True(t, os.IsNotExist(err))
	_, err = fs.Load(BlocksCollection, "S1_B1")
	assert.True(t, os.IsNotExist(err))
}

func TestDirCopier(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone.png" {
			w.WriteHeader(http.StatusGone)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := &DirCopier{Dir: dir, Client: srv.Client()}

	dst, err := c.Copy(context.Background(), "S1", srv.URL+"/chart.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "images", "S1"), filepath.Dir(dst))
	assert.Equal(t, ".jpg", filepath.Ext(dst))

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(b))

	_, err = c.Copy(context.Background(), "S1", srv.URL+"/gone.png")
	assert.Error(t, err)
}

func TestFetchLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	_, _, err := Fetch(context.Background(), srv.Client(), srv.URL, 10)
	require.Error(t, err)

	body, ctype, err := Fetch(context.Background(), srv.Client(), srv.URL, 100)
	require.NoError(t, err)
	assert.Len(t, body, 100)
	assert.NotEmpty(t, ctype)
}

func TestExtension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".png", Extension("https://x.test/a/b.PNG?x=1", ""))
	assert.Equal(t, ".gif", Extension("https://x.test/a/b", "image/gif"))
	assert.Equal(t, "", Extension("https://x.test/a/b", ""))
}
