package modelcache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSpec = Spec{Key: "realesrgan-x2", Name: "Real-ESRGAN x2", Scale: 2, File: "RealESRGAN_x2.onnx"}

func newWeightsServer(t *testing.T, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/"+testSpec.File {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func openTestCache(t *testing.T, baseURL string) *Cache {
	t.Helper()
	c, err := Open(t.TempDir(), baseURL)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestEnsure_DownloadsOnce(t *testing.T) {
	srv, hits := newWeightsServer(t, "onnx-bytes")
	c := openTestCache(t, srv.URL)

	var wg sync.WaitGroup
	paths := make([]string, 6)
	errs := make([]error, 6)
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = c.Ensure(context.Background(), testSpec)
		}(i)
	}
	wg.Wait()

	for i := range paths {
		require.NoError(t, errs[i])
		assert.Equal(t, paths[0], paths[i])
	}
	assert.Equal(t, int32(1), hits.Load())

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "onnx-bytes", string(data))

	entry, err := c.Lookup(testSpec.Key)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(len("onnx-bytes")), entry.Size)
	assert.Equal(t, 2, entry.Scale)
	assert.Len(t, entry.SHA256, 64)
	assert.Equal(t, "10 B", entry.HumanSize())
}

func TestEnsure_NoSourceNotCached(t *testing.T) {
	c := openTestCache(t, "")

	_, err := c.Ensure(context.Background(), testSpec)
	assert.ErrorIs(t, err, ErrNotCached)
	assert.False(t, c.CanDownload())
}

func TestEnsure_BadStatus(t *testing.T) {
	srv, _ := newWeightsServer(t, "x")
	c := openTestCache(t, srv.URL)

	_, err := c.Ensure(context.Background(), Spec{Key: "missing", File: "missing.onnx"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")

	entries, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	files, err := filepath.Glob(filepath.Join(c.Dir(), ".download-*"))
	require.NoError(t, err)
	assert.Empty(t, files, "temp files are removed")
}

func TestEnsure_IndexesExistingFile(t *testing.T) {
	c := openTestCache(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), testSpec.File), []byte("local"), 0o600))

	assert.True(t, c.Has(testSpec))
	path, err := c.Ensure(context.Background(), testSpec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.Dir(), testSpec.File), path)

	total, err := c.TotalSize()
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testSpec.Key, entries[0].Key)
}

func TestEnsure_CancelledContext(t *testing.T) {
	srv, _ := newWeightsServer(t, "onnx")
	c := openTestCache(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Ensure(ctx, testSpec)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWritable(t *testing.T) {
	c := openTestCache(t, "")
	assert.NoError(t, c.Writable())
}

func TestLookup_Missing(t *testing.T) {
	c := openTestCache(t, "")
	entry, err := c.Lookup("nope")
	require.NoError(t, err)
	assert.Nil(t, entry)

	total, err := c.TotalSize()
	require.NoError(t, err)
	assert.Zero(t, total)
}
