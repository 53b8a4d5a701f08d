package onnx

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// modelArchive builds an in-memory tar.gz holding the named files.
func modelArchive(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, name := range names {
		content := []byte("stub contents of " + name)
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestDownloadModelUnpacksAllFiles(t *testing.T) {
	archive := modelArchive(t, "model.onnx", "tokenizer.json", "config.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/bge-v%s.tar.gz", modelVersion), r.URL.Path)
		w.Write(archive)
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "bge")
	d := newDownloaderWithBaseURL(srv.URL)
	require.NoError(t, d.DownloadModel(context.Background(), dir, nil))

	for _, f := range modelFiles {
		data, err := os.ReadFile(filepath.Join(dir, f))
		require.NoError(t, err)
		assert.Equal(t, "stub contents of "+f, string(data))
	}
	assert.True(t, Exists(dir))
}

func TestDownloadModelFlattensArchivePaths(t *testing.T) {
	archive := modelArchive(t, "bge/model.onnx", "bge/tokenizer.json", "bge/config.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := newDownloaderWithBaseURL(srv.URL)
	require.NoError(t, d.DownloadModel(context.Background(), dir, nil))
	assert.True(t, Exists(dir))
}

func TestDownloadModelRejectsIncompleteArchive(t *testing.T) {
	archive := modelArchive(t, "model.onnx") // no tokenizer, no config
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	d := newDownloaderWithBaseURL(srv.URL)
	err := d.DownloadModel(context.Background(), t.TempDir(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestDownloadModelRetriesTransientFailures(t *testing.T) {
	archive := modelArchive(t, "model.onnx", "tokenizer.json", "config.json")
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(archive)
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := newDownloaderWithBaseURL(srv.URL)
	require.NoError(t, d.DownloadModel(context.Background(), dir, nil))
	assert.EqualValues(t, 3, hits.Load())
	assert.True(t, Exists(dir))
}

func TestDownloadModelGivesUpAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := newDownloaderWithBaseURL(srv.URL)
	err := d.DownloadModel(context.Background(), t.TempDir(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestDownloadModelHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := newDownloaderWithBaseURL(srv.URL)
	err := d.DownloadModel(ctx, t.TempDir(), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDownloadModelReportsProgress(t *testing.T) {
	archive := modelArchive(t, "model.onnx", "tokenizer.json", "config.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(archive)))
		w.Write(archive)
	}))
	defer srv.Close()

	var last int
	d := newDownloaderWithBaseURL(srv.URL)
	require.NoError(t, d.DownloadModel(context.Background(), t.TempDir(), func(pct int) { last = pct }))
	assert.Equal(t, 100, last)
}

func TestExistsFalseForPartialDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.onnx"), []byte("x"), 0o644))
	assert.False(t, Exists(dir))
}
