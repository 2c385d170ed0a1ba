package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcupdater/mcupdater/util"
)

func fastBackOff() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 3)
}

func TestDownloadToFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mcupdater/development", r.UserAgent())
		_, _ = w.Write([]byte("server jar"))
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "minecraft_server.jar")
	n, err := New(srv.Client()).WithBackOff(fastBackOff).DownloadToFile(context.Background(), srv.URL, dst)
	require.NoError(t, err)
	assert.Equal(t, int64(len("server jar")), n)

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "server jar", string(content))
}

func TestDownloadToFile_ServerErrorRetriedThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("jar"))
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "staged.jar")
	_, err := New(srv.Client()).WithBackOff(fastBackOff).DownloadToFile(context.Background(), srv.URL, dst)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDownloadToFile_NotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "staged.jar")
	_, err := New(srv.Client()).WithBackOff(fastBackOff).DownloadToFile(context.Background(), srv.URL, dst)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, util.FileExists(dst), "partial download must be removed")
}

func TestDownloadToFile_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "staged.jar")
	_, err := New(srv.Client()).WithBackOff(fastBackOff).DownloadToFile(context.Background(), srv.URL, dst)
	require.Error(t, err)
	assert.False(t, util.FileExists(dst))
}

func TestDownloadToMemory_Limit(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	data, err := New(srv.Client()).WithBackOff(fastBackOff).DownloadToMemory(context.Background(), srv.URL, 4)
	require.ErrorIs(t, err, ErrResponseTooLarge)
	assert.Contains(t, err.Error(), "exceeds 4 bytes")
	assert.Nil(t, data)
	assert.Equal(t, int32(1), requests.Load(), "an oversized body is not retried")

	data, err = New(srv.Client()).DownloadToMemory(context.Background(), srv.URL, 10)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))
}

func TestDownloadToMemory_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.Client()).DownloadToMemory(ctx, srv.URL, 1024)
	require.ErrorIs(t, err, context.Canceled)
}
