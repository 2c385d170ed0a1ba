package manifest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcupdater/mcupdater/internal/downloader"
	"github.com/mcupdater/mcupdater/internal/manifest"
	"github.com/mcupdater/mcupdater/internal/manifest/manifesttest"
)

func newClient(url string) *manifest.Client {
	d := downloader.New(http.DefaultClient).WithBackOff(func() backoff.BackOff {
		return &backoff.StopBackOff{}
	})
	return manifest.NewClient(d, url, 5*time.Second)
}

func TestResolve(t *testing.T) {
	srv := manifesttest.NewServer(t, "1.21.4", "25w02a",
		manifesttest.Version{ID: "1.21.4", Artifact: []byte("release jar")},
		manifesttest.Version{ID: "25w02a", Artifact: []byte("snapshot jar")},
	)

	testCases := []struct {
		channel  manifest.Channel
		id       string
		artifact []byte
	}{
		{channel: manifest.ChannelRelease, id: "1.21.4", artifact: []byte("release jar")},
		{channel: manifest.ChannelSnapshot, id: "25w02a", artifact: []byte("snapshot jar")},
	}

	for _, tc := range testCases {
		t.Run(string(tc.channel), func(t *testing.T) {
			rel, err := newClient(srv.ManifestURL()).Resolve(context.Background(), tc.channel)
			require.NoError(t, err)

			assert.Equal(t, tc.channel, rel.Channel)
			assert.Equal(t, tc.id, rel.VersionID)
			assert.Equal(t, srv.URL+"/objects/"+tc.id+"/server.jar", rel.ArtifactURL)
			assert.Equal(t, manifesttest.Checksum(tc.artifact), rel.Checksum)
			assert.Equal(t, int64(len(tc.artifact)), rel.Size)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		release  string
		versions []manifesttest.Version
	}{
		{
			name:    "latest version not listed",
			release: "1.21.4",
			versions: []manifesttest.Version{
				{ID: "1.21.3", Artifact: []byte("old")},
			},
		},
		{
			name:    "no server download",
			release: "1.0",
			versions: []manifesttest.Version{
				{ID: "1.0", NoServer: true},
			},
		},
		{
			name:     "no latest release",
			release:  "",
			versions: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := manifesttest.NewServer(t, tc.release, "", tc.versions...)
			_, err := newClient(srv.ManifestURL()).Resolve(context.Background(), manifest.ChannelRelease)
			require.Error(t, err)
		})
	}
}

func TestResolve_FirstMatchWins(t *testing.T) {
	srv := manifesttest.NewServer(t, "1.21", "",
		manifesttest.Version{ID: "1.21", Artifact: []byte("first")},
		manifesttest.Version{ID: "1.21", Artifact: []byte("second")},
	)

	rel, err := newClient(srv.ManifestURL()).Resolve(context.Background(), manifest.ChannelRelease)
	require.NoError(t, err)
	assert.Equal(t, manifesttest.Checksum([]byte("first")), rel.Checksum)
}

func TestResolve_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Resolve(context.Background(), manifest.ChannelRelease)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch version manifest")
}

func TestResolve_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(url).Resolve(context.Background(), manifest.ChannelRelease)
	require.Error(t, err)
}
