package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	manifestSizeLimit = 16 << 20
	metadataSizeLimit = 1 << 20
)

// Fetcher retrieves small documents over HTTP.
type Fetcher interface {
	DownloadToMemory(ctx context.Context, url string, limit int64) ([]byte, error)
}

// Client resolves a channel to the server artifact published for it.
type Client struct {
	fetcher     Fetcher
	manifestURL string
	timeout     time.Duration
}

// NewClient creates a client. A zero timeout leaves requests bounded only by ctx.
func NewClient(fetcher Fetcher, manifestURL string, timeout time.Duration) *Client {
	return &Client{
		fetcher:     fetcher,
		manifestURL: manifestURL,
		timeout:     timeout,
	}
}

// Resolve fetches the manifest, picks the channel's latest version and reads
// its metadata for the server download.
func (c *Client) Resolve(ctx context.Context, channel Channel) (Release, error) {
	m, err := c.FetchManifest(ctx)
	if err != nil {
		return Release{}, err
	}

	id, err := m.LatestID(channel)
	if err != nil {
		return Release{}, err
	}

	entry, ok := m.Find(id)
	if !ok {
		return Release{}, fmt.Errorf("version %s is not listed in the manifest", id)
	}

	meta, err := c.FetchMetadata(ctx, entry.URL)
	if err != nil {
		return Release{}, err
	}

	server := meta.Downloads.Server
	if server == nil || server.URL == "" {
		return Release{}, fmt.Errorf("version %s has no server download", id)
	}
	if server.SHA1 == "" {
		return Release{}, fmt.Errorf("version %s has no server checksum", id)
	}

	log.WithContext(ctx).Debugf("resolved %s channel to %s", channel, id)

	return Release{
		Channel:     channel,
		VersionID:   id,
		ArtifactURL: server.URL,
		Checksum:    server.SHA1,
		Size:        server.Size,
	}, nil
}

func (c *Client) FetchManifest(ctx context.Context) (*Manifest, error) {
	var m Manifest
	if err := c.getJSON(ctx, c.manifestURL, manifestSizeLimit, &m); err != nil {
		return nil, fmt.Errorf("fetch version manifest: %w", err)
	}
	return &m, nil
}

func (c *Client) FetchMetadata(ctx context.Context, url string) (*VersionMetadata, error) {
	var meta VersionMetadata
	if err := c.getJSON(ctx, url, metadataSizeLimit, &meta); err != nil {
		return nil, fmt.Errorf("fetch version metadata: %w", err)
	}
	return &meta, nil
}

func (c *Client) getJSON(ctx context.Context, url string, limit int64, out interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	data, err := c.fetcher.DownloadToMemory(ctx, url, limit)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
