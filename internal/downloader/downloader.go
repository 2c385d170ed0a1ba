package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/mcupdater/mcupdater/util"
	"github.com/mcupdater/mcupdater/version"
)

// DefaultBackOff retries transient failures for up to two minutes.
func DefaultBackOff() backoff.BackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     time.Second,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         20 * time.Second,
		MaxElapsedTime:      2 * time.Minute,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d from %s", e.StatusCode, e.URL)
}

// Temporary reports whether a retry may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

type Downloader struct {
	client     *http.Client
	newBackOff func() backoff.BackOff
}

func New(client *http.Client) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{
		client:     client,
		newBackOff: DefaultBackOff,
	}
}

// WithBackOff replaces the retry policy, e.g. with backoff.StopBackOff to disable retries.
func (d *Downloader) WithBackOff(newBackOff func() backoff.BackOff) *Downloader {
	d.newBackOff = newBackOff
	return d
}

// ErrResponseTooLarge is returned when a body exceeds the limit given to DownloadToMemory.
var ErrResponseTooLarge = errors.New("response too large")

// DownloadToMemory fetches url and returns its body, which must not exceed limit bytes.
func (d *Downloader) DownloadToMemory(ctx context.Context, url string, limit int64) ([]byte, error) {
	var data []byte
	err := d.retry(ctx, url, func() error {
		return d.get(ctx, url, func(body io.Reader) error {
			var err error
			data, err = io.ReadAll(io.LimitReader(body, limit+1))
			if err != nil {
				return fmt.Errorf("failed to read response body: %w", err)
			}
			if int64(len(data)) > limit {
				data = nil
				return backoff.Permanent(fmt.Errorf("%w: %s exceeds %d bytes", ErrResponseTooLarge, url, limit))
			}
			return nil
		})
	})
	return data, err
}

// DownloadToFile streams url into dstFile and returns the number of bytes written.
// The file is truncated before every attempt and removed if all attempts fail.
func (d *Downloader) DownloadToFile(ctx context.Context, url, dstFile string) (int64, error) {
	log.Debugf("starting download from %s", url)

	out, err := os.Create(dstFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file %q: %w", dstFile, err)
	}

	var written int64
	err = d.retry(ctx, url, func() error {
		if err := out.Truncate(0); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to truncate file: %w", err))
		}
		if _, err := out.Seek(0, io.SeekStart); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to seek to beginning of file: %w", err))
		}
		return d.get(ctx, url, func(body io.Reader) error {
			n, err := io.Copy(out, body)
			written = n
			if err != nil {
				return fmt.Errorf("failed to write response body to file: %w", err)
			}
			return nil
		})
	})

	if cerr := out.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close %q: %w", dstFile, cerr)
	}
	if err != nil {
		if rmErr := util.RemoveIfExists(dstFile); rmErr != nil {
			log.Warnf("failed to remove partial download %q: %v", dstFile, rmErr)
		}
		return 0, err
	}

	log.Infof("successfully downloaded %d bytes to %s", written, dstFile)
	return written, nil
}

func (d *Downloader) retry(ctx context.Context, url string, op func() error) error {
	b := backoff.WithContext(d.newBackOff(), ctx)
	err := backoff.RetryNotify(op, b, func(err error, next time.Duration) {
		log.Warnf("request to %s failed, retrying in %v: %v", url, next, err)
	})
	if err != nil && ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return err
}

func (d *Downloader) get(ctx context.Context, url string, consume func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warnf("error closing response body: %v", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{URL: url, StatusCode: resp.StatusCode}
		if statusErr.Temporary() {
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}

	return consume(resp.Body)
}
