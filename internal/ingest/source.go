package ingest

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/httputil"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/metrics"
)

const (
	defaultFTPPort    = "21"
	defaultFTPTimeout = 30 * time.Second
)

// Fetcher reads source CSVs from local paths, http(s) URLs or ftp URLs.
type Fetcher struct {
	client          *http.Client
	maxElapsed      time.Duration
	initialInterval time.Duration
	ftpTimeout      time.Duration
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client:          httputil.NewClient(),
		maxElapsed:      2 * time.Minute,
		initialInterval: backoff.DefaultInitialInterval,
		ftpTimeout:      defaultFTPTimeout,
	}
}

// Fetch returns the raw bytes at location.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	kind := "file"
	u, err := url.Parse(location)
	if err == nil {
		switch u.Scheme {
		case "http", "https", "ftp":
			kind = u.Scheme
		case "file":
			location = u.Path
		}
	}

	var body []byte
	switch kind {
	case "http", "https":
		body, err = f.fetchHTTP(ctx, location)
	case "ftp":
		body, err = f.fetchFTP(ctx, u)
	default:
		body, err = os.ReadFile(location)
		if err != nil {
			err = fmt.Errorf("read %s: %w", location, err)
		}
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SourceFetchesTotal.WithLabelValues(kind, status).Inc()
	return body, err
}

func (f *Fetcher) fetchHTTP(ctx context.Context, location string) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("fetch %s: %w", location, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("fetch %s: status %d", location, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d: %s", location, resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.initialInterval
	bo.MaxElapsedTime = f.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// fetchFTP logs in anonymously unless the URL carries credentials.
func (f *Fetcher) fetchFTP(ctx context.Context, u *url.URL) ([]byte, error) {
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), defaultFTPPort)
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.ftpTimeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return nil, fmt.Errorf("ftp retr %s: %w", u.Path, err)
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
