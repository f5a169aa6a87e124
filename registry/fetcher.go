package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultRegistryURL is the canonical location of the registry export.
const DefaultRegistryURL = "https://github.com/biopragmatics/bioregistry/raw/main/exports/registry/registry.json"

const (
	defaultFetchTimeout   = 30 * time.Second
	defaultMaxDatasetSize = 64 << 20 // 64MB
	defaultUserAgent      = "semcite (https://github.com/c360studio/semcite)"
)

// HTTPFetcherConfig configures the registry dataset transport.
type HTTPFetcherConfig struct {
	// URL of the registry export. Defaults to DefaultRegistryURL.
	URL string

	// SnapshotPath is where a successful fetch is mirrored on disk.
	// When a live fetch fails, the snapshot is served instead so the
	// resolver stays usable offline. Empty disables the snapshot.
	SnapshotPath string

	// Timeout bounds the whole fetch. Defaults to 30s.
	Timeout time.Duration

	// UserAgent sent with the request.
	UserAgent string

	// MaxSize caps the dataset size in bytes. Defaults to 64MB.
	MaxSize int64
}

// HTTPFetcher retrieves the registry dataset over HTTP with an on-disk
// snapshot fallback.
type HTTPFetcher struct {
	client       *http.Client
	url          string
	userAgent    string
	snapshotPath string
	maxSize      int64
	logger       *slog.Logger
}

// NewHTTPFetcher creates a registry fetcher.
func NewHTTPFetcher(cfg HTTPFetcherConfig, logger *slog.Logger) *HTTPFetcher {
	if cfg.URL == "" {
		cfg.URL = DefaultRegistryURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultMaxDatasetSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{
		client:       &http.Client{Timeout: cfg.Timeout},
		url:          cfg.URL,
		userAgent:    cfg.UserAgent,
		snapshotPath: cfg.SnapshotPath,
		maxSize:      cfg.MaxSize,
		logger:       logger,
	}
}

// DefaultSnapshotPath returns the per-user cache location for the
// registry snapshot, or empty when no cache directory is available.
func DefaultSnapshotPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "semcite", "registry.json")
}

// Fetch retrieves the registry dataset. A live fetch that succeeds
// refreshes the snapshot; a live fetch that fails falls back to the
// snapshot when one exists.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	body, err := f.fetchLive(ctx)
	if err != nil {
		if snap, snapErr := f.readSnapshot(); snapErr == nil {
			f.logger.Warn("Live registry fetch failed, using snapshot",
				slog.String("url", f.url),
				slog.String("snapshot", f.snapshotPath),
				slog.String("error", err.Error()))
			return snap, nil
		}
		return nil, err
	}
	f.writeSnapshot(body)
	return body, nil
}

func (f *HTTPFetcher) fetchLive(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d: %s", f.url, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	limitReader := io.LimitReader(resp.Body, f.maxSize+1)
	body, err := io.ReadAll(limitReader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxSize {
		return nil, fmt.Errorf("registry dataset too large (exceeds %d bytes)", f.maxSize)
	}
	return body, nil
}

func (f *HTTPFetcher) readSnapshot() ([]byte, error) {
	if f.snapshotPath == "" {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(f.snapshotPath)
}

// writeSnapshot mirrors the dataset to disk. Failures are logged, not
// fatal: the snapshot is an availability aid, not a requirement.
func (f *HTTPFetcher) writeSnapshot(data []byte) {
	if f.snapshotPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(f.snapshotPath), 0755); err != nil {
		f.logger.Warn("Failed to create snapshot directory", slog.String("error", err.Error()))
		return
	}
	tmp := f.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		f.logger.Warn("Failed to write registry snapshot", slog.String("error", err.Error()))
		return
	}
	if err := os.Rename(tmp, f.snapshotPath); err != nil {
		f.logger.Warn("Failed to replace registry snapshot", slog.String("error", err.Error()))
		return
	}
	f.logger.Debug("Registry snapshot updated", slog.String("path", f.snapshotPath))
}
