package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Fetcher obtains the raw registry dataset. Implementations own their
// transport concerns (timeouts, retries, offline fallback); the Store
// only guarantees that Fetch is called at most once per process.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Store loads the registry dataset exactly once and caches the result.
//
// Two cached variants exist, one per compilePatterns flag, both parsed
// from a single fetch. This keeps the compiled records fully built before
// they are published to callers, so no record is ever mutated after a
// caller can see it.
type Store struct {
	fetcher Fetcher
	logger  *slog.Logger

	fetchOnce sync.Once
	raw       []byte
	fetchErr  error

	variants [2]struct {
		once sync.Once
		reg  Registry
		err  error
	}
}

// NewStore creates a registry store backed by the given fetcher.
func NewStore(fetcher Fetcher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{fetcher: fetcher, logger: logger}
}

// Load returns the full ordered registry, fetching and parsing the
// dataset on first use. Repeated calls return the cached result and do
// not re-trigger the fetch. A dataset that cannot be obtained, a record
// missing its prefix, or (when compilePatterns is set) a pattern that
// does not compile are all fatal: the resolver cannot operate without a
// valid registry.
//
// Callers must treat the returned registry as read-only.
func (s *Store) Load(ctx context.Context, compilePatterns bool) (Registry, error) {
	s.fetchOnce.Do(func() {
		s.raw, s.fetchErr = s.fetcher.Fetch(ctx)
		if s.fetchErr == nil {
			s.logger.Debug("Fetched registry dataset", slog.Int("bytes", len(s.raw)))
		}
	})
	if s.fetchErr != nil {
		return nil, fmt.Errorf("fetch registry: %w", s.fetchErr)
	}

	v := &s.variants[0]
	if compilePatterns {
		v = &s.variants[1]
	}
	v.once.Do(func() {
		v.reg, v.err = ParseRegistry(s.raw, compilePatterns)
		if v.err == nil {
			s.logger.Info("Registry loaded",
				slog.Int("resources", len(v.reg)),
				slog.Bool("compile_patterns", compilePatterns))
		}
	})
	return v.reg, v.err
}

// ParseRegistry decodes a registry dataset. The upstream export ships in
// two shapes: an ordered array of records, or an object keyed by prefix.
// The object form is normalized to a prefix-sorted array, filling in the
// prefix field from the key when the record omits it.
func ParseRegistry(data []byte, compilePatterns bool) (Registry, error) {
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		byPrefix := map[string]Resource{}
		if mapErr := json.Unmarshal(data, &byPrefix); mapErr != nil {
			return nil, fmt.Errorf("parse registry dataset: %w", err)
		}
		keys := make([]string, 0, len(byPrefix))
		for k := range byPrefix {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		reg = make(Registry, 0, len(keys))
		for _, k := range keys {
			res := byPrefix[k]
			if res.Prefix == "" {
				res.Prefix = k
			}
			reg = append(reg, res)
		}
	}

	for i := range reg {
		if reg[i].Prefix == "" {
			return nil, fmt.Errorf("registry record %d is missing its prefix", i)
		}
		if compilePatterns && reg[i].Pattern != "" {
			re, err := compileFullMatch(reg[i].Pattern)
			if err != nil {
				return nil, fmt.Errorf("resource %q: %w", reg[i].Prefix, err)
			}
			reg[i].compiled = re
		}
	}
	return reg, nil
}

// Global store instance and initialization guard.
var (
	defaultStore *Store
	defaultOnce  sync.Once
)

// Default returns the process-wide registry store, backed by an HTTP
// fetcher with default settings. The first caller wins; use InitDefault
// before any Load to install a custom store.
func Default() *Store {
	defaultOnce.Do(func() {
		defaultStore = NewStore(NewHTTPFetcher(HTTPFetcherConfig{}, nil), nil)
	})
	return defaultStore
}

// InitDefault installs a custom process-wide store. Safe for concurrent
// use, but only the first call to Default or InitDefault has any effect.
func InitDefault(s *Store) {
	defaultOnce.Do(func() {
		defaultStore = s
	})
}

// Load loads the registry through the process-wide store.
func Load(ctx context.Context, compilePatterns bool) (Registry, error) {
	return Default().Load(ctx, compilePatterns)
}
