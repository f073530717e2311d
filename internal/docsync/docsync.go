// Package docsync downloads registry documents that declare a remote URL
// into the local docs directory.
package docsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"gopkg.in/yaml.v3"

	"github.com/zon-format/docsearch/internal/site"
)

const (
	cacheMetaFile = "cache.meta"
	lockFile      = ".docsync.lock"

	// DefaultTTL is the age after which synced docs are considered stale
	DefaultTTL = 7 * 24 * time.Hour

	// maxDocumentSize caps a single download
	maxDocumentSize = 10 << 20

	// breakerTrips is the number of consecutive download failures that opens the breaker
	breakerTrips = 3
)

// Options configures a Syncer
type Options struct {
	// TTL is the cache age that triggers a sync; zero means DefaultTTL
	TTL time.Duration

	// Client performs downloads; nil uses a client with a 30s timeout
	Client *http.Client
}

// Result describes one sync run
type Result struct {
	Updated    bool      `json:"updated"`
	Downloaded int       `json:"downloaded"`
	Failed     int       `json:"failed"`
	LastUpdate time.Time `json:"last_update"`
	Message    string    `json:"message"`
}

// cacheMeta is persisted as YAML next to the synced documents
type cacheMeta struct {
	LastUpdate time.Time `yaml:"last_update"`
	Documents  int       `yaml:"documents"`
	Failed     int       `yaml:"failed,omitempty"`
}

// Syncer refreshes the docs directory from the registry's remote URLs
type Syncer struct {
	site    *site.Site
	dir     string
	ttl     time.Duration
	client  *http.Client
	lock    *pidLock
	breaker *gobreaker.CircuitBreaker
	now     func() time.Time

	// mu prevents concurrent syncs within this process
	mu sync.Mutex
}

// New creates a syncer writing into dir
func New(s *site.Site, dir string, opts Options) *Syncer {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Syncer{
		site:    s,
		dir:     dir,
		ttl:     ttl,
		client:  client,
		lock:    newPIDLock(filepath.Join(dir, lockFile)),
		breaker: newBreaker(),
		now:     time.Now,
	}
}

// newBreaker stops a sync from hammering a documentation host that is down.
// Once open, the remaining documents fail fast until the timeout elapses.
func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "docsync",
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTrips
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})
}

// Dir returns the docs directory
func (s *Syncer) Dir() string {
	return s.dir
}

// Remote returns the registry documents that have a remote URL
func (s *Syncer) Remote() []site.Document {
	var docs []site.Document
	for _, doc := range s.site.Documents() {
		if doc.URL != "" {
			docs = append(docs, doc)
		}
	}
	return docs
}

// LastUpdate returns the time of the last recorded sync
func (s *Syncer) LastUpdate() (time.Time, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, cacheMetaFile))
	if err != nil {
		return time.Time{}, false
	}

	var meta cacheMeta
	if err := yaml.Unmarshal(data, &meta); err != nil || meta.LastUpdate.IsZero() {
		return time.Time{}, false
	}
	return meta.LastUpdate, true
}

// NeedsRefresh reports whether the last sync is missing or older than the TTL
func (s *Syncer) NeedsRefresh() bool {
	last, ok := s.LastUpdate()
	if !ok {
		return true
	}
	return s.now().Sub(last) > s.ttl
}

// Sync downloads every remote document unless the cache is fresh and force is false.
// Documents that fail to download are reported in the returned error; the
// others are still written.
func (s *Syncer) Sync(ctx context.Context, force bool) (Result, error) {
	if !force && !s.NeedsRefresh() {
		return s.freshResult(), nil
	}

	// Serialize sync operations
	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have synced while we were waiting
	if !force && !s.NeedsRefresh() {
		return s.freshResult(), nil
	}

	remote := s.Remote()
	if len(remote) == 0 {
		return Result{Message: "No documents declare a remote URL"}, nil
	}

	if err := s.lock.acquire(); err != nil {
		return Result{}, fmt.Errorf("failed to acquire doc sync lock: %w", err)
	}
	defer func() {
		if err := s.lock.release(); err != nil {
			log.Printf("Warning: Error releasing doc sync lock: %v", err)
		}
	}()

	start := s.now()
	log.Printf("Syncing %d documents into %s (force=%v)...", len(remote), s.dir, force)

	var errs []error
	downloaded := 0
	for _, doc := range remote {
		if err := s.download(ctx, doc); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", doc.Slug, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		downloaded++
	}

	result := Result{
		Updated:    downloaded > 0,
		Downloaded: downloaded,
		Failed:     len(remote) - downloaded,
	}

	if downloaded > 0 {
		meta := cacheMeta{LastUpdate: s.now().UTC().Truncate(time.Second), Documents: downloaded, Failed: result.Failed}
		if err := s.writeMeta(meta); err != nil {
			errs = append(errs, err)
		} else {
			result.LastUpdate = meta.LastUpdate
		}
	}

	result.Message = fmt.Sprintf("Synced %d of %d documents", downloaded, len(remote))
	log.Printf("✓ %s in %v", result.Message, s.now().Sub(start).Round(time.Millisecond))

	return result, errors.Join(errs...)
}

func (s *Syncer) freshResult() Result {
	last, _ := s.LastUpdate()
	return Result{
		LastUpdate: last,
		Message:    fmt.Sprintf("Cache is fresh (last updated: %s)", last.Format(time.RFC3339)),
	}
}

// download fetches one document through the circuit breaker
func (s *Syncer) download(ctx context.Context, doc site.Document) error {
	target, err := s.localPath(doc.Path)
	if err != nil {
		return err
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.fetch(ctx, doc.URL, target)
	})
	return err
}

// fetch downloads url and atomically replaces target
func (s *Syncer) fetch(ctx context.Context, url, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create docs directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxDocumentSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if n > maxDocumentSize {
		return fmt.Errorf("document exceeds %d bytes", maxDocumentSize)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// localPath resolves a registry path inside the docs directory
func (s *Syncer) localPath(p string) (string, error) {
	name := path.Clean(strings.TrimPrefix(strings.ReplaceAll(p, `\`, "/"), "./"))
	if !fs.ValidPath(name) || name == "." {
		return "", fmt.Errorf("invalid document path %q", p)
	}
	return filepath.Join(s.dir, filepath.FromSlash(name)), nil
}

func (s *Syncer) writeMeta(meta cacheMeta) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode cache meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, cacheMetaFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache meta: %w", err)
	}
	return nil
}
