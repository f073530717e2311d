package search

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zon-format/docsearch/internal/indexing"
)

const tracerName = "github.com/zon-format/docsearch/internal/search"

// serviceMetrics are recorded against the configured meter provider
type serviceMetrics struct {
	queries       metric.Int64Counter
	results       metric.Int64Histogram
	buildDuration metric.Float64Histogram
}

func newServiceMetrics(provider metric.MeterProvider) (*serviceMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(tracerName)

	queries, err := meter.Int64Counter(
		"search.queries.total",
		metric.WithDescription("Total search queries"),
	)
	if err != nil {
		return nil, err
	}

	results, err := meter.Int64Histogram(
		"search.results",
		metric.WithDescription("Entries returned per query"),
	)
	if err != nil {
		return nil, err
	}

	buildDuration, err := meter.Float64Histogram(
		"search.build.duration",
		metric.WithDescription("Index build duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &serviceMetrics{
		queries:       queries,
		results:       results,
		buildDuration: buildDuration,
	}, nil
}

// Builder produces one complete, ordered entry list
type Builder interface {
	Build() []indexing.Entry
}

// Options configures a Service
type Options struct {
	// Engine selects the query engine: "scan" or "bleve" (default)
	Engine string

	// CacheTTL keeps a built snapshot for this long. Zero rebuilds the
	// entry list on every query.
	CacheTTL time.Duration

	// MeterProvider receives query and build metrics. Nil uses the global
	// provider installed by telemetry.InitMeter.
	MeterProvider metric.MeterProvider
}

// Stats describes the snapshot currently published by a Service
type Stats struct {
	Engine      string    `json:"engine"`
	Entries     int       `json:"entries"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	BuiltAt     time.Time `json:"built_at,omitzero"`
	Builds      int64     `json:"builds"`
	Engines     int64     `json:"engines"`
}

// Service owns the engine handle behind the query API.
//
// Every query sees the full output of one complete build: snapshots are
// published atomically and never mutated. Engines are constructed on first
// use and closed once no in-flight query holds them.
type Service struct {
	builder    Builder
	factory    Factory
	engineName string
	cacheTTL   time.Duration
	now        func() time.Time
	tracer     trace.Tracer
	metrics    *serviceMetrics

	// current holds the published snapshot (atomic access for lock-free reads)
	current atomic.Pointer[snapshot]

	// refreshMu prevents concurrent cached rebuilds
	refreshMu sync.Mutex

	// publishMu serializes snapshot swaps
	publishMu sync.Mutex

	// retiring tracks background closes of replaced engines
	retiring sync.WaitGroup

	closed  atomic.Bool
	builds  atomic.Int64
	engines atomic.Int64
}

// NewService creates a search service over builder
func NewService(builder Builder, opts Options) (*Service, error) {
	if builder == nil {
		return nil, fmt.Errorf("search: nil builder")
	}
	factory, err := NewFactory(opts.Engine)
	if err != nil {
		return nil, err
	}
	if opts.CacheTTL < 0 {
		return nil, fmt.Errorf("search: negative cache TTL %v", opts.CacheTTL)
	}

	name := opts.Engine
	if name == "" {
		name = EngineBleve
	}

	metrics, err := newServiceMetrics(opts.MeterProvider)
	if err != nil {
		return nil, fmt.Errorf("search: failed to create metrics: %w", err)
	}

	return &Service{
		builder:    builder,
		factory:    factory,
		engineName: name,
		cacheTTL:   opts.CacheTTL,
		now:        time.Now,
		tracer:     otel.Tracer(tracerName),
		metrics:    metrics,
	}, nil
}

// Search returns up to MaxResults entries matching query in index order.
// An empty query returns an empty result without building the index.
func (s *Service) Search(ctx context.Context, query string) []indexing.Entry {
	ctx, span := s.tracer.Start(ctx, "search.query", trace.WithAttributes(
		attribute.String("search.engine", s.engineName),
		attribute.Int("search.query_length", len(query)),
	))
	defer span.End()

	engineAttr := metric.WithAttributes(attribute.String("search.engine", s.engineName))
	s.metrics.queries.Add(ctx, 1, engineAttr)

	if query == "" {
		span.SetAttributes(attribute.Int("search.results", 0))
		s.metrics.results.Record(ctx, 0, engineAttr)
		return []indexing.Entry{}
	}

	if s.closed.Load() {
		results := Filter(s.build(ctx), query, MaxResults)
		span.SetAttributes(attribute.Int("search.results", len(results)))
		s.metrics.results.Record(ctx, int64(len(results)), engineAttr)
		return results
	}

	snap := s.acquire(ctx)
	results := snap.search(query, MaxResults)
	span.SetAttributes(
		attribute.Int("search.results", len(results)),
		attribute.Int("search.entries", len(snap.entries)),
	)
	s.metrics.results.Record(ctx, int64(len(results)), engineAttr)
	return results
}

// Entries returns a copy of the complete entry list a query would see
func (s *Service) Entries(ctx context.Context) []indexing.Entry {
	if s.closed.Load() {
		return s.build(ctx)
	}
	return slices.Clone(s.acquire(ctx).entries)
}

// Warm builds the index and its engine ahead of the first query
func (s *Service) Warm(ctx context.Context) Stats {
	if !s.closed.Load() {
		s.acquire(ctx).warm()
	}
	return s.Stats()
}

// Stats reports on the published snapshot without building one
func (s *Service) Stats() Stats {
	st := Stats{
		Engine:  s.engineName,
		Builds:  s.builds.Load(),
		Engines: s.engines.Load(),
	}
	if snap := s.current.Load(); snap != nil {
		st.Entries = len(snap.entries)
		st.Fingerprint = snap.fingerprint
		st.BuiltAt = time.Unix(0, snap.builtAt.Load())
	}
	return st
}

// Reset drops the published snapshot; the next query rebuilds it
func (s *Service) Reset() {
	s.publishMu.Lock()
	old := s.current.Swap(nil)
	s.publishMu.Unlock()

	s.retire(old)
}

// Close disposes the engine handle and waits for replaced engines to close.
// A closed service still answers queries with a linear scan of a fresh build.
func (s *Service) Close() error {
	s.closed.Store(true)

	s.publishMu.Lock()
	old := s.current.Swap(nil)
	s.publishMu.Unlock()

	var err error
	if old != nil {
		err = old.close()
	}
	s.retiring.Wait()
	return err
}

// acquire returns a snapshot fit to serve a query, building one when needed
func (s *Service) acquire(ctx context.Context) *snapshot {
	if snap := s.current.Load(); snap != nil && s.fresh(snap) {
		return snap
	}

	if s.cacheTTL > 0 {
		s.refreshMu.Lock()
		defer s.refreshMu.Unlock()

		// Another goroutine may have rebuilt while we were waiting
		if snap := s.current.Load(); snap != nil && s.fresh(snap) {
			return snap
		}
	}

	return s.publish(s.build(ctx))
}

func (s *Service) build(ctx context.Context) []indexing.Entry {
	ctx, span := s.tracer.Start(ctx, "search.build")
	defer span.End()

	start := time.Now()
	entries := s.builder.Build()
	s.builds.Add(1)
	s.metrics.buildDuration.Record(ctx, time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("search.entries", len(entries)))
	return entries
}

func (s *Service) fresh(snap *snapshot) bool {
	if s.cacheTTL <= 0 {
		return false
	}
	return s.now().Sub(time.Unix(0, snap.builtAt.Load())) < s.cacheTTL
}

// publish makes entries the current snapshot. An unchanged entry list keeps
// the existing snapshot and its engine.
func (s *Service) publish(entries []indexing.Entry) *snapshot {
	fp := Fingerprint(entries)
	now := s.now()

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	if cur := s.current.Load(); cur != nil && cur.fingerprint == fp {
		cur.builtAt.Store(now.UnixNano())
		return cur
	}

	next := s.newSnapshot(entries, fp, now)
	if s.closed.Load() {
		// Serve this query only; a closed service publishes nothing
		next.closed = true
		return next
	}

	s.retire(s.current.Swap(next))
	return next
}

func (s *Service) newSnapshot(entries []indexing.Entry, fp string, builtAt time.Time) *snapshot {
	snap := &snapshot{
		entries:     entries,
		fingerprint: fp,
		factory: func(entries []indexing.Entry) (Engine, error) {
			s.engines.Add(1)
			return s.factory(entries)
		},
	}
	snap.builtAt.Store(builtAt.UnixNano())
	return snap
}

// retire closes a replaced snapshot in the background once in-flight
// queries release it
func (s *Service) retire(old *snapshot) {
	if old == nil {
		return
	}

	s.retiring.Add(1)
	go func() {
		defer s.retiring.Done()
		if err := old.close(); err != nil {
			log.Printf("Warning: Error closing search engine: %v", err)
		}
	}()
}

// snapshot is one complete build and the engine constructed over it
type snapshot struct {
	entries     []indexing.Entry
	fingerprint string
	builtAt     atomic.Int64

	factory   Factory
	once      sync.Once
	engine    Engine
	engineErr error

	// mu is held shared by queries and exclusively by close
	mu     sync.RWMutex
	closed bool
}

func (s *snapshot) search(query string, limit int) []indexing.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || !s.ensureEngine() {
		return Filter(s.entries, query, limit)
	}
	return s.engine.Search(query, limit)
}

func (s *snapshot) warm() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.closed {
		s.ensureEngine()
	}
}

// ensureEngine constructs the engine on first use. Callers hold mu.
func (s *snapshot) ensureEngine() bool {
	s.once.Do(func() {
		s.engine, s.engineErr = s.factory(s.entries)
		if s.engineErr != nil {
			log.Printf("Warning: Search engine unavailable, using linear scan: %v", s.engineErr)
		}
	})
	return s.engineErr == nil
}

func (s *snapshot) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.engine != nil {
		return s.engine.Close()
	}
	return nil
}
