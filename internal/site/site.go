package site

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/kiln/internal/config"
	"github.com/roach88/kiln/internal/events"
	"github.com/roach88/kiln/internal/filters"
	"github.com/roach88/kiln/internal/ir"
	"github.com/roach88/kiln/internal/output"
	"github.com/roach88/kiln/internal/recipe"
	"github.com/roach88/kiln/internal/snapshot"
	"github.com/roach88/kiln/internal/store"
)

// Clock supplies run timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Site compiles one configured site.
//
// Thread-safety: a Site is not safe for concurrent Compile calls; watch mode
// serializes them.
type Site struct {
	cfg      *config.Config
	filters  *filters.Registry
	router   output.Router
	runIDs   store.RunIDGenerator
	clock    Clock
	sinks    []events.Sink
	logger   *slog.Logger
	snapshot snapshot.Backend // shared backend for memory mode; nil otherwise
}

// Option configures a Site.
type Option func(*Site)

// WithFilters replaces the builtin filter registry.
func WithFilters(r *filters.Registry) Option {
	return func(s *Site) { s.filters = r }
}

// WithRunIDs sets the run ID generator.
func WithRunIDs(g store.RunIDGenerator) Option {
	return func(s *Site) { s.runIDs = g }
}

// WithClock sets the clock used for run timestamps.
func WithClock(c Clock) Option {
	return func(s *Site) { s.clock = c }
}

// WithSinks attaches event sinks to every compilation.
func WithSinks(sinks ...events.Sink) Option {
	return func(s *Site) { s.sinks = append(s.sinks, sinks...) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Site) { s.logger = l }
}

// New creates a Site for cfg. Paths in cfg should already be resolved.
func New(cfg *config.Config, opts ...Option) *Site {
	s := &Site{
		cfg:     cfg,
		filters: filters.Builtin(),
		runIDs:  store.UUIDv7Generator{},
		clock:   systemClock{},
		logger:  slog.Default(),
	}
	switch cfg.Site.Router {
	case config.RouterVerbatim:
		s.router = output.VerbatimRouter{}
	default:
		s.router = output.PrettyRouter{}
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Snapshots.Backend == config.SnapshotBackendMemory {
		// Memory snapshots live as long as the Site so watch mode stays
		// incremental.
		s.snapshot = snapshot.NewMemoryBackend()
	}
	return s
}

// Config returns the site configuration.
func (s *Site) Config() *config.Config { return s.cfg }

// Router returns the router reps are written through.
func (s *Site) Router() output.Router { return s.router }

// Load reads items and layouts and resolves reps through the rules.
func (s *Site) Load() (*Sources, []*ir.Rep, error) {
	items, err := LoadItems(s.cfg.Site.ContentDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load items: %w", err)
	}
	layouts, err := LoadLayouts(s.cfg.Site.LayoutsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load layouts: %w", err)
	}
	rules, err := recipe.Load(s.cfg.Site.Rules)
	if err != nil {
		return nil, nil, err
	}
	reps, err := rules.Resolve(items, s.router)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Debug("site loaded",
		"items", len(items),
		"layouts", len(layouts),
		"rules", len(rules),
		"reps", len(reps))
	return &Sources{Items: items, Layouts: layouts}, reps, nil
}

// openMetadata opens the SQLite run store, creating its directory.
func (s *Site) openMetadata() (*store.Store, error) {
	path := s.cfg.Metadata.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create metadata directory: %w", err)
	}
	return store.Open(path)
}

// openSnapshots opens the configured snapshot backend.
func (s *Site) openSnapshots() (*snapshot.Store, error) {
	if s.snapshot != nil {
		return snapshot.New(nopCloser{s.snapshot}), nil
	}
	if err := os.MkdirAll(s.cfg.Snapshots.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	backend, err := snapshot.OpenBadger(snapshot.BadgerConfig{
		Path:       s.cfg.Snapshots.Path,
		SyncWrites: s.cfg.Snapshots.SyncWrites,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open snapshots: %w", err)
	}
	return snapshot.New(backend), nil
}

// nopCloser keeps the shared memory backend open across runs.
type nopCloser struct {
	snapshot.Backend
}

func (nopCloser) Close() error { return nil }

// sitePaths returns every site path reps write, in rep order.
func sitePaths(router output.Router, reps []*ir.Rep) []string {
	var paths []string
	for _, rep := range reps {
		paths = append(paths, output.SitePaths(router, rep)...)
	}
	return paths
}
