package vrchime

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/vrchime/internal/config"
	"github.com/loykin/vrchime/internal/discovery"
	"github.com/loykin/vrchime/internal/history"
	"github.com/loykin/vrchime/internal/history/factory"
	"github.com/loykin/vrchime/internal/launcher"
	"github.com/loykin/vrchime/internal/metrics"
	"github.com/loykin/vrchime/internal/process"
	iapi "github.com/loykin/vrchime/internal/server"
	"github.com/loykin/vrchime/internal/store"
	"github.com/loykin/vrchime/internal/version"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type (
	ResolvedConfig = store.ResolvedConfig
	Source         = store.Source
	IOError        = store.IOError

	Request = process.Request
	ArgMode = process.ArgMode
	Spawner = process.Spawner

	Outcome           = launcher.Outcome
	InvalidInputError = launcher.InvalidInputError
	PathNotFoundError = launcher.PathNotFoundError
	LaunchFailedError = launcher.LaunchFailedError

	Discoverer = discovery.Discoverer

	HistoryEvent = history.Event
	HistorySink  = history.Sink

	Settings = config.Settings
)

const (
	ArgModeLegacy = process.ArgModeLegacy
	ArgModeExact  = process.ArgModeExact
)

// App wires a Store and a Launcher together. It is safe to share between
// goroutines; launches are independent.
type App struct {
	store    *store.Store
	launcher *launcher.Launcher
	sink     history.Sink
	argMode  process.ArgMode
	logger   *slog.Logger
	closers  []io.Closer
}

type options struct {
	storePath  string
	discoverer discovery.Discoverer
	spawner    process.Spawner
	sink       history.Sink
	argMode    process.ArgMode
	logger     *slog.Logger
}

type Option func(*options)

// WithStorePath overrides the persisted config location.
func WithStorePath(p string) Option { return func(o *options) { o.storePath = p } }

// WithDiscoverer replaces platform discovery, e.g. with discovery.Static in tests.
func WithDiscoverer(d Discoverer) Option { return func(o *options) { o.discoverer = d } }

func WithSpawner(s Spawner) Option { return func(o *options) { o.spawner = s } }

func WithHistory(s HistorySink) Option { return func(o *options) { o.sink = s } }

// WithArgMode sets the mode applied to requests that leave ArgMode empty.
func WithArgMode(m ArgMode) Option { return func(o *options) { o.argMode = m } }

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// New builds an App. Defaults: store.DefaultPath, the platform registry,
// an ExecSpawner that releases children, and no history.
func New(opts ...Option) *App {
	o := options{
		discoverer: discovery.Registry{},
		spawner:    process.ExecSpawner{},
		sink:       history.Discard{},
		argMode:    process.ArgModeLegacy,
		logger:     slog.Default(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.sink == nil {
		o.sink = history.Discard{}
	}
	st := store.New(o.storePath, o.discoverer, store.WithLogger(o.logger))
	ln := launcher.New(st, o.spawner, launcher.WithLogger(o.logger), launcher.WithHistory(o.sink))
	return &App{store: st, launcher: ln, sink: o.sink, argMode: o.argMode, logger: o.logger}
}

// Open builds an App from settings, opening the history sink when enabled.
// Callers must Close the App.
func Open(s Settings, logger *slog.Logger, extra ...Option) (*App, error) {
	opts := []Option{
		WithStorePath(s.StorePath),
		WithArgMode(s.ArgMode()),
		WithSpawner(process.ExecSpawner{Reap: s.Launch.Reap}),
		WithLogger(logger),
	}
	var closers []io.Closer
	if s.History.Enabled {
		sink, err := factory.NewSinkFromDSN(s.HistoryDSN())
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		opts = append(opts, WithHistory(sink))
		closers = append(closers, sink)
	}
	a := New(append(opts, extra...)...)
	a.closers = closers
	return a, nil
}

// Close releases the history sink opened by Open.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Resolve returns the install path from the persisted file, discovery or the empty default.
func (a *App) Resolve() ResolvedConfig { return a.store.Resolve() }

// Persist saves path as the install path.
func (a *App) Persist(path string) error { return a.store.Persist(path) }

// StorePath is the persisted config location.
func (a *App) StorePath() string { return a.store.Path() }

// Launch validates req, persists its install path and spawns req.Count instances.
func (a *App) Launch(req Request) (Outcome, error) {
	if req.ArgMode == "" {
		req.ArgMode = a.argMode
	}
	return a.launcher.Launch(req)
}

// History returns the configured sink; it implements history.Reader for SQL sinks.
func (a *App) History() HistorySink { return a.sink }

// Version returns the build version or "Unknown".
func Version() string { return version.Get() }

// LoadSettings reads the TOML settings file at path; empty means defaults.
func LoadSettings(path string) (Settings, error) { return config.Load(path) }

// Router returns the embeddable HTTP router for a.
func (a *App) Router(basePath string) *iapi.Router {
	return iapi.NewRouter(a, a, basePath,
		iapi.WithLogger(a.logger),
		iapi.WithHistory(a.sink),
		iapi.WithArgMode(a.argMode),
	)
}

// NewHTTPServer returns an unstarted HTTP server exposing the API at basePath.
func (a *App) NewHTTPServer(addr, basePath string) *http.Server {
	return iapi.NewServer(addr, a.Router(basePath).Handler())
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// NewMetricsServer returns an unstarted server exposing /metrics from the default registry.
func NewMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
