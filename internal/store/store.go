package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/loykin/vrchime/internal/discovery"
	"github.com/loykin/vrchime/internal/metrics"
)

const (
	vendorDir = "VRChime"
	fileName  = "config.yaml"
	fileKey   = "game_path"
)

// DefaultPath is the persisted config location beneath the OS temp directory.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), vendorDir, fileName)
}

// Store resolves and persists the install path of the target executable.
// Resolution is read-only; only Persist writes.
type Store struct {
	path       string
	discoverer discovery.Discoverer
	logger     *slog.Logger
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store backed by the file at path (DefaultPath when empty).
// A nil discoverer disables the registry tier.
func New(path string, d discovery.Discoverer, opts ...Option) *Store {
	if path == "" {
		path = DefaultPath()
	}
	if d == nil {
		d = discovery.None{}
	}
	s := &Store{path: path, discoverer: d, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Path returns the location of the persisted file.
func (s *Store) Path() string { return s.path }

type lookup struct {
	source Source
	fn     func() (ResolvedConfig, error)
}

// Resolve returns the first answer from the persisted file, then platform
// discovery, falling back to an empty install path. It never fails.
func (s *Store) Resolve() ResolvedConfig {
	chain := []lookup{
		{source: SourceFile, fn: s.fromFile},
		{source: SourceRegistry, fn: s.fromDiscovery},
	}
	for _, l := range chain {
		cfg, err := l.fn()
		if err != nil {
			s.logger.Debug("config source unavailable", "source", l.source, "error", err)
			continue
		}
		cfg.Source = l.source
		metrics.IncResolve(string(l.source))
		s.logger.Debug("config resolved", "source", l.source, "game_path", cfg.InstallPath)
		return cfg
	}
	metrics.IncResolve(string(SourceDefault))
	return ResolvedConfig{Source: SourceDefault}
}

func (s *Store) fromFile() (ResolvedConfig, error) {
	if _, err := os.Stat(s.path); err != nil {
		return ResolvedConfig{}, err
	}
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return ResolvedConfig{}, &SerializationError{Path: s.path, Err: err}
	}
	var cfg ResolvedConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ResolvedConfig{}, &SerializationError{Path: s.path, Err: err}
	}
	return cfg, nil
}

func (s *Store) fromDiscovery() (ResolvedConfig, error) {
	p, err := discovery.Lookup(s.discoverer)
	if err != nil {
		return ResolvedConfig{}, err
	}
	return ResolvedConfig{InstallPath: p}, nil
}

// Persist writes path as the install path, replacing any previous content.
func (s *Store) Persist(path string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		metrics.IncPersist(false)
		return &IOError{Op: "mkdir", Path: dir, Err: err}
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigPermissions(0o600)
	v.Set(fileKey, path)
	if err := v.WriteConfigAs(s.path); err != nil {
		metrics.IncPersist(false)
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	metrics.IncPersist(true)
	s.logger.Info("install path saved", "path", s.path, "game_path", path)
	return nil
}

// IOError reports a failed filesystem operation while persisting.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("config %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// SerializationError reports a persisted file that could not be parsed.
// Resolve treats it as absence.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("parse config %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
