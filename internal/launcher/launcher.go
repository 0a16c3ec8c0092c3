package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/loykin/vrchime/internal/history"
	"github.com/loykin/vrchime/internal/metrics"
	"github.com/loykin/vrchime/internal/process"
)

// Persister saves a confirmed install path.
type Persister interface {
	Persist(path string) error
}

// Outcome describes a fully successful launch.
type Outcome struct {
	LaunchID string `json:"launch_id"`
	Launched uint32 `json:"launched"`
	PIDs     []int  `json:"pids,omitempty"`
}

// Message is the user-facing success line.
func (o Outcome) Message() string {
	return fmt.Sprintf("Successfully launched %d VRChat instance(s)!", o.Launched)
}

// Launcher validates launch requests, persists the install path and starts
// the requested number of instances one after another.
type Launcher struct {
	persister Persister
	spawner   process.Spawner
	sink      history.Sink
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Launcher)

func WithLogger(l *slog.Logger) Option {
	return func(ln *Launcher) {
		if l != nil {
			ln.logger = l
		}
	}
}

// WithHistory records launch events to s. Send errors are logged only.
func WithHistory(s history.Sink) Option {
	return func(ln *Launcher) {
		if s != nil {
			ln.sink = s
		}
	}
}

func New(p Persister, s process.Spawner, opts ...Option) *Launcher {
	if s == nil {
		s = process.ExecSpawner{}
	}
	ln := &Launcher{
		persister: p,
		spawner:   s,
		sink:      history.Discard{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(ln)
	}
	ln.logger = ln.logger.With("component", "launcher")
	return ln
}

// Launch runs req. Instances are spawned strictly in order and the first
// failure stops the loop; already started instances are left running.
func (l *Launcher) Launch(req process.Request) (Outcome, error) {
	start := l.now()
	id := uuid.NewString()
	log := l.logger.With("launch_id", id)

	if req.InstallPath == "" || req.PayloadFile == "" {
		field := "game_path"
		if req.InstallPath != "" {
			field = "file"
		}
		metrics.IncLaunch(metrics.ResultInvalidInput)
		log.Warn("launch rejected", "reason", "empty input", "field", field)
		return Outcome{}, &InvalidInputError{Field: field}
	}

	mode, err := process.ParseArgMode(string(req.ArgMode))
	if err != nil {
		metrics.IncLaunch(metrics.ResultInvalidInput)
		log.Warn("launch rejected", "reason", "unknown arg mode", "arg_mode", req.ArgMode)
		return Outcome{}, &InvalidInputError{Field: "arg_mode", Value: string(req.ArgMode)}
	}

	if _, err := os.Stat(req.InstallPath); err != nil {
		metrics.IncLaunch(metrics.ResultPathNotFound)
		log.Warn("launch rejected", "reason", "executable not found", "game_path", req.InstallPath, "error", err)
		return Outcome{}, &PathNotFoundError{Path: req.InstallPath}
	}

	if l.persister != nil {
		if err := l.persister.Persist(req.InstallPath); err != nil {
			metrics.IncLaunch(metrics.ResultPersistFailed)
			log.Error("persist install path failed", "error", err)
			return Outcome{}, err
		}
	}

	base := history.Event{
		LaunchID:    id,
		InstallPath: req.InstallPath,
		PayloadFile: req.PayloadFile,
		Requested:   int(req.Count),
	}

	out := Outcome{LaunchID: id}
	for i := uint32(0); i < req.Count; i++ {
		args := process.BuildArgs(req.PayloadFile, mode)
		pid, err := l.spawner.Spawn(req.InstallPath, args)
		if err != nil {
			metrics.IncSpawnFailure()
			metrics.IncLaunch(metrics.ResultLaunchFailed)
			metrics.ObserveLaunchDuration(l.now().Sub(start).Seconds())
			lf := &LaunchFailedError{Index: i + 1, Err: err}
			log.Error("spawn failed", "instance", i+1, "launched", out.Launched, "error", err)
			ev := base
			ev.Type = history.EventLaunchFailed
			ev.Instance = int(i + 1)
			ev.Launched = int(out.Launched)
			ev.Error = err.Error()
			l.record(log, ev)
			return out, lf
		}
		out.Launched++
		out.PIDs = append(out.PIDs, pid)
		metrics.IncSpawned()
		log.Debug("instance spawned", "instance", i+1, "pid", pid, "args", args)
		ev := base
		ev.Type = history.EventInstanceSpawned
		ev.Instance = int(i + 1)
		ev.PID = pid
		ev.Launched = int(out.Launched)
		l.record(log, ev)
	}

	metrics.IncLaunch(metrics.ResultSuccess)
	metrics.ObserveLaunchDuration(l.now().Sub(start).Seconds())
	ev := base
	ev.Type = history.EventLaunchSucceeded
	ev.Launched = int(out.Launched)
	l.record(log, ev)
	log.Info("launch complete", "launched", out.Launched, "game_path", req.InstallPath, "file", req.PayloadFile)
	return out, nil
}

func (l *Launcher) record(log *slog.Logger, ev history.Event) {
	ev.OccurredAt = l.now().UTC()
	if err := l.sink.Send(context.Background(), ev); err != nil {
		log.Warn("history send failed", "event", ev.Type, "error", err)
	}
}

// IsUserError reports whether err comes from request validation rather
// than from persisting or spawning.
func IsUserError(err error) bool {
	var ie *InvalidInputError
	var pe *PathNotFoundError
	return errors.As(err, &ie) || errors.As(err, &pe)
}
