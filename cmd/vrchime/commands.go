package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/loykin/vrchime"
	"github.com/loykin/vrchime/internal/history"
	"github.com/loykin/vrchime/internal/process"
	"github.com/loykin/vrchime/pkg/client"
)

type command struct {
	global *GlobalFlags
	out    io.Writer
	// extra options applied to every App; tests inject a fake spawner here
	appOpts []vrchime.Option
}

// session is a loaded settings file plus the logger built from it.
type session struct {
	settings vrchime.Settings
	logger   *slog.Logger
	closer   io.Closer
}

func (s *session) Close() error { return s.closer.Close() }

func (c *command) session() (*session, error) {
	st, err := vrchime.LoadSettings(c.global.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error loading settings: %w", err)
	}
	if c.global.LogLevel != "" {
		st.Log.Level = c.global.LogLevel
		if err := st.Validate(); err != nil {
			return nil, err
		}
	}
	logger, closer := st.LoggerConfig().NewSlogger()
	slog.SetDefault(logger)
	return &session{settings: st, logger: logger, closer: closer}, nil
}

func (c *command) open(s *session) (*vrchime.App, error) {
	return vrchime.Open(s.settings, s.logger, c.appOpts...)
}

func (c *command) apiClient() *client.Client {
	return client.New(client.Config{
		BaseURL: c.global.APIUrl,
		Timeout: c.global.APITimeout,
		Logger:  slog.Default(),
	})
}

func (c *command) remote() bool { return c.global.APIUrl != "" }

// Config prints the resolved configuration text.
func (c *command) Config(ctx context.Context) error {
	s, err := c.session()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if c.remote() {
		cfg, err := c.apiClient().Config(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(c.out, cfg.Text)
		return err
	}

	app, err := c.open(s)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	_, err = fmt.Fprint(c.out, app.Resolve().Text())
	return err
}

// Version prints the local version, or the server's when --api-url is set.
func (c *command) Version(ctx context.Context) error {
	if c.remote() {
		v, err := c.apiClient().Version(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.out, v)
		return err
	}
	_, err := fmt.Fprintln(c.out, vrchime.Version())
	return err
}

// Launch starts f.Count instances and prints the success message.
func (c *command) Launch(ctx context.Context, f LaunchFlags) error {
	s, err := c.session()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var mode process.ArgMode
	if f.ArgMode != "" {
		if mode, err = process.ParseArgMode(f.ArgMode); err != nil {
			return err
		}
		f.ArgMode = string(mode)
	}

	if c.remote() {
		return c.launchViaAPI(ctx, f)
	}

	app, err := c.open(s)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	if f.GamePath == "" {
		f.GamePath = app.Resolve().InstallPath
	}
	out, err := app.Launch(vrchime.Request{
		InstallPath: f.GamePath,
		PayloadFile: f.File,
		Count:       f.Count,
		ArgMode:     mode,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, out.Message())
	return err
}

func (c *command) launchViaAPI(ctx context.Context, f LaunchFlags) error {
	api := c.apiClient()
	if f.GamePath == "" {
		cfg, err := api.Config(ctx)
		if err != nil {
			return err
		}
		f.GamePath = cfg.GamePath
	}
	res, err := api.Launch(ctx, client.LaunchRequest{
		GamePath: f.GamePath,
		File:     f.File,
		Count:    f.Count,
		ArgMode:  f.ArgMode,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, res.Message)
	return err
}

// History prints recent launch events as JSON.
func (c *command) History(ctx context.Context, f HistoryFlags) error {
	if c.remote() {
		evs, err := c.apiClient().History(ctx, f.Limit)
		if err != nil {
			return err
		}
		return printJSON(c.out, evs)
	}

	s, err := c.session()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	if !s.settings.History.Enabled {
		return errors.New("history is disabled; set [history].enabled = true")
	}
	app, err := c.open(s)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	rd, ok := app.History().(history.Reader)
	if !ok {
		return errors.New("configured history sink cannot be read back")
	}
	evs, err := rd.Recent(ctx, f.Limit)
	if err != nil {
		return err
	}
	if evs == nil {
		evs = []history.Event{}
	}
	return printJSON(c.out, evs)
}
