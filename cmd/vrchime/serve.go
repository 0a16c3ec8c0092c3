package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loykin/vrchime"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the API server, and the metrics server when configured, until
// ctx is cancelled or SIGINT/SIGTERM arrives.
func (c *command) Serve(ctx context.Context, f ServeFlags) error {
	s, err := c.session()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	st := s.settings
	if f.Listen != "" {
		st.Server.Listen = f.Listen
	}
	if f.BasePath != "" {
		st.Server.BasePath = f.BasePath
	}
	if f.MetricsListen != "" {
		st.Metrics.Listen = f.MetricsListen
	}
	// a long-running server must collect its children
	st.Launch.Reap = true
	s.settings = st

	app, err := vrchime.Open(st, s.logger, c.appOpts...)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	servers := []*http.Server{app.NewHTTPServer(st.Server.Listen, st.Server.BasePath)}
	if st.Metrics.Listen != "" {
		if err := vrchime.RegisterMetricsDefault(); err != nil {
			return err
		}
		servers = append(servers, vrchime.NewMetricsServer(st.Metrics.Listen))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			s.logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(sctx))
		}
		s.logger.Info("server stopped")
		return errors.Join(errs...)
	})
	return g.Wait()
}
