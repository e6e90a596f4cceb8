// Package server ties the HTTP API, event bus, and scheduler into one
// supervised lifecycle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/snapguess/internal/events"
	"github.com/vmunix/snapguess/internal/importer"
	"github.com/vmunix/snapguess/internal/importjob"
)

// ImportStarter starts refresh imports on schedule.
type ImportStarter interface {
	Start(cfg importjob.Config) (*importjob.Job, error)
}

// Config for the server runner.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration

	// Scheduled refresh imports
	ScheduleEnabled bool
	RefreshSpec     string
	ImportDefaults  importjob.Config
}

// Runner manages the long-lived components.
type Runner struct {
	handler http.Handler
	starter ImportStarter
	bus     *events.Bus
	cfg     Config
	log     *slog.Logger

	mu   sync.Mutex
	addr net.Addr
}

// NewRunner creates a new runner. The bus may be nil when event
// delivery is not wired.
func NewRunner(handler http.Handler, starter ImportStarter, bus *events.Bus,
	cfg Config, log *slog.Logger) *Runner {

	if log == nil {
		log = slog.Default()
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Runner{
		handler: handler,
		starter: starter,
		bus:     bus,
		cfg:     cfg,
		log:     log,
	}
}

// Addr returns the bound listen address once Run has started.
func (r *Runner) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addr
}

// Run starts all components and blocks until the context is canceled
// or a component fails.
func (r *Runner) Run(ctx context.Context) error {
	if r.bus != nil {
		defer r.bus.Close()
	}

	ln, err := net.Listen("tcp", r.cfg.Addr)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.addr = ln.Addr()
	r.mu.Unlock()

	srv := &http.Server{Handler: r.handler}

	var sched *cron.Cron
	if r.cfg.ScheduleEnabled {
		sched = cron.New()
		if _, err := sched.AddFunc(r.cfg.RefreshSpec, r.runRefresh); err != nil {
			ln.Close()
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.log.Info("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), r.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if sched != nil {
		sched.Start()
		g.Go(func() error {
			<-ctx.Done()
			<-sched.Stop().Done()
			return nil
		})
		r.log.Info("refresh schedule active", "spec", r.cfg.RefreshSpec)
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runRefresh kicks off a scheduled import. An already active import is
// not an error; the tick is skipped.
func (r *Runner) runRefresh() {
	job, err := r.starter.Start(r.cfg.ImportDefaults)
	if err != nil {
		if errors.Is(err, importer.ErrImportActive) {
			r.log.Info("refresh skipped, import already active")
			return
		}
		r.log.Error("scheduled refresh failed to start", "error", err)
		return
	}
	r.log.Info("scheduled refresh started", "import_id", job.ID)
}
