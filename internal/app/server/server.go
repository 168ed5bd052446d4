package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"hrops/internal/domain/attendance"
	"hrops/internal/domain/events"
	"hrops/internal/domain/expiry"
	"hrops/internal/domain/hour"
	"hrops/internal/domain/leave"
	"hrops/internal/domain/user"
	"hrops/internal/platform/broker"
	"hrops/internal/platform/clock"
	"hrops/internal/platform/config"
	"hrops/internal/platform/db"
	"hrops/internal/platform/jobs"
	"hrops/internal/platform/lock"
	"hrops/internal/platform/memstore"
	"hrops/internal/platform/metrics"
	opshandler "hrops/internal/transport/http/handlers/ops"
	"hrops/internal/transport/http/middleware"
)

// App holds the wired services. Lifecycle operations are exposed as Go
// methods on the services; the HTTP surface only carries ops endpoints.
type App struct {
	Config  config.Config
	Router  http.Handler
	Metrics *metrics.Collector
	Jobs    *jobs.Service

	Leaves     *leave.Service
	Hours      *hour.Service
	Attendance *attendance.Service
	Reconciler *attendance.Reconciler
	Expirer    *expiry.Expirer

	// Memory is the in-process store when STORE_BACKEND is memory, nil
	// otherwise.
	Memory *memstore.DB

	ping    func(context.Context) error
	closers []func() error
}

type backend struct {
	mem        *memstore.DB
	users      user.StoreAPI
	leaves     leave.StoreAPI
	hours      hour.StoreAPI
	attendance attendance.StoreAPI
	runs       jobs.RunStore
	ping       func(context.Context) error
	close      func() error
}

// New connects the configured backend and optional redis and broker, then
// wires services, jobs and the router.
func New(ctx context.Context, cfg config.Config, clk clock.Clock) (*App, error) {
	if clk == nil {
		clk = clock.System
	}
	app := &App{Config: cfg, Metrics: metrics.New()}

	be, err := openBackend(ctx, cfg, clk)
	if err != nil {
		return nil, err
	}
	app.ping = be.ping
	app.Memory = be.mem
	app.addCloser(be.close)

	var locker jobs.Locker
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		redisLock := lock.NewRedis(client)
		if err := redisLock.Ping(ctx); err != nil {
			_ = client.Close()
			app.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		locker = redisLock
		app.addCloser(client.Close)
	}

	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPub, err := broker.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			app.Close()
			return nil, err
		}
		pub = amqpPub
		app.addCloser(amqpPub.Close)
	}

	app.Leaves = leave.NewService(be.leaves, be.users, clk, pub)
	app.Hours = hour.NewService(be.hours, be.users, clk, pub)
	app.Attendance = attendance.NewService(be.attendance, be.users, clk)
	app.Reconciler = attendance.NewReconciler(be.attendance, be.users, clk,
		attendance.LeaveProcessor{Leaves: be.leaves},
		attendance.HourProcessor{Hours: be.hours},
	)
	app.Expirer = expiry.New(cfg.PendingMaxAge, clk, app.Leaves, app.Hours)

	app.Jobs = jobs.New(be.runs, locker, cfg.JobLockTTL, app.Metrics)
	app.Jobs.Register(jobs.Job{
		Name:     jobs.JobAttendance,
		Schedule: jobs.DailyAt{Hour: cfg.AttendanceRunHour, Minute: cfg.AttendanceRunMinute},
		Run: func(ctx context.Context) (any, error) {
			return app.Reconciler.Run(ctx)
		},
	})
	app.Jobs.Register(jobs.Job{
		Name:     jobs.JobPendingExpiry,
		Schedule: jobs.Every(cfg.PendingExpiryInterval),
		Run: func(ctx context.Context) (any, error) {
			return app.Expirer.Run(ctx)
		},
	})

	app.Router = app.routes()
	return app, nil
}

func openBackend(ctx context.Context, cfg config.Config, clk clock.Clock) (backend, error) {
	if cfg.StoreBackend == config.BackendMemory {
		mem := memstore.New(clk)
		return backend{
			mem:        mem,
			users:      mem.Users(),
			leaves:     mem.Leaves(),
			hours:      mem.Hours(),
			attendance: mem.Attendance(),
			runs:       mem.JobRuns(),
			ping:       mem.Ping,
			close:      func() error { return nil },
		}, nil
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return backend{}, fmt.Errorf("db connect failed: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return backend{}, fmt.Errorf("migrations failed: %w", err)
		}
	}
	return backend{
		users:      user.NewStore(pool),
		leaves:     leave.NewStore(pool),
		hours:      hour.NewStore(pool),
		attendance: attendance.NewStore(pool),
		runs:       jobs.NewStore(pool),
		ping:       pool.Ping,
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

func (a *App) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(a.Config.Environment == "production"))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.ping(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	ops := opshandler.NewHandler(a.Jobs, a.Metrics, a.Leaves, a.Hours)
	router.Get("/metrics", ops.HandleMetrics)
	router.Route("/ops", func(r chi.Router) {
		r.Use(middleware.OpsToken(a.Config.OpsToken))
		ops.RegisterRoutes(r)
	})

	return router
}

// Run serves until ctx is done, then drains the server within the
// configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	jobsCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	if a.Config.JobsEnabled {
		a.Jobs.Start(jobsCtx)
	}

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("hrops server listening", "addr", a.Config.Addr, "backend", a.Config.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	stopJobs()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "err", err)
		}
	}
	a.closers = nil
}

func (a *App) addCloser(fn func() error) {
	a.closers = append(a.closers, fn)
}
