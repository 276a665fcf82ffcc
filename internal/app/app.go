package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/match-reconciler/external/apifootball"
	"github.com/riskibarqy/match-reconciler/external/jobqueue"
	"github.com/riskibarqy/match-reconciler/internal/config"
	"github.com/riskibarqy/match-reconciler/internal/domain/bundle"
	"github.com/riskibarqy/match-reconciler/internal/domain/jobscheduler"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchphase"
	"github.com/riskibarqy/match-reconciler/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/match-reconciler/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/match-reconciler/internal/infrastructure/scheduler"
	"github.com/riskibarqy/match-reconciler/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/match-reconciler/internal/platform/id"
	"github.com/riskibarqy/match-reconciler/internal/platform/logging"
	"github.com/riskibarqy/match-reconciler/internal/usecase"
	"go.opentelemetry.io/otel"
)

// App holds the wired service: HTTP server, tick scheduler and the resources to release on shutdown.
type App struct {
	Server *http.Server

	cfg     config.Config
	logger  *logging.Logger
	jobs    *usecase.FixtureJobService
	cron    *scheduler.CronScheduler
	closers []func() error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}
	a := &App{cfg: cfg, logger: logger}

	bundleRepo, dispatchRepo, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	reconciler := usecase.NewReconcileService(
		a.snapshotProvider(),
		bundleRepo,
		usecase.NewLineupCache(cfg.LineupCacheTTL),
		usecase.NewAnomalyReporter(logger.Named("anomaly"), otel.Meter("match-reconciler/internal/usecase")),
		idgen.NewUUIDGenerator(),
		logger,
	)

	queue := a.jobQueue()
	a.jobs = usecase.NewFixtureJobService(reconciler, queue, dispatchRepo, usecase.FixtureJobConfig{
		PreMatchInterval:  cfg.JobPreMatchInterval,
		LiveInterval:      cfg.JobLiveInterval,
		PostMatchInterval: cfg.JobPostMatchInterval,
		MaxWorkers:        cfg.ReconcileMaxWorkers,
	}, logger)
	if a.cron != nil {
		a.cron.Bind(a.jobs)
	}

	handler := httpapi.NewHandler(a.jobs, logger)
	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, logger, cfg.InternalJobToken),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return a, nil
}

func (a *App) openStorage(ctx context.Context) (bundle.Repository, jobscheduler.Repository, error) {
	switch a.cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := openDatabase(ctx, a.cfg)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.logger.Info("storage ready", "driver", config.StoragePostgres, "db_name", dbNameFromURL(a.cfg.DBURL))
		return postgres.NewBundleRepository(db), postgres.NewJobDispatchRepository(db), nil
	default:
		a.logger.Warn("storage is in-memory; reconciled data is lost on restart", "driver", config.StorageMemory)
		return memory.NewBundleRepository(), memory.NewJobDispatchRepository(), nil
	}
}

func (a *App) snapshotProvider() usecase.SnapshotProvider {
	if !a.cfg.APIFootballEnabled {
		a.logger.Warn("api-football disabled; every tick will fail until APIFOOTBALL_ENABLED=true")
		return unavailableProvider{}
	}
	return apifootball.NewClient(apifootball.ClientConfig{
		BaseURL:        a.cfg.APIFootballBaseURL,
		APIKey:         a.cfg.APIFootballKey,
		Host:           a.cfg.APIFootballHost,
		Timeout:        a.cfg.APIFootballTimeout,
		MaxRetries:     a.cfg.APIFootballMaxRetries,
		Logger:         a.logger.Named("apifootball"),
		CircuitBreaker: a.cfg.APIFootballCircuit,
	})
}

func (a *App) jobQueue() usecase.JobQueue {
	if a.cfg.SchedulerDriver == config.SchedulerQStash {
		return jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          a.cfg.QStashBaseURL,
			Token:            a.cfg.QStashToken,
			TargetBaseURL:    a.cfg.QStashTargetBaseURL,
			Retries:          a.cfg.QStashRetries,
			InternalJobToken: a.cfg.InternalJobToken,
			CircuitBreaker:   a.cfg.QStashCircuit,
		}, a.logger.Named("qstash"))
	}
	a.cron = scheduler.NewCronScheduler(a.logger, a.cfg.WriteTimeout)
	return a.cron
}

// Start runs the in-process scheduler, when configured, and queues the first tick of every
// watched fixture.
func (a *App) Start(ctx context.Context) {
	if a.cron != nil {
		a.cron.Start(ctx)
	}
	for _, fixtureID := range a.cfg.WatchFixtures {
		if err := a.jobs.Start(ctx, fixtureID, matchphase.PreMatch); err != nil {
			a.logger.ErrorContext(ctx, "start watched fixture failed", "fixture_id", fixtureID, "error", err)
			continue
		}
		a.logger.InfoContext(ctx, "watching fixture", "fixture_id", fixtureID)
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}
	if a.cron != nil {
		a.cron.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type unavailableProvider struct{}

func (unavailableProvider) FetchMatchSnapshot(context.Context, int64) (usecase.ExternalMatchSnapshot, error) {
	return usecase.ExternalMatchSnapshot{}, fmt.Errorf("%w: match data provider is disabled", usecase.ErrDependencyUnavailable)
}
