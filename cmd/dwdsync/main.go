package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"dwdcdc/internal/auth"
	"dwdcdc/internal/common"
	"dwdcdc/internal/config"
	"dwdcdc/internal/constants"
	"dwdcdc/internal/dataset"
	"dwdcdc/internal/db"
	"dwdcdc/internal/jobs"
	"dwdcdc/internal/logging"
	"dwdcdc/internal/metrics"
	"dwdcdc/internal/providers"
	"dwdcdc/internal/routes"
	"dwdcdc/internal/storage"
)

// Exit codes seen by the job runner
const (
	exitOK            = 0
	exitPartial       = 1
	exitMisconfigured = 2
)

type options struct {
	dataset     string
	stations    bool
	historical  bool
	recent      bool
	station     string
	skipCovered bool
	serve       bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("dwdsync", flag.ContinueOnError)
	fs.StringVar(&o.dataset, "dataset", "at2h", "dataset to sync (at2h, kl or one declared in DWD_CONFIG_FILE)")
	fs.BoolVar(&o.stations, "stations", false, "sync the station list")
	fs.BoolVar(&o.historical, "historical", false, "sync the historical window")
	fs.BoolVar(&o.recent, "recent", false, "sync the recent window")
	fs.StringVar(&o.station, "station", "", `restrict to stations, e.g. "722(Brocken),5792"`)
	fs.BoolVar(&o.skipCovered, "skip-covered", false, "skip historical files already covered by stored readings")
	fs.BoolVar(&o.serve, "serve", false, "run the ops server and the daily recent sync")
	err := fs.Parse(args)
	return o, err
}

// mode returns the single selected mode, "" if none or several were chosen
func (o options) mode() string {
	var modes []string
	if o.stations {
		modes = append(modes, constants.SyncModeStations)
	}
	if o.historical {
		modes = append(modes, constants.SyncModeHistorical)
	}
	if o.recent {
		modes = append(modes, constants.SyncModeRecent)
	}
	if len(modes) != 1 {
		return ""
	}
	return modes[0]
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	opts, err := parseFlags(args)
	if err != nil {
		return exitMisconfigured
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("❌ Failed to load configuration: %v", err)
		return exitMisconfigured
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Printf("❌ Failed to initialize logger: %v", err)
		return exitMisconfigured
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var req jobs.Request
	if !opts.serve {
		req, err = buildRequest(opts, cfg)
		if err != nil {
			var ce *jobs.ConfigError
			if errors.As(err, &ce) {
				logging.Error("Invocation misconfigured", "code", ce.Code, "error", ce.Message)
			} else {
				logging.Error("Invocation misconfigured", "error", err)
			}
			return exitMisconfigured
		}
	}

	app, err := newApp(ctx, cfg)
	if err != nil {
		logging.Error("Failed to initialize", "error", err)
		return exitMisconfigured
	}
	defer app.close()

	if opts.serve {
		if err := app.serve(ctx); err != nil {
			logging.Error("Server stopped with error", "error", err)
			return exitPartial
		}
		return exitOK
	}

	return app.once(ctx, req)
}

// buildRequest turns the flags into a sync request and rejects a misconfigured
// one before any store or network client is opened.
func buildRequest(opts options, cfg *config.AppConfig) (jobs.Request, error) {
	req := jobs.Request{
		Dataset:     opts.dataset,
		Mode:        opts.mode(),
		Stations:    cfg.Stations,
		AllStations: cfg.AllStations,
		SkipCovered: opts.skipCovered,
	}
	if opts.station != "" {
		ids, err := dataset.ParseStationSelection(opts.station)
		if err != nil {
			return req, &jobs.ConfigError{Code: constants.ErrCodeInvalidStationList, Message: err.Error()}
		}
		req.Stations = ids
	}

	registry, err := cfg.Registry()
	if err != nil {
		return req, err
	}
	if _, err := jobs.CheckRequest(registry, req); err != nil {
		return req, err
	}
	return req, nil
}

// app holds the wired collaborators of one process
type app struct {
	cfg      *config.AppConfig
	store    *db.Store
	cache    common.CacheInterface
	registry *dataset.Registry
	metrics  *metrics.MetricsRegistry
	job      *jobs.SyncJob
}

func newApp(ctx context.Context, cfg *config.AppConfig) (*app, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	dsn := cfg.DB.DSN
	if cfg.DB.Driver == db.DriverSQLite {
		dsn = cfg.DB.SQLitePath
	}
	store, err := db.Open(cfg.DB.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := store.Bootstrap(ctx, registry.All()...); err != nil {
		store.Close()
		return nil, err
	}
	logging.Info("Store ready", "driver", cfg.DB.Driver)

	var cache common.CacheInterface
	if cfg.Redis.Enabled() {
		rc, err := common.NewRedisCacheService(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)
		if err != nil {
			logging.Warn("Redis unavailable, falling back to in-memory listing cache", "error", err)
		} else {
			cache = rc
		}
	}
	if cache == nil {
		cache = common.NewCacheService(cfg.DWD.ListingCacheTTL, 2*cfg.DWD.ListingCacheTTL)
	}

	m := metrics.NewMetricsRegistry()

	var mirror storage.RawMirror = storage.NopMirror{}
	if s3 := cfg.S3; s3 != nil {
		sm, err := storage.NewS3Mirror(s3.AccessKeyID, s3.SecretAccessKey, s3.Endpoint, s3.BucketName, s3.Region, s3.Prefix)
		if err != nil {
			logging.Warn("Raw mirror disabled", "error", err)
		} else {
			mirror = sm
			logging.Info("Raw mirror enabled", "bucket", s3.BucketName)
		}
	}

	provider := providers.NewDWDProvider(providers.DWDProviderConfig{
		BaseURL:           cfg.DWD.BaseURL,
		Timeout:           cfg.DWD.Timeout,
		RequestsPerSecond: cfg.DWD.RequestsPerSecond,
		Retries:           cfg.DWD.Retries,
		RetryBackoff:      cfg.DWD.RetryBackoff,
		ListingCacheTTL:   cfg.DWD.ListingCacheTTL,
	}, cache, m)

	job := jobs.NewSyncJob(store, registry, provider, mirror, m)
	job.SetPause(cfg.DWD.Pause)

	return &app{
		cfg:      cfg,
		store:    store,
		cache:    cache,
		registry: registry,
		metrics:  m,
		job:      job,
	}, nil
}

func (a *app) close() {
	if err := a.cache.Close(); err != nil {
		logging.Warn("Failed to close cache", "error", err)
	}
	if err := a.store.Close(); err != nil {
		logging.Warn("Failed to close store", "error", err)
	}
}

// once runs a single sync and maps its outcome to an exit code
func (a *app) once(ctx context.Context, req jobs.Request) int {
	summary, err := a.job.Run(ctx, req)

	if a.cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if perr := a.metrics.Push(pushCtx, a.cfg.PushgatewayURL, "dwdsync"); perr != nil {
			logging.Warn("Failed to push metrics", "error", perr)
		}
		cancel()
	}

	if err != nil {
		var ce *jobs.ConfigError
		if errors.As(err, &ce) {
			logging.Error("Invocation misconfigured", "code", ce.Code, "error", ce.Message)
			return exitMisconfigured
		}
		logging.Error("Sync failed", "error", err)
		return exitPartial
	}

	for _, r := range summary.Failed() {
		logging.Error("Station failed", "station", r.Station, "errors", r.Errors)
	}
	fmt.Printf("%s %s %s: %d stations, %d files, %d rows written\n",
		summary.Dataset, summary.Mode, summary.Status,
		summary.StationsAttempted, summary.FilesFetched, summary.RowsWritten)

	if summary.Status == constants.RunStatusPartialFailure {
		return exitPartial
	}
	return exitOK
}

// serve runs the ops server and the daily recent sync until ctx is done
func (a *app) serve(ctx context.Context) error {
	if a.cfg.JobsAPISecret == "" {
		logging.Warn("JOBS_API_SECRET is empty, the jobs API rejects every request")
	}

	names := make([]string, 0)
	for _, d := range a.registry.All() {
		names = append(names, d.Name)
	}
	scheduler, err := jobs.InitializeJobs(ctx, a.job, names, a.cfg.Stations, a.cfg.AllStations, a.cfg.RecentSyncAt)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	handler := routes.RegisterRoutes(routes.Dependencies{
		Store:    a.store,
		Registry: a.registry,
		Runner:   a.job,
		Metrics:  a.metrics,
		Tokens:   auth.NewTokenService(a.cfg.JobsAPISecret),
		Defaults: jobs.Request{
			Dataset:     dataset.AirTemperatureHourly.Name,
			Stations:    a.cfg.Stations,
			AllStations: a.cfg.AllStations,
		},
	}, time.Now())

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("Server starting", "addr", a.cfg.HTTPAddr, "environment", a.cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logging.Info("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
