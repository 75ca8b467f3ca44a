package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"droqsdb/overseasreporter/config"
	"droqsdb/overseasreporter/internal"
	"droqsdb/overseasreporter/internal/extract"
	"droqsdb/overseasreporter/internal/host"
	"droqsdb/overseasreporter/logger"
	"droqsdb/overseasreporter/services/cache"
	"droqsdb/overseasreporter/services/cooldown"
	"droqsdb/overseasreporter/services/publisher"
	"droqsdb/overseasreporter/services/reporter"
	"droqsdb/overseasreporter/services/status"
	"droqsdb/overseasreporter/services/uploader"
	"droqsdb/overseasreporter/services/worker"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const keyNamespace = "overseas:"

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("host_mode", cfg.HostMode).
		Str("cooldown_backend", cfg.CooldownBackend).
		Dur("debounce", cfg.Debounce).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	deps, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer deps.Cleanup()

	// Probing needs a host that can click
	probe := cfg.ProbeEnabled && cfg.HostMode == config.HostModeChrome
	ex := extract.NewExtractor(deps.Host, extract.Options{
		LooseMinYield: cfg.LooseMinYield,
		Probe:         probe,
		ProbeConfig: extract.ProbeConfig{
			Attempts:  cfg.ProbeAttempts,
			Interval:  cfg.ProbeInterval,
			PaceEvery: cfg.ProbePaceEvery,
			PacePause: cfg.ProbePacePause,
			Settle:    cfg.ProbeSettle,
		},
	})
	rep := reporter.NewReporter(deps.Uploader, deps.Cooldown, deps.Status, deps.Publisher)
	w := worker.NewWorker(deps.Host.Changes(), ex, rep, cfg.Debounce)

	workerDone := make(chan struct{})
	go func() {
		log.Info().Bool("probe", probe).Msg("Starting overseas reporter")
		w.Start(ctx)
		close(workerDone)
	}()

	// Wait for shutdown signal or worker exit
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case <-workerDone:
		log.Info().Msg("Worker exited")
	}

	log.Info().Msg("Shutting down gracefully...")
}

// initializeServices builds the host and the reporting collaborators
func initializeServices(ctx context.Context, cfg *config.Config) (*internal.Dependencies, error) {
	deps := &internal.Dependencies{}

	var badge status.Badge
	switch cfg.HostMode {
	case config.HostModeChrome:
		chrome, err := host.NewChrome(ctx, host.ChromeConfig{
			URL:       cfg.PageURL,
			RemoteURL: cfg.ChromeRemote,
			Headless:  cfg.ChromeHeadless,
		})
		if err != nil {
			return nil, err
		}
		deps.Host = chrome
		if cfg.StatusBadge {
			badge = chrome
		}
	case config.HostModeFetch:
		deps.Host = host.NewFetch(ctx, host.FetchConfig{
			URL:      cfg.PageURL,
			Interval: cfg.FetchInterval,
			Cookie:   cfg.PageCookie,
		})
	}
	logger.Info("Document host ready (%s): %s", cfg.HostMode, cfg.PageURL)

	if cfg.CooldownBackend == config.CooldownRedis || cfg.RedisStream != "" {
		deps.Redis = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
	}

	switch cfg.CooldownBackend {
	case config.CooldownMemcache:
		deps.Cooldown = cooldown.NewCacheStore(cache.NewMemcacheService(cfg.MemcacheAddr, keyNamespace), cfg.CooldownInterval)
		logger.Info("Cooldown stored in Memcache at %s", cfg.MemcacheAddr)
	case config.CooldownRedis:
		deps.Cooldown = cooldown.NewRedisStore(deps.Redis, keyNamespace, cfg.CooldownInterval)
		logger.Info("Cooldown stored in Redis at %s (DB: %d)", cfg.RedisAddr, cfg.RedisDB)
	default:
		deps.Cooldown = cooldown.NewMemoryStore(cfg.CooldownInterval)
	}

	if cfg.RedisStream != "" {
		deps.Publisher = publisher.NewRedisPublisher(deps.Redis, cfg.RedisStream, cfg.RedisStreamMaxLength)
		if err := deps.Publisher.TrimStreams(ctx); err != nil {
			logger.Warn("Failed to trim stream %s: %v", cfg.RedisStream, err)
		}
		logger.Info("Mirroring reports to Redis stream %s", cfg.RedisStream)
	}

	deps.Uploader = uploader.NewHTTPUploader(uploader.Config{
		Endpoint: cfg.ReportEndpoint,
		Timeout:  cfg.ReportTimeout,
		MaxItems: cfg.ReportMaxItems,
		ClientID: cfg.ClientID,
	})
	deps.Status = status.NewDisplay(cfg.StatusHideAfter, badge)

	return deps, nil
}
