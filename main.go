package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"matchworker/config"
	"matchworker/internal/browser"
	"matchworker/internal/scrape"
	"matchworker/logger"
	"matchworker/services/cache"
	"matchworker/services/publisher"
	"matchworker/services/store"
	"matchworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	matchID := flag.Int64("match", 0, "extract a single match and exit")
	harvestOnly := flag.Bool("harvest-only", false, "run one calendar harvest and exit")
	flag.Parse()

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
		Str("league", cfg.LeagueSlug).
		Dur("scrape_interval", cfg.ScrapeInterval).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// One browser session per run, released on every exit path
	session, err := browser.NewChromeSession(browser.Options{
		Headless:  cfg.Headless,
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start browser session")
	}
	defer session.Close()

	harvester := scrape.NewHarvester(session, scrape.HarvestConfig{
		LeagueSlug:     cfg.LeagueSlug,
		OverviewURL:    cfg.OverviewURL,
		FixturesURL:    cfg.FixturesURL,
		PastMonths:     cfg.PastMonths,
		FutureMonths:   cfg.FutureMonths,
		ElementTimeout: cfg.ElementTimeout,
		OutputDir:      cfg.OutputDir,
		Debug:          !cfg.IsProduction(),
	})

	if *harvestOnly {
		result := harvester.Run()
		jsonPath, idsPath, err := scrape.WriteArtifacts(result, cfg.OutputDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to write harvest artifacts")
		}
		log.Info().
			Int("fixtures", result.TotalUniqueFixtures).
			Str("summary", jsonPath).
			Str("ids", idsPath).
			Msg("Harvest complete")
		return
	}

	fetcher := scrape.NewMatchFetcher(session, scrape.MatchConfig{
		ElementTimeout: cfg.ElementTimeout,
		OutputDir:      cfg.OutputDir,
	})

	// Initialize services
	services, err := initializeServices(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	w := worker.NewWorker(
		harvester,
		fetcher,
		services.Store,
		services.Cache,
		services.Publisher,
		worker.Config{
			OutputDir: cfg.OutputDir,
			FetchTTL:  cfg.FetchTTL,
			Interval:  cfg.ScrapeInterval,
		},
	)

	if *matchID > 0 {
		if err := w.ProcessMatch(*matchID); err != nil {
			log.Fatal().Err(err).Int64("match_id", *matchID).Msg("Match extraction failed")
		}
		return
	}

	// Start worker in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting match worker")
		workerDone <- w.Start()
	}()

	// Wait for shutdown signal or worker error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	case err := <-workerDone:
		if err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.MatchCache
	Publisher publisher.Publisher
	Store     store.Store
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize cache service
	services.Cache = cache.NewMemcacheMatchCache(cfg.MemcacheAddr)
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Initialize publisher
	services.Publisher = publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	// Initialize store when persistence is configured
	if cfg.DatabaseURL != "" {
		st, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(); err != nil {
			st.Close()
			return nil, err
		}
		services.Store = st
		logger.Info("Connected to Postgres")
	} else {
		logger.Warn("DATABASE_URL not set, persistence disabled")
	}

	return services, nil
}
