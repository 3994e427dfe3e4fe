package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2beens/fitrank/internal"
	"github.com/2beens/fitrank/internal/config"
	"github.com/2beens/fitrank/internal/logging"
	"github.com/2beens/fitrank/internal/ranking"
	"github.com/2beens/fitrank/internal/scoring"
	"github.com/2beens/fitrank/internal/telemetry/metrics"
	"github.com/2beens/fitrank/internal/workouts"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// recompute runs a single ranking cycle against the configured store and exits.
// The service's leaderboard cache is refreshed unless -no-cache is given.
func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	noCache := flag.Bool("no-cache", false, "do not touch the redis leaderboard cache")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	result, err := run(ctx, cfg, *noCache)
	stop()
	if err != nil {
		log.Errorf("recompute: %s", err)
		os.Exit(1)
	}
	fmt.Printf("generation %s: %d ranked, %d skipped in %s\n",
		result.Generation, result.Ranked, result.Skipped, result.Duration)
}

// run keeps every deferred close inside, so main may exit with a status code afterwards.
func run(ctx context.Context, cfg *config.Config, noCache bool) (ranking.CycleResult, error) {
	defaultWeights := scoring.Weights(cfg.DefaultWeights)
	if err := defaultWeights.Validate(); err != nil {
		return ranking.CycleResult{}, fmt.Errorf("configured default weights: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.RecomputeTimeoutSeconds)*time.Second)
	defer cancel()

	opened, err := internal.OpenStore(ctx, cfg, internal.OpenStoreParams{
		PostgresPassword: os.Getenv("FITRANK_POSTGRES_PASS"),
		MongoURI:         os.Getenv("MONGO_URI"),
	})
	if err != nil {
		return ranking.CycleResult{}, fmt.Errorf("open store: %w", err)
	}
	defer opened.Close(context.Background())

	var snapshotCache ranking.SnapshotCache
	if !noCache {
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: os.Getenv("FITRANK_REDIS_PASS"),
		})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Errorf("close redis client: %s", err)
			}
		}()
		snapshotCache = ranking.NewRedisSnapshotCache(rdb, time.Duration(cfg.SnapshotCacheTTLSeconds)*time.Second)
	}

	metricsManager := metrics.NewManager("fitrank", "recompute_cmd", metrics.SetupPrometheus())
	service := workouts.NewService(
		workouts.NewRepo(opened.Store, defaultWeights),
		scoring.NewCalculator(),
		metricsManager,
	)
	engine := ranking.NewEngine(service, ranking.NewSnapshotRepo(opened.Store), snapshotCache, metricsManager)

	return engine.Recompute(ctx)
}
