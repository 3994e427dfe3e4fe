package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/fitrank/internal/config"
	"github.com/2beens/fitrank/internal/docstore"
	"github.com/2beens/fitrank/internal/middleware"
	"github.com/2beens/fitrank/internal/ranking"
	"github.com/2beens/fitrank/internal/scoring"
	"github.com/2beens/fitrank/internal/telemetry/metrics"
	"github.com/2beens/fitrank/internal/telemetry/tracing"
	"github.com/2beens/fitrank/internal/workouts"
	"github.com/2beens/fitrank/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	openedStore *OpenedStore
	store       docstore.Store
	redisClient *redis.Client

	workoutsService *workouts.Service
	engine          *ranking.Engine
	reader          *ranking.Reader
	scheduler       *ranking.Scheduler

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	PostgresPassword        string
	MongoURI                string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	s := &Server{
		config:      params.Config,
		versionInfo: params.VersionInfo,
	}

	opened, err := OpenStore(ctx, params.Config, OpenStoreParams{
		PostgresPassword: params.PostgresPassword,
		MongoURI:         params.MongoURI,
		TracingEnabled:   params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, err
	}
	s.openedStore = opened
	s.store = opened.Store

	var extraCollectors []prometheus.Collector
	if opened.DBPool != nil {
		extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
			opened.DBPool,
			map[string]string{"db_name": params.Config.PostgresDBName},
		))
	}

	s.promRegistry = metrics.SetupPrometheus(extraCollectors...)
	s.metricsManager = metrics.NewManager("fitrank", "main", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	s.redisClient = redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := s.redisClient.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	s.otelShutdown, err = tracing.HoneycombSetup(params.HoneycombTracingEnabled, "fitrank", s.redisClient)
	if err != nil {
		return nil, err
	}

	if err := s.setupRanking(); err != nil {
		return nil, err
	}

	return s, nil
}

// setupRanking builds the scoring and ranking components on top of the store and redis.
func (s *Server) setupRanking() error {
	defaultWeights := scoring.Weights(s.config.DefaultWeights)
	if err := defaultWeights.Validate(); err != nil {
		return fmt.Errorf("configured default weights: %w", err)
	}

	workoutsRepo := workouts.NewRepo(s.store, defaultWeights)
	s.workoutsService = workouts.NewService(workoutsRepo, scoring.NewCalculator(), s.metricsManager)

	snapshotCache := ranking.NewRedisSnapshotCache(
		s.redisClient,
		time.Duration(s.config.SnapshotCacheTTLSeconds)*time.Second,
	)
	snapshots := ranking.NewSnapshotRepo(s.store)
	s.engine = ranking.NewEngine(s.workoutsService, snapshots, snapshotCache, s.metricsManager)
	s.reader = ranking.NewReader(
		snapshots,
		snapshotCache,
		ranking.NewProfileEnricher(s.store, s.config.ProfileCacheSizeMB, s.config.ProfileCacheTTLSeconds),
		s.metricsManager,
	)

	if s.config.RecomputeOnSubmit {
		s.workoutsService.SetRecomputeTrigger(s.engine)
	}

	scheduler, err := ranking.NewScheduler(
		s.engine,
		s.config.RecomputeCron,
		time.Duration(s.config.RecomputeTimeoutSeconds)*time.Second,
	)
	if err != nil {
		return fmt.Errorf("new ranking scheduler: %w", err)
	}
	s.scheduler = scheduler

	return nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("fitrank-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	submitRateLimit := middleware.RateLimit(
		reqRateLimiter, s.metricsManager, "submit-metrics", s.config.SubmitRateLimitAllowedPerMin,
	)
	recomputeRateLimit := middleware.RateLimit(
		reqRateLimiter, s.metricsManager, "recompute", s.config.RecomputeRateLimitAllowedPerMin,
	)

	workoutsHandler := workouts.NewHandler(s.workoutsService)
	r.Handle("/metrics/{userId}", submitRateLimit(http.HandlerFunc(workoutsHandler.HandleSubmitMetrics))).
		Methods("POST", "OPTIONS").Name("submit-metrics")
	r.HandleFunc("/scores/{userId}", workoutsHandler.HandleGetScore).Methods("GET", "OPTIONS").Name("get-score")
	r.HandleFunc("/weights", workoutsHandler.HandleGetWeights).Methods("GET", "OPTIONS").Name("get-weights")
	r.HandleFunc("/weights", workoutsHandler.HandleUpdateWeights).Methods("PUT", "OPTIONS").Name("update-weights")

	rankingHandler := ranking.NewHandler(s.reader, s.engine)
	r.Handle("/rankings/recompute", recomputeRateLimit(http.HandlerFunc(rankingHandler.HandleRecompute))).
		Methods("POST", "OPTIONS").Name("recompute")
	// stats before {type}, otherwise "stats" reads as a leaderboard type
	r.HandleFunc("/leaderboard/stats", rankingHandler.HandleGetStatistics).Methods("GET", "OPTIONS").Name("leaderboard-stats")
	r.HandleFunc("/leaderboard/{type}", rankingHandler.HandleGetLeaderboard).Methods("GET", "OPTIONS").Name("leaderboard")
	r.HandleFunc("/leaderboard/{type}/user/{userId}", rankingHandler.HandleGetUserRanking).Methods("GET", "OPTIONS").Name("leaderboard-user")

	r.HandleFunc("/health", s.handleHealth).Methods("GET").Name("health")

	// all the rest - unhandled paths
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteError(w, http.StatusNotFound, "not found")
	})

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSONResponseOK(w, map[string]string{
		"status":  "ok",
		"version": s.versionInfo,
		"store":   s.config.StoreBackend,
	})
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      otelhttp.NewHandler(router, "fitrank-http"),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.scheduler.Start()
	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	// no new submissions past this point; let running cycles finish
	s.scheduler.Stop()
	s.workoutsService.Wait()
	log.Debugln("ranking cycles drained")

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.openedStore != nil {
		s.openedStore.Close(ctx)
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
