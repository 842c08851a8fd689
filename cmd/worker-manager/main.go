// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"investor-match-workers/internal/api"
	awsclients "investor-match-workers/internal/common/aws"
	"investor-match-workers/internal/common/breaker"
	"investor-match-workers/internal/common/camunda"
	"investor-match-workers/internal/common/config"
	"investor-match-workers/internal/common/database"
	"investor-match-workers/internal/common/logger"
	"investor-match-workers/internal/common/observability"
	"investor-match-workers/internal/ranking"
	"investor-match-workers/internal/store"
	"investor-match-workers/pkg/registry"

	nim "investor-match-workers/internal/workers/communication/notify-investor-matches"
	ri "investor-match-workers/internal/workers/investor/rank-investors"
	stm "investor-match-workers/internal/workers/investor/select-top-matches"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// workerConfig prefers the config file entry and falls back to the activity
// registry for timeout and retries.
func workerConfig(cfg *config.Config, reg *registry.ActivityRegistry, taskType string) config.WorkerConfig {
	wcfg := config.GetWorkerConfig(cfg, taskType)
	if _, configured := cfg.Workers[taskType]; configured || reg == nil {
		return wcfg
	}

	activity, ok := reg.Find(taskType)
	if !ok {
		return wcfg
	}
	if d, err := activity.TimeoutDuration(); err == nil && d > 0 {
		wcfg.Timeout = int(d / time.Millisecond)
	}
	wcfg.MaxRetries = activity.Retries
	return wcfg
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("candidateSource", cfg.Matching.CandidateSource),
	)

	obs := observability.NewWithOptions(cfg.App.Name, observability.Options{
		SpanProcessor: observability.NewLogSpanProcessor(log.WithFields(map[string]interface{}{"component": "tracing"})),
	})
	defer obs.Shutdown()

	ctx := context.Background()

	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		zapLog.Warn("activity registry not loaded, using config defaults", zap.Error(err))
		reg = nil
	}

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	health := map[string]database.Pinger{
		"zeebe":    zeebe,
		"postgres": pg,
		"redis":    rdb,
	}

	// --- Stores ---
	cache := store.NewCache(rdb.Client, cfg.Matching.CacheTTL(), log)
	pgStore := store.NewPostgres(pg.DB)
	startups := store.NewCachedStartups(pgStore, cache)
	investors := store.NewCachedInvestors(pgStore, cache)

	var source store.CandidateSource = pgStore
	var indexer api.InvestorIndexer

	if cfg.Matching.CandidateSource == config.CandidateSourceElasticsearch {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")

		search := store.NewSearch(es.Client, cfg.Matching.InvestorIndex, cfg.Matching.SearchSize,
			breaker.New("elasticsearch-candidates", breaker.DefaultSettings(), log))
		if err := search.EnsureIndex(ctx); err != nil {
			zapLog.Fatal("investor index setup failed", zap.Error(err))
		}

		source = search
		indexer = search
		health["elasticsearch"] = es
	}

	source = store.NewCachedCandidates(source, cache)
	rankingService := ranking.NewService(startups, source, cfg.Matching.CandidateSource, obs)

	// --- Workers ---
	client := zeebe.GetClient()
	send := zeebe.Commands().Send
	var workers []*camunda.Worker

	riCfg := workerConfig(cfg, reg, ri.TaskType)
	workers = append(workers, camunda.StartWorker(client, ri.TaskType, riCfg,
		ri.NewHandler(ri.LoadConfig(riCfg), rankingService, log).WithCommandSender(send), obs, log))

	stmCfg := workerConfig(cfg, reg, stm.TaskType)
	workers = append(workers, camunda.StartWorker(client, stm.TaskType, stmCfg,
		stm.NewHandler(stm.LoadConfig(cfg.Matching), log).WithCommandSender(send), obs, log))

	nimCfg := workerConfig(cfg, reg, nim.TaskType)
	if nimCfg.Enabled {
		var sesSvc nim.SESService
		var snsSvc nim.SNSService
		if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
			clients, err := awsclients.NewClients(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("failed to create AWS clients", zap.Error(err))
			}
			sesSvc, snsSvc = clients.SES, clients.SNS
		}
		handler := nim.NewHandler(nim.LoadConfig(nimCfg, cfg.Notifications), sesSvc, snsSvc, log).WithCommandSender(send)
		workers = append(workers, camunda.StartWorker(client, nim.TaskType, nimCfg, handler, obs, log))
	}

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- HTTP API, health & metrics ---
	server := api.NewServer(cfg.HTTP, cfg.Matching.MaxItems, api.Deps{
		Startups:  startups,
		Investors: investors,
		Ranking:   rankingService,
		Indexer:   indexer,
		Health:    health,
		Logger:    log,
	})
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
