package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Werneck0live/loja-precificacao/internal/admin"
	"github.com/Werneck0live/loja-precificacao/internal/broker"
	"github.com/Werneck0live/loja-precificacao/internal/cache"
	"github.com/Werneck0live/loja-precificacao/internal/config"
	"github.com/Werneck0live/loja-precificacao/internal/db"
	"github.com/Werneck0live/loja-precificacao/internal/handlers"
	"github.com/Werneck0live/loja-precificacao/internal/metrics"
	"github.com/Werneck0live/loja-precificacao/internal/repository"
)

// cmd/api/main.go
func main() {
	// HOOK: admin job (one-off)
	task := flag.String("task", "", "admin task: seed")
	flag.Parse()

	cfg, err := config.Load() // .env + ambiente
	if err != nil {
		slog.Error("config_error", "err", err)
		os.Exit(1)
	}

	// Logger JSON "global" - permite usar slog.Info/slog.Error/Warn em qualquer lugar
	log := config.InitLogger(cfg.LogLevel()).With("svc", "api")
	log.Info("starting", "port", cfg.Port, "mongo_db", cfg.MongoDB)

	client, err := db.NewMongoClient(cfg.MongoURI)
	if err != nil {
		log.Error("mongo_connect_error", "err", err)
		os.Exit(1)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	database := client.Database(cfg.MongoDB)
	profiles := repository.NewTaxProfileRepository(database)
	schedules := repository.NewScheduleRepository(database)

	ctx := context.Background()
	if err := profiles.EnsureIndexes(ctx); err != nil {
		log.Error("ensure_indexes_error", "collection", "tax_profiles", "err", err)
		os.Exit(1)
	}
	if err := schedules.EnsureIndexes(ctx); err != nil {
		log.Error("ensure_indexes_error", "collection", "discount_schedules", "err", err)
		os.Exit(1)
	}

	if *task != "" {
		switch *task {
		case "seed":
			if err := admin.Seed(ctx, profiles, schedules, log); err != nil {
				log.Error("seed_failed", "err", err)
				os.Exit(1)
			}
			log.Info("seed_done")
			return // encerra o processo sem subir HTTP
		default:
			log.Error("unknown_admin_task", "task", *task)
			os.Exit(2)
		}
	}

	// publisher (Rabbit)
	pub, err := broker.NewPublisher(cfg.RabbitURI, cfg.RabbitQueue)
	if err != nil {
		log.Error("rabbitmq_connect_error", "err", err)
		os.Exit(1)
	}
	defer func() { _ = pub.Close() }()

	// cache opcional (REDIS_URL vazio = leitura direto no Mongo)
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("redis_connect_error", "err", err)
			os.Exit(1)
		}
		defer func() { _ = rdb.Close() }()
	}
	scheduleCache := cache.NewScheduleCache(schedules, rdb, cfg.ScheduleCacheTTL, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := handlers.NewRouter(handlers.Deps{
		Profiles:  profiles,
		Schedules: schedules,
		Cache:     scheduleCache,
		Pub:       pub,
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
		Log:       log,
		Timeout:   cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	// start server
	go func() {
		log.Info("http_listen", "addr", srv.Addr, "cache", rdb != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server_error", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful_shutdown_error", "err", err)
	}
	log.Info("stopped")
}
