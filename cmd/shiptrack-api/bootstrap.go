package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/ShipTrack/config"
	"github.com/BearBump/ShipTrack/internal/api/events_api"
	"github.com/BearBump/ShipTrack/internal/broker/kafka"
	"github.com/BearBump/ShipTrack/internal/cache"
	"github.com/BearBump/ShipTrack/internal/cache/rediscache"
	"github.com/BearBump/ShipTrack/internal/services/events"
	"github.com/BearBump/ShipTrack/internal/services/shipments"
	"github.com/BearBump/ShipTrack/internal/storage/memshipment"
	"github.com/BearBump/ShipTrack/internal/storage/pgshipment"
	"github.com/joho/godotenv"
)

type shipTrackApp struct {
	ctx       context.Context
	cancel    context.CancelFunc
	opts      apiOpts
	shipments *shipments.Service
	events    *events.Service
	consumer  *kafka.Consumer
	closers   []func()
}

func mustBootstrapShipTrack() *shipTrackApp {
	// .env необязателен
	_ = godotenv.Load()

	cfg := &config.Config{}
	if cfgPath := os.Getenv("configPath"); cfgPath != "" {
		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
		}
	}

	httpAddr := cfg.Server.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":3000"
	}
	if port := os.Getenv("PORT"); port != "" {
		httpAddr = ":" + port
	}
	swaggerPath := cfg.Server.SwaggerPath
	if p := os.Getenv("swaggerPath"); p != "" {
		swaggerPath = p
	}

	loc := time.UTC
	if cfg.Server.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Server.Timezone)
		if err != nil {
			panic(fmt.Sprintf("unknown timezone %q: %v", cfg.Server.Timezone, err))
		}
	}

	cacheTTL := time.Duration(cfg.ShipTrack.ShipmentCacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	recheck := time.Duration(cfg.ShipTrack.TimelineRecheckSeconds) * time.Second
	consumerGroup := cfg.ShipTrack.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "shiptrack-api"
	}
	changedTopic := cfg.Kafka.ShipmentChangedTopicName
	if changedTopic == "" {
		changedTopic = "shipment.changed"
	}
	statusTopic := cfg.Kafka.ShipmentStatusTopicName
	if statusTopic == "" {
		statusTopic = "shipment.status"
	}

	app := &shipTrackApp{}

	var store shipments.Store
	switch cfg.Storage.Driver {
	case "", "memory":
		store = memshipment.New()
	case "postgres":
		st := mustOpenPostgresWithRetry(cfg.Database.ConnString(), 60*time.Second)
		app.closers = append(app.closers, st.Close)
		store = st
	default:
		panic(fmt.Sprintf("unknown storage driver %q", cfg.Storage.Driver))
	}

	// интерфейсы остаются nil, если бэкенд не настроен
	var bc cache.BytesCache
	var limiter events_api.RateLimiter
	if cfg.Redis.Host != "" {
		redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		rc := rediscache.New(redisAddr)
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			slog.Warn("redis is not reachable yet", "addr", redisAddr, "err", err)
		}
		cancel()
		bc = rc
		app.closers = append(app.closers, func() { _ = rc.Close() })

		if cfg.ShipTrack.TrackRateLimitPerMinute > 0 {
			rl := rediscache.NewRateLimiter(redisAddr)
			limiter = rl
			app.closers = append(app.closers, func() { _ = rl.Close() })
		}
	}

	var pub shipments.Publisher
	if cfg.Kafka.Host != "" {
		brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
		producer := kafka.NewProducer(brokers, changedTopic)
		pub = producer
		app.closers = append(app.closers, func() { _ = producer.Close() })
		app.consumer = kafka.NewConsumer(brokers, statusTopic, consumerGroup)
	}

	app.shipments = shipments.New(store, bc, cacheTTL, pub, loc)
	app.events = events.New(cfg.ShipTrack.EventsLimit)
	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app.opts = apiOpts{
		httpAddr:       httpAddr,
		staticDir:      cfg.Server.StaticDir,
		swaggerPath:    swaggerPath,
		recheck:        recheck,
		limiter:        limiter,
		trackRateLimit: int64(cfg.ShipTrack.TrackRateLimitPerMinute),
		statusTopic:    statusTopic,
		consumerGroup:  consumerGroup,
	}

	slog.Info("shiptrack configured",
		"storage", storageName(cfg.Storage.Driver),
		"redis", cfg.Redis.Host != "",
		"kafka", cfg.Kafka.Host != "",
		"timezone", loc.String(),
	)
	return app
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgshipment.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		st, err := pgshipment.New(ctx, connString)
		cancel()
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func storageName(driver string) string {
	if driver == "" {
		return "memory"
	}
	return driver
}

func (a *shipTrackApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *shipTrackApp) Run() error {
	var consumer statusConsumer
	if a.consumer != nil {
		consumer = a.consumer
	}
	return runShipTrack(a.ctx, a.opts, a.shipments, a.events, consumer)
}
