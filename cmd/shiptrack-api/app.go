package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/BearBump/ShipTrack/internal/api/events_api"
	"github.com/BearBump/ShipTrack/internal/api/httpx"
	"github.com/BearBump/ShipTrack/internal/api/shipments_api"
	"github.com/BearBump/ShipTrack/internal/broker/kafka"
	"github.com/BearBump/ShipTrack/internal/broker/messages"
	"github.com/BearBump/ShipTrack/internal/models"
	"github.com/BearBump/ShipTrack/internal/services/events"
	"github.com/BearBump/ShipTrack/internal/services/shipments"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type apiOpts struct {
	httpAddr    string
	staticDir   string
	swaggerPath string
	recheck     time.Duration

	limiter        events_api.RateLimiter
	trackRateLimit int64

	statusTopic   string
	consumerGroup string

	onListen func(httpAddr string)
}

type statusConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

func runShipTrack(ctx context.Context, opts apiOpts, svc *shipments.Service, ev *events.Service, consumer statusConsumer) error {
	if opts.swaggerPath != "" {
		if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
			return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
		}
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	if consumer != nil {
		go func() {
			slog.Info("kafka consumer started", "topic", opts.statusTopic, "group", opts.consumerGroup)
			err := consumer.Consume(ctx, statusHandler(ctx, svc))
			if err != nil && ctx.Err() == nil {
				slog.Error("kafka consumer stopped", "topic", opts.statusTopic, "err", err)
			}
		}()
	}

	srv := &http.Server{
		Handler:           newRouter(opts, svc, ev),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

func newRouter(opts apiOpts, svc *shipments.Service, ev *events.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(httpx.RequestID, httpx.Logger, httpx.Recoverer)
	r.NotFound(httpx.NotFound)
	r.MethodNotAllowed(httpx.NotFound)

	events_api.New(ev, events_api.WithRateLimit(opts.limiter, opts.trackRateLimit)).Routes(r)
	shipments_api.New(svc, opts.recheck).Routes(r)

	if opts.swaggerPath != "" {
		r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			http.ServeFile(w, r, opts.swaggerPath)
		})

		swaggerURL := "/swagger.json"
		if fi, err := os.Stat(opts.swaggerPath); err == nil {
			swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
		}
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
	}

	if opts.staticDir != "" {
		r.Get("/*", staticHandler(opts.staticDir))
	}
	return r
}

// staticHandler serves files from dir. Anything missing falls through to the JSON 404.
func staticHandler(dir string) http.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if _, err := os.Stat(name); err != nil {
			httpx.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	}
}

// statusHandler applies shipment.status messages. Messages that can never succeed
// are skipped, anything else stops the consumer without a commit.
func statusHandler(ctx context.Context, svc *shipments.Service) func(key, value []byte) error {
	return func(_key, value []byte) error {
		var m messages.ShipmentStatus
		if err := json.Unmarshal(value, &m); err != nil {
			return errors.Wrap(kafka.ErrSkip, err.Error())
		}

		err := svc.ApplyStatusUpdate(ctx, m)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, models.ErrShipmentNotFound),
			errors.Is(err, models.ErrValidation),
			errors.Is(err, models.ErrInvalidPatch):
			return errors.Wrap(kafka.ErrSkip, err.Error())
		default:
			return err
		}
	}
}
