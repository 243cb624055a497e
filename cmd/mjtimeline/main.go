package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/totegamma/mjtimeline"
	"github.com/totegamma/mjtimeline/client"
	"github.com/totegamma/mjtimeline/core"
	"github.com/totegamma/mjtimeline/x/settings"
	"github.com/totegamma/mjtimeline/x/socket"
	"github.com/totegamma/mjtimeline/x/timeline"
	"github.com/totegamma/mjtimeline/x/tracker"
	"github.com/totegamma/mjtimeline/x/util"
	"github.com/totegamma/mjtimeline/x/wallet"
)

type CustomHandler struct {
	slog.Handler
}

func (h *CustomHandler) Handle(ctx context.Context, r slog.Record) error {

	r.AddAttrs(slog.String("type", "app"))

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(slog.String("traceID", span.SpanContext().TraceID().String()))
		r.AddAttrs(slog.String("spanID", span.SpanContext().SpanID().String()))
	}

	return h.Handler.Handle(ctx, r)
}

var (
	version = util.GetFullVersion()
)

func main() {

	fmt.Fprint(os.Stderr, banner)

	handler := &CustomHandler{Handler: slog.NewJSONHandler(os.Stdout, nil)}
	slogger := slog.New(handler)
	slog.SetDefault(slogger)

	slog.Info(fmt.Sprintf("mjtimeline %s starting...", version))

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true

	config := util.Config{}
	err := config.Load(util.ConfigPath())
	if err != nil {
		slog.Error(fmt.Sprintf("Failed to load config: %v", err))
		os.Exit(1)
	}

	ledgerConfig := core.SetupConfig(config.Ledger)
	slog.Info(fmt.Sprintf("Config loaded! ledger: %s (%s)", ledgerConfig.Endpoint, ledgerConfig.Network))

	if config.Server.EnableTrace {
		cleanup, err := setupTraceProvider(config.Server.TraceEndpoint, "mjtimeline", version)
		if err != nil {
			panic(err)
		}
		defer cleanup()

		skipper := otelecho.WithSkipper(
			func(c echo.Context) bool {
				return c.Path() == "/metrics" || c.Path() == "/health"
			},
		)
		e.Use(otelecho.Middleware("mjtimeline", skipper))
	}

	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace: "mjtimeline",
		LabelFuncs: map[string]echoprometheus.LabelValueFunc{
			"url": func(c echo.Context, err error) string {
				return "REDACTED"
			},
		},
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
	}))

	e.Use(middleware.Recover())

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Server.RedisAddr,
		Password: "", // no password set
		DB:       config.Server.RedisDB,
	})
	err = redisotel.InstrumentTracing(
		rdb,
		redisotel.WithAttributes(
			attribute.KeyValue{
				Key:   "db.name",
				Value: attribute.StringValue("redis"),
			},
		),
	)
	if err != nil {
		panic("failed to setup tracing plugin")
	}

	mc := memcache.New(config.Server.MemcachedAddr)
	defer mc.Close()

	ledgerClient := client.NewClient(ledgerConfig)
	keyWallet := wallet.NewWallet(ledgerConfig)

	timelineService := mjtimeline.SetupTimelineService(mc, ledgerClient, keyWallet, ledgerConfig)
	timelineHandler := timeline.NewHandler(timelineService, keyWallet)

	settingsService := mjtimeline.SetupSettingsService(rdb)
	settingsHandler := settings.NewHandler(settingsService, keyWallet)

	socketManager := socket.NewManager()
	socketHandler := socket.NewHandler(socketManager, timelineService)

	// view
	e.GET("/view", timelineHandler.View)

	// timeline
	e.POST("/timeline", timelineHandler.CreateTimeline)
	e.POST("/timeline/fetch", timelineHandler.Fetch)

	// posts
	e.GET("/posts", timelineHandler.Search)
	e.POST("/posts", timelineHandler.CreatePost)
	e.DELETE("/posts/:id", timelineHandler.DeletePost)
	e.POST("/posts/:id/like", timelineHandler.Like)
	e.DELETE("/posts/:id/like", timelineHandler.Unlike)
	e.POST("/posts/:id/comments", timelineHandler.AddComment)
	e.POST("/validate", timelineHandler.Validate)

	// session
	e.POST("/session/connect", timelineHandler.Connect)
	e.POST("/session/disconnect", timelineHandler.Disconnect)

	// settings
	e.GET("/settings/theme", settingsHandler.GetTheme)
	e.PUT("/settings/theme", settingsHandler.PutTheme)

	// socket
	e.GET("/socket", socketHandler.Connect)

	e.GET("/health", func(c echo.Context) (err error) {
		ctx := c.Request().Context()

		err = rdb.Ping(ctx).Err()
		if err != nil {
			return c.String(http.StatusInternalServerError, "redis error")
		}

		err = mc.Ping()
		if err != nil {
			return c.String(http.StatusInternalServerError, "memcached error")
		}

		return c.String(http.StatusOK, "ok")
	})

	tracker.RegisterMetrics(prometheus.DefaultRegisterer)

	var socketConnectionMetrics = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mjtimeline_socket_connections",
			Help: "socket connections",
		},
	)
	prometheus.MustRegister(socketConnectionMetrics)

	go func() {
		for {
			time.Sleep(15 * time.Second)
			socketConnectionMetrics.Set(float64(socketManager.CurrentConnectionCount()))
		}
	}()

	e.GET("/metrics", echoprometheus.NewHandler())

	if ledgerConfig.PrivateKey != "" {
		go func() {
			err := keyWallet.Connect()
			if err != nil {
				slog.Error(fmt.Sprintf("failed to connect wallet: %v", err))
				return
			}
			slog.Info(fmt.Sprintf("wallet connected as %s", keyWallet.CurrentAccount()))

			err = timelineService.Mount(context.Background())
			if err != nil {
				slog.Error(fmt.Sprintf("failed to mount timeline: %v", err))
			}
		}()
	}

	e.Logger.Fatal(e.Start(config.Server.Listen))
}

func setupTraceProvider(endpoint string, serviceName string, serviceVersion string) (func(), error) {

	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)

	if err != nil {
		return nil, err
	}

	resource := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(serviceVersion),
	)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(resource),
	)
	otel.SetTracerProvider(tracerProvider)

	propagator := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(propagator)

	cleanup := func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			slog.Error(fmt.Sprintf("Failed to shutdown tracer provider: %v", err))
		}
	}
	return cleanup, nil
}
