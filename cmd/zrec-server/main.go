package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/edirooss/zrec-server/internal/config"
	"github.com/edirooss/zrec-server/internal/http/handler"
	mw "github.com/edirooss/zrec-server/internal/http/middleware"
	"github.com/edirooss/zrec-server/internal/infrastructure/devices"
	"github.com/edirooss/zrec-server/internal/infrastructure/processmgr"
	"github.com/edirooss/zrec-server/internal/observability"
	"github.com/edirooss/zrec-server/internal/redis"
	"github.com/edirooss/zrec-server/internal/service"
	"github.com/edirooss/zrec-server/pkg/ffmpegcmd"
)

const (
	shutdownTimeout   = 15 * time.Second
	maxEventStreams   = 16
	maxRequestBodyLen = 1 << 20
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	handleVersion()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	isDev := cfg.Dev

	// Create Zap logger
	log := buildLogger(cfg.Level())
	defer log.Sync()
	log = log.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Capture platform and encoder
	platform, err := ffmpegcmd.PlatformByName(cfg.Platform, cfg.Display)
	if err != nil {
		log.Fatal("capture platform selection failed", zap.Error(err))
	}
	if v, err := service.CheckFFmpeg(ctx, cfg.FFmpegPath); err != nil {
		log.Warn("ffmpeg not usable; recordings will fail to spawn", zap.String("path", cfg.FFmpegPath), zap.Error(err))
	} else {
		log.Info("ffmpeg found", zap.String("version", v))
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		log.Fatal("metrics registration failed", zap.Error(err))
	}

	// History store: redis when configured, in-memory otherwise
	var history service.HistoryStore = service.NewMemoryHistory(cfg.HistoryLimit)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(cfg.RedisAddr, 0, log)
		defer rdb.Close()
		if err := rdb.Ping(ctx); err != nil {
			log.Warn("redis unreachable at startup; history appends will be retried per session", zap.Error(err))
		}
		history = redis.NewHistoryRepository(log, rdb, cfg.HistoryLimit)
	}

	logmngr := processmgr.NewLogManager(processmgr.DefaultRetainedSessions)
	recsvc := service.NewRecordingService(
		log,
		platform,
		processmgr.NewExecSpawner(log, logmngr),
		logmngr,
		history,
		service.RecorderOptions{
			Binary:  cfg.FFmpegPath,
			Timings: service.TimingsFromUnit(cfg.TimeUnit),
			Metrics: metrics,
		},
	)

	enum, err := devices.New(log, platform, devices.Options{FFmpegPath: cfg.FFmpegPath, Display: cfg.Display})
	if err != nil {
		log.Fatal("device enumerator creation failed", zap.Error(err))
	}
	catalog := service.NewDeviceCatalog(enum, service.DefaultDeviceTTL)

	// Create Gin router
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = zap.NewStdLog(log.Named("gin")).Writer() // Configure Gin's logger to use Zap
	r := gin.New()

	// Apply Gin middlewares
	{
		r.Use(gin.Recovery()) // Recovery first (outermost)
		r.Use(mw.RequestID()) // Attach request ID for tracing; early in the chain so it's available everywhere

		if isDev { // Enable CORS for a local UI dev server
			r.Use(cors.New(cors.Config{
				AllowOrigins:  []string{"http://localhost:5173", "http://localhost:4173", "http://localhost:3000", "http://127.0.0.1:3000"},
				AllowMethods:  []string{"GET", "POST", "OPTIONS"},
				AllowHeaders:  []string{"X-Request-ID", "Content-Type"},
				ExposeHeaders: []string{"X-Request-ID", "X-Total-Count", "Location"},
				MaxAge:        12 * time.Hour,
			}))
		} else { // Behind a local reverse proxy
			r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
			r.Use(secure.New(secure.Config{
				FrameDeny:          true,
				ContentTypeNosniff: true,
				SSLProxyHeaders: map[string]string{
					"X-Forwarded-Proto": "https",
				},
			}))
		}

		r.Use(accessLog(log.Named("http"))) // Observability (logger, tracing)

		r.Use(func(c *gin.Context) {
			// Enforce a hard max request body (slow/oversized body DoS)
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBodyLen)
			c.Next()
		})
	}

	// Register route handlers
	{
		r.GET("/api/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

		{
			rechndlr := handler.NewRecordingsHandler(log, recsvc)

			// --- Recording session ---
			r.POST("/api/recordings", rechndlr.Start)     // start one
			r.POST("/api/recordings/stop", rechndlr.Stop) // graceful stop
			r.GET("/api/recordings/current", rechndlr.Current)
			r.GET("/api/recordings/events", mw.LimitConcurrentRequests(maxEventStreams), rechndlr.Events) // SSE
			r.GET("/api/recordings/history", rechndlr.History)
			r.GET("/api/recordings/:id/logs", mw.RequireValidSessionID(), rechndlr.Logs)
		}

		{
			devhndlr := handler.NewDevicesHandler(log, catalog)

			// --- Capabilities ---
			r.GET("/api/devices", devhndlr.GetInventory)
			r.GET("/api/devices/video", devhndlr.GetVideoList)
			r.GET("/api/devices/audio", devhndlr.GetAudioList) // ?role=microphone|loopback
			r.GET("/api/devices/windows", devhndlr.GetWindowList)
		}

		r.POST("/api/commands/preview", handler.PreviewCommand(recsvc))

		// --- System ---
		r.GET("/api/system/ffmpeg", handler.GetFFmpeg(cfg.FFmpegPath, devices.ProbeTools(platform)))
	}

	httpsrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,  // kills header-drip Slowloris
		ReadTimeout:       10 * time.Second, // full request read (incl. body)
		WriteTimeout:      15 * time.Second, // the SSE handler clears its own deadline
		IdleTimeout:       60 * time.Second, // keep-alive cap
		MaxHeaderBytes:    1 << 20,          // 1MB cap
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("running HTTP server",
			zap.String("addr", httpsrv.Addr),
			zap.String("platform", platform.Name()),
			zap.Duration("time_unit", cfg.TimeUnit))
		if err := httpsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Stop the recording first so its terminal event reaches SSE clients,
		// which also ends their streams.
		if err := recsvc.Shutdown(sctx); err != nil {
			log.Error("recording shutdown incomplete", zap.Error(err))
		}
		return httpsrv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server closed")
}

// handleVersion parses flags and prints build metadata and exits when
// -v/--version is provided.
func handleVersion() {
	v := flag.Bool("v", false, "print version and exit")
	flag.BoolVar(v, "version", false, "print version and exit")
	flag.Parse()

	if *v {
		fmt.Printf("zrec-server %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildDate)
		os.Exit(0)
	}
}

// accessLog is a Gin middleware that records HTTP request/response details with Zap after handling.
func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		// collect all errors from Gin context
		var errs []error
		for _, ge := range c.Errors {
			if ge.Err != nil {
				errs = append(errs, ge.Err)
			}
		}
		joinedErr := errors.Join(errs...)

		fields := []zap.Field{
			zap.String("request_id", mw.GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", latency),
		}
		if joinedErr != nil {
			fields = append(fields, zap.Error(joinedErr))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}

// helpers

func buildLogger(level zapcore.Level) *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(level)
	return zap.Must(logConfig.Build())
}
