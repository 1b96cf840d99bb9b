package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"camstream/internal/camera"
	"camstream/internal/platform/config"
	"camstream/internal/platform/logger"
	"camstream/internal/platform/metrics"
	"camstream/internal/seed"
	"camstream/internal/stream"
	"camstream/internal/vms"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	log := logger.New(logLevel, logFormat)

	tokenSecret := config.GetEnv("STREAM_TOKEN_SECRET", "")
	if tokenSecret == "" {
		log.Error("STREAM_TOKEN_SECRET is required")
		os.Exit(1)
	}

	baseDir := config.GetEnv("STREAM_BASE_DIR", "./streams")
	idleTimeout := config.GetEnvSeconds("STREAM_IDLE_TIMEOUT_SEC", 2*time.Minute)

	met := metrics.New()

	cameras := camera.NewInMemoryStore()
	servers := vms.NewInMemoryServerStore()
	if err := seed.Load(config.GetEnv("SEED_FILE", "cameras.yaml"), cameras, servers); err != nil {
		log.Error("seed load failed", "error", err)
		os.Exit(1)
	}

	runner := stream.NewFFmpegRunner(stream.RunnerConfig{
		BinPath:        config.GetEnv("FFMPEG_PATH", "ffmpeg"),
		Transcode:      config.GetEnvBool("STREAM_TRANSCODE", false),
		Preset:         config.GetEnv("STREAM_TRANSCODE_PRESET", "veryfast"),
		SegmentSeconds: config.GetEnvInt("HLS_SEGMENT_SECONDS", 2),
		WindowSize:     config.GetEnvInt("HLS_WINDOW_SIZE", 6),
	}, log)

	supervisor := stream.NewSupervisor(stream.SupervisorConfig{
		BaseDir:      baseDir,
		MaxProcesses: config.GetEnvInt("MAX_STREAM_PROCESSES", 4),
		IdleTimeout:  idleTimeout,
	}, runner, log, met)

	tokens := stream.NewTokenIssuer(tokenSecret, config.GetEnvSeconds("STREAM_TOKEN_TTL_SEC", 5*time.Minute))

	registry := vms.NewRegistry(map[vms.Provider]vms.Adapter{
		vms.ProviderShinobi: vms.NewShinobiAdapter(nil),
	})
	vmsSvc := vms.NewService(servers, cameras, registry, supervisor, log)
	vmsHandler := vms.NewHandler(vmsSvc, log)

	streamSvc := stream.NewService(stream.ServiceConfig{BaseDir: baseDir}, cameras, supervisor, tokens, vmsSvc)
	streamHandler := stream.NewHandler(streamSvc, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		met.Handler(func() { met.SetActiveProcesses(supervisor.ActiveProcessCount()) }).ServeHTTP(w, req)
	})
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/cameras/{camera_id}", func(r chi.Router) {
		r.Post("/stream", streamHandler.RequestStream)
		r.Get("/stream/{file}", streamHandler.ServeAsset)
		r.Post("/vms/connect", vmsHandler.Connect)
		r.Post("/vms/disconnect", vmsHandler.Disconnect)
	})
	r.Route("/vms/servers/{server_id}", func(r chi.Router) {
		r.Post("/test", vmsHandler.TestConnection)
		r.Get("/monitors", vmsHandler.DiscoverMonitors)
		r.Post("/import", vmsHandler.ImportMonitors)
	})

	// Idle sweep runs here, outside the supervisor, per its contract.
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(idleTimeout / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				supervisor.CleanupIdleStreams()
			case <-sweepDone:
				return
			}
		}
	}()

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"stream_base_dir", baseDir,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")
	close(sweepDone)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	supervisor.StopAll()
	log.Info("server stopped")
}
