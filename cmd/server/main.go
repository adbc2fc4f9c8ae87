package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"streamoverlay/internal/auth"
	"streamoverlay/internal/compositor"
	"streamoverlay/internal/overlay"
	"streamoverlay/internal/platform/config"
	"streamoverlay/internal/platform/logger"
	"streamoverlay/internal/platform/metrics"
	"streamoverlay/internal/playback"
	"streamoverlay/internal/studio"

	"github.com/go-chi/chi/v5"
	"github.com/gogpu/gg/text"
	"github.com/google/uuid"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	fontPath := config.GetEnv("FONT_PATH", "")
	users := config.GetEnv("STUDIO_USERS", "demo:demo")
	engineEnabled := config.GetEnvBool("HLS_ENGINE", true)
	nativeSink := config.GetEnvBool("SINK_NATIVE_HLS", false)

	log := logger.New(logLevel, logFormat)

	var fonts *text.FontSource
	if fontPath != "" {
		var err error
		fonts, err = text.NewFontSourceFromFile(fontPath)
		if err != nil {
			log.Error("font load failed", "path", fontPath, "error", err)
			os.Exit(1)
		}
	}

	hub := auth.NewHub(parseUsers(users)...)
	repo := overlay.NewInMemoryRepository()
	svc := overlay.NewService(repo)
	met := metrics.New()

	surface := compositor.NewSurface(&compositor.HTTPResolver{}, fonts)

	var engine playback.Engine
	if engineEnabled {
		engine = &playback.HLSEngine{}
	}
	player := playback.NewPlayer(engine, playback.NewMemorySink(nativeSink), log)

	feed := studio.NewFeed(log)
	st := studio.New(svc, surface, player, hub, feed, log)
	defer st.Close()

	overlayHandler := overlay.NewHandler(svc, log, met, st)
	studioHandler := studio.NewHandler(st, log, met)
	authHandler := auth.NewHandler(hub, log)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Use(auth.SessionMiddleware(hub))

	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		met.Handler(func() {
			met.SetActiveOverlays(svc.Count())
			met.SetActiveSessions(hub.ActiveSessionCount())
		}).ServeHTTP(w, req)
	})

	authHandler.Routes(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession)
		overlayHandler.Routes(r)
		studioHandler.Routes(r)
	})

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
		"hls_engine", engineEnabled,
		"font_loaded", fonts != nil,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// parseUsers reads the STUDIO_USERS form "name:secret,name:secret".
// Malformed entries are skipped.
func parseUsers(spec string) []auth.User {
	var users []auth.User
	for _, entry := range strings.Split(spec, ",") {
		name, secret, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || name == "" {
			continue
		}
		users = append(users, auth.User{
			ID:          uuid.NewString(),
			Username:    name,
			Secret:      secret,
			DisplayName: name,
		})
	}
	return users
}
