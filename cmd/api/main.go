package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drawboard/drawboard-backend/config"
	"github.com/drawboard/drawboard-backend/internal/bootstrap"
	"github.com/drawboard/drawboard-backend/internal/drawings/service"
	"github.com/drawboard/drawboard-backend/internal/storage"
	"github.com/drawboard/drawboard-backend/internal/storage/directory"
	"github.com/drawboard/drawboard-backend/internal/storage/preferences"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	fallback, err := storage.ParseBackend(cfg.Storage.Backend)
	if err != nil {
		log.Fatalf("config: STORAGE_BACKEND: %v", err)
	}
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		log.Fatalf("data dir: %v", err)
	}

	handles := directory.NewHandleStore(cfg.Storage.HandleDBPath)
	defer handles.Close()

	prefs := preferences.NewStore(cfg.Storage.PreferencesPath, fallback)
	svc := service.NewSessionService(bootstrap.NewStorageFactory(cfg, handles), prefs, service.Options{
		DirtyClearMode:  service.DirtyClearMode(cfg.Session.DirtyClearMode),
		DirtyClearDelay: cfg.Session.DirtyClearDelay,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	if err := svc.Start(startCtx, ""); err != nil {
		// Keep serving so the backend can be switched over the API.
		log.Printf("storage start failed: %v", err)
	}
	cancel()

	scenes := service.NewSceneBuffer()
	sched := service.NewScheduler(svc, scenes, service.Intervals{
		Autosave:       cfg.Session.AutosaveInterval,
		SceneSample:    cfg.Session.SceneSampleInterval,
		PreferencePoll: cfg.Session.PreferencePollInterval,
	})
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler: %v", err)
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:   "drawboard-backend",
		Version:       cfg.App.Version,
		CORSOrigins:   cfg.Server.CORSOrigins,
		SaveRateLimit: cfg.Server.SaveRateLimit,
		Session:       svc,
		Scenes:        scenes,
		Handles:       handles,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s (env=%s)", cfg.Server.Port, cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Printf("final save: %v", err)
	}
	svc.Close()
}
