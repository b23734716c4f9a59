// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leash/internal/config"
	httptransport "leash/internal/http"
	"leash/internal/infra"
	"leash/internal/logging"
	"leash/internal/maps"
	"leash/internal/modules/pricing"
	"leash/internal/modules/report"
	"leash/internal/modules/sitter"
	"leash/internal/modules/track"
	"leash/internal/modules/walk"
	"leash/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.NewLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("LEASH_FIREBASE_PROJECT_ID is required")
	}
	fb, err := infra.NewFirebase(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, cfg.Firebase.DatabaseURL)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	trackStore := track.NewStore(redisClient, fb.Database(), logger)
	missionStore := sitter.NewStore(redisClient, fb.Database(), logger)
	walkStore := walk.NewPostgresStore(dbPool)

	pricingSvc := pricing.NewService()
	walkSvc := walk.NewService(walkStore, trackStore, pricingSvc, logger)
	watcher := walk.NewWatcher(dbPool, walkStore, logger)

	var reporter sitter.Reporter
	if cfg.AI.GeminiKey != "" {
		gen, err := report.NewGeminiGenerator(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Fatalf("gemini init: %v", err)
		}
		defer gen.Close()
		reporter = report.NewService(gen, fb.Database(), logger)
	}

	notifier := notify.NewFCMNotifier(fb.Messaging())
	offerTTL := time.Duration(cfg.Offer.TTLSeconds) * time.Second
	sitterSvc := sitter.NewService(walkStore, trackStore, missionStore, notifier, reporter, offerTTL, logger)

	deps := httptransport.RouterDeps{
		Walks:         walkSvc,
		Sitters:       sitterSvc,
		Watcher:       watcher,
		Tracks:        trackStore,
		Verifier:      fb,
		Logger:        logger,
		DispatchToken: cfg.Dispatch.Token,
	}
	if cfg.Maps.APIKey != "" {
		routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		deps.Geocoder = routeSvc
		deps.Routes = routeSvc
	}

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: httptransport.NewRouter(deps)}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
