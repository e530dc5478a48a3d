package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/amolab/amorate-backend/internal/app"
	"github.com/amolab/amorate-backend/internal/http/handlers"
	"github.com/amolab/amorate-backend/internal/platform/logger"
	"github.com/amolab/amorate-backend/internal/platform/musescore"
	"github.com/amolab/amorate-backend/internal/registry"
	"github.com/amolab/amorate-backend/internal/repos"
	"github.com/amolab/amorate-backend/internal/server"
	"github.com/amolab/amorate-backend/internal/services"
	"github.com/amolab/amorate-backend/web"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := app.Load()
	if err != nil {
		log.Fatal("loading config failed", "error", err)
	}

	for _, dir := range []string{cfg.DataDir, cfg.UploadDir, cfg.ScoresDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal("creating data directory failed", "dir", dir, "error", err)
		}
	}

	converter := musescore.New(log, cfg.MusescoreBin, cfg.ConvertTimeout)
	if err := converter.AssertReady(context.Background()); err != nil {
		// Uploads of .mscz files will fail until the binary appears, but
		// rating and arena traffic has no reason to wait for it.
		log.Warn("musescore binary not ready", "bin", cfg.MusescoreBin, "error", err)
	}

	ratingRepo, err := repos.NewRatingRepo(cfg.RatingsCSV, log)
	if err != nil {
		log.Fatal("loading ratings log failed", "path", cfg.RatingsCSV, "error", err)
	}
	metadataRepo, err := repos.NewMetadataRepo(cfg.MetadataCSV, log)
	if err != nil {
		log.Fatal("loading metadata log failed", "path", cfg.MetadataCSV, "error", err)
	}
	matchRepo := repos.NewArenaMatchRepo(cfg.ArenaMatchesCSV, log)

	tracks := registry.New(cfg.UploadDir, log)

	uploadService := services.NewUploadService(log, converter, metadataRepo,
		cfg.UploadPassword, cfg.UploadPasswordBcrypt, cfg.UploadDir, cfg.ScoresDir)
	ratingService := services.NewRatingService(log, tracks, ratingRepo, metadataRepo)
	arenaService := services.NewArenaService(log, tracks, metadataRepo, matchRepo)

	templates, err := web.Templates()
	if err != nil {
		log.Fatal("parsing templates failed", "error", err)
	}

	router := server.NewRouter(server.RouterConfig{
		Log:                 log,
		Templates:           templates,
		Upload:              handlers.NewUploadHandler(log, uploadService),
		Rate:                handlers.NewRateHandler(log, ratingService, metadataRepo),
		Arena:               handlers.NewArenaHandler(log, arenaService),
		Score:               handlers.NewScoreHandler(log),
		UploadDir:           cfg.UploadDir,
		ScoresDir:           cfg.ScoresDir,
		MaxUploadMB:         cfg.MaxUploadMB,
		SubmitRatePerMinute: cfg.SubmitRatePerMinute,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server exited", "error", err)
	}
	log.Info("server stopped")
}
