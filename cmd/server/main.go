package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/truongnet3103/albion-GE/internal/config"
	"github.com/truongnet3103/albion-GE/internal/handler"
	"github.com/truongnet3103/albion-GE/internal/logger"
	"github.com/truongnet3103/albion-GE/internal/metrics"
	"github.com/truongnet3103/albion-GE/internal/middleware"
	"github.com/truongnet3103/albion-GE/internal/model"
	"github.com/truongnet3103/albion-GE/internal/service"

	"github.com/gin-gonic/gin"
)

//go:embed dist/*
var staticFS embed.FS

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	cfg := config.Load(*configFile)
	closer := logger.Init(cfg.Log)
	defer closer.Close()

	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "err", err)
		os.Exit(1)
	}

	db, err := cfg.OpenGormDB(logger.NewGormLogger(500 * time.Millisecond))
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if err := model.Migrate(db); err != nil {
		logger.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	middleware.Configure(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	settingsSvc := service.NewSettingsService(db, cfg.Roster.MonthlyTarget)
	rosterSvc := service.NewRosterService(db, service.CountMode(cfg.Roster.CountMode), cfg.Roster.RoleHistory)
	memberSvc := service.NewMemberService(db, settingsSvc, cfg.Guild.Name)
	extractSvc := service.NewExtractService(
		service.NewGeminiClient(cfg.Gemini.Model), settingsSvc, cfg.Gemini.APIKey,
		cfg.Gemini.Concurrency, cfg.Gemini.Timeout,
	)

	reviews := service.NewReviewStore(cfg.Review.TTL)
	if err := reviews.StartSweeper(cfg.Review.SweepInterval); err != nil {
		logger.Error("review sweeper failed", "err", err)
		os.Exit(1)
	}
	defer reviews.Stop()

	var archive service.Archiver
	if cfg.Archive.Enabled {
		a, err := service.NewS3Archive(context.Background(), service.S3ArchiveConfig{
			Endpoint:        cfg.Archive.Endpoint,
			Region:          cfg.Archive.Region,
			Bucket:          cfg.Archive.Bucket,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
		})
		if err != nil {
			logger.Warn("screenshot archive disabled", "err", err)
		} else {
			archive = a
			logger.Info("screenshot archive enabled", "bucket", cfg.Archive.Bucket)
		}
	}

	m := metrics.New(func() float64 { return float64(reviews.Len()) })

	distFS, _ := fs.Sub(staticFS, "dist")
	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(handler.Deps{
		Auth:         service.NewAuthService(db),
		Extract:      extractSvc,
		Reviews:      reviews,
		Roster:       rosterSvc,
		Members:      memberSvc,
		Reports:      service.NewReportService(db, memberSvc, settingsSvc),
		Settings:     settingsSvc,
		Licenses:     service.NewLicenseService(db),
		Maintenance:  service.NewMaintenanceService(db, cfg.Maintenance.WipePageSize),
		Archive:      archive,
		Metrics:      m,
		MaxImages:    cfg.Gemini.MaxImages,
		MaxImageMB:   cfg.Gemini.MaxImageMB,
		LicenseGated: cfg.License.Required,
		RoleHistory:  cfg.Roster.RoleHistory,
		Static:       http.FS(distFS),
	})

	srv := &http.Server{Addr: cfg.Addr(), Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("server starting", "addr", cfg.Addr(), "count_mode", cfg.Roster.CountMode,
			"license_required", cfg.License.Required)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
	logger.Info("server stopped")
}
