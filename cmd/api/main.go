package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/contract-quitter/internal/application"
	"github.com/bryanwahyu/contract-quitter/internal/application/acquire"
	appai "github.com/bryanwahyu/contract-quitter/internal/application/ai"
	"github.com/bryanwahyu/contract-quitter/internal/application/letters"
	"github.com/bryanwahyu/contract-quitter/internal/application/signature"
	"github.com/bryanwahyu/contract-quitter/internal/config"
	"github.com/bryanwahyu/contract-quitter/internal/infra/ai/openai"
	"github.com/bryanwahyu/contract-quitter/internal/infra/httpserver"
	"github.com/bryanwahyu/contract-quitter/internal/infra/ocr"
	"github.com/bryanwahyu/contract-quitter/internal/infra/pdftext"
	"github.com/bryanwahyu/contract-quitter/internal/infra/render"
	"github.com/bryanwahyu/contract-quitter/internal/infra/storage"
	"github.com/bryanwahyu/contract-quitter/internal/middleware"
	"github.com/bryanwahyu/contract-quitter/pkg/logger"
)

func main() {
	// .env first so it can also set CONFIG_PATH
	if err := config.LoadDotEnv(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}
	path := config.Path()

	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("config load error", "path", path, "error", err)
		os.Exit(1)
	}
	log := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx := context.Background()
	clock := application.SystemClock{}

	renderer, err := render.NewLetterRenderer(render.Options{
		Language: cfg.Pipeline.Language,
		Compress: cfg.Pipeline.CompressPDF,
	}, clock)
	if err != nil {
		log.Error("renderer init error", "error", err)
		os.Exit(1)
	}

	pipeline := &letters.Service{
		Acquirer: &acquire.Service{
			OCR: ocr.NewTesseract(ocr.Config{
				Tesseract:   cfg.OCR.Tesseract,
				Lang:        cfg.OCR.Lang,
				PSM:         cfg.OCR.PSM,
				TessdataDir: cfg.OCR.TessdataDir,
			}, log.With("component", "ocr")),
			PDF:     pdftext.NewExtractor(log.With("component", "pdftext")),
			Timeout: cfg.Pipeline.Timeout,
		},
		Renderer: renderer,
		Clock:    clock,
	}

	checkers := map[string]middleware.HealthChecker{
		"openai": middleware.APIKeyChecker{Configured: cfg.HasAPIKey()},
	}

	// a missing key is reported to the user, not fatal
	if cfg.HasAPIKey() {
		client := openai.NewClient(openai.Config{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.OpenAI.Model,
			ImageModel: cfg.OpenAI.ImageModel,
			ImageSize:  cfg.OpenAI.ImageSize,
			MaxTokens:  cfg.OpenAI.MaxTokens,
		})
		pipeline.Extractor = appai.NewService(client, cfg.Pipeline.Timeout)
		pipeline.Signer = signature.NewService(client, nil, cfg.Pipeline.Timeout)
	} else {
		log.Error(httpserver.MissingKeyMessage)
	}

	if cfg.Archive.Enabled {
		store, err := storage.New(ctx, storage.Config{
			Endpoint:   cfg.Archive.Endpoint,
			Region:     cfg.Archive.Region,
			BucketName: cfg.Archive.BucketName,
			AccessKey:  cfg.Archive.AccessKey,
			SecretKey:  cfg.Archive.SecretKey,
			UseSSL:     cfg.Archive.UseSSL,
			Expiry:     cfg.ArchiveExpiry(),
		})
		if err != nil {
			log.Error("minio init error", "error", err)
			os.Exit(1)
		}
		pipeline.Archive = store
		checkers["archive"] = middleware.CheckFunc(store.Check)
	}

	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(httpserver.Options{
		Pipeline:       pipeline,
		HasAPIKey:      cfg.HasAPIKey(),
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimit:      cfg.Server.RateLimit,
		TrustProxy:     cfg.Server.TrustProxy,
		HealthCheckers: checkers,
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("server listening", "addr", addr, "model", cfg.OpenAI.Model, "archive", cfg.Archive.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
