package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/blackbot/blackbot/internal/bot"
	"github.com/blackbot/blackbot/internal/config"
	"github.com/blackbot/blackbot/internal/engine"
	"github.com/blackbot/blackbot/internal/httpapi"
	"github.com/blackbot/blackbot/internal/observability"
	"github.com/blackbot/blackbot/internal/store"
	"github.com/blackbot/blackbot/internal/uploads"
	"github.com/blackbot/blackbot/internal/whatsapp"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv load skipped: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer st.Close()
	if cfg.DatabaseURL == "" {
		log.Printf("store: in-memory (DATABASE_URL not set, state is lost on restart)")
	} else {
		log.Printf("store: postgres")
	}

	var sender bot.Sender
	if strings.TrimSpace(cfg.WhatsAppAccessToken) != "" {
		sender = whatsapp.NewClient(whatsapp.Config{
			AccessToken:   cfg.WhatsAppAccessToken,
			PhoneNumberID: cfg.WhatsAppPhoneNumberID,
			GraphVersion:  cfg.GraphVersion,
		})
		log.Printf("sender: whatsapp graph api (%s)", cfg.GraphVersion)
	} else {
		sender = whatsapp.NewMockSender()
		log.Printf("sender: mock (WHATSAPP_ACCESS_TOKEN not set, replies are not delivered)")
	}

	svc := bot.New(st, sender, engine.New(cfg.InactivityWindow), metrics)

	var presigner *uploads.Presigner
	r2 := uploads.Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		Bucket:          cfg.R2Bucket,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2.Configured() {
		presigner, err = uploads.New(ctx, r2)
		if err != nil {
			log.Fatalf("uploads init failed: %v", err)
		}
		log.Printf("uploads: r2 bucket %s", cfg.R2Bucket)
	} else {
		log.Printf("uploads: disabled (R2 credentials not set)")
	}

	api := httpapi.New(cfg, svc, st, presigner)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
