package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seikyu/backend/internal/config"
	"seikyu/backend/internal/httpapi"
	"seikyu/backend/internal/numbering"
	"seikyu/backend/internal/render"
	"seikyu/backend/internal/service"
	"seikyu/backend/internal/store"
	"seikyu/backend/internal/store/memory"
	pgstore "seikyu/backend/internal/store/postgres"
	redisstore "seikyu/backend/internal/store/redis"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 1)

	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	case cfg.RedisAddr != "":
		rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rds.Ping(ctx); err != nil {
			log.Fatalf("redis unavailable (%v) and REDIS_ADDR is set; refusing to start with in-memory fallback", err)
		}
		repo = rds
		closers = append(closers, rds.Close)
		log.Println("repository: redis")
	default:
		repo = memory.New()
		log.Println("repository: in-memory (documents are lost on restart)")
	}

	exporter := render.NewFPDFExporter(cfg.FontPath, cfg.FontName)
	if cfg.FontPath == "" {
		log.Println("WARN: FONT_PATH not set, PDF output falls back to a font without Japanese glyphs")
	}
	seals := render.NewFileSealLoader(cfg.SealImagePath, 500*time.Millisecond)

	numbers := numbering.New(repo)
	svc := service.New(repo, numbers, render.New(exporter), seals)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, cfg.IssuerUsername, cfg.IssuerPassword)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("invoice backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if len(cfg.IssuerPassword) < 8 {
		return fmt.Errorf("ISSUER_PASSWORD must be set and at least 8 characters")
	}
	return nil
}
