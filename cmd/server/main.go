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

	"manware/pos/internal/cache"
	"manware/pos/internal/config"
	"manware/pos/internal/httpapi"
	"manware/pos/internal/service"
	"manware/pos/internal/store"
	pgstore "manware/pos/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository = store.Noop{}
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start without it", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		log.Println("repository: in-memory only")
	}

	catalogCache := cache.CatalogCache(cache.NoopCatalogCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCatalogCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			catalogCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("catalog cache: redis")
		}
	} else {
		log.Println("catalog cache: noop")
	}

	svc := service.New(repo, catalogCache, cfg.CatalogTTL)
	svc.SetSyncErrorHandler(func(op string, err error) {
		log.Printf("[sync] WARN: %s: %v", op, err)
	})
	if err := svc.Hydrate(ctx); err != nil {
		log.Fatalf("failed to load state from repository: %v", err)
	}

	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL, cfg.CashierTTL, []httpapi.SeedUser{
		{Username: "admin", Password: cfg.SeedAdminPassword, Role: httpapi.RoleAdmin},
		{Username: "manager", Password: cfg.SeedManagerPassword, Role: httpapi.RoleManager},
		{Username: "salesman", Password: cfg.SeedSalesmanPassword, Role: httpapi.RoleSalesman},
		{Username: "cashier", Password: cfg.SeedCashierPassword, Role: httpapi.RoleCashier},
	})
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("POS backend listening on %s", cfg.Address())
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
	if cfg.SeedAdminPassword == "" {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be set")
	}
	return nil
}
