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

	"github.com/ulule/limiter/v3"

	"pawledger/internal/config"
	"pawledger/internal/httpapi"
	"pawledger/internal/loyalty"
	"pawledger/internal/service"
	"pawledger/internal/session"
	"pawledger/internal/store"
	"pawledger/internal/store/memory"
	pgstore "pawledger/internal/store/postgres"
	"pawledger/internal/store/sheet"
)

func main() {
	cfg := config.Load()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	location, _ := cfg.Location()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("ledger backend %s unavailable: %v", cfg.LedgerBackend, err)
	}
	if closeRepo != nil {
		closers = append(closers, closeRepo)
	}

	sessions := session.Store(session.NewMemoryStore())
	if cfg.RedisAddr != "" {
		redisSessions := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisSessions.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), keeping sessions in memory", err)
		} else {
			sessions = redisSessions
			closers = append(closers, redisSessions.Close)
			log.Println("sessions: redis")
		}
	} else {
		log.Println("sessions: in-memory")
	}

	svc := service.New(repo, service.Options{
		Location:      location,
		Rates:         loyalty.Rates{Weekday: cfg.LoyaltyWeekdayRate, Weekend: cfg.LoyaltyWeekendRate},
		LedgerTimeout: cfg.LedgerTimeout(),
	})
	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), cfg.SessionTTL(), repo, sessions)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, cfg.LoginRate)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.LedgerTimeout() + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("pawledger listening on %s", cfg.Address())
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

func openRepository(ctx context.Context, cfg config.Config) (store.Repository, func() error, error) {
	switch cfg.LedgerBackend {
	case config.BackendPostgres:
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Println("ledgers: postgres")
		return pg, pg.Close, nil
	case config.BackendMemory:
		log.Println("ledgers: in-memory (data is lost on restart)")
		return memory.NewSeeded(), nil, nil
	default:
		wb, err := sheet.New(ctx, cfg.LedgerWorkbook)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("ledgers: workbook %s", cfg.LedgerWorkbook)
		return wb, wb.Close, nil
	}
}

func validateConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	switch cfg.LedgerBackend {
	case config.BackendSheet:
		if cfg.LedgerWorkbook == "" {
			return fmt.Errorf("LEDGER_WORKBOOK must be set for the sheet backend")
		}
	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for the postgres backend")
		}
	case config.BackendMemory:
	default:
		return fmt.Errorf("LEDGER_BACKEND must be one of sheet, postgres or memory, got %q", cfg.LedgerBackend)
	}
	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("SHOP_TIMEZONE is not a known time zone: %w", err)
	}
	if _, err := limiter.NewRateFromFormatted(cfg.LoginRate); err != nil {
		return fmt.Errorf("LOGIN_RATE is invalid: %w", err)
	}
	return nil
}
