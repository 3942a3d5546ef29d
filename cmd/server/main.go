package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/openlibro/library-api/internal/config"
	"github.com/openlibro/library-api/internal/httpserver"
	"github.com/openlibro/library-api/internal/logging"
	"github.com/openlibro/library-api/internal/middleware"
	"github.com/openlibro/library-api/internal/mykafka"
	"github.com/openlibro/library-api/internal/repo"
	"github.com/openlibro/library-api/internal/revocation"
	"github.com/openlibro/library-api/internal/search"
	"github.com/openlibro/library-api/internal/service"
	"github.com/openlibro/library-api/internal/tokens"
	"github.com/openlibro/library-api/pkg/db"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET is required")
	}

	logger := logging.New(cfg.LOG_LEVEL)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(middleware.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	gormDB, err := db.Open(initCtx, dsn)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	blacklist, err := revocation.NewRedisStore(initCtx, cfg.REDIS_ADDR, cfg.REDIS_PASSWORD, cfg.REDIS_DB)
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}

	var es *elasticsearch.Client
	if cfg.ES_URL != "" {
		es, err = search.NewClient(cfg)
		if err != nil {
			logger.Warn("elasticsearch unavailable, book search disabled", "error", err)
			es = nil
		}
	}

	producer := mykafka.NewProducer(cfg.KAFKA_ADDRESS)
	defer producer.Close()

	gormRepo := repo.GormRepo{DB: gormDB}
	secret := []byte(cfg.JWT_SECRET)

	validator := &service.Validator{
		Repo:      gormRepo,
		Blacklist: blacklist,
		Secret:    secret,
	}
	authSvc := &service.AuthService{
		Repo:      gormRepo,
		Blacklist: blacklist,
		Issuer:    &tokens.Issuer{Secret: secret},
		Validator: validator,
	}
	authMW := middleware.NewAuthMiddleware(validator)

	httpserver.Register(e, &httpserver.Deps{
		Auth:   &httpserver.AuthHTTP{Svc: authSvc, Producer: producer},
		Books:  &httpserver.BookHTTP{Repo: gormRepo, ES: es},
		Loans:  &httpserver.LoanHTTP{Repo: gormRepo, Producer: producer},
		Users:  &httpserver.UserHTTP{Repo: gormRepo},
		AuthMW: authMW,
	})

	go func() {
		if err := e.Start(cfg.PORT); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
