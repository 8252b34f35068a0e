package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/DevanshBajpai09/product-management/internal/blob"
	"github.com/DevanshBajpai09/product-management/internal/config"
	"github.com/DevanshBajpai09/product-management/internal/es"
	"github.com/DevanshBajpai09/product-management/internal/handlers"
	"github.com/DevanshBajpai09/product-management/internal/identity"
	"github.com/DevanshBajpai09/product-management/internal/logging"
	loggingmw "github.com/DevanshBajpai09/product-management/internal/middleware/logging"
	"github.com/DevanshBajpai09/product-management/internal/mykafka"
	"github.com/DevanshBajpai09/product-management/internal/repo"
	"github.com/DevanshBajpai09/product-management/internal/service"
	"github.com/DevanshBajpai09/product-management/internal/service/search"
	"github.com/DevanshBajpai09/product-management/internal/service/token"
	httpserver "github.com/DevanshBajpai09/product-management/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	logger := logging.New(os.Getenv("LOG_LEVEL")).With("service", "product-management")
	slog.SetDefault(logger)

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	var indexer *search.Indexer
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init: %v", err)
		}
		indexer = &search.Indexer{ES: esClient, Name: "products"}
	}

	blobs, err := blob.NewDiskStore(configuration.MEDIA_DIR, configuration.PUBLIC_BASE_URL)
	if err != nil {
		log.Fatalf("blob store init: %v", err)
	}

	productSvc := &service.ProductService{
		Repo:     &repo.GormRepo{DB: db},
		Blobs:    blobs,
		Identity: identity.ContextProvider{},
		Producer: producer,
		Index:    indexer,
	}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	deps := httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			DB:            db,
			JWTSecret:     jwtSecret,
			RefreshSecret: refreshSecret,
			Producer:      producer,
		},
		ProductHandler: &handlers.ProductHandler{Svc: productSvc},
		SearchHandler:  &handlers.SearchHandler{Index: indexer},
		TokenService:   &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
		MediaDir:       configuration.MEDIA_DIR,
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:              ":" + configuration.SERVER_PORT,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
