package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/cache"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/config"
	h "github.com/matiasskenen/Fotografo-CRM-Ventas/internal/http"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/mercadopago"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/metrics"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/publisher"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/repository"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/service"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsDirPath,
	}

	repo, err := repository.NewPostgresRepository(creds)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	var guard cache.ReplayGuard
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		guard = cache.NewRedisReplayGuard(redisClient)
		log.Printf("replay guard backed by redis at %s", cfg.RedisAddr)
	} else {
		guard = cache.NewMemoryReplayGuard()
		log.Println("replay guard running in-process")
	}

	var paidPublisher service.PaidEventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := publisher.NewPaidPublisher(cfg.KafkaBrokers...)
		defer kafkaPublisher.Close()
		paidPublisher = kafkaPublisher
		log.Printf("publishing paid events to kafka %v", cfg.KafkaBrokers)
	}

	recorder, err := metrics.NewOTelRecorder()
	if err != nil {
		log.Fatalf("failed to set up metrics: %v", err)
	}

	store := storage.NewFSStore(cfg.StorageDir, cfg.StorageBaseURL)
	mpClient := mercadopago.NewClient(cfg.MercadoPagoBaseURL, cfg.MercadoPagoAccessToken, cfg.MercadoPagoTimeout)

	webhookService := service.NewWebhookService(repo, mpClient, paidPublisher, recorder)
	downloadService := service.NewDownloadService(repo, repo, store, recorder)
	paymentService := service.NewPaymentService(repo, repo, mpClient, recorder,
		cfg.FrontendURL, cfg.BackendURL, cfg.Production)
	orderService := service.NewOrderService(repo, repo, store)
	catalogService := service.NewCatalogService(repo, store)

	router := h.NewRouter(h.RouterConfig{
		AdminToken:     cfg.AdminToken,
		PhotographerID: cfg.PhotographerID,
		RequestTimeout: cfg.RequestTimeout,
	}, h.Handlers{
		Webhook:  h.NewWebhookHandler(guard, webhookService, cfg.MercadoPagoWebhookSecret),
		Download: h.NewDownloadHandler(downloadService),
		Orders:   h.NewOrderHandler(orderService),
		Payments: h.NewPaymentHandler(paymentService, !cfg.Production),
		Albums:   h.NewAlbumHandler(catalogService),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "fotoventa-server"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
