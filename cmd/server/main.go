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

	"pricing-service/config"
	"pricing-service/internal/api"
	"pricing-service/internal/broker"
	"pricing-service/internal/locality"
	"pricing-service/internal/models"
	"pricing-service/internal/redisclient"
	"pricing-service/internal/service"
	"pricing-service/internal/store"
	"pricing-service/internal/util"
	"pricing-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting pricing service")

	tp, err := util.InitTracer("pricing-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	localityProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicLocality)
	defer localityProducer.Close()
	auditProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicZoneAudit)
	defer auditProducer.Close()
	log.Println("Kafka producers initialized")

	eventPublisher := broker.NewEventPublisher(localityProducer, auditProducer)

	stateSlot := locality.NewStateSlot()
	stateSlot.Subscribe(func(l models.Locality) {
		logger.Info("Active locality replaced",
			zap.Int64("locality_id", l.ID),
			zap.String("name", l.Name))
	})
	detectClient := locality.NewDetectClient(cfg.Locality.DetectServiceURL, cfg.Locality.DetectTimeout)
	resolver := locality.NewResolver(db, redisClient, detectClient, eventPublisher,
		stateSlot, cfg.Locality.SessionCacheTTL)

	catalogService := service.NewCatalogService(db, redisClient, 10*time.Minute)
	zoneService := service.NewZoneService(db, eventPublisher)
	distributionService := service.NewDistributionService(db, redisClient, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	localityConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicLocality, cfg.Kafka.ConsumerGroup)
	localityWorker := worker.NewLocalityWorker(localityConsumer, redisClient)
	go func() {
		if err := localityWorker.Start(workerCtx); err != nil {
			log.Printf("Locality worker error: %v", err)
		}
	}()

	auditConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicZoneAudit, "zone-audit-group")
	auditWorker := worker.NewZoneAuditWorker(auditConsumer)
	go func() {
		if err := auditWorker.Start(workerCtx); err != nil {
			log.Printf("Zone audit worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(catalogService, zoneService, distributionService,
		resolver, stateSlot, db)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	localityWorker.Stop()
	auditWorker.Stop()

	log.Println("Server exited")
}
