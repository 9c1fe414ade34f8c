// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estatecore/internal/audit"
	auditpublisher "estatecore/internal/audit/publisher"
	auditstore "estatecore/internal/audit/store"
	"estatecore/internal/identity"
	identitystore "estatecore/internal/identity/store"
	"estatecore/internal/identity/token"
	"estatecore/internal/notification"
	notificationmetrics "estatecore/internal/notification/metrics"
	notificationstore "estatecore/internal/notification/store"
	"estatecore/internal/platform/config"
	"estatecore/internal/platform/database"
	"estatecore/internal/platform/kafka/producer"
	"estatecore/internal/platform/logger"
	propertymetrics "estatecore/internal/property/metrics"
	propertyservice "estatecore/internal/property/service"
	propertystore "estatecore/internal/property/store"
	propertytracer "estatecore/internal/property/tracer"
	"estatecore/internal/quota"
	quotastore "estatecore/internal/quota/store"
	"estatecore/internal/tenant"
	tenantstore "estatecore/internal/tenant/store"
	httptransport "estatecore/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing estatecore",
		"addr", cfg.Addr,
		"database", cfg.DatabaseURL != "",
		"kafka", cfg.KafkaBrokers != "",
	)

	pool, err := database.New(database.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	var (
		principalStore    identity.PrincipalStore
		reviewerDirectory notification.Directory
		tenantStore       tenant.Store
		propertyStore     propertyservice.Store
		subscriptionStore quota.Store
		notificationStore notification.Store
		auditStore        audit.Store
		dbPinger          httptransport.Pinger
	)
	if pool != nil {
		defer pool.Close()
		db := pool.DB()
		identityPG := identitystore.NewPostgres(db)
		principalStore = identityPG
		reviewerDirectory = identityPG
		tenantStore = tenantstore.NewPostgres(db)
		propertyStore = propertystore.NewPostgres(db)
		subscriptionStore = quotastore.NewPostgres(db)
		notificationStore = notificationstore.NewPostgres(db)
		auditStore = auditstore.NewPostgres(db)
		dbPinger = pool
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		identityMem := identitystore.NewInMemory()
		principalStore = identityMem
		reviewerDirectory = identityMem
		tenantStore = tenantstore.NewInMemory()
		propertyStore = propertystore.NewInMemory()
		subscriptionStore = quotastore.NewInMemory()
		notificationStore = notificationstore.NewInMemory()
		auditStore = auditstore.NewInMemory()
	}

	auditOpts := []audit.Option{
		audit.WithLogger(log),
		audit.WithSinkTimeout(cfg.SinkTimeout),
	}
	var kafkaProducer *producer.Producer
	if cfg.KafkaBrokers != "" {
		kafkaProducer, err = producer.New(producer.Config{
			Brokers:         cfg.KafkaBrokers,
			DeliveryTimeout: 10 * time.Second,
		}, log)
		if err != nil {
			log.Error("kafka producer init failed", "error", err)
			os.Exit(1)
		}
		defer kafkaProducer.Close()
		auditOpts = append(auditOpts, audit.WithPublisher(auditpublisher.NewKafka(kafkaProducer, cfg.AuditTopic)))
	}
	recorder := audit.NewRecorder(auditStore, auditOpts...)

	notifications := notification.New(notificationStore, reviewerDirectory,
		notification.WithLogger(log),
		notification.WithMetrics(notificationmetrics.New()),
	)
	dispatcher := notification.NewDispatcher(notifications,
		notification.WithDispatcherLogger(log),
		notification.WithJobTimeout(cfg.SinkTimeout),
	)
	dispatcher.Start()
	defer dispatcher.Close()

	properties := propertyservice.New(propertyStore, quota.NewEnforcer(subscriptionStore, quota.WithLogger(log)),
		propertyservice.WithLogger(log),
		propertyservice.WithAuditor(recorder),
		propertyservice.WithNotifier(dispatcher),
		propertyservice.WithMetrics(propertymetrics.New()),
		propertyservice.WithTracer(propertytracer.NewOTel()),
	)
	tenants := tenant.New(tenantStore,
		tenant.WithLogger(log),
		tenant.WithAuditor(recorder),
	)

	verifier := token.NewVerifier(cfg.JWTSigningKey)
	resolver := identity.NewResolver(principalStore, tenantStore, identity.WithLogger(log))
	handler := httptransport.NewHandler(properties, tenants, notifications, dbPinger, log)
	router := httptransport.NewRouter(handler, verifier, resolver, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
