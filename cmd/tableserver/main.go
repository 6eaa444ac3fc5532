package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"poker-platform/internal/audit"
	"poker-platform/internal/events"
	"poker-platform/internal/game"
	"poker-platform/internal/metrics"
	"poker-platform/internal/transport"
	"poker-platform/pkg/rng"
)

func main() {
	logger := logrus.New()
	if rng.IsDevEnvironment() {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	var auditStore *audit.Store
	if dsn := os.Getenv("POKER_AUDIT_DSN"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			logger.WithError(err).Fatal("failed to open audit database")
		}
		auditStore = audit.NewStore(db)
		if err := auditStore.EnsureSchema(context.Background()); err != nil {
			logger.WithError(err).Fatal("failed to ensure audit schema")
		}
	}

	var auditLogger *rng.AuditLogger
	if auditStore != nil {
		auditLogger = rng.NewAuditLogger(auditStore.Sink())
	}

	rngSystem, err := rng.NewSystem(auditLogger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize rng system")
	}

	var bus *events.Bus
	if brokers := os.Getenv("POKER_KAFKA_BROKERS"); brokers != "" {
		bus, err = events.NewBus(events.BusConfig{Brokers: []string{brokers}, Async: true})
		if err != nil {
			logger.WithError(err).Warn("failed to start event bus, continuing without it")
			bus = nil
		}
	}

	// registry is assigned after construction below; hooks only calls
	// into it once tables start actually running, by which point it is
	// always set. This indirection exists because the registry itself
	// is built from these hooks.
	var registry *transport.Registry

	hooks := func(tableID string) (func(game.TableSnapshot), func(int, game.BettingOptions)) {
		recorder := metrics.NewRecorder(tableID)
		onState := func(snap game.TableSnapshot) {
			recorder.Observe(snap)
			if bus != nil {
				bus.PublishStateChange(snap)
			}
			if registry != nil {
				registry.BroadcastState(tableID, snap)
			}
		}
		onAction := func(seat int, opts game.BettingOptions) {
			if registry != nil {
				registry.BroadcastActionRequest(tableID, seat, opts)
			}
		}
		return onState, onAction
	}

	var allowedOrigins []string
	if origins := os.Getenv("POKER_ALLOWED_ORIGINS"); origins != "" {
		allowedOrigins = strings.Split(origins, ",")
	}

	registry = transport.NewRegistry(rngSystem, hooks, allowedOrigins)

	router := gin.Default()
	registry.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.Status(200) })

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down table server")
		registry.StopAll()
		if bus != nil {
			_ = bus.Close()
		}
		os.Exit(0)
	}()

	port := os.Getenv("TABLE_SERVER_PORT")
	if port == "" {
		port = "3002"
	}
	if _, err := strconv.Atoi(port); err != nil {
		logger.WithField("port", port).Fatal("invalid TABLE_SERVER_PORT")
	}

	logger.WithField("port", port).Info("table server starting")
	if err := router.Run(fmt.Sprintf(":%s", port)); err != nil {
		logger.WithError(err).Fatal("table server exited")
	}
}
