package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/auth"
	"github.com/ahmadzakiakmal/rf-receiving/compensate"
	"github.com/ahmadzakiakmal/rf-receiving/config"
	"github.com/ahmadzakiakmal/rf-receiving/printclient"
	"github.com/ahmadzakiakmal/rf-receiving/receiving"
	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/memrepo"
	"github.com/ahmadzakiakmal/rf-receiving/server"
	"github.com/ahmadzakiakmal/rf-receiving/session"
	"github.com/ahmadzakiakmal/rf-receiving/srvreg"
	"github.com/ahmadzakiakmal/rf-receiving/taskqueue"

	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/dgraph-io/badger/v4"
	"k8s.io/utils/clock"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "", "Path to a config.toml (optional)")
}

func main() {
	flag.Parse()

	log.Println("===========================================")
	log.Println("   RF Receiving Node - Starting Up")
	log.Println("===========================================")

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("❌ Loading configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Configuration validation failed: %v", err)
	}

	log.Printf("✓ Configuration loaded")
	log.Printf("   Node ID: %s", cfg.NodeID)
	log.Printf("   Facility: %s", cfg.Facility)
	log.Printf("   HTTP Port: %s", cfg.HTTPPort)
	log.Printf("   Database driver: %s", cfg.DatabaseDriver)
	log.Printf("   Badger dir: %s", cfg.BadgerDir)

	// Create logger
	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(cfg.LogLevel, logger, "info")
	if err != nil {
		log.Fatalf("Failed to parse log level: %v", err)
	}

	clk := clock.RealClock{}

	// Initialize store
	var store repository.Store
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		log.Printf("Connecting to PostgreSQL: %s:%s/%s", cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseName)
		repo := repository.NewRepository(cfg.RoutineTimeout)
		if err := repo.ConnectDB(cfg.GetDSN()); err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		store = repo
	default:
		log.Println("⚠️  Using the in-memory store with demo data; nothing survives a restart")
		store = memrepo.NewSeeded(clk)
	}

	// Initialize Badger DB for sessions and background tasks
	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerDir))
	if err != nil {
		log.Fatalf("Opening badger database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Closing badger database: %v", err)
		}
	}()

	sessions := session.NewStore(db, logger)

	queue := taskqueue.NewQueue(db, logger, clk, taskqueue.Config{
		Workers:     cfg.TaskWorkers,
		MaxAttempts: cfg.TaskMaxAttempts,
		Backoff:     cfg.TaskBackoff,
	})
	comp := compensate.NewManager(store, clk, logger)
	queue.Register(compensate.TaskBatchClose, comp.HandleCloseTask)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if err := queue.Start(ctx); err != nil {
		log.Fatalf("Starting task queue: %v", err)
	}
	defer queue.Stop()

	var printer receiving.Printer = printclient.Nop{}
	if cfg.PrinterEndpoint != "" {
		printer = printclient.NewClient(cfg.PrinterEndpoint, cfg.Facility, cfg.PrinterTimeout, logger)
		log.Printf("✓ Label printer: %s", cfg.PrinterEndpoint)
	} else {
		log.Println("⚠️  No printer endpoint configured, labels will not be printed")
	}

	engine := receiving.NewEngine(receiving.Options{
		Store:    store,
		Sessions: sessions,
		Tasks:    queue,
		Printer:  printer,
		Clock:    clk,
		Logger:   logger,
	})
	authenticator := auth.NewAuthenticator(store, cfg.JWTSecret, cfg.TokenTTL, clk)

	// Initialize service registry
	serviceRegistry := srvreg.NewServiceRegistry(engine, authenticator, store, cfg.NodeID, cfg.Facility, logger)
	serviceRegistry.RegisterDefaultServices()

	webServer := server.NewWebServer(cfg.HTTPPort, serviceRegistry, cfg.NodeID, cfg.Facility, logger)
	if err := webServer.Start(); err != nil {
		log.Fatalf("❌ Failed to start web server: %v", err)
	}

	logger.Info("RF receiving node ready", "node_id", cfg.NodeID, "facility", cfg.Facility, "url", "http://localhost:"+cfg.HTTPPort)

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP web server", "err", err)
	}
	logger.Info("RF receiving node stopped")
}
