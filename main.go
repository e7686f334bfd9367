package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/tetrisserver/config"
	"github.com/wfunc/tetrisserver/logger"
	"github.com/wfunc/tetrisserver/monitor"
	"github.com/wfunc/tetrisserver/persistence"
	"github.com/wfunc/tetrisserver/server"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Init()
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if err := logger.Setup(cfg.Server.Development, cfg.Server.LogLevel); err != nil {
		logger.Init()
		logger.Log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	pg := cfg.Database.Postgres
	db, err := persistence.Open(persistence.Options{
		Driver:   cfg.Database.Driver,
		Host:     pg.Host,
		Port:     pg.Port,
		User:     pg.User,
		Password: pg.Password,
		DBName:   pg.DBName,
		SSLMode:  pg.SSLMode,
	})
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Log.Infof("Database ready (driver %s).", cfg.Database.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := monitor.NewMonitor("tetris")
	if cfg.Server.MetricsAddress != "" {
		mon.StartServer(ctx, cfg.Server.MetricsAddress)
	}

	// Initialize Game Server
	gameServer, err := server.NewGameServer(cfg, db, mon)
	if err != nil {
		logger.Log.Fatalf("Failed to create game server: %v", err)
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		logger.Log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		gameServer.Shutdown(shutdownCtx)
	}()

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
	<-stopped
}
