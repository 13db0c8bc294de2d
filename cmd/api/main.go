// Command api serves the I-Intern HTTP API.
//
//go:generate swag init -g cmd/api/main.go -d ../../ -o ../../docs
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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Internmain07/I-INTERN/internal/config"
	"github.com/Internmain07/I-INTERN/internal/logger"
	"github.com/Internmain07/I-INTERN/internal/server"
)

const shutdownTimeout = 10 * time.Second

// @title I-Intern API
// @version 1.0
// @description Internship marketplace matching students with companies.
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Bearer access token, e.g. "Bearer {token}"
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %s", err)
	}

	zlog, err := logger.New(cfg.LogJSON, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %s", err)
	}
	defer func() { _ = zlog.Sync() }()
	zap.ReplaceGlobals(zlog)
	if cfg.AuthLogging {
		logger.EnableAuthLog()
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.NewServer(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("Server failed to initialize", zap.Error(err))
	}
	httpServer := s.HTTPServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info("Listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return s.Archiver.Run(gctx, cfg.ArchiveInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zlog.Error("Server stopped with error", zap.Error(err))
	}
	if err := s.Close(); err != nil {
		zlog.Error("Failed to release resources", zap.Error(err))
	}
	zlog.Info("Server stopped")
}
