package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Internmain07/I-INTERN/internal/archive"
	"github.com/Internmain07/I-INTERN/internal/auth"
	"github.com/Internmain07/I-INTERN/internal/config"
	"github.com/Internmain07/I-INTERN/internal/controller/file"
	"github.com/Internmain07/I-INTERN/internal/database"
	"github.com/Internmain07/I-INTERN/internal/lifecycle"
	"github.com/Internmain07/I-INTERN/internal/notification"
)

// MyServer holds the dependencies shared by every route
type MyServer struct {
	Cfg *config.Config
	DB  *database.DBinstanceStruct
	Log *zap.Logger

	Tokens    *auth.TokenManager
	Blacklist auth.JwtBlacklistStore
	States    auth.StateStore
	Notifier  *notification.Notifier
	Lifecycle *lifecycle.Service
	Storage   file.StorageClient
	Archiver  *archive.Archiver

	closers []func() error
}

// NewServer connects the database, redis and object storage described by cfg and
// builds the services the routes need.
func NewServer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*MyServer, error) {
	db, err := database.GetMainDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("database failed to initialize: %w", err)
	}

	s := &MyServer{
		Cfg:    cfg,
		DB:     db,
		Log:    log,
		Tokens: auth.NewTokenManager(cfg.SecretKey, cfg.AccessTokenTTL),
	}
	s.closers = append(s.closers, db.Close)

	if cfg.RedisURL != "" {
		client, err := auth.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Blacklist = auth.NewRedisBlacklistStore(client)
		s.States = auth.NewRedisStateStore(client)
		s.closers = append(s.closers, client.Close)
		log.Info("Using redis for sessions and OAuth state")
	} else {
		blacklist := auth.NewInMemoryBlacklistStore()
		s.Blacklist = blacklist
		s.States = auth.NewMemoryStateStore()
		s.closers = append(s.closers, func() error {
			blacklist.Close()
			return nil
		})
		log.Info("REDIS_URL not set, using in-memory session stores")
	}

	if cfg.StorageBucket != "" {
		storage, err := file.NewCloudStorageClient(ctx, cfg.StorageBucket)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		s.Storage = storage
		s.closers = append(s.closers, storage.Close)
	} else {
		log.Info("STORAGE_BUCKET not set, keeping uploaded files in the database")
	}

	templates, err := notification.LoadTemplates()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}
	mailer := notification.NewMailer(cfg.Mail, log)
	s.Notifier = notification.NewNotifier(mailer, templates, cfg.Mail.PerSecond, cfg.Mail.Burst, cfg.FrontendURL, log)
	s.Lifecycle = lifecycle.NewService(database.NewApplicationStore(db), s.Notifier, log)
	s.Archiver = archive.New(db.DB, log)

	return s, nil
}

// HTTPServer wraps the routes in an http.Server configured from Cfg
func (s *MyServer) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  s.Cfg.IdleTimeout,
		ReadTimeout:  s.Cfg.ReadTimeout,
		WriteTimeout: s.Cfg.WriteTimeout,
	}
}

// Close waits for pending notifications and releases every connection, newest first
func (s *MyServer) Close() error {
	if s.Lifecycle != nil {
		s.Lifecycle.Wait()
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
