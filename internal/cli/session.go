package cli

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/riskform/internal/host"
	"github.com/ppiankov/riskform/internal/host/google"
	"github.com/ppiankov/riskform/internal/host/local"
	"github.com/ppiankov/riskform/internal/model"
	"github.com/ppiankov/riskform/internal/worker"
)

// session is what every backend-facing command starts from
type session struct {
	cfg     *model.Config
	logger  *zap.Logger
	backend *host.Backend
	store   *local.FormStore // nil unless the local backend is selected
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	backend, store, err := newBackend(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	logger.Debug("Session opened",
		zap.String("backend", backend.Name),
		zap.String("folder_id", cfg.Storage.FolderID))

	return &session{cfg: cfg, logger: logger, backend: backend, store: store}, nil
}

func (s *session) Close() {
	if err := s.backend.Close(); err != nil {
		s.logger.Warn("Failed to close backend", zap.Error(err))
	}
	_ = s.logger.Sync()
}

// fail logs a command error and returns it for the non-zero exit
func (s *session) fail(msg string, err error) error {
	s.logger.Error(msg, zap.Error(err))
	return fmt.Errorf("%s: %w", msg, err)
}

func newLimiter(cfg model.GoogleConfig) *worker.Limiter {
	l := worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	for service, perSecond := range cfg.ServiceRates {
		l.Limit(service, worker.Rate{PerSecond: perSecond})
	}
	return l
}

func newBackend(ctx context.Context, cfg *model.Config, logger *zap.Logger) (*host.Backend, *local.FormStore, error) {
	switch cfg.Backend {
	case "google":
		client, err := google.NewClient(ctx, google.Config{
			CredentialsFile: cfg.Google.CredentialsFile,
			Limiter:         newLimiter(cfg.Google),
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to google: %w", err)
		}
		return client.Backend(), nil, nil

	case "local":
		backend, store, err := local.NewBackend(cfg.Local, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open local backend: %w", err)
		}
		return backend, store, nil
	}
	return nil, nil, errors.New("no backend configured")
}
