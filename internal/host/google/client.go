// Package google implements the host interfaces on Google Drive, Forms and
// Sheets using the generated google.golang.org/api clients.
package google

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/forms/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ppiankov/riskform/internal/host"
	"github.com/ppiankov/riskform/internal/worker"
)

const (
	mimeFolder = "application/vnd.google-apps.folder"
	mimeForm   = "application/vnd.google-apps.form"
)

// Scopes are the OAuth scopes the backend needs
var Scopes = []string{
	drive.DriveScope,
	forms.FormsBodyScope,
	forms.FormsResponsesReadonlyScope,
	sheets.SpreadsheetsScope,
}

// Config configures the Google backend
type Config struct {
	CredentialsFile string
	Limiter         *worker.Limiter

	// Options are appended to the client options (endpoints, HTTP clients in tests)
	Options []option.ClientOption
}

// Client holds the Drive, Forms and Sheets services
type Client struct {
	drive   *drive.Service
	forms   *forms.Service
	sheets  *sheets.Service
	limiter *worker.Limiter
	logger  *zap.Logger
}

// NewClient creates the three API services sharing one set of credentials
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(Scopes...)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, cfg.Options...)

	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	formsSvc, err := forms.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create forms service: %w", err)
	}

	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.Debug("Google services initialized",
		zap.Bool("credentials_file", cfg.CredentialsFile != ""))

	return &Client{
		drive:   driveSvc,
		forms:   formsSvc,
		sheets:  sheetsSvc,
		limiter: cfg.Limiter,
		logger:  logger,
	}, nil
}

// Backend exposes the client through the host interfaces
func (c *Client) Backend() *host.Backend {
	return &host.Backend{
		Name:   "google",
		Docs:   &DriveStore{client: c},
		Forms:  &FormService{client: c},
		Source: &FormService{client: c},
		Sheets: &SheetService{client: c},
		Close:  func() error { return nil },
	}
}

// wait applies the per-service rate limit before an API call
func (c *Client) wait(ctx context.Context, service string) error {
	if err := c.limiter.Wait(ctx, service); err != nil {
		return fmt.Errorf("rate limit %s: %w", service, err)
	}
	return nil
}
