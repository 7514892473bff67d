package local

import (
	"go.uber.org/zap"

	"github.com/ppiankov/riskform/internal/host"
	"github.com/ppiankov/riskform/internal/model"
)

// NewBackend opens the SQLite store and wires the local implementations
func NewBackend(cfg model.LocalConfig, logger *zap.Logger) (*host.Backend, *FormStore, error) {
	store, err := OpenFormStore(cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}

	return &host.Backend{
		Name:   "local",
		Docs:   NewDirStore(),
		Forms:  store,
		Source: store,
		Sheets: NewCSVSheets(cfg.OutputDir, logger),
		Close:  store.Close,
	}, store, nil
}
