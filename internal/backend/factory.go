package backend

import (
	"fmt"
	"log/slog"

	"registro/internal/storage"
)

// Factory creates storage gateways based on configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateGateway builds the gateway named by config.Type.
func (f *Factory) CreateGateway(config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		gw, err := storage.NewSQLiteGateway(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite gateway: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &Result{Gateway: gw, Cleanup: gw.Close}, nil

	case FileBackend:
		gw, err := storage.NewFileGateway(config.SnapshotPath, config.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("initialize file gateway: %w", err)
		}
		f.logger.Info("Initialized file backend",
			"snapshot_path", config.SnapshotPath,
			"encrypted", config.Passphrase != "")
		return &Result{Gateway: gw, Cleanup: gw.Close}, nil

	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return &Result{Gateway: storage.NewMemoryGateway(), Cleanup: nil}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
