package config

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if err := types.AccountID(cfg.ContractID).Validate(); err != nil {
		return fmt.Errorf("contract: %w", err)
	}

	if cfg.Storage == "" {
		cfg.Storage = StorageMemory
	}
	switch cfg.Storage {
	case StorageMemory, StorageBadger:
	default:
		return fmt.Errorf("storage must be %q or %q", StorageMemory, StorageBadger)
	}

	if cfg.Storage == StorageBadger && cfg.DataDir == "" {
		return fmt.Errorf("storage=badger requires a data directory")
	}
	return nil
}
