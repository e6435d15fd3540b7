package store

import (
	"fmt"

	"github.com/philipparndt/annoview/internal/config"
	"github.com/rs/zerolog"
)

// New creates the store backend named by the configuration
func New(cfg config.StorageConfig, log zerolog.Logger) (Store, error) {
	switch cfg.Type {
	case "file":
		log.Debug().Str("path", cfg.File.Path).Msg("using file store")
		s, err := NewFile(cfg.File.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		log.Debug().Str("path", cfg.SQLite.Path).Msg("using sqlite store")
		s, err := NewSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		log.Debug().Str("host", cfg.Postgres.Host).Str("database", cfg.Postgres.Database).Msg("using postgres store")
		s, err := NewPostgres(cfg.Postgres.DSN())
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		log.Debug().Msg("using memory store, annotations will not survive a restart")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
