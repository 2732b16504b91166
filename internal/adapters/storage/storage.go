// Package storage elige el adapter de persistencia según la config.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"med-reminder/internal/adapters/storage/memory"
	"med-reminder/internal/adapters/storage/postgres"
	"med-reminder/internal/adapters/storage/sqlite"
	"med-reminder/internal/domain/medications"
	"med-reminder/internal/platform/config"
	"med-reminder/internal/platform/logger"
)

// Store es lo que ofrecen todos los adapters: CRUD + append condicionado.
type Store interface {
	medications.Repository
	medications.EventAppender
}

// Open devuelve el store configurado y una función para liberarlo.
func Open(ctx context.Context, cfg config.Config, log logger.Logger) (Store, func() error, error) {
	if log == nil {
		log = logger.Nop()
	}
	noop := func() error { return nil }

	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.DBDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("storage: open postgres: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		log.Info("storage ready", map[string]any{"driver": cfg.DBDriver})
		return postgres.NewMedicationsRepo(db), closer(db), nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		log.Info("storage ready", map[string]any{"driver": cfg.DBDriver, "path": cfg.SQLitePath})
		return sqlite.NewMedicationsRepo(db), closer(db), nil

	case config.DriverMemory, "":
		log.Warn("using in-memory storage, data is lost on restart", map[string]any{"driver": config.DriverMemory})
		return memory.NewMedicationRepo(), noop, nil
	}

	return nil, noop, fmt.Errorf("storage: unsupported driver %q", cfg.DBDriver)
}

func closer(db *sql.DB) func() error {
	return db.Close
}
