package cmd

import (
	"example.com/registrar/config"
	"example.com/registrar/internal/models"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// initDatabases opens the write and read-only connections and migrates the
// schema on the write side. TranslateError is on so unique-index violations
// surface as gorm.ErrDuplicatedKey for the repositories to map.
func initDatabases(cfg config.Config) (*gorm.DB, *gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to write database")
	}

	readOnlyDB, err := gorm.Open(postgres.Open(cfg.DB.ReadOnlyDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to read-only database")
	}

	if err := models.SetupModels(db); err != nil {
		return nil, nil, errors.Wrap(err, "failed to run migrations")
	}

	if err := configurePool(db, cfg.DB, 1); err != nil {
		return nil, nil, err
	}
	// Reads dominate, so the read-only pool gets double the limits
	if err := configurePool(readOnlyDB, cfg.DB, 2); err != nil {
		return nil, nil, err
	}

	return db, readOnlyDB, nil
}

func configurePool(db *gorm.DB, cfg config.DatabaseConfig, factor int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying DB connection")
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns * factor)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns * factor)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return nil
}
