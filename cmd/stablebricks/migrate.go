package main

import (
	"errors"

	"stablebricks-backend/internal/infrastructure/database"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var errNoDatabase = errors.New("DATABASE_URL is not set")

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, done, err := openDB()
			if err != nil {
				return err
			}
			defer done()
			if err := database.AutoMigrate(db.WithContext(cmd.Context())); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func openDB() (*gorm.DB, func(), error) {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		closeLog()
		return nil, nil, errNoDatabase
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return db, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		closeLog()
	}, nil
}
