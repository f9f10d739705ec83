package main

import (
	"context"
	"errors"

	"orangecat/internal/database"
)

func runMigrate(ctx context.Context) error {
	if cfg.DSN == "" {
		return errors.New("DSN is required to run migrations")
	}
	db, err := database.Connect(ctx, database.Config{DSN: cfg.DSN})
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := database.Migrate(ctx, db, log)
	if err != nil {
		return err
	}
	log.Info().Strs("applied", applied).Msg("migrations complete")
	return nil
}
