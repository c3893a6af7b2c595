package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"campuspark/internal/app"
	"campuspark/internal/config"
)

func runMigrate(parent context.Context) error {
	cfg := config.Load(envFile)
	log := logrus.NewEntry(app.NewLogger(cfg.Log))

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	// NewDatabase applies the schema on connect.
	db, err := app.NewDatabase(ctx, cfg.Database, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	log.WithField("database", cfg.Database.DBName).Info("Schema up to date")
	return nil
}
