package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"liblend/internal/config"
	"liblend/internal/database"
	"liblend/internal/domain"
	"liblend/internal/repository"
)

// Garbage-collects expired refresh tokens and stale blacklist rows. Meant
// to run from cron; a revoked-but-unexpired token is never touched.
func main() {
	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	if err := db.AutoMigrate(&domain.RefreshToken{}, &domain.BlacklistedToken{}); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}

	ctx := context.Background()

	refreshDeleted, err := repository.NewRefreshTokenRepository(db).DeleteExpired(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to clean refresh tokens")
	}

	blacklistDeleted, err := repository.NewBlacklistRepository(db).DeleteExpired(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to clean blacklist")
	}

	log.WithFields(logrus.Fields{
		"refresh_tokens": refreshDeleted,
		"blacklist_rows": blacklistDeleted,
	}).Info("token cleanup complete")
}
