// Package database owns the MongoDB client and the pokemon repository.
package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"pokedex_module/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no pokemon matches a lookup, update or delete.
var ErrNotFound = errors.New("pokemon not found")

// Connect opens a client and pings the primary. Failed attempts are retried
// with exponential backoff until cfg.Retry.MaxRetries is exhausted or ctx ends.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*mongo.Client, error) {
	var lastErr error
	attempts := cfg.Retry.MaxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := Backoff(cfg.Retry, attempt-1)
			logger.Warn("store connection failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("store connection aborted: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		client, err := connectOnce(ctx, cfg)
		if err == nil {
			logger.Info("connected to MongoDB", zap.String("database", cfg.Name), zap.Int("attempt", attempt))
			return client, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed to connect to MongoDB after %d attempts: %w", attempts, lastErr)
}

func connectOnce(ctx context.Context, cfg config.DatabaseConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		clientOptions.SetConnectTimeout(cfg.ConnectTimeout)
		clientOptions.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Backoff returns the wait before the given retry (1-based):
// BaseDelay * Multiplier^(retry-1), capped at MaxDelay.
func Backoff(cfg config.RetryConfig, retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	multiplier := cfg.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	delay := float64(cfg.BaseDelay) * math.Pow(multiplier, float64(retry-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		return cfg.MaxDelay
	}
	return time.Duration(delay)
}
