// Command tokserver runs the one-shot token HTTP service (spec §4, §6).
package main

import (
	"context"
	"crypto/rand"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/hakr/tokserver/internal/config"
	"github.com/hakr/tokserver/internal/httpapi"
	"github.com/hakr/tokserver/internal/metrics"
	"github.com/hakr/tokserver/internal/server"
	"github.com/hakr/tokserver/internal/tracing"
	"github.com/hakr/tokserver/pkg/tokstore"
)

func main() {
	logger := newLogger()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.WithError(err).Fatal("configuration error")
	}

	provider, err := tracing.NewProvider(tracing.Config{
		ServiceName:    "tokserver",
		ServiceVersion: "0.1.0",
		Environment:    "production",
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize tracing")
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("tracing shutdown")
		}
	}()

	metrics.Register()

	storeOpts := buildStoreOptions(cfg, logger)
	store := tokstore.New(cfg.TokenLifetime, storeOpts...)

	sched := tokstore.NewScheduler(store, cfg.PurgeInterval, func(removed int) {
		_, span := provider.StartSpan(context.Background(), tracing.SpanPurge,
			tracing.AttributeRemoved.Int(removed))
		span.End()

		metrics.RecordPurge(removed)
		metrics.SetActiveTokens(float64(store.Len()))
		logger.WithField("removed", removed).Debug("purge sweep")
	})

	digest := tokstore.NewDigestSigner(digestSeed(cfg, logger), cfg.DigestIssuer)

	api := &httpapi.API{
		Store:       store,
		DumpEnabled: cfg.Dump,
		Logger:      logger,
		Tracer:      provider,
		Digest:      digest,
	}
	router := httpapi.NewRouter(api)
	srv := server.New(cfg.Port, router, sched, logger)
	api.ShutdownOnce = srv.TriggerShutdown

	logger.WithField("port", cfg.Port).Info("tokserver starting")
	if err := srv.Run(context.Background()); err != nil {
		logger.WithError(err).Fatal("server exited with error")
	}
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	return logger
}

func buildStoreOptions(cfg *config.Config, logger *logrus.Logger) []tokstore.Option {
	var opts []tokstore.Option

	if cfg.RedisAddr != "" {
		mirror, err := tokstore.NewRedisMirror(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "tokserver.events")
		if err != nil {
			logger.WithError(err).Warn("redis mirror unavailable, continuing without it")
		} else {
			opts = append(opts, tokstore.WithMirror(mirror))
		}
	}

	if cfg.SealEnabled {
		var key [32]byte
		if _, err := rand.Read(key[:]); err != nil {
			logger.WithError(err).Fatal("failed to generate sealing key")
		}
		opts = append(opts, tokstore.WithSealer(tokstore.NewPasetoSealer(key, "tokserver")))
	}

	return opts
}

func digestSeed(cfg *config.Config, logger *logrus.Logger) []byte {
	if cfg.VaultAddr != "" {
		seed, err := config.LoadDigestSeed(cfg.VaultAddr, cfg.VaultToken, cfg.VaultSecretPath, cfg.VaultField)
		if err != nil {
			logger.WithError(err).Warn("vault digest seed unavailable, falling back to a random seed")
		} else {
			return seed
		}
	}
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		logger.WithError(err).Fatal("failed to generate digest seed")
	}
	return seed
}
