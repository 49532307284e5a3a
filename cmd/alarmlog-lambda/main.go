// Package main is the Lambda entry point of the alarm log relay.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/good-yellow-bee/alarmlog/internal/config"
	"github.com/good-yellow-bee/alarmlog/internal/relay"
	buildinfo "github.com/good-yellow-bee/alarmlog/pkg/config"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	r, err := relay.FromConfig(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to create relay", zap.Error(err))
	}

	logger.Info("starting alarm log relay",
		zap.String("version", buildinfo.Version),
		zap.String("commit", buildinfo.Commit),
		zap.String("field_mode", cfg.Message.FieldMode),
		zap.Bool("surface_failures", cfg.SurfaceFailures))

	lambda.Start(r.Handle)
}
