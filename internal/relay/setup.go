package relay

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"github.com/good-yellow-bee/alarmlog/internal/config"
	"github.com/good-yellow-bee/alarmlog/internal/logsource"
	"github.com/good-yellow-bee/alarmlog/internal/metrics"
	"github.com/good-yellow-bee/alarmlog/internal/notifier"
	"github.com/good-yellow-bee/alarmlog/internal/parser"
	"github.com/good-yellow-bee/alarmlog/internal/secrets"
)

// FromConfig builds a relay backed by real CloudWatch Logs, Parameter Store
// and Slack clients.
func FromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Relay, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewFromAWS(awsCfg, cfg, logger)
}

// NewFromAWS builds a relay from an already loaded AWS configuration.
func NewFromAWS(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) (*Relay, error) {
	p, err := parser.New(cfg.Message.FieldMode, cfg.Message.FieldPattern, cfg.Message.FieldTimeFormat)
	if err != nil {
		return nil, fmt.Errorf("create field parser: %w", err)
	}

	resolver := logsource.NewResolver(cloudwatchlogs.NewFromConfig(awsCfg), logsource.Options{
		Lookback:  cfg.Query.Lookback,
		Lookahead: cfg.Query.Lookahead,
		Limit:     int32(cfg.Query.EventLimit),
	}, logger)

	store := secrets.NewStore(ssm.NewFromConfig(awsCfg), secrets.Paths{
		Token:         cfg.Slack.TokenParam,
		Channel:       cfg.Slack.ChannelParam,
		SigningSecret: cfg.Slack.SigningSecretParam,
	})

	composer := notifier.NewComposer(notifier.ComposerConfig{
		ConsoleBaseURL: cfg.Message.ConsoleBaseURL,
		Region:         awsCfg.Region,
		Assignee:       cfg.Message.Assignee,
	}, p, logger)

	apiURL := cfg.Slack.APIURL
	newClient := func(token string) notifier.Client {
		return notifier.NewSlackClient(token, apiURL)
	}

	if !cfg.SlackConfigured() {
		logger.Warn("slack parameter paths not fully configured, delivery will be skipped")
	}

	return New(resolver, store, newClient, composer, metrics.New(), Options{
		SurfaceFailures: cfg.SurfaceFailures,
		PushgatewayURL:  cfg.Metrics.PushgatewayURL,
		PushJob:         cfg.Metrics.PushJob,
	}, logger), nil
}
