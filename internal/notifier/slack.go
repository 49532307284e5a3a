package notifier

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/good-yellow-bee/alarmlog/internal/models"
	"github.com/good-yellow-bee/alarmlog/internal/parser"
)

// Attachment colors.
const (
	ColorDanger  = "danger"
	ColorWarning = "warning"
)

// Severity returns the attachment color for an error code.
func Severity(code int) string {
	if code >= 500 {
		return ColorDanger
	}
	return ColorWarning
}

// ComposerConfig holds the values the composer renders into every attachment.
type ComposerConfig struct {
	ConsoleBaseURL string // CloudWatch console base URL
	Region         string // region used in the console deep link
	Assignee       string // mention shown in the Assignee field
}

// Composer builds one Slack attachment per log event.
type Composer struct {
	config ComposerConfig
	parser parser.Parser
	logger *zap.Logger
}

// NewComposer creates a composer. A nil parser renders placeholder fields.
func NewComposer(config ComposerConfig, p parser.Parser, logger *zap.Logger) *Composer {
	if p == nil {
		p = parser.PlaceholderParser{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{config: config, parser: p, logger: logger}
}

// BuildAttachment builds the attachment for one event of the bundle.
func (c *Composer) BuildAttachment(bundle *models.LogBundle, event models.LogEvent) slack.Attachment {
	fields, err := c.parser.Parse(event.Message)
	if err != nil {
		c.logger.Debug("using placeholder fields",
			zap.String("parser", c.parser.Name()),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}

	return slack.Attachment{
		Title:     bundle.AlarmName,
		TitleLink: BuildDeepLink(c.config.ConsoleBaseURL, c.config.Region, bundle.LogGroupName, bundle.LogStreamName),
		Color:     Severity(fields.Code),
		Text:      event.Message,
		Fallback:  event.Message,
		Fields: []slack.AttachmentField{
			{Title: "Timestamp", Value: fields.Timestamp, Short: true},
			{Title: "Error Code", Value: strconv.Itoa(fields.Code), Short: true},
			{Title: "API", Value: fields.API, Short: true},
			{Title: "Assignee", Value: c.config.Assignee, Short: true},
		},
	}
}

// SlackClient posts attachments with the Slack Web API.
type SlackClient struct {
	api *slack.Client
}

// NewSlackClient creates a client for token. apiURL overrides the Slack API
// endpoint when set and must end with a slash.
func NewSlackClient(token, apiURL string) *SlackClient {
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &SlackClient{api: slack.New(token, opts...)}
}

// PostAttachment posts a message carrying a single attachment and returns its timestamp.
func (s *SlackClient) PostAttachment(ctx context.Context, channel string, attachment slack.Attachment) (string, error) {
	if channel == "" {
		return "", errors.New("slack: channel is required")
	}

	_, ts, err := s.api.PostMessageContext(ctx, channel, slack.MsgOptionAttachments(attachment))
	if err != nil {
		return "", fmt.Errorf("slack: post message: %w", err)
	}
	return ts, nil
}
