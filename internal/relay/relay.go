// Package relay runs one alarm invocation: decode, resolve logs, deliver to Slack.
package relay

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/good-yellow-bee/alarmlog/internal/event"
	"github.com/good-yellow-bee/alarmlog/internal/metrics"
	"github.com/good-yellow-bee/alarmlog/internal/models"
	"github.com/good-yellow-bee/alarmlog/internal/notifier"
	"github.com/good-yellow-bee/alarmlog/internal/secrets"
)

// LogResolver finds the log events behind an alarm. A nil bundle means there
// is nothing to report.
type LogResolver interface {
	Resolve(ctx context.Context, alarm *models.AlarmNotification) (*models.LogBundle, error)
}

// CredentialSource fetches Slack credentials for an invocation.
type CredentialSource interface {
	Fetch(ctx context.Context) (*models.ChatCredentials, error)
}

// Options controls failure surfacing and metric export.
type Options struct {
	// SurfaceFailures returns suppressed failures as the invocation error.
	SurfaceFailures bool

	PushgatewayURL string
	PushJob        string
}

// Relay wires the invocation steps together. It holds no per-invocation state
// and is safe for concurrent use.
type Relay struct {
	resolver    LogResolver
	credentials CredentialSource
	newClient   notifier.ClientFactory
	composer    *notifier.Composer
	metrics     *metrics.Metrics
	opts        Options
	logger      *zap.Logger
}

// New creates a relay. A nil metrics value gets a private registry.
func New(
	resolver LogResolver,
	credentials CredentialSource,
	newClient notifier.ClientFactory,
	composer *notifier.Composer,
	m *metrics.Metrics,
	opts Options,
	logger *zap.Logger,
) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Relay{
		resolver:    resolver,
		credentials: credentials,
		newClient:   newClient,
		composer:    composer,
		metrics:     m,
		opts:        opts,
		logger:      logger,
	}
}

// Handle is the Lambda handler. It returns an error only for a malformed
// payload, or for suppressed failures when SurfaceFailures is set.
func (r *Relay) Handle(ctx context.Context, e events.SNSEvent) (Response, error) {
	resp, _, err := r.Run(ctx, e)
	return resp, err
}

// Run processes one notification envelope and returns the response together
// with the report of everything that happened.
func (r *Relay) Run(ctx context.Context, e events.SNSEvent) (Response, *Report, error) {
	report := &Report{RequestID: requestID(ctx)}
	logger := r.logger.With(zap.String("request_id", report.RequestID))

	alarm, ok, err := event.Decode(e)
	if !ok {
		// An empty envelope is counted but never pushed.
		logger.Info("no event records")
		r.metrics.RecordInvocation(metrics.OutcomeNoRecords)
		return ok200(MessageNoRecords), report, nil
	}
	defer r.pushMetrics(ctx, logger)
	if err != nil {
		logger.Error("failed to decode alarm notification", zap.Error(err))
		r.metrics.RecordInvocation(metrics.OutcomeFailed)
		return Response{}, report, err
	}
	if len(e.Records) > 1 {
		logger.Debug("ignoring additional records", zap.Int("records", len(e.Records)))
	}

	report.Alarm = alarm
	logger = logger.With(zap.String("alarm", alarm.Name))
	logger.Info("alarm received",
		zap.String("state", alarm.NewState),
		zap.Time("state_change_time", alarm.StateChangeTime),
		zap.String("metric", alarm.MetricName),
		zap.String("namespace", alarm.Namespace))

	bundle, err := r.resolver.Resolve(ctx, alarm)
	if err != nil {
		logger.Error("failed to resolve alarm logs", zap.Error(err))
		report.ResolveErr = err
		return r.finish(ok200(MessageNoLogs), report, metrics.OutcomeNoLogs)
	}
	if bundle.Empty() {
		return r.finish(ok200(MessageNoLogs), report, metrics.OutcomeNoLogs)
	}

	report.Bundle = bundle
	r.metrics.LogEventsTotal.Add(float64(len(bundle.Events)))
	logger.Info("log events found",
		zap.String("log_group", bundle.LogGroupName),
		zap.String("log_stream", bundle.LogStreamName),
		zap.Int("events", len(bundle.Events)))

	r.deliver(ctx, bundle, report, logger)

	return r.finish(ok200(MessageDone), report, metrics.OutcomeDone)
}

func (r *Relay) deliver(ctx context.Context, bundle *models.LogBundle, report *Report, logger *zap.Logger) {
	creds, err := r.credentials.Fetch(ctx)
	if err != nil {
		if errors.Is(err, secrets.ErrNotConfigured) {
			logger.Warn("slack credentials not configured, skipping delivery", zap.Error(err))
			report.Delivery = NotConfigured
			r.metrics.CredentialsMissingTotal.Inc()
			return
		}
		logger.Error("failed to fetch slack credentials", zap.Error(err))
		report.Delivery = CredentialsFailed
		report.CredentialsErr = err
		return
	}
	if !creds.Complete() {
		logger.Warn("slack credentials incomplete, skipping delivery")
		report.Delivery = NotConfigured
		r.metrics.CredentialsMissingTotal.Inc()
		return
	}

	d := notifier.NewDeliverer(r.newClient(creds.Token), r.composer, logger)
	report.Delivery = Attempted
	report.Results = d.Deliver(ctx, creds.Channel, bundle)

	for _, res := range report.Results {
		r.metrics.RecordDelivery(res.Outcome == notifier.Delivered)
	}
	logger.Info("slack delivery finished",
		zap.Int("delivered", report.Delivered()),
		zap.Int("failed", len(notifier.Failures(report.Results))))
}

func (r *Relay) finish(resp Response, report *Report, outcome string) (Response, *Report, error) {
	r.metrics.RecordInvocation(outcome)
	if r.opts.SurfaceFailures {
		if err := report.Err(); err != nil {
			return resp, report, err
		}
	}
	return resp, report, nil
}

func (r *Relay) pushMetrics(ctx context.Context, logger *zap.Logger) {
	if r.opts.PushgatewayURL == "" {
		return
	}
	if err := r.metrics.Push(ctx, r.opts.PushgatewayURL, r.opts.PushJob); err != nil {
		logger.Warn("failed to push metrics", zap.Error(err))
	}
}

func ok200(message string) Response {
	return Response{StatusCode: http.StatusOK, Message: message}
}

func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}
