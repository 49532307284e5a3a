package relay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/slack-go/slack"
	"go.uber.org/zap/zaptest"

	"github.com/good-yellow-bee/alarmlog/internal/event"
	"github.com/good-yellow-bee/alarmlog/internal/metrics"
	"github.com/good-yellow-bee/alarmlog/internal/models"
	"github.com/good-yellow-bee/alarmlog/internal/notifier"
	"github.com/good-yellow-bee/alarmlog/internal/secrets"
)

const alarmJSON = `{
	"AlarmName": "api-5xx",
	"NewStateValue": "ALARM",
	"StateChangeTime": "2024-01-15T10:30:00.000+0000",
	"Trigger": {"MetricName": "ErrorCount", "Namespace": "MyApp"}
}`

var fullCreds = &models.ChatCredentials{Token: "xoxb-1", Channel: "C123", SigningSecret: "s"}

func bundleWith(messages ...string) *models.LogBundle {
	b := &models.LogBundle{
		AlarmName:     "api-5xx",
		FilterPattern: "ERROR",
		LogGroupName:  "/my/group",
		LogStreamName: "2024/01/01/[$LATEST]abc",
	}
	for _, m := range messages {
		b.Events = append(b.Events, models.LogEvent{Message: m, Timestamp: time.Unix(0, 0)})
	}
	return b
}

type harness struct {
	resolver *fakeResolver
	creds    *fakeCredentials
	slack    *fakeSlack
	metrics  *metrics.Metrics
	relay    *Relay
}

func newHarness(t *testing.T, opts Options) *harness {
	h := &harness{
		resolver: &fakeResolver{},
		creds:    &fakeCredentials{creds: fullCreds},
		slack:    &fakeSlack{},
		metrics:  metrics.New(),
	}
	logger := zaptest.NewLogger(t)
	composer := notifier.NewComposer(notifier.ComposerConfig{
		ConsoleBaseURL: "https://console.aws.amazon.com",
		Region:         "us-east-1",
		Assignee:       "<!channel>",
	}, nil, logger)
	h.relay = New(h.resolver, h.creds, h.slack.factory(), composer, h.metrics, opts, logger)
	return h
}

func TestHandleNoRecords(t *testing.T) {
	h := newHarness(t, Options{})

	resp, err := h.relay.Handle(context.Background(), events.SNSEvent{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.StatusCode != http.StatusOK || resp.Message != "No event records" {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(h.resolver.calls) != 0 || h.creds.calls != 0 || h.slack.count() != 0 {
		t.Error("expected no external calls for an empty envelope")
	}
	if got := testutil.ToFloat64(h.metrics.InvocationsTotal.WithLabelValues(metrics.OutcomeNoRecords)); got != 1 {
		t.Errorf("no_records invocations = %v, want 1", got)
	}
}

func TestHandleNoLogs(t *testing.T) {
	h := newHarness(t, Options{})

	resp, err := h.relay.Handle(context.Background(), event.Wrap(alarmJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.StatusCode != http.StatusOK || resp.Message != "No logs" {
		t.Errorf("unexpected response %+v", resp)
	}
	if h.slack.count() != 0 || h.creds.calls != 0 {
		t.Error("expected no delivery without logs")
	}
	if len(h.resolver.calls) != 1 {
		t.Fatalf("expected one resolve, got %d", len(h.resolver.calls))
	}
	alarm := h.resolver.calls[0]
	if alarm.MetricName != "ErrorCount" || alarm.Namespace != "MyApp" {
		t.Errorf("unexpected alarm passed to resolver %+v", alarm)
	}
}

func TestHandleEmptyBundle(t *testing.T) {
	h := newHarness(t, Options{})
	h.resolver.bundle = bundleWith()

	resp, _ := h.relay.Handle(context.Background(), event.Wrap(alarmJSON))
	if resp.Message != "No logs" {
		t.Errorf("Message = %q, want No logs", resp.Message)
	}
	if h.slack.count() != 0 {
		t.Error("expected no delivery for an empty bundle")
	}
}

func TestHandleMalformedPayloadFails(t *testing.T) {
	h := newHarness(t, Options{})

	_, err := h.relay.Handle(context.Background(), event.Wrap(`{"AlarmName": `))
	if !errors.Is(err, event.ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
	if len(h.resolver.calls) != 0 {
		t.Error("resolver must not run for a malformed payload")
	}
}

func TestRunDeliversOneMessagePerEvent(t *testing.T) {
	h := newHarness(t, Options{})
	h.resolver.bundle = bundleWith("ERROR one", "ERROR two", "ERROR three")

	resp, report, err := h.relay.Run(context.Background(), event.Wrap(alarmJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.StatusCode != http.StatusOK || resp.Message != "Done" {
		t.Errorf("unexpected response %+v", resp)
	}
	if report.Delivery != Attempted {
		t.Errorf("Delivery = %s, want attempted", report.Delivery)
	}
	if h.slack.count() != 3 {
		t.Fatalf("expected 3 posts, got %d", h.slack.count())
	}

	seen := map[string]bool{}
	for _, c := range h.slack.calls {
		if c.token != "xoxb-1" || c.channel != "C123" {
			t.Errorf("post used token %q channel %q", c.token, c.channel)
		}
		if c.attachment.Text != c.attachment.Fallback {
			t.Errorf("text %q and fallback %q differ", c.attachment.Text, c.attachment.Fallback)
		}
		seen[c.attachment.Text] = true
	}
	for _, m := range []string{"ERROR one", "ERROR two", "ERROR three"} {
		if !seen[m] {
			t.Errorf("no post carried %q", m)
		}
	}

	if report.Delivered() != 3 || report.Err() != nil {
		t.Errorf("Delivered() = %d, Err() = %v", report.Delivered(), report.Err())
	}
	if got := testutil.ToFloat64(h.metrics.DeliveriesTotal.WithLabelValues(metrics.ResultSuccess)); got != 3 {
		t.Errorf("successful deliveries = %v, want 3", got)
	}
	if got := testutil.ToFloat64(h.metrics.LogEventsTotal); got != 3 {
		t.Errorf("log events = %v, want 3", got)
	}
}

func TestRunDeliveryFailureIsSuppressed(t *testing.T) {
	h := newHarness(t, Options{})
	h.resolver.bundle = bundleWith("ERROR one", "ERROR two")
	boom := errors.New("channel_not_found")
	h.slack.fail = func(slack.Attachment) error { return boom }

	resp, report, err := h.relay.Run(context.Background(), event.Wrap(alarmJSON))
	if err != nil {
		t.Fatalf("delivery failure must not fail the invocation: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}

	failed := notifier.Failures(report.Results)
	if len(failed) != 2 {
		t.Fatalf("expected 2 suppressed failures, got %d", len(failed))
	}
	if !errors.Is(report.Err(), boom) {
		t.Errorf("Report.Err() = %v, want it to wrap %v", report.Err(), boom)
	}
}

func TestRunSurfaceFailures(t *testing.T) {
	h := newHarness(t, Options{SurfaceFailures: true})
	h.resolver.bundle = bundleWith("ERROR one")
	boom := errors.New("invalid_auth")
	h.slack.fail = func(slack.Attachment) error { return boom }

	_, err := h.relay.Handle(context.Background(), event.Wrap(alarmJSON))
	if !errors.Is(err, boom) {
		t.Errorf("expected surfaced delivery error, got %v", err)
	}
}

func TestRunCredentialsNotConfigured(t *testing.T) {
	tests := []struct {
		name  string
		creds *models.ChatCredentials
		err   error
	}{
		{name: "store reports not configured", err: secrets.ErrNotConfigured},
		{name: "incomplete credentials", creds: &models.ChatCredentials{Token: "xoxb"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{SurfaceFailures: true})
			h.resolver.bundle = bundleWith("ERROR one")
			h.creds.creds = tt.creds
			h.creds.err = tt.err

			resp, report, err := h.relay.Run(context.Background(), event.Wrap(alarmJSON))
			if err != nil {
				t.Fatalf("missing configuration is not a failure: %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("StatusCode = %d", resp.StatusCode)
			}
			if report.Delivery != NotConfigured {
				t.Errorf("Delivery = %s, want not_configured", report.Delivery)
			}
			if h.slack.count() != 0 {
				t.Error("expected no posts")
			}
			if got := testutil.ToFloat64(h.metrics.CredentialsMissingTotal); got != 1 {
				t.Errorf("credentials missing = %v, want 1", got)
			}
		})
	}
}

func TestRunCredentialsFetchError(t *testing.T) {
	h := newHarness(t, Options{})
	h.resolver.bundle = bundleWith("ERROR one")
	boom := errors.New("access denied")
	h.creds.creds = nil
	h.creds.err = boom

	resp, report, err := h.relay.Run(context.Background(), event.Wrap(alarmJSON))
	if err != nil {
		t.Fatalf("credential errors are suppressed: %v", err)
	}
	if resp.Message != "Done" {
		t.Errorf("Message = %q", resp.Message)
	}
	if report.Delivery != CredentialsFailed {
		t.Errorf("Delivery = %s, want credentials_failed", report.Delivery)
	}
	if !errors.Is(report.Err(), boom) {
		t.Errorf("Report.Err() = %v", report.Err())
	}
}

func TestRunResolveErrorAnswersNoLogs(t *testing.T) {
	h := newHarness(t, Options{})
	boom := errors.New("throttling")
	h.resolver.err = boom

	resp, report, err := h.relay.Run(context.Background(), event.Wrap(alarmJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != "No logs" {
		t.Errorf("Message = %q, want No logs", resp.Message)
	}
	if !errors.Is(report.ResolveErr, boom) {
		t.Errorf("ResolveErr = %v", report.ResolveErr)
	}
}

func TestRequestIDFromLambdaContext(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-123"})

	_, report, _ := h.relay.Run(ctx, events.SNSEvent{})
	if report.RequestID != "req-123" {
		t.Errorf("RequestID = %q, want req-123", report.RequestID)
	}

	_, report, _ = h.relay.Run(context.Background(), events.SNSEvent{})
	if report.RequestID == "" {
		t.Error("expected a generated request id")
	}
}

func TestDeliveryStatusString(t *testing.T) {
	tests := map[DeliveryStatus]string{
		NotAttempted:      "not_attempted",
		NotConfigured:     "not_configured",
		CredentialsFailed: "credentials_failed",
		Attempted:         "attempted",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("String() = %q, want %q", s.String(), want)
		}
	}
}

func TestRunPushesMetricsOnlyForAlarms(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := newHarness(t, Options{PushgatewayURL: srv.URL, PushJob: "alarmlog"})

	resp, _, err := h.relay.Run(context.Background(), events.SNSEvent{})
	if err != nil || resp.Message != "No event records" {
		t.Fatalf("unexpected result %+v, %v", resp, err)
	}
	if got := hits.Load(); got != 0 {
		t.Errorf("empty envelope pushed metrics %d times, want 0", got)
	}

	if _, _, err := h.relay.Run(context.Background(), event.Wrap(alarmJSON)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("alarm pushed metrics %d times, want 1", got)
	}
}
