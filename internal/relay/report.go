package relay

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/good-yellow-bee/alarmlog/internal/models"
	"github.com/good-yellow-bee/alarmlog/internal/notifier"
)

// Response is the success-shaped value returned to the Lambda runtime.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Response messages.
const (
	MessageNoRecords = "No event records"
	MessageNoLogs    = "No logs"
	MessageDone      = "Done"
)

// DeliveryStatus describes what happened to the delivery step.
type DeliveryStatus int

const (
	// NotAttempted means the invocation ended before delivery (no records or no logs).
	NotAttempted DeliveryStatus = iota
	// NotConfigured means credentials were incomplete and delivery was skipped.
	NotConfigured
	// CredentialsFailed means fetching credentials failed; the cause is suppressed.
	CredentialsFailed
	// Attempted means one post per event was issued; see Report.Results.
	Attempted
)

// String returns the status name.
func (s DeliveryStatus) String() string {
	switch s {
	case NotAttempted:
		return "not_attempted"
	case NotConfigured:
		return "not_configured"
	case CredentialsFailed:
		return "credentials_failed"
	case Attempted:
		return "attempted"
	default:
		return fmt.Sprintf("delivery_status(%d)", int(s))
	}
}

// Report is the full account of one invocation, including every failure that
// was suppressed from the Response.
type Report struct {
	RequestID string
	Alarm     *models.AlarmNotification
	Bundle    *models.LogBundle

	// ResolveErr is a CloudWatch Logs API failure; the invocation answered "No logs".
	ResolveErr error

	Delivery       DeliveryStatus
	CredentialsErr error
	Results        []notifier.Result
}

// Delivered returns the number of messages accepted by Slack.
func (r *Report) Delivered() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == notifier.Delivered {
			n++
		}
	}
	return n
}

// Err aggregates the suppressed failures of the invocation, or returns nil.
// A missing configuration is not a failure.
func (r *Report) Err() error {
	var result *multierror.Error
	if r.ResolveErr != nil {
		result = multierror.Append(result, r.ResolveErr)
	}
	if r.Delivery == CredentialsFailed && r.CredentialsErr != nil {
		result = multierror.Append(result, r.CredentialsErr)
	}
	for _, res := range notifier.Failures(r.Results) {
		result = multierror.Append(result, fmt.Errorf("event %d (%s): %w", res.Index, res.EventID, res.Err))
	}
	return result.ErrorOrNil()
}
