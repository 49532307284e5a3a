// Package event decodes CloudWatch alarm notifications delivered through SNS.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/good-yellow-bee/alarmlog/internal/models"
)

// ErrMalformedPayload is returned when the embedded alarm payload cannot be decoded.
var ErrMalformedPayload = errors.New("malformed alarm payload")

// stateChangeTimeFormat is the layout CloudWatch uses for StateChangeTime.
const stateChangeTimeFormat = "2006-01-02T15:04:05.000-0700"

// alarmPayload mirrors the JSON document CloudWatch publishes to SNS.
type alarmPayload struct {
	AlarmName        string       `json:"AlarmName"`
	AlarmDescription *string      `json:"AlarmDescription"`
	NewStateValue    string       `json:"NewStateValue"`
	NewStateReason   string       `json:"NewStateReason"`
	StateChangeTime  string       `json:"StateChangeTime"`
	Trigger          alarmTrigger `json:"Trigger"`
}

type alarmTrigger struct {
	MetricName string `json:"MetricName"`
	Namespace  string `json:"Namespace"`
}

// Decode extracts the alarm from the first record of the envelope.
// It returns ok=false when the envelope has no records. Records after the
// first are ignored.
func Decode(e events.SNSEvent) (*models.AlarmNotification, bool, error) {
	if len(e.Records) == 0 {
		return nil, false, nil
	}

	alarm, err := DecodeMessage([]byte(e.Records[0].SNS.Message))
	if err != nil {
		return nil, true, err
	}
	return alarm, true, nil
}

// DecodeMessage decodes a raw alarm JSON payload.
func DecodeMessage(data []byte) (*models.AlarmNotification, error) {
	var p alarmPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	changed, err := ParseStateChangeTime(p.StateChangeTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	alarm := &models.AlarmNotification{
		Name:            p.AlarmName,
		StateChangeTime: changed,
		NewState:        p.NewStateValue,
		Reason:          p.NewStateReason,
		MetricName:      p.Trigger.MetricName,
		Namespace:       p.Trigger.Namespace,
	}
	if p.AlarmDescription != nil {
		alarm.Description = *p.AlarmDescription
	}
	return alarm, nil
}

// ParseStateChangeTime parses a StateChangeTime value. Both the CloudWatch
// layout (2024-01-15T10:30:00.000+0000) and RFC 3339 are accepted.
func ParseStateChangeTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("StateChangeTime is empty")
	}
	if t, err := time.Parse(stateChangeTimeFormat, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse StateChangeTime %q: %w", s, err)
	}
	return t, nil
}

// Wrap builds a single-record SNS envelope around a raw alarm payload.
// The CLI uses it to invoke the relay with a bare alarm document.
func Wrap(message string) events.SNSEvent {
	return events.SNSEvent{
		Records: []events.SNSEventRecord{{
			EventSource: "aws:sns",
			SNS: events.SNSEntity{
				Type:    "Notification",
				Message: message,
			},
		}},
	}
}
