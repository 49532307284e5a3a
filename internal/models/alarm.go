// Package models contains the transient data structures of a single alarm relay invocation.
package models

import "time"

// AlarmNotification is the alarm payload embedded in an SNS notification record.
type AlarmNotification struct {
	// Name is the CloudWatch alarm name.
	Name string `json:"alarm_name"`

	// Description is the optional alarm description.
	Description string `json:"description,omitempty"`

	// StateChangeTime is when the alarm changed state.
	StateChangeTime time.Time `json:"state_change_time"`

	// NewState is the state the alarm moved into (ALARM, OK, INSUFFICIENT_DATA).
	NewState string `json:"new_state,omitempty"`

	// Reason is the human readable reason for the state change.
	Reason string `json:"reason,omitempty"`

	// MetricName and Namespace identify the metric that triggered the alarm.
	MetricName string `json:"metric_name"`
	Namespace  string `json:"namespace"`
}

// ChatCredentials are the Slack credentials resolved for one invocation.
// They are never cached across invocations.
type ChatCredentials struct {
	Token         string
	Channel       string
	SigningSecret string
}

// Complete reports whether all three credentials are present.
func (c *ChatCredentials) Complete() bool {
	return c != nil && c.Token != "" && c.Channel != "" && c.SigningSecret != ""
}
