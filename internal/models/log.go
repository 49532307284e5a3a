package models

import "time"

// LogQuery describes the time-windowed log lookup for an alarm.
type LogQuery struct {
	LogGroupName  string
	LogStreamName string
	FilterPattern string
	From          time.Time
	To            time.Time
	Limit         int32
}

// NewLogQuery builds a query over [changeTime-lookback, changeTime+lookahead].
func NewLogQuery(group, pattern, stream string, changeTime time.Time, lookback, lookahead time.Duration, limit int32) LogQuery {
	return LogQuery{
		LogGroupName:  group,
		LogStreamName: stream,
		FilterPattern: pattern,
		From:          changeTime.Add(-lookback),
		To:            changeTime.Add(lookahead),
		Limit:         limit,
	}
}

// LogEvent is a single log line returned by the filter query.
type LogEvent struct {
	ID            string    `json:"id,omitempty"`
	LogStreamName string    `json:"log_stream_name,omitempty"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	IngestionTime time.Time `json:"ingestion_time"`
}

// LogBundle groups the events retrieved for an alarm together with their source.
// It is built once and not mutated afterwards.
type LogBundle struct {
	AlarmName     string     `json:"alarm_name"`
	FilterPattern string     `json:"filter_pattern"`
	LogGroupName  string     `json:"log_group_name"`
	LogStreamName string     `json:"log_stream_name"`
	Events        []LogEvent `json:"events"`
}

// Empty reports whether the bundle carries no events.
func (b *LogBundle) Empty() bool {
	return b == nil || len(b.Events) == 0
}

// Fields are the values shown in the attachment field table of a log event.
type Fields struct {
	Timestamp string `json:"timestamp"`
	Code      int    `json:"code"`
	API       string `json:"api"`
}
