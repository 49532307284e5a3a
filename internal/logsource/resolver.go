// Package logsource resolves the CloudWatch Logs events behind an alarm's metric.
package logsource

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"go.uber.org/zap"

	"github.com/good-yellow-bee/alarmlog/internal/models"
)

// API is the subset of the CloudWatch Logs client used by the resolver.
type API interface {
	DescribeMetricFilters(ctx context.Context, params *cloudwatchlogs.DescribeMetricFiltersInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeMetricFiltersOutput, error)
	DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	FilterLogEvents(ctx context.Context, params *cloudwatchlogs.FilterLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error)
}

// Source is the log group and filter pattern behind a metric filter.
type Source struct {
	FilterName    string
	LogGroupName  string
	FilterPattern string
}

// Options controls the query window anchored on the alarm state change.
type Options struct {
	Lookback  time.Duration
	Lookahead time.Duration
	Limit     int32
}

// DefaultOptions returns the fixed heuristic: five minutes before the state
// change, one minute after, at most ten events.
func DefaultOptions() Options {
	return Options{
		Lookback:  5 * time.Minute,
		Lookahead: time.Minute,
		Limit:     10,
	}
}

// Resolver maps alarms to their log events.
type Resolver struct {
	api    API
	opts   Options
	logger *zap.Logger
}

// NewResolver creates a resolver. Zero or negative option values fall back to
// DefaultOptions, so the window always extends past the state change.
func NewResolver(api API, opts Options, logger *zap.Logger) *Resolver {
	def := DefaultOptions()
	if opts.Lookback <= 0 {
		opts.Lookback = def.Lookback
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = def.Lookahead
	}
	if opts.Limit <= 0 {
		opts.Limit = def.Limit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{api: api, opts: opts, logger: logger}
}

// Options returns the effective query options.
func (r *Resolver) Options() Options {
	return r.opts
}

// ResolveLogSource returns the first metric filter registered for the metric.
// A nil source without error means no filter exists.
func (r *Resolver) ResolveLogSource(ctx context.Context, metricName, namespace string) (*Source, error) {
	out, err := r.api.DescribeMetricFilters(ctx, &cloudwatchlogs.DescribeMetricFiltersInput{
		MetricName:      aws.String(metricName),
		MetricNamespace: aws.String(namespace),
	})
	if err != nil {
		return nil, fmt.Errorf("describe metric filters for %s/%s: %w", namespace, metricName, err)
	}

	if len(out.MetricFilters) == 0 {
		return nil, nil
	}

	f := out.MetricFilters[0]
	src := &Source{
		FilterName:    aws.ToString(f.FilterName),
		LogGroupName:  aws.ToString(f.LogGroupName),
		FilterPattern: aws.ToString(f.FilterPattern),
	}
	if src.LogGroupName == "" || src.FilterPattern == "" {
		return nil, nil
	}
	return src, nil
}

// SelectLatestStream returns the stream with the most recent event in the group.
func (r *Resolver) SelectLatestStream(ctx context.Context, logGroupName string) (string, bool, error) {
	out, err := r.api.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName: aws.String(logGroupName),
		OrderBy:      types.OrderByLastEventTime,
		Descending:   aws.Bool(true),
		Limit:        aws.Int32(1),
	})
	if err != nil {
		return "", false, fmt.Errorf("describe log streams for %s: %w", logGroupName, err)
	}

	if len(out.LogStreams) == 0 {
		return "", false, nil
	}

	name := aws.ToString(out.LogStreams[0].LogStreamName)
	return name, name != "", nil
}

// QueryEvents returns the events matching the query, capped at q.Limit.
func (r *Resolver) QueryEvents(ctx context.Context, q models.LogQuery) ([]models.LogEvent, error) {
	in := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName:  aws.String(q.LogGroupName),
		FilterPattern: aws.String(q.FilterPattern),
		StartTime:     aws.Int64(q.From.UnixMilli()),
		EndTime:       aws.Int64(q.To.UnixMilli()),
		Limit:         aws.Int32(q.Limit),
	}
	if q.LogStreamName != "" {
		in.LogStreamNames = []string{q.LogStreamName}
	}

	out, err := r.api.FilterLogEvents(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("filter log events in %s: %w", q.LogGroupName, err)
	}

	events := make([]models.LogEvent, 0, len(out.Events))
	for _, e := range out.Events {
		if q.Limit > 0 && len(events) >= int(q.Limit) {
			break
		}
		events = append(events, convertEvent(e))
	}
	return events, nil
}

// Resolve runs the full lookup for an alarm. A nil bundle without error means
// there is nothing to report: no metric filter, no stream or no events.
func (r *Resolver) Resolve(ctx context.Context, alarm *models.AlarmNotification) (*models.LogBundle, error) {
	logger := r.logger.With(zap.String("alarm", alarm.Name))

	src, err := r.ResolveLogSource(ctx, alarm.MetricName, alarm.Namespace)
	if err != nil {
		return nil, err
	}
	if src == nil {
		logger.Info("no metric filter for alarm metric",
			zap.String("metric", alarm.MetricName),
			zap.String("namespace", alarm.Namespace))
		return nil, nil
	}

	stream, ok, err := r.SelectLatestStream(ctx, src.LogGroupName)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Info("log group has no streams", zap.String("log_group", src.LogGroupName))
		return nil, nil
	}

	q := models.NewLogQuery(src.LogGroupName, src.FilterPattern, stream,
		alarm.StateChangeTime, r.opts.Lookback, r.opts.Lookahead, r.opts.Limit)

	logger.Debug("querying log events",
		zap.String("log_group", q.LogGroupName),
		zap.String("log_stream", q.LogStreamName),
		zap.String("filter_pattern", q.FilterPattern),
		zap.Time("from", q.From),
		zap.Time("to", q.To),
		zap.Int32("limit", q.Limit))

	events, err := r.QueryEvents(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		logger.Info("no log events in alarm window", zap.String("log_group", q.LogGroupName))
		return nil, nil
	}

	return &models.LogBundle{
		AlarmName:     alarm.Name,
		FilterPattern: src.FilterPattern,
		LogGroupName:  src.LogGroupName,
		LogStreamName: stream,
		Events:        events,
	}, nil
}

func convertEvent(e types.FilteredLogEvent) models.LogEvent {
	ev := models.LogEvent{
		ID:            aws.ToString(e.EventId),
		LogStreamName: aws.ToString(e.LogStreamName),
		Message:       aws.ToString(e.Message),
	}
	if e.Timestamp != nil {
		ev.Timestamp = time.UnixMilli(*e.Timestamp).UTC()
	}
	if e.IngestionTime != nil {
		ev.IngestionTime = time.UnixMilli(*e.IngestionTime).UTC()
	}
	return ev
}
