package logsource

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
)

// fakeAPI is a scripted implementation of API that records its inputs.
type fakeAPI struct {
	mu sync.Mutex

	metricFilters *cloudwatchlogs.DescribeMetricFiltersOutput
	logStreams    *cloudwatchlogs.DescribeLogStreamsOutput
	filterEvents  *cloudwatchlogs.FilterLogEventsOutput

	metricFiltersErr error
	logStreamsErr    error
	filterEventsErr  error

	metricFiltersCalls []*cloudwatchlogs.DescribeMetricFiltersInput
	logStreamsCalls    []*cloudwatchlogs.DescribeLogStreamsInput
	filterEventsCalls  []*cloudwatchlogs.FilterLogEventsInput
}

func (f *fakeAPI) DescribeMetricFilters(_ context.Context, in *cloudwatchlogs.DescribeMetricFiltersInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeMetricFiltersOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metricFiltersCalls = append(f.metricFiltersCalls, in)
	if f.metricFiltersErr != nil {
		return nil, f.metricFiltersErr
	}
	if f.metricFilters == nil {
		return &cloudwatchlogs.DescribeMetricFiltersOutput{}, nil
	}
	return f.metricFilters, nil
}

func (f *fakeAPI) DescribeLogStreams(_ context.Context, in *cloudwatchlogs.DescribeLogStreamsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logStreamsCalls = append(f.logStreamsCalls, in)
	if f.logStreamsErr != nil {
		return nil, f.logStreamsErr
	}
	if f.logStreams == nil {
		return &cloudwatchlogs.DescribeLogStreamsOutput{}, nil
	}
	return f.logStreams, nil
}

func (f *fakeAPI) FilterLogEvents(_ context.Context, in *cloudwatchlogs.FilterLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filterEventsCalls = append(f.filterEventsCalls, in)
	if f.filterEventsErr != nil {
		return nil, f.filterEventsErr
	}
	if f.filterEvents == nil {
		return &cloudwatchlogs.FilterLogEventsOutput{}, nil
	}
	return f.filterEvents, nil
}
