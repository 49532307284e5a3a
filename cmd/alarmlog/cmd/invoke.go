package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/alarmlog/internal/config"
	"github.com/good-yellow-bee/alarmlog/internal/event"
	"github.com/good-yellow-bee/alarmlog/internal/notifier"
	"github.com/good-yellow-bee/alarmlog/internal/relay"
)

var (
	invokeEvent           string
	invokeSurfaceFailures bool
)

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Run the relay locally for one event",
	Long: `Run the relay for one event against real AWS and Slack.

The event file holds either an SNS event or a bare CloudWatch alarm payload,
which is wrapped into a single record. Configuration is read from the same
environment variables as the Lambda function.`,
	Args: cobra.NoArgs,
	RunE: runInvoke,
}

func init() {
	rootCmd.AddCommand(invokeCmd)

	invokeCmd.Flags().StringVarP(&invokeEvent, "event", "e", "", "event file (SNS event or alarm payload)")
	invokeCmd.Flags().BoolVar(&invokeSurfaceFailures, "surface-failures", false, "fail when any delivery fails")
	invokeCmd.MarkFlagRequired("event")
}

func runInvoke(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(invokeEvent)
	if err != nil {
		return fmt.Errorf("read event file: %w", err)
	}
	e, err := loadEvent(data)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if invokeSurfaceFailures {
		cfg.SurfaceFailures = true
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	r, err := relay.FromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}

	resp, report, runErr := r.Run(ctx, e)

	if GetOutput() == "json" {
		if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", resp.StatusCode, resp.Message)
		printReport(cmd, report)
	}
	return runErr
}

// loadEvent decodes an SNS event, or wraps a bare alarm payload into one.
func loadEvent(data []byte) (events.SNSEvent, error) {
	var probe struct {
		Records json.RawMessage `json:"Records"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return events.SNSEvent{}, fmt.Errorf("parse event file: %w", err)
	}
	if probe.Records == nil {
		return event.Wrap(string(data)), nil
	}

	var e events.SNSEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return events.SNSEvent{}, fmt.Errorf("parse sns event: %w", err)
	}
	return e, nil
}

func printReport(cmd *cobra.Command, report *relay.Report) {
	if report == nil || !IsVerbose() {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "request:  %s\n", report.RequestID)
	if report.Alarm != nil {
		fmt.Fprintf(out, "alarm:    %s (%s)\n", report.Alarm.Name, report.Alarm.NewState)
	}
	if report.Bundle != nil {
		fmt.Fprintf(out, "stream:   %s %s\n", report.Bundle.LogGroupName, report.Bundle.LogStreamName)
		fmt.Fprintf(out, "events:   %d\n", len(report.Bundle.Events))
	}
	fmt.Fprintf(out, "delivery: %s (%d delivered)\n", report.Delivery, report.Delivered())
	for _, res := range notifier.Failures(report.Results) {
		fmt.Fprintf(out, "  event %d failed: %v\n", res.Index, res.Err)
	}
	if err := report.Err(); err != nil {
		fmt.Fprintf(out, "suppressed: %v\n", err)
	}
}
