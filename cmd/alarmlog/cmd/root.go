// Package cmd contains the CLI commands for alarmlog.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Used for flags
	verbose bool
	output  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "alarmlog",
	Short: "alarmlog - CloudWatch alarm to Slack log relay",
	Long: `alarmlog relays CloudWatch alarm notifications to Slack together with
the log events that triggered them.

The same relay runs as a Lambda function (alarmlog-lambda). This tool runs it
locally and exposes its building blocks for debugging.

Examples:
  # Replay an SNS event against real AWS and Slack
  alarmlog invoke --event alarm.json

  # Print the console link of a log stream
  alarmlog link --group /aws/lambda/api --stream '2024/01/15/[$LATEST]abc'

  # Check which fields a log line yields
  alarmlog parse --mode pattern --pattern access '127.0.0.1 - - [15/Jan/2024:10:30:00 +0000] "GET /api HTTP/1.1" 502 12'`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd.ErrOrStderr(), err.Error())
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "plain", "output format (plain, json)")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// GetOutput returns the output format.
func GetOutput() string {
	return output
}

// PrintError prints an error message to w.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintln(w, "Error:", msg)
}

// newLogger returns a development logger. Without --verbose only warnings and
// errors are shown.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return cfg.Build()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
