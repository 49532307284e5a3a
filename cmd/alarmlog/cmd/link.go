package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/alarmlog/internal/config"
	"github.com/good-yellow-bee/alarmlog/internal/notifier"
)

var (
	linkGroup   string
	linkStream  string
	linkRegion  string
	linkConsole string
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Print the CloudWatch console link of a log stream",
	Long: `Print the deep link used as the Slack attachment title.

The region defaults to AWS_REGION.`,
	Args: cobra.NoArgs,
	RunE: runLink,
}

func init() {
	rootCmd.AddCommand(linkCmd)

	linkCmd.Flags().StringVar(&linkGroup, "group", "", "log group name")
	linkCmd.Flags().StringVar(&linkStream, "stream", "", "log stream name")
	linkCmd.Flags().StringVar(&linkRegion, "region", "", "AWS region (default $AWS_REGION)")
	linkCmd.Flags().StringVar(&linkConsole, "console", config.DefaultConsoleBaseURL, "console base URL")
	linkCmd.MarkFlagRequired("group")
	linkCmd.MarkFlagRequired("stream")
}

func runLink(cmd *cobra.Command, args []string) error {
	region := linkRegion
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		return errors.New("region is required: pass --region or set AWS_REGION")
	}

	fmt.Fprintln(cmd.OutOrStdout(), notifier.BuildDeepLink(linkConsole, region, linkGroup, linkStream))
	return nil
}
