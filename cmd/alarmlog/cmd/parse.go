package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/alarmlog/internal/models"
	"github.com/good-yellow-bee/alarmlog/internal/parser"
)

var (
	parseMode       string
	parsePattern    string
	parseTimeFormat string
)

var parseCmd = &cobra.Command{
	Use:   "parse [line...]",
	Short: "Extract message fields from log lines",
	Long: `Extract the timestamp, error code and API fields shown in Slack messages.

Modes:
  placeholder  - fixed placeholder values
  pattern      - regular expression with named groups, or a preset (access, lambda)
  json         - JSON log lines

Examples:
  alarmlog parse --mode json '{"time":"2024-01-15T10:30:00Z","status":503,"path":"/orders"}'
  alarmlog parse --mode pattern --pattern lambda -o json "$(tail -n1 app.log)"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseMode, "mode", parser.ModePlaceholder, "field mode (placeholder, pattern, json)")
	parseCmd.Flags().StringVar(&parsePattern, "pattern", "", "regular expression or preset name for pattern mode")
	parseCmd.Flags().StringVar(&parseTimeFormat, "time-format", "", "Go time layout of the timestamp group")
}

type parsedLine struct {
	Line   string        `json:"line"`
	Fields models.Fields `json:"fields"`
	Error  string        `json:"error,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	p, err := parser.New(parseMode, parsePattern, parseTimeFormat)
	if err != nil {
		return err
	}

	results := make([]parsedLine, 0, len(args))
	for _, line := range args {
		res := parsedLine{Line: line}
		fields, err := p.Parse(line)
		if err != nil {
			res.Error = err.Error()
		}
		res.Fields = fields
		results = append(results, res)
	}

	if GetOutput() == "json" {
		return writeJSON(cmd.OutOrStdout(), results)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tCODE\tAPI\tERROR")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", r.Fields.Timestamp, r.Fields.Code, r.Fields.API, r.Error)
	}
	return w.Flush()
}
