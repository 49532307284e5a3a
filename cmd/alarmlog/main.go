// Package main is the entry point for the alarmlog CLI tool.
package main

import (
	"os"

	"github.com/good-yellow-bee/alarmlog/cmd/alarmlog/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
