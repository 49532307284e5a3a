// Package parser extracts the attachment fields (timestamp, error code, API) from log lines.
package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/good-yellow-bee/alarmlog/internal/models"
)

// Common errors returned by parsers.
var (
	ErrEmptyLine = errors.New("empty line")
	ErrNoMatch   = errors.New("log line does not match field format")
)

// Placeholder field values. They are shown when no value could be extracted
// and are the only values the placeholder parser ever returns.
const (
	PlaceholderTimestamp = "2019-07-25 15:34:00"
	PlaceholderCode      = 500
	PlaceholderAPI       = "API_NAME"
)

// Timestamp layout used when a parsed timestamp is normalized.
const displayTimeFormat = "2006-01-02 15:04:05"

// Modes accepted by New.
const (
	ModePlaceholder = "placeholder"
	ModePattern     = "pattern"
	ModeJSON        = "json"
)

// Parser extracts attachment fields from a raw log line.
type Parser interface {
	// Parse returns the fields found in line. On error the returned fields
	// are the placeholders so callers can always render a message.
	Parse(line string) (models.Fields, error)

	// Name returns the parser name (e.g., "placeholder", "pattern").
	Name() string
}

// Placeholders returns the placeholder field values.
func Placeholders() models.Fields {
	return models.Fields{
		Timestamp: PlaceholderTimestamp,
		Code:      PlaceholderCode,
		API:       PlaceholderAPI,
	}
}

// PlaceholderParser returns static field values regardless of the log content.
type PlaceholderParser struct{}

// Name returns "placeholder".
func (PlaceholderParser) Name() string { return ModePlaceholder }

// Parse returns the placeholder values.
func (PlaceholderParser) Parse(string) (models.Fields, error) {
	return Placeholders(), nil
}

// New returns the parser for mode. pattern may be a preset name (see Presets)
// or a regular expression with named groups timestamp, code and api.
func New(mode, pattern, timeFormat string) (Parser, error) {
	switch mode {
	case "", ModePlaceholder:
		return PlaceholderParser{}, nil
	case ModePattern:
		return NewPatternParser(pattern, timeFormat)
	case ModeJSON:
		return NewJSONParser(timeFormat), nil
	default:
		return nil, fmt.Errorf("unknown field mode %q", mode)
	}
}

// parseCode converts a status code string, keeping the placeholder on failure.
func parseCode(s string) (int, bool) {
	code, err := strconv.Atoi(s)
	if err != nil || code <= 0 {
		return PlaceholderCode, false
	}
	return code, true
}
