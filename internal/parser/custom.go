package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/good-yellow-bee/alarmlog/internal/models"
)

// Named capture groups understood by PatternParser.
const (
	GroupTimestamp = "timestamp"
	GroupCode      = "code"
	GroupAPI       = "api"
)

// Preset is a named field pattern for a common log format.
type Preset struct {
	Pattern    string
	TimeFormat string
}

// Presets are built-in patterns usable by name in place of a regular expression.
var Presets = map[string]Preset{
	// Nginx/Apache combined and common access log formats.
	"access": {
		Pattern:    `^\S+ \S+ \S+ \[(?P<timestamp>[^\]]+)\] "\S+ (?P<api>\S+) \S+" (?P<code>\d{3}) `,
		TimeFormat: "02/Jan/2006:15:04:05 -0700",
	},
	// Lambda runtime lines such as "2024-01-15T10:30:00.123Z <request-id> ERROR GET /orders 502 ...".
	"lambda": {
		Pattern:    `^(?P<timestamp>\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?Z)\s+\S+\s+\S+\s+\S+\s+(?P<api>/\S*)\s+(?P<code>\d{3})\b`,
		TimeFormat: time.RFC3339Nano,
	},
}

// PatternParser extracts fields with a regular expression using named groups.
type PatternParser struct {
	regex      *regexp.Regexp
	groupNames map[string]int
	timeFormat string
}

// NewPatternParser compiles pattern, or resolves it as a preset name.
// The pattern must contain at least one of the timestamp, code or api groups.
func NewPatternParser(pattern, timeFormat string) (*PatternParser, error) {
	if pattern == "" {
		return nil, fmt.Errorf("pattern is required")
	}

	if preset, ok := Presets[pattern]; ok {
		pattern = preset.Pattern
		if timeFormat == "" {
			timeFormat = preset.TimeFormat
		}
	}

	regex, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid field pattern: %w", err)
	}

	p := &PatternParser{
		regex:      regex,
		groupNames: make(map[string]int),
		timeFormat: timeFormat,
	}

	// Build group name index
	for i, name := range regex.SubexpNames() {
		switch name {
		case GroupTimestamp, GroupCode, GroupAPI:
			p.groupNames[name] = i
		}
	}
	if len(p.groupNames) == 0 {
		return nil, fmt.Errorf("field pattern must define a %q, %q or %q group", GroupTimestamp, GroupCode, GroupAPI)
	}

	return p, nil
}

// Name returns "pattern".
func (p *PatternParser) Name() string { return ModePattern }

// Parse extracts the named groups from line. Groups that are absent or empty
// keep their placeholder value.
func (p *PatternParser) Parse(line string) (models.Fields, error) {
	fields := Placeholders()
	if strings.TrimSpace(line) == "" {
		return fields, ErrEmptyLine
	}

	matches := p.regex.FindStringSubmatch(line)
	if matches == nil {
		return fields, ErrNoMatch
	}

	group := func(name string) string {
		if idx, ok := p.groupNames[name]; ok && idx < len(matches) {
			return matches[idx]
		}
		return ""
	}

	if ts := group(GroupTimestamp); ts != "" {
		fields.Timestamp = normalizeTimestamp(ts, p.timeFormat)
	}
	if code := group(GroupCode); code != "" {
		fields.Code, _ = parseCode(code)
	}
	if api := group(GroupAPI); api != "" {
		fields.API = api
	}

	return fields, nil
}

// JSON keys probed by JSONParser, in priority order.
var (
	jsonTimestampKeys = []string{"timestamp", "time", "@timestamp", "ts"}
	jsonCodeKeys      = []string{"status", "statusCode", "status_code", "code"}
	jsonAPIKeys       = []string{"api", "path", "route", "uri"}
)

// JSONParser extracts fields from structured JSON log lines.
type JSONParser struct {
	timeFormat string
}

// NewJSONParser creates a JSON field parser. timeFormat, when set, is used to
// normalize string timestamps.
func NewJSONParser(timeFormat string) *JSONParser {
	return &JSONParser{timeFormat: timeFormat}
}

// Name returns "json".
func (p *JSONParser) Name() string { return ModeJSON }

// Parse decodes line as a JSON object. Text before the first '{' is skipped so
// lines prefixed by the Lambda runtime still parse.
func (p *JSONParser) Parse(line string) (models.Fields, error) {
	fields := Placeholders()
	if strings.TrimSpace(line) == "" {
		return fields, ErrEmptyLine
	}

	start := strings.IndexByte(line, '{')
	if start < 0 {
		return fields, ErrNoMatch
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(line[start:]), &data); err != nil {
		return fields, fmt.Errorf("%w: %v", ErrNoMatch, err)
	}

	if v, ok := lookup(data, jsonTimestampKeys); ok {
		switch ts := v.(type) {
		case string:
			fields.Timestamp = normalizeTimestamp(ts, p.timeFormat)
		case float64:
			// Epoch milliseconds.
			fields.Timestamp = time.UnixMilli(int64(ts)).UTC().Format(displayTimeFormat)
		}
	}

	if v, ok := lookup(data, jsonCodeKeys); ok {
		switch c := v.(type) {
		case float64:
			if c > 0 {
				fields.Code = int(c)
			}
		case string:
			fields.Code, _ = parseCode(c)
		}
	}

	if v, ok := lookup(data, jsonAPIKeys); ok {
		switch a := v.(type) {
		case string:
			if a != "" {
				fields.API = a
			}
		case float64:
			fields.API = strconv.FormatFloat(a, 'f', -1, 64)
		}
	}

	return fields, nil
}

func lookup(data map[string]interface{}, keys []string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := data[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// normalizeTimestamp reformats ts when it parses with layout, otherwise
// returns it unchanged.
func normalizeTimestamp(ts, layout string) string {
	if layout == "" {
		layout = time.RFC3339Nano
	}
	t, err := time.Parse(layout, ts)
	if err != nil {
		return ts
	}
	return t.UTC().Format(displayTimeFormat)
}
