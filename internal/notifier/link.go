package notifier

import (
	"net/url"
	"strings"
)

// BuildDeepLink returns the CloudWatch console URL of a log stream.
// The console decodes the group and stream names twice, so each is
// component-encoded twice.
func BuildDeepLink(consoleBaseURL, region, logGroupName, logStreamName string) string {
	base := strings.TrimRight(consoleBaseURL, "/")
	return base + "/cloudwatch/home?region=" + url.QueryEscape(region) +
		"#logsV2:log-groups/log-group/" + encodeTwice(logGroupName) +
		"/log-events/" + encodeTwice(logStreamName)
}

func encodeTwice(s string) string {
	return encodeComponent(encodeComponent(s))
}

// encodeComponent percent-encodes s as a URI component: every reserved
// character including '/', '$', '[' and ']' is escaped and spaces become %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
