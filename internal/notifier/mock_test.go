package notifier

import (
	"context"
	"sync"

	"github.com/slack-go/slack"
)

// MockClient is a mock implementation of Client for testing.
type MockClient struct {
	PostFunc func(channel string, attachment slack.Attachment) (string, error)
	Calls    []MockCall
	mu       sync.Mutex
}

// MockCall represents a single call to PostAttachment.
type MockCall struct {
	Channel    string
	Attachment slack.Attachment
}

// PostAttachment implements the Client interface.
func (m *MockClient) PostAttachment(_ context.Context, channel string, attachment slack.Attachment) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Channel: channel, Attachment: attachment})
	m.mu.Unlock()
	if m.PostFunc != nil {
		return m.PostFunc(channel, attachment)
	}
	return "1705314600.000100", nil
}

// CallCount returns the number of times PostAttachment was called.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Bodies returns the attachment texts of all calls.
func (m *MockClient) Bodies() map[string]MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]MockCall, len(m.Calls))
	for _, c := range m.Calls {
		out[c.Attachment.Text] = c
	}
	return out
}
