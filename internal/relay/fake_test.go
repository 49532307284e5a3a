package relay

import (
	"context"
	"sync"

	"github.com/slack-go/slack"

	"github.com/good-yellow-bee/alarmlog/internal/models"
	"github.com/good-yellow-bee/alarmlog/internal/notifier"
)

type fakeResolver struct {
	bundle *models.LogBundle
	err    error
	calls  []*models.AlarmNotification
}

func (f *fakeResolver) Resolve(_ context.Context, alarm *models.AlarmNotification) (*models.LogBundle, error) {
	f.calls = append(f.calls, alarm)
	return f.bundle, f.err
}

type fakeCredentials struct {
	creds *models.ChatCredentials
	err   error
	calls int
}

func (f *fakeCredentials) Fetch(context.Context) (*models.ChatCredentials, error) {
	f.calls++
	return f.creds, f.err
}

type postCall struct {
	token      string
	channel    string
	attachment slack.Attachment
}

// fakeSlack records posts from every client it creates.
type fakeSlack struct {
	mu    sync.Mutex
	calls []postCall
	fail  func(slack.Attachment) error
}

func (f *fakeSlack) factory() notifier.ClientFactory {
	return func(token string) notifier.Client {
		return &fakeSlackClient{parent: f, token: token}
	}
}

func (f *fakeSlack) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSlackClient struct {
	parent *fakeSlack
	token  string
}

func (c *fakeSlackClient) PostAttachment(_ context.Context, channel string, a slack.Attachment) (string, error) {
	c.parent.mu.Lock()
	c.parent.calls = append(c.parent.calls, postCall{token: c.token, channel: channel, attachment: a})
	fail := c.parent.fail
	c.parent.mu.Unlock()
	if fail != nil {
		if err := fail(a); err != nil {
			return "", err
		}
	}
	return "1705314600.000100", nil
}
