// Package notifier composes Slack attachments for alarm log events and delivers them.
package notifier

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/alarmlog/internal/models"
)

// Client is the interface for posting attachments to a chat channel.
type Client interface {
	// PostAttachment sends a single attachment and returns the message timestamp.
	PostAttachment(ctx context.Context, channel string, attachment slack.Attachment) (string, error)
}

// ClientFactory builds a client for a token fetched at invocation time.
type ClientFactory func(token string) Client

// Outcome is the result of delivering one message.
type Outcome int

const (
	// Delivered means the chat service accepted the message.
	Delivered Outcome = iota
	// Failed means the post failed; the error is kept, not raised.
	Failed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result records the delivery of one log event.
type Result struct {
	Index     int    // position of the event in the bundle
	EventID   string // CloudWatch event id
	Outcome   Outcome
	MessageTS string // Slack message timestamp when delivered
	Err       error  // cause when failed
}

// Deliverer posts one message per log event.
type Deliverer struct {
	client   Client
	composer *Composer
	logger   *zap.Logger
}

// NewDeliverer creates a deliverer.
func NewDeliverer(client Client, composer *Composer, logger *zap.Logger) *Deliverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deliverer{client: client, composer: composer, logger: logger}
}

// Deliver sends every event of bundle to channel concurrently and waits for
// all sends. Failures never cancel the other sends and are not retried; each
// is reported in its Result. Results are in event order, though the messages
// may appear in the channel in any order.
func (d *Deliverer) Deliver(ctx context.Context, channel string, bundle *models.LogBundle) []Result {
	if bundle.Empty() {
		return nil
	}

	results := make([]Result, len(bundle.Events))

	var g errgroup.Group
	for i, event := range bundle.Events {
		i, event := i, event
		g.Go(func() error {
			attachment := d.composer.BuildAttachment(bundle, event)
			ts, err := d.client.PostAttachment(ctx, channel, attachment)

			r := Result{Index: i, EventID: event.ID, Outcome: Delivered, MessageTS: ts}
			if err != nil {
				r.Outcome = Failed
				r.Err = err
				d.logger.Error("slack delivery failed",
					zap.Int("index", i),
					zap.String("event_id", event.ID),
					zap.Error(err))
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Failures returns the failed results.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Outcome == Failed {
			failed = append(failed, r)
		}
	}
	return failed
}
