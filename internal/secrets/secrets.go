// Package secrets fetches Slack credentials from SSM Parameter Store.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/good-yellow-bee/alarmlog/internal/models"
)

// ErrNotConfigured means a credential path is unset or a value is missing or
// empty. Callers skip delivery instead of failing.
var ErrNotConfigured = errors.New("slack credentials not configured")

// API is the subset of the SSM client used by Store.
type API interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// Paths are the parameter names holding each credential.
type Paths struct {
	Token         string
	Channel       string
	SigningSecret string
}

// Store reads credentials fresh on every Fetch; nothing is cached.
type Store struct {
	api   API
	paths Paths
}

// NewStore creates a credential store.
func NewStore(api API, paths Paths) *Store {
	return &Store{api: api, paths: paths}
}

// Fetch reads and decrypts the three credentials in a single call.
func (s *Store) Fetch(ctx context.Context) (*models.ChatCredentials, error) {
	var missing []string
	if s.paths.Token == "" {
		missing = append(missing, "SLACK_TOKEN")
	}
	if s.paths.Channel == "" {
		missing = append(missing, "SLACK_CHANNEL")
	}
	if s.paths.SigningSecret == "" {
		missing = append(missing, "SLACK_SIGNING_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s not set", ErrNotConfigured, strings.Join(missing, ", "))
	}

	names := uniq(s.paths.Token, s.paths.Channel, s.paths.SigningSecret)
	out, err := s.api.GetParameters(ctx, &ssm.GetParametersInput{
		Names:          names,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get parameters: %w", err)
	}

	values := make(map[string]string, len(out.Parameters))
	for _, p := range out.Parameters {
		values[aws.ToString(p.Name)] = aws.ToString(p.Value)
	}

	creds := &models.ChatCredentials{
		Token:         values[s.paths.Token],
		Channel:       values[s.paths.Channel],
		SigningSecret: values[s.paths.SigningSecret],
	}
	if !creds.Complete() {
		return nil, fmt.Errorf("%w: parameters missing or empty (invalid: %s)",
			ErrNotConfigured, strings.Join(out.InvalidParameters, ", "))
	}
	return creds, nil
}

func uniq(names ...string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
