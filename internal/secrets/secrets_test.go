package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

type fakeSSM struct {
	params map[string]string
	err    error
	calls  []*ssm.GetParametersInput
}

func (f *fakeSSM) GetParameters(_ context.Context, in *ssm.GetParametersInput, _ ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	out := &ssm.GetParametersOutput{}
	for _, name := range in.Names {
		v, ok := f.params[name]
		if !ok {
			out.InvalidParameters = append(out.InvalidParameters, name)
			continue
		}
		out.Parameters = append(out.Parameters, types.Parameter{Name: aws.String(name), Value: aws.String(v)})
	}
	return out, nil
}

var testPaths = Paths{
	Token:         "/relay/slack/token",
	Channel:       "/relay/slack/channel",
	SigningSecret: "/relay/slack/signing-secret",
}

func TestFetch(t *testing.T) {
	api := &fakeSSM{params: map[string]string{
		"/relay/slack/token":          "xoxb-1",
		"/relay/slack/channel":        "C123",
		"/relay/slack/signing-secret": "s3cr3t",
	}}

	creds, err := NewStore(api, testPaths).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	if creds.Token != "xoxb-1" || creds.Channel != "C123" || creds.SigningSecret != "s3cr3t" {
		t.Errorf("unexpected credentials %+v", creds)
	}
	if len(api.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(api.calls))
	}
	if !aws.ToBool(api.calls[0].WithDecryption) {
		t.Error("expected decryption to be requested")
	}
	if len(api.calls[0].Names) != 3 {
		t.Errorf("expected 3 names, got %v", api.calls[0].Names)
	}
}

func TestFetchReadsOnEveryCall(t *testing.T) {
	api := &fakeSSM{params: map[string]string{
		"/relay/slack/token":          "xoxb-1",
		"/relay/slack/channel":        "C123",
		"/relay/slack/signing-secret": "s3cr3t",
	}}
	store := NewStore(api, testPaths)

	if _, err := store.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	api.params["/relay/slack/token"] = "xoxb-2"

	creds, err := store.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.Token != "xoxb-2" {
		t.Errorf("expected rotated token, got %q", creds.Token)
	}
	if len(api.calls) != 2 {
		t.Errorf("expected a lookup per fetch, got %d", len(api.calls))
	}
}

func TestFetchNotConfigured(t *testing.T) {
	tests := []struct {
		name   string
		paths  Paths
		params map[string]string
	}{
		{
			name:  "path unset",
			paths: Paths{Token: "/t", Channel: "/c"},
		},
		{
			name:   "parameter missing",
			paths:  Paths{Token: "/t", Channel: "/c", SigningSecret: "/s"},
			params: map[string]string{"/t": "xoxb", "/c": "C1"},
		},
		{
			name:   "parameter empty",
			paths:  Paths{Token: "/t", Channel: "/c", SigningSecret: "/s"},
			params: map[string]string{"/t": "xoxb", "/c": "", "/s": "s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeSSM{params: tt.params}
			_, err := NewStore(api, tt.paths).Fetch(context.Background())
			if !errors.Is(err, ErrNotConfigured) {
				t.Errorf("expected ErrNotConfigured, got %v", err)
			}
		})
	}
}

func TestFetchPathUnsetMakesNoCall(t *testing.T) {
	api := &fakeSSM{}
	_, _ = NewStore(api, Paths{}).Fetch(context.Background())
	if len(api.calls) != 0 {
		t.Errorf("expected no SSM call, got %d", len(api.calls))
	}
}

func TestFetchAPIError(t *testing.T) {
	boom := errors.New("access denied")
	_, err := NewStore(&fakeSSM{err: boom}, testPaths).Fetch(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped API error, got %v", err)
	}
	if errors.Is(err, ErrNotConfigured) {
		t.Error("API errors are not a configuration problem")
	}
}
