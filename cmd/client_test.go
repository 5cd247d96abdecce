package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takutakahashi/seo-agent-proxy/pkg/agent"
	"github.com/takutakahashi/seo-agent-proxy/pkg/client"
	"github.com/takutakahashi/seo-agent-proxy/pkg/form"
	"github.com/takutakahashi/seo-agent-proxy/pkg/prompt"
)

// confirmDriver answers only the review confirmation
type confirmDriver struct {
	answer bool
	asked  int
}

func (d *confirmDriver) Input(context.Context, prompt.InputConfig) (string, error) {
	return "", errors.New("unexpected input prompt")
}

func (d *confirmDriver) Password(context.Context, prompt.InputConfig) (string, error) {
	return "", errors.New("unexpected password prompt")
}

func (d *confirmDriver) Confirm(context.Context, prompt.ConfirmConfig) (bool, error) {
	d.asked++
	return d.answer, nil
}

type fakeGateway struct {
	configureCalls atomic.Int32
	reviewCalls    atomic.Int32
}

func (g *fakeGateway) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(client.ConfigurePath, func(w http.ResponseWriter, r *http.Request) {
		g.configureCalls.Add(1)
		_, _ = w.Write([]byte(`{"ok":true,"data":{"id":"x"}}`))
	})
	mux.HandleFunc(client.ReviewPath, func(w http.ResponseWriter, r *http.Request) {
		g.reviewCalls.Add(1)
		_, _ = w.Write([]byte(`{"ok":true,"data":{"instruction":"Add a sitemap"}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newFilledController(t *testing.T, gatewayURL string) *form.Controller {
	t.Helper()
	ctrl := form.NewController(client.NewClient(gatewayURL))
	require.NoError(t, ctrl.Update(func(cfg *agent.AgentConfig) {
		cfg.Token = "ghp_token"
		cfg.RepoOwner = "octocat"
		cfg.RepoName = "site"
		cfg.WebsiteURL = "https://example.com"
		cfg.AgentName = "seo-bot"
	}))
	return ctrl
}

func TestSubmitAndReview(t *testing.T) {
	tests := []struct {
		name        string
		review      bool
		driver      *confirmDriver
		wantReviews int32
		wantAsked   int
	}{
		{"non-interactive without --review", false, nil, 0, 0},
		{"--review skips the prompt", true, &confirmDriver{answer: false}, 1, 0},
		{"interactive confirm yes", false, &confirmDriver{answer: true}, 1, 1},
		{"interactive confirm no", false, &confirmDriver{answer: false}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			server := gw.start(t)

			reviewAfter = tt.review
			defer func() { reviewAfter = false }()

			var driver prompt.Driver
			if tt.driver != nil {
				driver = tt.driver
			}

			var out bytes.Buffer
			ctrl := newFilledController(t, server.URL)
			require.NoError(t, submitAndReview(context.Background(), ctrl, prompt.NewPrinter(&out, false), driver))

			assert.Equal(t, int32(1), gw.configureCalls.Load())
			assert.Equal(t, tt.wantReviews, gw.reviewCalls.Load())
			if tt.driver != nil {
				assert.Equal(t, tt.wantAsked, tt.driver.asked)
			}
			if tt.wantReviews == 1 {
				assert.Contains(t, out.String(), "Last instruction: Add a sitemap")
			}
		})
	}
}

func TestSubmitAndReview_IncompleteFormSendsNothing(t *testing.T) {
	gw := &fakeGateway{}
	server := gw.start(t)

	var out bytes.Buffer
	ctrl := form.NewController(client.NewClient(server.URL))
	err := submitAndReview(context.Background(), ctrl, prompt.NewPrinter(&out, false), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, form.ErrFormIncomplete)
	assert.Contains(t, err.Error(), "nothing was sent to the gateway")
	assert.Equal(t, int32(0), gw.configureCalls.Load())
}

func TestExplainNotSent(t *testing.T) {
	rejected := &form.EnvelopeError{Code: agent.CodeOrchestratorRejected, Message: "bad token"}
	assert.Same(t, error(rejected), explainNotSent(rejected), "real failures pass through unchanged")

	err := explainNotSent(form.ErrReviewInProgress)
	assert.ErrorIs(t, err, form.ErrReviewInProgress)
	assert.Contains(t, err.Error(), "nothing was sent")
}
