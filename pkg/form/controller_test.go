package form

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takutakahashi/seo-agent-proxy/pkg/agent"
)

// fakeSubmitter records calls and answers with canned responses.
// When block is set each call waits for a value on it before answering.
type fakeSubmitter struct {
	configureCalls atomic.Int32
	reviewCalls    atomic.Int32

	mu           sync.Mutex
	lastEnvelope *agent.SubmissionEnvelope
	lastReview   *agent.ReviewRequest

	configureResp *agent.ResponseEnvelope
	configureErr  error
	reviewResp    *agent.ResponseEnvelope
	reviewErr     error

	started chan struct{}
	block   chan struct{}
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{
		configureResp: &agent.ResponseEnvelope{OK: true, Data: json.RawMessage(`{"id":"x"}`)},
		reviewResp:    &agent.ResponseEnvelope{OK: true, Data: json.RawMessage(`{"instruction":"Add alt text to images"}`)},
	}
}

func (f *fakeSubmitter) wait(ctx context.Context) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block == nil {
		return nil
	}
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeSubmitter) Configure(ctx context.Context, envelope *agent.SubmissionEnvelope) (*agent.ResponseEnvelope, error) {
	f.configureCalls.Add(1)
	f.mu.Lock()
	f.lastEnvelope = envelope
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.configureResp, f.configureErr
}

func (f *fakeSubmitter) Review(ctx context.Context, req *agent.ReviewRequest) (*agent.ResponseEnvelope, error) {
	f.reviewCalls.Add(1)
	f.mu.Lock()
	f.lastReview = req
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.reviewResp, f.reviewErr
}

func fillRequired(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.Update(func(cfg *agent.AgentConfig) {
		cfg.Token = "ghp_" + "abcdefghijklmnopqrstuvwxyz0123456789"
		cfg.RepoOwner = "octocat"
		cfg.RepoName = "site"
		cfg.WebsiteURL = "https://example.com"
		cfg.AgentName = "seo-bot"
	}))
}

func TestNewController(t *testing.T) {
	c := NewController(newFakeSubmitter())
	snap := c.Snapshot()

	assert.Equal(t, Editing, snap.State)
	assert.Equal(t, agent.DefaultBranch, snap.Config.Branch)
	assert.Equal(t, 0, snap.Progress)
	assert.False(t, snap.Validation.FormValid)
	assert.Empty(t, snap.LastInstruction)
	assert.False(t, c.CanSubmit())
}

func TestSubmit_Incomplete(t *testing.T) {
	sub := newFakeSubmitter()
	c := NewController(sub)
	require.NoError(t, c.SetField(agent.FieldToken, "ghp_x"))

	err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrFormIncomplete)
	assert.True(t, IsGuardError(err))
	assert.Equal(t, Editing, c.State())
	assert.Equal(t, int32(0), sub.configureCalls.Load())
}

func TestSubmit_MalformedButPresentFieldsAreSent(t *testing.T) {
	sub := newFakeSubmitter()
	c := NewController(sub)
	require.NoError(t, c.Update(func(cfg *agent.AgentConfig) {
		cfg.Token = "not-a-token"
		cfg.RepoOwner = "-bad-"
		cfg.RepoName = "bad name"
		cfg.WebsiteURL = "nope"
		cfg.AgentName = "agent"
	}))

	assert.NotEmpty(t, c.Snapshot().Warnings)
	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, Configured, c.State())
	assert.Equal(t, int32(1), sub.configureCalls.Load())
}

func TestSubmit_Success(t *testing.T) {
	sub := newFakeSubmitter()
	now := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

	var transitions [][2]State
	c := NewController(sub,
		WithClock(func() time.Time { return now }),
		WithObserver(func(from, to State) { transitions = append(transitions, [2]State{from, to}) }),
	)
	fillRequired(t, c)
	require.NoError(t, c.SetField(agent.FieldScheduleMinutes, "abc"))
	require.NoError(t, c.SetField(agent.FieldBranch, ""))
	assert.True(t, c.CanSubmit())

	require.NoError(t, c.Submit(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, Configured, snap.State)
	assert.Nil(t, snap.LastError)
	require.NotNil(t, snap.ConfigureResult)
	assert.JSONEq(t, `{"id":"x"}`, string(snap.ConfigureResult.Data))

	require.NotNil(t, sub.lastEnvelope)
	assert.Equal(t, "main", sub.lastEnvelope.Branch)
	assert.Nil(t, sub.lastEnvelope.ScheduleMinutes)
	assert.Nil(t, sub.lastEnvelope.AnalyticsProperty)
	assert.Equal(t, "2026-01-02T03:04:05.006Z", sub.lastEnvelope.Timestamp)

	assert.Equal(t, [][2]State{{Editing, Submitting}, {Submitting, Configured}}, transitions)

	assert.ErrorIs(t, c.SetField(agent.FieldAgentName, "other"), ErrNotEditable)
	assert.ErrorIs(t, c.Submit(context.Background()), ErrAlreadyConfigured)
	assert.Equal(t, int32(1), sub.configureCalls.Load())
}

func TestSubmit_RejectedReturnsToEditing(t *testing.T) {
	sub := newFakeSubmitter()
	sub.configureResp = &agent.ResponseEnvelope{OK: false, Error: "bad token", Code: agent.CodeOrchestratorRejected}
	c := NewController(sub)
	fillRequired(t, c)

	err := c.Submit(context.Background())
	require.Error(t, err)

	var envErr *EnvelopeError
	require.True(t, errors.As(err, &envErr))
	assert.Equal(t, "bad token", envErr.Message)
	assert.Equal(t, agent.CodeOrchestratorRejected, envErr.Code)
	assert.False(t, IsGuardError(err))

	snap := c.Snapshot()
	assert.Equal(t, Editing, snap.State)
	assert.Equal(t, err, snap.LastError)
	assert.Equal(t, "octocat", snap.Config.RepoOwner, "form values survive a failed submission")

	// the user can fix the form and retry
	sub.configureResp = &agent.ResponseEnvelope{OK: true}
	require.NoError(t, c.SetField(agent.FieldToken, "ghp_other"))
	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, Configured, c.State())
	assert.Nil(t, c.Snapshot().LastError)
}

func TestSubmit_TransportError(t *testing.T) {
	sub := newFakeSubmitter()
	sub.configureResp = nil
	sub.configureErr = errors.New("connection refused")
	c := NewController(sub)
	fillRequired(t, c)

	err := c.Submit(context.Background())
	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, Editing, c.State())
}

func TestSubmit_NilEnvelope(t *testing.T) {
	sub := newFakeSubmitter()
	sub.configureResp = nil
	c := NewController(sub)
	fillRequired(t, c)

	assert.Error(t, c.Submit(context.Background()))
	assert.Equal(t, Editing, c.State())
}

func TestSubmit_ConcurrentSubmitsSendOnce(t *testing.T) {
	sub := newFakeSubmitter()
	sub.started = make(chan struct{}, 1)
	sub.block = make(chan struct{})
	c := NewController(sub)
	fillRequired(t, c)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()
	<-sub.started

	assert.Equal(t, Submitting, c.State())
	assert.False(t, c.CanSubmit())
	assert.ErrorIs(t, c.Submit(context.Background()), ErrSubmitInProgress)
	assert.ErrorIs(t, c.SetField(agent.FieldAgentName, "x"), ErrNotEditable)

	close(sub.block)
	require.NoError(t, <-done)
	assert.Equal(t, Configured, c.State())
	assert.Equal(t, int32(1), sub.configureCalls.Load())
}

func TestSubmit_DemoFallback(t *testing.T) {
	sub := newFakeSubmitter()
	sub.configureResp = nil
	sub.configureErr = errors.New("connection refused")
	c := NewController(sub, WithDemoFallback(20*time.Millisecond))
	fillRequired(t, c)

	start := time.Now()
	require.NoError(t, c.Submit(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	snap := c.Snapshot()
	assert.Equal(t, Configured, snap.State)
	assert.EqualError(t, snap.LastError, "connection refused", "the real failure stays visible")
	assert.Nil(t, snap.ConfigureResult)
}

func TestSubmit_DemoFallbackCancelled(t *testing.T) {
	sub := newFakeSubmitter()
	sub.configureResp = &agent.ResponseEnvelope{OK: false, Error: "down"}
	c := NewController(sub, WithDemoFallback(time.Hour))
	fillRequired(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := c.Submit(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Editing, c.State())
}

func configured(t *testing.T, sub *fakeSubmitter) *Controller {
	t.Helper()
	c := NewController(sub)
	fillRequired(t, c)
	require.NoError(t, c.Submit(context.Background()))
	return c
}

func TestStartReview_NotConfigured(t *testing.T) {
	sub := newFakeSubmitter()
	c := NewController(sub)

	err := c.StartReview(context.Background(), agent.ReviewRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, int32(0), sub.reviewCalls.Load())
}

func TestStartReview_Success(t *testing.T) {
	sub := newFakeSubmitter()
	c := configured(t, sub)

	require.NoError(t, c.StartReview(context.Background(), agent.ReviewRequest{UserGoal: "  "}))

	assert.Equal(t, Configured, c.State())
	assert.Equal(t, "Add alt text to images", c.LastInstruction())
	require.NotNil(t, sub.lastReview)
	assert.Equal(t, agent.DefaultReviewGoal, sub.lastReview.UserGoal)
}

func TestStartReview_KeepsCustomGoalAndCSV(t *testing.T) {
	sub := newFakeSubmitter()
	c := configured(t, sub)

	req := agent.ReviewRequest{UserGoal: "Reduce bounce rate", CSVText: "page,views\n/,10\n"}
	require.NoError(t, c.StartReview(context.Background(), req))
	assert.Equal(t, req, *sub.lastReview)
}

func TestStartReview_FailureClearsInstruction(t *testing.T) {
	sub := newFakeSubmitter()
	c := configured(t, sub)
	require.NoError(t, c.StartReview(context.Background(), agent.ReviewRequest{}))
	require.NotEmpty(t, c.LastInstruction())

	sub.reviewResp = &agent.ResponseEnvelope{OK: false, Error: "clone failed", Code: agent.CodeOrchestratorRejected}
	err := c.StartReview(context.Background(), agent.ReviewRequest{})
	require.Error(t, err)

	snap := c.Snapshot()
	assert.Equal(t, Configured, snap.State)
	assert.Empty(t, snap.LastInstruction)
	assert.Equal(t, err, snap.LastError)
}

func TestStartReview_ConcurrentReviewsSendOnce(t *testing.T) {
	sub := newFakeSubmitter()
	c := configured(t, sub)
	require.NoError(t, c.StartReview(context.Background(), agent.ReviewRequest{}))
	sub.reviewCalls.Store(0)

	sub.started = make(chan struct{}, 1)
	sub.block = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- c.StartReview(context.Background(), agent.ReviewRequest{}) }()
	<-sub.started

	assert.Equal(t, Reviewing, c.State())
	assert.Empty(t, c.LastInstruction(), "previous instruction is cleared while reviewing")
	assert.ErrorIs(t, c.StartReview(context.Background(), agent.ReviewRequest{}), ErrReviewInProgress)
	assert.ErrorIs(t, c.Submit(context.Background()), ErrAlreadyConfigured)

	close(sub.block)
	require.NoError(t, <-done)
	assert.Equal(t, Configured, c.State())
	assert.Equal(t, "Add alt text to images", c.LastInstruction())
	assert.Equal(t, int32(1), sub.reviewCalls.Load())
}

func TestStartReview_ReviewWithoutInstruction(t *testing.T) {
	sub := newFakeSubmitter()
	sub.reviewResp = &agent.ResponseEnvelope{OK: true, Data: json.RawMessage(`{"file_path":"index.html"}`)}
	c := configured(t, sub)

	require.NoError(t, c.StartReview(context.Background(), agent.ReviewRequest{}))
	assert.Empty(t, c.LastInstruction())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "editing", Editing.String())
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "configured", Configured.String())
	assert.Equal(t, "reviewing", Reviewing.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestEnvelopeError(t *testing.T) {
	assert.Equal(t, "orchestrator_timeout: timed out", (&EnvelopeError{Code: agent.CodeOrchestratorTimeout, Message: "timed out"}).Error())
	assert.Equal(t, "plain", (&EnvelopeError{Message: "plain"}).Error())
	assert.Equal(t, "request failed", envelopeError(&agent.ResponseEnvelope{OK: false}).(*EnvelopeError).Message)
	assert.NoError(t, envelopeError(&agent.ResponseEnvelope{OK: true}))
}
