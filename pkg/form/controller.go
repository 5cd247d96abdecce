package form

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/takutakahashi/seo-agent-proxy/pkg/agent"
)

// DefaultDemoFallbackDelay matches the delay the demo front-end used
const DefaultDemoFallbackDelay = 2 * time.Second

// Submitter sends form payloads to the Submission Gateway.
// A non-nil error or an envelope with OK=false are both failures.
type Submitter interface {
	Configure(ctx context.Context, envelope *agent.SubmissionEnvelope) (*agent.ResponseEnvelope, error)
	Review(ctx context.Context, req *agent.ReviewRequest) (*agent.ResponseEnvelope, error)
}

// TransitionFunc observes state changes
type TransitionFunc func(from, to State)

// Option configures a Controller
type Option func(*Controller)

// WithDemoFallback makes a failed submission still reach Configured after delay.
// It hides real orchestrator failures and is meant for demos only.
func WithDemoFallback(delay time.Duration) Option {
	return func(c *Controller) {
		c.demoFallback = true
		c.fallbackDelay = delay
	}
}

// WithClock overrides the time source used for envelope timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithObserver registers a callback invoked after every state change
func WithObserver(fn TransitionFunc) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, fn)
	}
}

// Controller owns the form state of a single session. All mutation goes
// through its methods; it is safe for concurrent use.
type Controller struct {
	mu              sync.Mutex
	state           State
	config          agent.AgentConfig
	submitter       Submitter
	lastInstruction string
	lastError       error
	configureResult *agent.ResponseEnvelope

	demoFallback  bool
	fallbackDelay time.Duration
	now           func() time.Time
	observers     []TransitionFunc
}

// NewController creates a controller in the Editing state with initial form values
func NewController(submitter Submitter, opts ...Option) *Controller {
	c := &Controller{
		state:     Editing,
		config:    agent.NewAgentConfig(),
		submitter: submitter,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot is an immutable view of the controller for rendering
type Snapshot struct {
	State           State
	Config          agent.AgentConfig
	Validation      agent.Validation
	Warnings        []agent.Warning
	Progress        int
	LastInstruction string
	LastError       error
	ConfigureResult *agent.ResponseEnvelope
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:           c.state,
		Config:          c.config,
		Validation:      agent.Validate(c.config),
		Warnings:        agent.Warnings(c.config),
		Progress:        agent.Progress(c.config),
		LastInstruction: c.lastInstruction,
		LastError:       c.lastError,
		ConfigureResult: c.configureResult,
	}
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastInstruction returns the instruction of the most recent successful review
func (c *Controller) LastInstruction() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastInstruction
}

// SetField edits one field. Only allowed while Editing.
func (c *Controller) SetField(field agent.Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Editing {
		return ErrNotEditable
	}
	return c.config.Set(field, value)
}

// Update applies fn to the form values. Only allowed while Editing.
func (c *Controller) Update(fn func(cfg *agent.AgentConfig)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Editing {
		return ErrNotEditable
	}
	fn(&c.config)
	return nil
}

// CanSubmit reports whether Submit would send a request right now
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == Editing && agent.FormValid(c.config)
}

// Submit sends the current form values to the gateway.
// Submission is gated on required fields only, not on format validity.
// Calls made while a submission is in flight return ErrSubmitInProgress
// without sending anything.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Submitting:
		c.mu.Unlock()
		return ErrSubmitInProgress
	case Configured, Reviewing:
		c.mu.Unlock()
		return ErrAlreadyConfigured
	}
	if !agent.FormValid(c.config) {
		c.mu.Unlock()
		return ErrFormIncomplete
	}
	envelope := agent.BuildEnvelope(c.config, c.now())
	c.lastError = nil
	from := c.transition(Submitting)
	c.mu.Unlock()
	c.notify(from, Submitting)

	resp, err := c.submitter.Configure(ctx, &envelope)
	if err == nil {
		err = envelopeError(resp)
	}

	if err != nil && c.demoFallback {
		log.Printf("[FORM] Configure failed, demo fallback marks agent as configured in %s: %v", c.fallbackDelay, err)
		if waitErr := sleep(ctx, c.fallbackDelay); waitErr != nil {
			err = waitErr
		} else {
			c.finish(Configured, func() {
				c.lastError = err
			})
			return nil
		}
	}

	if err != nil {
		c.finish(Editing, func() {
			c.lastError = err
		})
		return err
	}

	c.finish(Configured, func() {
		c.configureResult = resp
	})
	return nil
}

// StartReview asks the orchestrator for a review cycle. The instruction of
// the previous review is cleared first and replaced when the new one succeeds.
func (c *Controller) StartReview(ctx context.Context, req agent.ReviewRequest) error {
	c.mu.Lock()
	switch c.state {
	case Reviewing:
		c.mu.Unlock()
		return ErrReviewInProgress
	case Editing, Submitting:
		c.mu.Unlock()
		return ErrNotConfigured
	}
	if strings.TrimSpace(req.UserGoal) == "" {
		req.UserGoal = agent.DefaultReviewGoal
	}
	c.lastInstruction = ""
	c.lastError = nil
	from := c.transition(Reviewing)
	c.mu.Unlock()
	c.notify(from, Reviewing)

	resp, err := c.submitter.Review(ctx, &req)
	if err == nil {
		err = envelopeError(resp)
	}

	c.finish(Configured, func() {
		if err != nil {
			c.lastError = err
			return
		}
		c.lastInstruction = resp.Instruction()
	})
	return err
}

// finish applies update and moves to the given state under the lock
func (c *Controller) finish(to State, update func()) {
	c.mu.Lock()
	update()
	from := c.transition(to)
	c.mu.Unlock()
	c.notify(from, to)
}

// transition must be called with mu held
func (c *Controller) transition(to State) State {
	from := c.state
	c.state = to
	return from
}

func (c *Controller) notify(from, to State) {
	for _, fn := range c.observers {
		fn(from, to)
	}
}

// EnvelopeError is returned when the gateway answered with ok=false
type EnvelopeError struct {
	Code    agent.ErrorCode
	Message string
}

func (e *EnvelopeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

func envelopeError(resp *agent.ResponseEnvelope) error {
	if resp == nil {
		return &EnvelopeError{Message: "empty response from gateway"}
	}
	if !resp.OK {
		msg := resp.Error
		if msg == "" {
			msg = "request failed"
		}
		return &EnvelopeError{Code: resp.Code, Message: msg}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsGuardError reports whether err is one of the no-op guard results
// rather than a failed request
func IsGuardError(err error) bool {
	return errors.Is(err, ErrFormIncomplete) ||
		errors.Is(err, ErrSubmitInProgress) ||
		errors.Is(err, ErrAlreadyConfigured) ||
		errors.Is(err, ErrNotConfigured) ||
		errors.Is(err, ErrReviewInProgress) ||
		errors.Is(err, ErrNotEditable)
}
