// Package run drives one production test run: start request, event feed
// subscription and the pass/fail/abort outcome.
package run

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/prodtests/internal/feed"
	"github.com/zjrosen/prodtests/internal/log"
	"github.com/zjrosen/prodtests/internal/prodtest"
	"github.com/zjrosen/prodtests/internal/tracing"
)

// DefaultFinishDelay lets the progress bar settle before the pass screen.
const DefaultFinishDelay = 1500 * time.Millisecond

// ErrNotFound is returned by Begin when the selected set no longer exists.
var ErrNotFound = fmt.Errorf("run: %w", prodtest.ErrSetNotFound)

// ids numbers attempts and subscription generations for every controller
// in the process, so a message addressed to one controller never matches
// another.
var ids atomic.Int64

func nextID() int { return int(ids.Add(1)) }

// Starter issues the run-start request.
type Starter interface {
	StartRun(ctx context.Context, partNumber string, sel prodtest.Selection) error
}

// StartedMsg reports the run-start request result.
type StartedMsg struct {
	Attempt int
	Err     error
}

// FeedMsg carries one feed message tagged with the subscription generation
// it was read from.
type FeedMsg struct {
	Gen int
	Msg feed.Message
}

// PassMsg fires after the finish delay.
type PassMsg struct {
	Attempt int
}

// Controller owns one run attempt at a time. All methods must be called
// from the Bubble Tea update loop.
type Controller struct {
	starter    Starter
	source     feed.Source
	partNumber string
	delay      time.Duration
	tracer     trace.Tracer

	ctx      context.Context
	sel      prodtest.Selection
	state    State
	attempt  int
	stream   feed.Stream
	gen      int
	reported bool
	span     trace.Span
}

// Option configures a Controller.
type Option func(*Controller)

// WithFinishDelay overrides DefaultFinishDelay.
func WithFinishDelay(d time.Duration) Option {
	return func(c *Controller) { c.delay = d }
}

// WithTracer records one span per run attempt.
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) {
		if t != nil {
			c.tracer = t
		}
	}
}

// New creates an idle controller.
func New(starter Starter, source feed.Source, partNumber string, opts ...Option) *Controller {
	c := &Controller{
		starter:    starter,
		source:     source,
		partNumber: partNumber,
		delay:      DefaultFinishDelay,
		tracer:     noop.NewTracerProvider().Tracer("run"),
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot.
func (c *Controller) State() State { return c.state }

// Selection returns the selection of the current attempt.
func (c *Controller) Selection() prodtest.Selection { return c.sel }

// Subscribed reports whether a feed subscription is live.
func (c *Controller) Subscribed() bool { return c.stream != nil }

// Begin prepares a new attempt for sel. Any previous subscription is closed
// first. The total is the library size for AllTests, or the set size.
func (c *Controller) Begin(repo *prodtest.Repository, sel prodtest.Selection) error {
	c.teardown()

	total, err := repo.Count(sel)
	if err != nil {
		log.ErrorErr(log.CatRun, "Cannot begin run", err, "test", sel.WireID())
		return fmt.Errorf("%w: %s", ErrNotFound, sel.WireID())
	}

	c.attempt = nextID()
	c.sel = sel
	c.reported = false
	c.state = State{Phase: Starting, Total: total}
	log.Info(log.CatRun, "Run attempt", "attempt", c.attempt, "test", sel.WireID(), "total", total)
	return nil
}

// Start returns the command issuing the run-start request.
func (c *Controller) Start(ctx context.Context) tea.Cmd {
	if c.state.Phase != Starting {
		return nil
	}
	c.ctx = ctx
	ctx, c.span = c.tracer.Start(ctx, tracing.SpanRun, trace.WithAttributes(
		attribute.String(tracing.AttrPartNumber, c.partNumber),
		attribute.String(tracing.AttrTestSetID, c.sel.WireID()),
		attribute.Int(tracing.AttrRunTotal, c.state.Total),
	))

	attempt, sel, pn, starter := c.attempt, c.sel, c.partNumber, c.starter
	return func() tea.Msg {
		return StartedMsg{Attempt: attempt, Err: starter.StartRun(ctx, pn, sel)}
	}
}

// HandleStarted opens the feed on success. On failure the attempt stays in
// Starting with StartErr set and no subscription is opened.
func (c *Controller) HandleStarted(msg StartedMsg) tea.Cmd {
	if msg.Attempt != c.attempt || c.state.Phase != Starting {
		return nil
	}
	if msg.Err != nil {
		c.state.StartErr = msg.Err
		log.ErrorErr(log.CatRun, "Run start failed", msg.Err, "test", c.sel.WireID())
		c.endSpan("start_failed", msg.Err)
		return nil
	}
	return c.Open(c.ctx)
}

// Open subscribes to the feed. It is a no-op while a subscription is live.
func (c *Controller) Open(ctx context.Context) tea.Cmd {
	if c.stream != nil {
		log.Debug(log.CatRun, "Subscription already open")
		return nil
	}
	if c.state.Phase.Terminal() {
		return nil
	}
	c.gen = nextID()
	c.stream = c.source.Open(ctx)
	c.state.Phase = Running
	return c.Next()
}

// Next waits for the next message on the live subscription.
func (c *Controller) Next() tea.Cmd {
	if c.stream == nil {
		return nil
	}
	gen, ch := c.gen, c.stream.Messages()
	return func() tea.Msg {
		m, ok := <-ch
		if !ok {
			return nil
		}
		return FeedMsg{Gen: gen, Msg: m}
	}
}

// Handle applies a feed message. Messages from a torn-down subscription are
// ignored.
func (c *Controller) Handle(msg FeedMsg) (Outcome, tea.Cmd) {
	if c.stream == nil || msg.Gen != c.gen {
		return None, nil
	}

	switch msg.Msg.Kind {
	case feed.KindTest:
		ev := msg.Msg.Test
		name := feed.DisplayName(ev.Name)
		c.state.TestName = name
		switch {
		case ev.Passed():
			c.state.Current = ev.Index
			c.event(tracing.EventTestPassed, ev)
		case ev.Failed():
			c.teardown()
			c.event(tracing.EventTestFailed, ev)
			return c.finish(Failed, name), nil
		}
		return None, c.Next()

	case feed.KindFinished:
		c.teardown()
		log.Info(log.CatRun, "Run finished", "delay", c.delay)
		attempt := c.attempt
		return Finished, tea.Tick(c.delay, func(time.Time) tea.Msg {
			return PassMsg{Attempt: attempt}
		})

	case feed.KindError:
		return c.TransportError(msg.Msg.Err), nil
	}
	return None, c.Next()
}

// Pass completes an attempt after the finish delay.
func (c *Controller) Pass(msg PassMsg) Outcome {
	if msg.Attempt != c.attempt || c.state.Phase != Running {
		return None
	}
	return c.finish(Passed, "")
}

// Abort tears down and ends the attempt. The backend run is not stopped.
func (c *Controller) Abort() Outcome {
	c.teardown()
	if c.reported || c.state.Phase == Idle {
		return None
	}
	return c.finish(Aborted, "")
}

// TransportError tears down the subscription. The phase is left unchanged,
// so the progress view stalls until the operator aborts.
func (c *Controller) TransportError(err error) Outcome {
	if c.stream == nil {
		return None
	}
	c.teardown()
	if err == nil {
		err = errors.New("event feed lost")
	}
	c.state.FeedErr = err
	log.ErrorErr(log.CatRun, "Event feed lost", err, "test", c.sel.WireID(), "current", c.state.Current)
	if c.span != nil {
		c.span.AddEvent(tracing.EventFeedLost)
	}
	return FeedLost
}

// Close is the unmount path: teardown without an outcome.
func (c *Controller) Close() {
	c.teardown()
	c.endSpan("closed", nil)
}

func (c *Controller) teardown() {
	if c.stream == nil {
		return
	}
	c.stream.Close()
	c.stream = nil
	c.gen = nextID()
}

func (c *Controller) finish(p Phase, failed string) Outcome {
	if c.reported {
		return None
	}
	c.reported = true
	c.state.Phase = p
	c.state.FailedTest = failed

	log.Info(log.CatRun, "Run ended", "outcome", p, "test", c.sel.WireID(), "failed", failed)
	c.endSpan(p.String(), nil)

	switch p {
	case Passed:
		return OutcomePassed
	case Failed:
		return OutcomeFailed
	default:
		return OutcomeAborted
	}
}

func (c *Controller) event(name string, ev feed.TestEvent) {
	if c.span == nil {
		return
	}
	c.span.AddEvent(name, trace.WithAttributes(
		attribute.Int("test.index", ev.Index),
		attribute.String("test.name", ev.Name),
	))
}

func (c *Controller) endSpan(outcome string, err error) {
	if c.span == nil {
		return
	}
	c.span.SetAttributes(attribute.String(tracing.AttrRunOutcome, outcome))
	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
	}
	c.span.End()
	c.span = nil
}
