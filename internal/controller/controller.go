// Package controller wires user gestures (submit, Enter key, page
// visibility) to the send operation and the view. One Controller serves one
// page or terminal session.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/carechat/internal/client"
	"github.com/zhouzirui/carechat/internal/model/chat"
	"github.com/zhouzirui/carechat/internal/view"
)

// Sender performs the network exchange for one message.
type Sender interface {
	Send(ctx context.Context, message string) (client.Reply, error)
}

// KeyEvent is a key press in the input control.
type KeyEvent struct {
	Key   string
	Shift bool
}

// KeyEnter is the key name that submits the form.
const KeyEnter = "Enter"

// Option customizes a Controller.
type Option func(*Controller)

// WithOverlappingSends lets a new submit start while another send is still
// in flight. Replies are then appended in arrival order.
func WithOverlappingSends() Option {
	return func(c *Controller) { c.allowOverlap = true }
}

// WithClock overrides the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the logger used for technical failure detail.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// Controller is the session-scoped view-controller.
type Controller struct {
	view       view.View
	sender     Sender
	transcript *chat.Transcript
	now        func() time.Time
	logger     zerolog.Logger

	allowOverlap bool

	mu       sync.Mutex
	inFlight int
	wg       sync.WaitGroup

	// appendMu keeps the transcript and the view in the same order.
	appendMu sync.Mutex
}

// New creates a controller for one session.
func New(v view.View, sender Sender, opts ...Option) *Controller {
	c := &Controller{
		view:       v,
		sender:     sender,
		transcript: chat.NewTranscript(),
		now:        time.Now,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start performs the on-load behavior: focus the input and scroll to the end.
func (c *Controller) Start() {
	c.view.Focus()
	c.view.ScrollToEnd()
}

// Submit runs the form submission flow. It returns false when nothing was
// sent: the input was blank, or a send is in flight and overlap is off.
func (c *Controller) Submit(ctx context.Context) bool {
	message := strings.TrimSpace(c.view.Input())
	if message == "" {
		return false
	}

	c.mu.Lock()
	if c.inFlight > 0 && !c.allowOverlap {
		c.mu.Unlock()
		return false
	}
	c.inFlight++
	c.wg.Add(1)
	c.mu.Unlock()

	c.append(chat.NewMessage(message, chat.SenderUser, c.now()))
	c.view.ClearInput()

	c.mu.Lock()
	c.view.SetTyping(true)
	if !c.allowOverlap {
		c.view.SetInputEnabled(false)
	}
	c.mu.Unlock()

	go c.send(ctx, message)
	return true
}

// HandleKey handles a key press in the input. Enter without Shift submits
// and reports true, meaning the default action is suppressed. Anything
// else, Shift+Enter included, passes through.
func (c *Controller) HandleKey(ctx context.Context, ev KeyEvent) bool {
	if ev.Key != KeyEnter || ev.Shift {
		return false
	}
	c.Submit(ctx)
	return true
}

// HandleVisibility refocuses the input when the page is visible again.
func (c *Controller) HandleVisibility(visible bool) {
	if visible {
		c.view.Focus()
	}
}

// Wait blocks until every started send has settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Transcript returns the messages appended so far.
func (c *Controller) Transcript() []chat.Message {
	return c.transcript.Messages()
}

// Busy reports whether a send is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

func (c *Controller) send(ctx context.Context, message string) {
	defer c.wg.Done()
	defer c.settle()
	defer func() {
		if r := recover(); r != nil {
			c.fail(fmt.Errorf("send panicked: %v", r))
		}
	}()

	reply, err := c.sender.Send(ctx, message)
	if err != nil {
		c.fail(err)
		return
	}
	if len(reply.Debug) > 0 {
		c.logger.Debug().RawJSON("debug", reply.Debug).Msg("[chat] reply debug payload")
	}
	c.append(chat.NewMessage(reply.Text, chat.SenderAssistant, c.now()))
}

func (c *Controller) fail(err error) {
	kind := client.Classify(err)
	evt := c.logger.Warn().Err(err).Str("kind", kind.String())
	var appErr *client.ApplicationError
	if errors.As(err, &appErr) && len(appErr.Debug) > 0 {
		evt = evt.RawJSON("debug", appErr.Debug)
	}
	evt.Msg("[chat] send failed")

	c.append(chat.NewMessage(client.Describe(err), chat.SenderAssistant, c.now()))
}

// settle hides the indicator once no send is left in flight.
func (c *Controller) settle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight--
	if c.inFlight > 0 {
		return
	}
	c.view.SetTyping(false)
	if !c.allowOverlap {
		c.view.SetInputEnabled(true)
	}
}

func (c *Controller) append(msg chat.Message) {
	c.appendMu.Lock()
	defer c.appendMu.Unlock()
	c.transcript.Append(msg)
	c.view.AppendMessage(msg)
}
