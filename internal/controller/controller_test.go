package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zhouzirui/carechat/internal/client"
	"github.com/zhouzirui/carechat/internal/model/chat"
	"github.com/zhouzirui/carechat/internal/view"
)

type fakeSender struct {
	calls   int32
	release chan struct{}
	onCall  func(message string)
	reply   func(message string) (client.Reply, error)
}

func (f *fakeSender) Send(ctx context.Context, message string) (client.Reply, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.onCall != nil {
		f.onCall(message)
	}
	if f.release != nil {
		<-f.release
	}
	return f.reply(message)
}

func replyWith(text string) func(string) (client.Reply, error) {
	return func(string) (client.Reply, error) { return client.Reply{Text: text}, nil }
}

func failWith(err error) func(string) (client.Reply, error) {
	return func(string) (client.Reply, error) { return client.Reply{}, err }
}

func newController(sender Sender, opts ...Option) (*Controller, *view.Page) {
	page := view.NewPage()
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	opts = append(opts, WithClock(func() time.Time { return fixed }))
	return New(page, sender, opts...), page
}

func TestSubmitBlankInputDoesNothing(t *testing.T) {
	sender := &fakeSender{reply: replyWith("unused")}
	c, page := newController(sender)

	for _, input := range []string{"", "   ", "\n\t "} {
		page.SetInput(input)
		if c.Submit(context.Background()) {
			t.Fatalf("input %q should be rejected", input)
		}
	}
	c.Wait()

	if len(c.Transcript()) != 0 || len(page.Fragments()) != 0 {
		t.Fatal("blank input must not add messages")
	}
	if atomic.LoadInt32(&sender.calls) != 0 {
		t.Fatal("blank input must not reach the network")
	}
	if page.TypingVisible() {
		t.Fatal("typing indicator should stay hidden")
	}
}

func TestSubmitAppendsUserMessageBeforeSend(t *testing.T) {
	var c *Controller
	var seen []chat.Message
	sender := &fakeSender{reply: replyWith("Hi")}
	sender.onCall = func(string) { seen = c.Transcript() }
	c, page := newController(sender)

	page.SetInput("  hello there  ")
	if !c.Submit(context.Background()) {
		t.Fatal("expected submit to be accepted")
	}
	c.Wait()

	if len(seen) != 1 || seen[0].Sender != chat.SenderUser || seen[0].Text != "hello there" {
		t.Fatalf("expected exactly one trimmed user message before send, got %+v", seen)
	}
	if page.Input() != "" {
		t.Fatalf("expected input cleared, got %q", page.Input())
	}
}

func TestSubmitSuccessAppendsAssistantReply(t *testing.T) {
	sender := &fakeSender{reply: replyWith("Hi")}
	c, page := newController(sender)

	page.SetInput("hello")
	c.Submit(context.Background())
	c.Wait()

	msgs := c.Transcript()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	var assistant []chat.Message
	for _, m := range msgs {
		if m.Sender == chat.SenderAssistant {
			assistant = append(assistant, m)
		}
	}
	if len(assistant) != 1 || assistant[0].Text != "Hi" {
		t.Fatalf("expected one assistant message Hi, got %+v", assistant)
	}
	if page.TypingVisible() || !page.InputEnabled() {
		t.Fatal("expected indicator hidden and input enabled after settle")
	}
	if !page.AtEnd() {
		t.Fatal("expected transcript scrolled to end")
	}
}

func TestSubmitApplicationError(t *testing.T) {
	sender := &fakeSender{reply: failWith(&client.ApplicationError{Message: "bad input", Debug: []byte(`{"detail":"x"}`)})}
	c, page := newController(sender)

	page.SetInput("hello")
	c.Submit(context.Background())
	c.Wait()

	msgs := c.Transcript()
	last := msgs[len(msgs)-1]
	if last.Sender != chat.SenderAssistant || !strings.Contains(last.Text, "bad input") {
		t.Fatalf("expected assistant message with bad input, got %+v", last)
	}
	if page.TypingVisible() {
		t.Fatal("typing indicator should be hidden after an application error")
	}
}

func TestSubmitTransportFailure(t *testing.T) {
	sender := &fakeSender{reply: failWith(&client.TransportError{Err: errors.New("connection refused")})}
	c, page := newController(sender)

	page.SetInput("hello")
	c.Submit(context.Background())
	c.Wait()

	last := c.Transcript()[1]
	if !strings.Contains(last.Text, "trouble connecting") {
		t.Fatalf("expected connectivity message, got %q", last.Text)
	}
	if page.TypingVisible() || !page.InputEnabled() {
		t.Fatal("expected indicator hidden and input enabled after a transport error")
	}
}

func TestSubmitSenderPanicStillSettles(t *testing.T) {
	sender := &fakeSender{reply: func(string) (client.Reply, error) { panic("boom") }}
	c, page := newController(sender)

	page.SetInput("hello")
	c.Submit(context.Background())
	c.Wait()

	if page.TypingVisible() {
		t.Fatal("typing indicator should be hidden after a panic")
	}
	if got := c.Transcript(); len(got) != 2 || got[1].Sender != chat.SenderAssistant {
		t.Fatalf("expected an assistant error message, got %+v", got)
	}
	if c.Busy() {
		t.Fatal("controller should be idle")
	}
}

func TestIndicatorVisibleWhileInFlight(t *testing.T) {
	sender := &fakeSender{release: make(chan struct{}), reply: replyWith("ok")}
	c, page := newController(sender)

	page.SetInput("hello")
	c.Submit(context.Background())

	if !page.TypingVisible() || page.InputEnabled() {
		t.Fatal("expected indicator shown and input disabled while in flight")
	}
	close(sender.release)
	c.Wait()

	if page.TypingVisible() {
		t.Fatal("expected indicator hidden after settle")
	}
}

func TestScriptRendersAsText(t *testing.T) {
	sender := &fakeSender{reply: replyWith("<script>steal()</script>")}
	c, page := newController(sender)

	page.SetInput("<script>alert(1)</script>")
	c.Submit(context.Background())
	c.Wait()

	html := page.TranscriptHTML()
	if strings.Contains(html, "<script") {
		t.Fatalf("script rendered as markup: %s", html)
	}
	if !strings.Contains(html, "&lt;script&gt;alert(1)&lt;/script&gt;") || !strings.Contains(html, "&lt;script&gt;steal()&lt;/script&gt;") {
		t.Fatalf("expected escaped text in transcript: %s", html)
	}
}

func TestHandleKeyEnterSubmits(t *testing.T) {
	sender := &fakeSender{reply: replyWith("ok")}
	c, page := newController(sender)

	page.SetInput("first line")
	if c.HandleKey(context.Background(), KeyEvent{Key: KeyEnter, Shift: true}) {
		t.Fatal("shift+enter must pass through")
	}
	if page.Input() != "first line" || len(c.Transcript()) != 0 {
		t.Fatal("shift+enter must not submit")
	}

	if !c.HandleKey(context.Background(), KeyEvent{Key: KeyEnter}) {
		t.Fatal("enter should be handled")
	}
	c.Wait()

	if len(c.Transcript()) != 2 || atomic.LoadInt32(&sender.calls) != 1 {
		t.Fatalf("enter should submit once, transcript=%d calls=%d", len(c.Transcript()), sender.calls)
	}
	if c.HandleKey(context.Background(), KeyEvent{Key: "a"}) {
		t.Fatal("other keys must pass through")
	}
}

func TestSubmitWhileBusyIsRejected(t *testing.T) {
	sender := &fakeSender{release: make(chan struct{}), reply: replyWith("ok")}
	c, page := newController(sender)

	page.SetInput("one")
	if !c.Submit(context.Background()) {
		t.Fatal("first submit should be accepted")
	}
	page.SetInput("two")
	if c.Submit(context.Background()) {
		t.Fatal("second submit should be rejected while busy")
	}
	if page.Input() != "two" {
		t.Fatal("rejected submit must leave the input untouched")
	}

	close(sender.release)
	c.Wait()

	if len(c.Transcript()) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(c.Transcript()))
	}
}

func TestOverlappingSendsAppendInArrivalOrder(t *testing.T) {
	var mu sync.Mutex
	gates := map[string]chan struct{}{"one": make(chan struct{}), "two": make(chan struct{})}
	sender := &fakeSender{reply: func(message string) (client.Reply, error) {
		mu.Lock()
		gate := gates[message]
		mu.Unlock()
		<-gate
		return client.Reply{Text: "re:" + message}, nil
	}}
	c, page := newController(sender, WithOverlappingSends())

	page.SetInput("one")
	c.Submit(context.Background())
	page.SetInput("two")
	if !c.Submit(context.Background()) {
		t.Fatal("overlapping submit should be accepted")
	}

	close(gates["two"])
	for len(c.Transcript()) < 3 {
		time.Sleep(time.Millisecond)
	}
	if !page.TypingVisible() {
		t.Fatal("indicator should stay visible while a send is pending")
	}
	close(gates["one"])
	c.Wait()

	msgs := c.Transcript()
	if len(msgs) != 4 || msgs[2].Text != "re:two" || msgs[3].Text != "re:one" {
		t.Fatalf("unexpected order: %+v", msgs)
	}
	if page.TypingVisible() {
		t.Fatal("indicator should be hidden once all sends settle")
	}
}

func TestVisibilityRefocusesInput(t *testing.T) {
	c, page := newController(&fakeSender{reply: replyWith("ok")})

	c.Start()
	if !page.Focused() {
		t.Fatal("expected focus on start")
	}
	page.Blur()
	c.HandleVisibility(false)
	if page.Focused() {
		t.Fatal("hidden page must not take focus")
	}
	c.HandleVisibility(true)
	if !page.Focused() {
		t.Fatal("expected focus when visible again")
	}
}
