package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/zhouzirui/carechat/internal/client"
	"github.com/zhouzirui/carechat/internal/controller"
	"github.com/zhouzirui/carechat/internal/view"
)

type recordingSender struct {
	messages []string
}

func (r *recordingSender) Send(_ context.Context, message string) (client.Reply, error) {
	r.messages = append(r.messages, message)
	return client.Reply{Text: "ok"}, nil
}

func TestHandleLineContinuationAndSubmit(t *testing.T) {
	var out bytes.Buffer
	term := view.NewTerminal(&out, prompt)
	sender := &recordingSender{}
	ctrl := controller.New(term, sender)
	ctx := context.Background()

	handleLine(ctx, &out, ctrl, term, `first line\`)
	if len(sender.messages) != 0 {
		t.Fatal("continuation line must not submit")
	}
	handleLine(ctx, &out, ctrl, term, "second line")
	ctrl.Wait()

	if len(sender.messages) != 1 || sender.messages[0] != "first line\nsecond line" {
		t.Fatalf("unexpected sent messages %q", sender.messages)
	}
	if term.Input() != "" {
		t.Fatalf("expected input cleared, got %q", term.Input())
	}
	if !strings.Contains(out.String(), "AI Assistant: ok") {
		t.Fatalf("reply missing from output %q", out.String())
	}
}

func TestHandleLineBlankDoesNotSubmit(t *testing.T) {
	var out bytes.Buffer
	term := view.NewTerminal(&out, prompt)
	sender := &recordingSender{}
	ctrl := controller.New(term, sender)

	handleLine(context.Background(), &out, ctrl, term, "   ")
	ctrl.Wait()

	if len(sender.messages) != 0 {
		t.Fatal("blank line must not submit")
	}
	if !strings.HasSuffix(out.String(), prompt) {
		t.Fatalf("expected prompt to be reprinted, got %q", out.String())
	}
}
