package view

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/zhouzirui/carechat/internal/model/chat"
	"github.com/zhouzirui/carechat/internal/sanitize"
)

// Terminal renders the chat as plain lines on a writer.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	prompt  string
	input   string
	enabled bool
	typing  bool
}

// NewTerminal returns a terminal view writing to out.
func NewTerminal(out io.Writer, prompt string) *Terminal {
	return &Terminal{out: out, prompt: prompt, enabled: true}
}

// SetInput replaces the pending input.
func (t *Terminal) SetInput(value string) {
	t.mu.Lock()
	t.input = value
	t.mu.Unlock()
}

// AppendInput adds a line to the pending input, keeping a line break between lines.
func (t *Terminal) AppendInput(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.input == "" {
		t.input = line
		return
	}
	t.input += "\n" + line
}

func (t *Terminal) Input() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.input
}

func (t *Terminal) ClearInput() {
	t.SetInput("")
}

func (t *Terminal) SetInputEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
}

// InputEnabled reports whether a new message may be submitted.
func (t *Terminal) InputEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Focus reprints the prompt.
func (t *Terminal) Focus() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, t.prompt)
}

// AppendMessage prints msg with control characters removed.
func (t *Terminal) AppendMessage(msg chat.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	text := strings.ReplaceAll(sanitize.Terminal(msg.Text), "\n", "\n    ")
	fmt.Fprintf(t.out, "[%s] %s: %s\n", msg.Timestamp, msg.Sender.Label(), text)
	if !msg.FromUser() {
		fmt.Fprint(t.out, t.prompt)
	}
}

func (t *Terminal) SetTyping(visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if visible && !t.typing {
		fmt.Fprintln(t.out, "AI Assistant is typing...")
	}
	t.typing = visible
}

// ScrollToEnd is a no-op: the terminal always shows the latest line.
func (t *Terminal) ScrollToEnd() {}
