package view

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/zhouzirui/carechat/internal/model/chat"
	"github.com/zhouzirui/carechat/pkg/dom"
)

// Element ids the page template must provide.
const (
	FormID            = "chatForm"
	InputID           = "messageInput"
	TranscriptID      = "chatMessages"
	TypingIndicatorID = "typingIndicator"

	TokenFieldName = "csrfmiddlewaretoken"
)

// ErrMissingElement is returned by ParsePage when a required element is absent.
var ErrMissingElement = errors.New("page element missing")

// Page is an in-memory model of the chat page.
type Page struct {
	mu           sync.Mutex
	fragments    []string
	typing       bool
	input        string
	inputEnabled bool
	focused      bool
	scrollTop    int
}

// NewPage returns an empty page with an enabled input.
func NewPage() *Page {
	return &Page{inputEnabled: true}
}

// ParsePage checks a page template against the element contract and returns
// a fresh Page plus the hidden token field value, if the template has one.
func ParsePage(r io.Reader) (*Page, string, error) {
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, "", err
	}
	for _, id := range []string{FormID, InputID, TranscriptID, TypingIndicatorID} {
		if dom.FindByID(doc, id) == nil {
			return nil, "", fmt.Errorf("%w: #%s", ErrMissingElement, id)
		}
	}
	tok, _ := dom.InputValue(doc, TokenFieldName)
	return NewPage(), strings.TrimSpace(tok), nil
}

// SetInput replaces the input value, as typing would.
func (p *Page) SetInput(value string) {
	p.mu.Lock()
	p.input = value
	p.mu.Unlock()
}

func (p *Page) Input() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input
}

func (p *Page) ClearInput() {
	p.SetInput("")
}

func (p *Page) SetInputEnabled(enabled bool) {
	p.mu.Lock()
	p.inputEnabled = enabled
	p.mu.Unlock()
}

// InputEnabled reports whether the input accepts typing.
func (p *Page) InputEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inputEnabled
}

func (p *Page) Focus() {
	p.mu.Lock()
	p.focused = true
	p.mu.Unlock()
}

// Blur drops input focus, as switching away from the page would.
func (p *Page) Blur() {
	p.mu.Lock()
	p.focused = false
	p.mu.Unlock()
}

// Focused reports whether the input has focus.
func (p *Page) Focused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focused
}

// AppendMessage appends the rendered fragment and scrolls to the end.
func (p *Page) AppendMessage(msg chat.Message) {
	fragment := RenderMessage(msg)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.fragments = append(p.fragments, fragment)
	p.scrollTop = p.scrollHeightLocked()
}

// SetTyping toggles the typing indicator. Showing it scrolls to the end;
// hiding it clamps the scroll offset to the shorter transcript.
func (p *Page) SetTyping(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typing = visible
	if visible {
		p.scrollTop = p.scrollHeightLocked()
		return
	}
	if h := p.scrollHeightLocked(); p.scrollTop > h {
		p.scrollTop = h
	}
}

// TypingVisible reports whether the typing indicator is shown.
func (p *Page) TypingVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.typing
}

func (p *Page) ScrollToEnd() {
	p.mu.Lock()
	p.scrollTop = p.scrollHeightLocked()
	p.mu.Unlock()
}

// AtEnd reports whether the transcript is scrolled to its last node.
func (p *Page) AtEnd() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrollTop == p.scrollHeightLocked()
}

// Fragments returns the rendered message fragments in order.
func (p *Page) Fragments() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.fragments...)
}

// TranscriptHTML returns the transcript container's inner HTML.
func (p *Page) TranscriptHTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.fragments, "\n")
}

// scrollHeightLocked counts rendered nodes; the indicator is one node when shown.
func (p *Page) scrollHeightLocked() int {
	h := len(p.fragments)
	if p.typing {
		h++
	}
	return h
}
