package dom

import (
	"strings"
	"testing"
)

const page = `<html><body>
<form id="chatForm">
  <input type="hidden" name="csrfmiddlewaretoken" value="tok-123">
  <textarea id="messageInput"></textarea>
</form>
<div id="chatMessages"></div>
</body></html>`

func TestFindByID(t *testing.T) {
	doc, err := Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}

	n := FindByID(doc, "messageInput")
	if n == nil || n.Data != "textarea" {
		t.Fatalf("expected textarea, got %+v", n)
	}
	if FindByID(doc, "missing") != nil {
		t.Fatal("expected nil for missing id")
	}
}

func TestInputValue(t *testing.T) {
	doc, err := Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}

	v, ok := InputValue(doc, "csrfmiddlewaretoken")
	if !ok || v != "tok-123" {
		t.Fatalf("expected tok-123, got %q (found=%v)", v, ok)
	}
	if _, ok := InputValue(doc, "other"); ok {
		t.Fatal("expected missing input")
	}
}
