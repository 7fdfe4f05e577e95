// Package view renders chat messages and holds the state of the widgets the
// controller drives: the input control, the transcript container and the
// typing indicator.
package view

import (
	"fmt"

	"github.com/zhouzirui/carechat/internal/model/chat"
	"github.com/zhouzirui/carechat/internal/sanitize"
)

// View is the surface a controller drives.
type View interface {
	Input() string
	ClearInput()
	SetInputEnabled(enabled bool)
	Focus()
	AppendMessage(msg chat.Message)
	SetTyping(visible bool)
	ScrollToEnd()
}

// RenderMessage builds the transcript fragment for msg. Text and timestamp
// are escaped before they are interpolated.
func RenderMessage(msg chat.Message) string {
	class := "ai-message"
	if msg.FromUser() {
		class = "user-message"
	}

	fragment := fmt.Sprintf(
		`<div class="message %s"><div class="message-content"><strong>%s:</strong> %s</div><div class="message-time">%s</div></div>`,
		class,
		msg.Sender.Label(),
		sanitize.Text(msg.Text),
		sanitize.Text(msg.Timestamp),
	)
	return sanitize.Fragment(fragment)
}
