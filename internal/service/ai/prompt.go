package ai

import (
	"fmt"
	"strings"
)

// PromptTemplate describes the assistant's role for the system prompt.
type PromptTemplate struct {
	Role         string
	Capabilities []string
	Rules        []string
}

// DefaultTemplate is the healthcare assistant used by the chatbot backend.
var DefaultTemplate = PromptTemplate{
	Role: "You are a helpful healthcare assistant for a Healthcare Management System.",
	Capabilities: []string{
		"General health information and tips",
		"Explaining medical terms",
		"Appointment scheduling guidance",
		"Symptom information (but always recommend consulting a doctor)",
	},
	Rules: []string{
		"Always remind users to consult with healthcare professionals for medical advice.",
		"Keep responses friendly, helpful, and informative.",
	},
}

// BuildSystemPrompt renders t as a plain-text system prompt.
func (t PromptTemplate) BuildSystemPrompt() string {
	var b strings.Builder
	b.WriteString(t.Role)
	if len(t.Capabilities) > 0 {
		b.WriteString("\nYou can help with:\n")
		for _, c := range t.Capabilities {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	if len(t.Rules) > 0 {
		b.WriteString("\nImportant: ")
		b.WriteString(strings.Join(t.Rules, " "))
	}
	return strings.TrimSpace(b.String())
}
