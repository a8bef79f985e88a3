package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a message block
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message describes a block printed for a failure or notice.
//
// Example output:
//
//	✗ UNKNOWN ATTRIBUTE: unable to locate attribute "nmae" on Customer
//
//	   Did you mean: name?
//
//	   → List attributes: criteria inspect Customer
type Message struct {
	Level       Level
	Context     string
	Problem     string
	Detail      string
	Suggestions []string
	Help        []string
	NoColor     bool
}

// Format renders the message
func (m Message) Format() string {
	var b strings.Builder

	var symbol string
	var tone color.Attribute
	switch m.Level {
	case LevelWarning:
		symbol, tone = "!", color.FgYellow
	case LevelInfo:
		symbol, tone = "i", color.FgCyan
	default:
		symbol, tone = "✗", color.FgRed
	}

	header := newColor(m.NoColor, tone, color.Bold)
	body := newColor(m.NoColor, tone)

	if m.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(m.Context), m.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, m.Problem)
	}

	if m.Detail != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(m.Detail, "\n") {
			body.Fprintf(&b, "   %s\n", line)
		}
	}

	if len(m.Suggestions) > 0 {
		b.WriteString("\n")
		newColor(m.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}

	if len(m.Help) > 0 {
		b.WriteString("\n")
		hint := newColor(m.NoColor, color.FgCyan)
		for _, h := range m.Help {
			hint.Fprintf(&b, "   → %s\n", h)
		}
	}

	return b.String()
}

// Write prints the message to w
func (m Message) Write(w io.Writer) {
	fmt.Fprint(w, m.Format())
}

// Success renders a one-line success note
func Success(message string, noColor bool) string {
	return newColor(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// EntityNotFound describes a lookup of an unmapped entity name
func EntityNotFound(name string, known []string, noColor bool) Message {
	return Message{
		Level:       LevelError,
		Context:     "unknown entity",
		Problem:     fmt.Sprintf("no mapped entity named %q", name),
		Suggestions: Suggest(name, known, 3),
		Help:        []string{"List entities: criteria inspect"},
		NoColor:     noColor,
	}
}

// UnknownAttribute describes a path segment that names no attribute
func UnknownAttribute(err error, onType, name string, attributes []string, noColor bool) Message {
	return Message{
		Level:       LevelError,
		Context:     "unknown attribute",
		Problem:     err.Error(),
		Suggestions: Suggest(name, attributes, 3),
		Help:        []string{"List attributes: criteria inspect " + onType},
		NoColor:     noColor,
	}
}

// IllegalDereference describes a path that continues past a basic attribute
func IllegalDereference(err error, noColor bool) Message {
	return Message{
		Level:   LevelError,
		Context: "illegal dereference",
		Problem: err.Error(),
		Detail:  "Basic attributes end a path; only embedded and association attributes can be navigated.",
		NoColor: noColor,
	}
}

// ConfigError describes an invalid or unreadable configuration
func ConfigError(err error, noColor bool) Message {
	return Message{
		Level:   LevelError,
		Context: "configuration error",
		Problem: err.Error(),
		Help: []string{
			"View config: cat criteria.yaml",
			"Get help: criteria --help",
		},
		NoColor: noColor,
	}
}

// Warning renders a warning line
func Warning(message string, noColor bool) Message {
	return Message{Level: LevelWarning, Problem: message, NoColor: noColor}
}
