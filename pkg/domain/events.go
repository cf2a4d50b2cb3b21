package domain

import (
	"fmt"
	"strings"
)

// Phase names a stage of a pipeline cycle.
type Phase string

const (
	PhaseInput        Phase = "input"
	PhaseCommands     Phase = "commands"
	PhasePostCommands Phase = "post_commands"
)

// Phases lists the console phases in execution order.
var Phases = []Phase{PhaseInput, PhaseCommands, PhasePostCommands}

// RawLine is one complete line received from a line source.
type RawLine struct {
	Text string `json:"text"`
	Seq  uint64 `json:"seq"`
}

// CommandEntered is a routed line whose first token matched a registered command.
type CommandEntered struct {
	Name string   `json:"name"`
	Args []string `json:"args"`
	Seq  uint64   `json:"seq"`
}

// Style tells a sink how an output line should be presented.
type Style int

const (
	StylePlain Style = iota
	StyleOK
	StyleFailed
	StyleError
	StyleMarkdown
)

var styleNames = map[Style]string{
	StylePlain:    "plain",
	StyleOK:       "ok",
	StyleFailed:   "failed",
	StyleError:    "error",
	StyleMarkdown: "markdown",
}

func (s Style) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return fmt.Sprintf("style(%d)", int(s))
}

// MarshalText encodes the style by name.
func (s Style) MarshalText() ([]byte, error) {
	name, ok := styleNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown style %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a style name.
func (s *Style) UnmarshalText(text []byte) error {
	want := strings.ToLower(string(text))
	for style, name := range styleNames {
		if name == want {
			*s = style
			return nil
		}
	}
	return fmt.Errorf("unknown style %q", text)
}

// OutputLine is one line of text to be shown to the user.
// Origin is the Seq of the RawLine that caused it; zero means it is not tied to any input.
type OutputLine struct {
	Text   string `json:"text"`
	Style  Style  `json:"style"`
	Origin uint64 `json:"origin,omitempty"`
}

// NewOutputLine creates a plain line not tied to any input.
func NewOutputLine(text string) OutputLine {
	return OutputLine{Text: text}
}
