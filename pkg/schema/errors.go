package schema

import (
	"fmt"
	"strings"
)

// Kind classifies a parse failure.
type Kind int

const (
	KindMissingArgument Kind = iota + 1
	KindInvalidValue
	KindUnexpectedArgument
	KindUnknownFlag
	KindInvalidFlag
	KindHelp
)

func (k Kind) String() string {
	switch k {
	case KindMissingArgument:
		return "missing_argument"
	case KindInvalidValue:
		return "invalid_value"
	case KindUnexpectedArgument:
		return "unexpected_argument"
	case KindUnknownFlag:
		return "unknown_flag"
	case KindInvalidFlag:
		return "invalid_flag"
	case KindHelp:
		return "help"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a failure to bind arguments to a Spec.
type Error struct {
	Kind    Kind
	Command string // command being parsed
	Arg     string // argument notation, e.g. "<msg>"
	Value   string // offending token, if any
	Err     error  // underlying conversion or flag error

	usage string
	line  string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingArgument:
		return fmt.Sprintf("%s: the following required arguments were not provided: %s", e.Command, e.Arg)
	case KindInvalidValue:
		return fmt.Sprintf("%s: invalid value '%s' for '%s': %v", e.Command, e.Value, e.Arg, e.Err)
	case KindUnexpectedArgument:
		return fmt.Sprintf("%s: unexpected argument '%s' found", e.Command, e.Value)
	case KindUnknownFlag:
		return fmt.Sprintf("%s: unexpected argument '%s' found", e.Command, e.Value)
	case KindInvalidFlag:
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	case KindHelp:
		return fmt.Sprintf("%s: help requested", e.Command)
	default:
		return fmt.Sprintf("%s: invalid arguments", e.Command)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Render formats the error for the console. Help requests render the full usage text.
func (e *Error) Render() string {
	if e.Kind == KindHelp {
		return e.usage
	}
	msg := e.Error()
	msg = strings.TrimPrefix(msg, e.Command+": ")

	var b strings.Builder
	b.WriteString("error: ")
	b.WriteString(msg)
	b.WriteString("\n\n")
	b.WriteString("Usage: ")
	b.WriteString(e.line)
	b.WriteString("\n\n")
	b.WriteString("For more information, try '--help'.")
	return b.String()
}
