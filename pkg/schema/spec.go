package schema

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// Spec binds the arguments of one invocation to destination fields.
type Spec struct {
	// Short is the one-line summary shown in command listings.
	Short string
	// Long is the description shown in the usage text. Short is used when empty.
	Long string

	name  string
	args  []*argument
	rest  *argument
	flags *pflag.FlagSet
}

type argument struct {
	name     string
	help     string
	required bool
	set      func(raw string) error
	setAll   func(raw []string) error
}

// New creates an empty spec for the named command.
func New(name string) *Spec {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return &Spec{name: name, flags: fs}
}

// Name returns the command name.
func (s *Spec) Name() string {
	return s.name
}

// Flags returns the flag set of the command.
func (s *Spec) Flags() *pflag.FlagSet {
	return s.flags
}

// ArgNames lists the positional arguments in their usage notation.
func (s *Spec) ArgNames() []string {
	names := make([]string, 0, len(s.args)+1)
	for _, a := range s.args {
		names = append(names, a.notation())
	}
	if s.rest != nil {
		names = append(names, s.rest.notation())
	}
	return names
}

// FlagNames lists the long names of the declared flags.
func (s *Spec) FlagNames() []string {
	var names []string
	s.flags.VisitAll(func(f *pflag.Flag) {
		names = append(names, "--"+f.Name)
	})
	return names
}

// Arg declares a required positional argument stored in dst.
func Arg[V Value](s *Spec, dst *V, name, help string) {
	s.args = append(s.args, &argument{
		name:     name,
		help:     help,
		required: true,
		set: func(raw string) error {
			v, err := convert[V](raw)
			if err != nil {
				return err
			}
			*dst = v
			return nil
		},
	})
}

// OptionalArg declares an optional positional argument. dst stays nil when the argument is absent.
func OptionalArg[V Value](s *Spec, dst **V, name, help string) {
	s.args = append(s.args, &argument{
		name: name,
		help: help,
		set: func(raw string) error {
			v, err := convert[V](raw)
			if err != nil {
				return err
			}
			*dst = &v
			return nil
		},
	})
}

// RestArgs collects every positional argument left after the declared ones.
func RestArgs[V Value](s *Spec, dst *[]V, name, help string) {
	s.rest = &argument{
		name: name,
		help: help,
		setAll: func(raw []string) error {
			out := make([]V, 0, len(raw))
			for _, r := range raw {
				v, err := convert[V](r)
				if err != nil {
					return &conversionError{value: r, err: err}
				}
				out = append(out, v)
			}
			*dst = out
			return nil
		},
	}
}

type conversionError struct {
	value string
	err   error
}

func (e *conversionError) Error() string { return e.err.Error() }
func (e *conversionError) Unwrap() error { return e.err }

func (a *argument) notation() string {
	switch {
	case a.setAll != nil:
		return "[" + a.name + "]..."
	case a.required:
		return "<" + a.name + ">"
	default:
		return "[" + a.name + "]"
	}
}

// Parse binds args to the declared destinations.
func (s *Spec) Parse(args []string) error {
	if err := s.flags.Parse(args); err != nil {
		return s.flagError(err)
	}

	positional := s.flags.Args()
	var missing []string
	i := 0
	for _, a := range s.args {
		if i >= len(positional) {
			if a.required {
				missing = append(missing, a.notation())
			}
			continue
		}
		if err := a.set(positional[i]); err != nil {
			return s.newError(KindInvalidValue, a.notation(), positional[i], err)
		}
		i++
	}
	if len(missing) > 0 {
		return s.newError(KindMissingArgument, strings.Join(missing, " "), "", nil)
	}

	if s.rest != nil {
		if err := s.rest.setAll(positional[i:]); err != nil {
			value := ""
			var ce *conversionError
			if errors.As(err, &ce) {
				value = ce.value
			}
			return s.newError(KindInvalidValue, s.rest.notation(), value, err)
		}
		return nil
	}
	if i < len(positional) {
		return s.newError(KindUnexpectedArgument, "", positional[i], nil)
	}
	return nil
}

func (s *Spec) flagError(err error) *Error {
	if errors.Is(err, pflag.ErrHelp) {
		return s.newError(KindHelp, "", "", err)
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "unknown flag") || strings.HasPrefix(msg, "unknown shorthand flag") {
		return s.newError(KindUnknownFlag, "", flagToken(msg), err)
	}
	return s.newError(KindInvalidFlag, "", "", err)
}

// flagToken extracts the offending flag from a pflag error such as "unknown flag: --x".
func flagToken(msg string) string {
	if idx := strings.LastIndex(msg, " -"); idx >= 0 {
		return strings.TrimSpace(msg[idx:])
	}
	return ""
}

func (s *Spec) newError(kind Kind, arg, value string, err error) *Error {
	return &Error{
		Kind:    kind,
		Command: s.name,
		Arg:     arg,
		Value:   value,
		Err:     err,
		usage:   s.Usage(),
		line:    s.UsageLine(),
	}
}

// Describe returns a short summary, falling back to the first line of Long.
func (s *Spec) Describe() string {
	if s.Short != "" {
		return s.Short
	}
	first, _, _ := strings.Cut(s.Long, "\n")
	return first
}

// String implements fmt.Stringer for debugging.
func (s *Spec) String() string {
	return fmt.Sprintf("schema.Spec(%s)", s.UsageLine())
}
