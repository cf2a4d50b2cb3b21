package schema

import (
	"strings"
	"text/tabwriter"
)

// UsageLine renders the synopsis, e.g. "log [OPTIONS] <msg> [num]".
func (s *Spec) UsageLine() string {
	parts := []string{s.name}
	if s.flags.HasFlags() {
		parts = append(parts, "[OPTIONS]")
	}
	parts = append(parts, s.ArgNames()...)
	return strings.Join(parts, " ")
}

// Usage renders the full help text of the command.
func (s *Spec) Usage() string {
	var b strings.Builder
	if desc := s.Long; desc != "" {
		b.WriteString(strings.TrimSpace(desc))
		b.WriteString("\n\n")
	} else if s.Short != "" {
		b.WriteString(s.Short)
		b.WriteString("\n\n")
	}

	b.WriteString("Usage: ")
	b.WriteString(s.UsageLine())
	b.WriteString("\n")

	all := append([]*argument(nil), s.args...)
	if s.rest != nil {
		all = append(all, s.rest)
	}
	if len(all) > 0 {
		b.WriteString("\nArguments:\n")
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		for _, a := range all {
			tw.Write([]byte("  " + a.notation() + "\t" + a.help + "\n"))
		}
		tw.Flush()
	}

	b.WriteString("\nOptions:\n")
	if s.flags.HasFlags() {
		b.WriteString(s.flags.FlagUsages())
	}
	b.WriteString("  -h, --help   Print help")
	return b.String()
}
