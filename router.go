package headless

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/headless/pkg/domain"
	"github.com/google/shlex"
)

// Tokenize splits a line the way a POSIX shell would. An unterminated quote ends tokenization:
// the tokens before it are kept and the broken one is dropped.
func Tokenize(line string) []string {
	lexer := shlex.NewLexer(strings.NewReader(line))
	var tokens []string
	for {
		tok, err := lexer.Next()
		if err != nil {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func (a *App) drainSources(ctx context.Context) error {
	open := a.sources[:0]
	for _, src := range a.sources {
		if a.drain(src) {
			open = append(open, src)
		}
	}
	clear(a.sources[len(open):])
	a.sources = open
	return nil
}

// drain moves every line that is ready into the raw queue and reports whether src is still open.
func (a *App) drain(src LineSource) bool {
	seqSrc, _ := src.(SequencedSource)
	lines := src.Lines()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				a.logger.Debug("line source closed")
				return false
			}
			a.seq++
			a.raw.Send(domain.RawLine{Text: line, Seq: a.seq})
			if seqSrc != nil {
				seqSrc.Accepted(a.seq)
			}
			a.metrics.LineReceived()
		default:
			return true
		}
	}
}

func (a *App) routeRawCommands(ctx context.Context) error {
	for _, raw := range a.rawReader.Read() {
		args := Tokenize(raw.Text)
		if len(args) == 0 {
			continue
		}
		a.history.Add(raw.Text)

		name := args[0]
		if !a.registry.Contains(name) {
			a.metrics.UnknownCommand()
			a.Print(domain.OutputLine{
				Text:   fmt.Sprintf("Command not recognized: `%s`", name),
				Style:  domain.StyleError,
				Origin: raw.Seq,
			})
			continue
		}

		a.entered.Send(domain.CommandEntered{Name: name, Args: args[1:], Seq: raw.Seq})
		a.metrics.CommandEntered(name)
	}
	return nil
}
