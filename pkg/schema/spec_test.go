package schema_test

import (
	"errors"
	"testing"

	"github.com/aretw0/headless/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logArgs struct {
	Msg   string
	Num   *int
	Shout bool
}

func (c *logArgs) define(s *schema.Spec) {
	s.Short = "Prints given arguments to the console"
	schema.Arg(s, &c.Msg, "msg", "Message to print")
	schema.OptionalArg(s, &c.Num, "num", "Number of times to print message")
	s.Flags().BoolVarP(&c.Shout, "shout", "s", false, "Print in upper case")
}

func parseLog(t *testing.T, args ...string) (*logArgs, error) {
	t.Helper()
	var c logArgs
	s := schema.New("log")
	c.define(s)
	return &c, s.Parse(args)
}

func TestParse_PositionalAndOptional(t *testing.T) {
	c, err := parseLog(t, "hello", "3")
	require.NoError(t, err)
	assert.Equal(t, "hello", c.Msg)
	require.NotNil(t, c.Num)
	assert.Equal(t, 3, *c.Num)

	c, err = parseLog(t, "hello")
	require.NoError(t, err)
	assert.Nil(t, c.Num, "absent optional argument stays nil")
}

func TestParse_Flags(t *testing.T) {
	c, err := parseLog(t, "--shout", "hi")
	require.NoError(t, err)
	assert.True(t, c.Shout)
	assert.Equal(t, "hi", c.Msg)

	c, err = parseLog(t, "hi", "-s")
	require.NoError(t, err)
	assert.True(t, c.Shout, "flags may follow positionals")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		kind schema.Kind
	}{
		{"missing", nil, schema.KindMissingArgument},
		{"invalid int", []string{"hi", "many"}, schema.KindInvalidValue},
		{"extra", []string{"hi", "1", "2"}, schema.KindUnexpectedArgument},
		{"unknown long flag", []string{"--loud", "hi"}, schema.KindUnknownFlag},
		{"unknown short flag", []string{"-x", "hi"}, schema.KindUnknownFlag},
		{"bad flag value", []string{"--shout=maybe", "hi"}, schema.KindInvalidFlag},
		{"help long", []string{"--help"}, schema.KindHelp},
		{"help short", []string{"-h"}, schema.KindHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLog(t, tt.args...)
			var perr *schema.Error
			require.True(t, errors.As(err, &perr), "expected *schema.Error, got %v", err)
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Equal(t, "log", perr.Command)
		})
	}
}

func TestError_RenderMissingArgument(t *testing.T) {
	_, err := parseLog(t)
	var perr *schema.Error
	require.ErrorAs(t, err, &perr)

	rendered := perr.Render()
	assert.Contains(t, rendered, "error: the following required arguments were not provided: <msg>")
	assert.Contains(t, rendered, "Usage: log [OPTIONS] <msg> [num]")
	assert.Contains(t, rendered, "--help")
}

func TestError_RenderHelpIsUsage(t *testing.T) {
	_, err := parseLog(t, "--help")
	var perr *schema.Error
	require.ErrorAs(t, err, &perr)

	rendered := perr.Render()
	assert.NotContains(t, rendered, "error:")
	assert.Contains(t, rendered, "Prints given arguments to the console")
	assert.Contains(t, rendered, "<msg>")
	assert.Contains(t, rendered, "Message to print")
	assert.Contains(t, rendered, "--shout")
}

func TestRestArgs(t *testing.T) {
	var words []string
	var count int
	s := schema.New("echo")
	schema.Arg(s, &count, "count", "")
	schema.RestArgs(s, &words, "words", "Words to echo")

	require.NoError(t, s.Parse([]string{"2", "a", "b", "c"}))
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"a", "b", "c"}, words)
	assert.Equal(t, "echo <count> [words]...", s.UsageLine())

	var nums []int
	n := schema.New("sum")
	schema.RestArgs(n, &nums, "n", "")
	err := n.Parse([]string{"1", "x"})
	var perr *schema.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, schema.KindInvalidValue, perr.Kind)
	assert.Equal(t, "x", perr.Value)
}

func TestConversions(t *testing.T) {
	var (
		f  float64
		b  bool
		i6 int64
		u  uint
	)
	s := schema.New("conv")
	schema.Arg(s, &f, "f", "")
	schema.Arg(s, &b, "b", "")
	schema.Arg(s, &i6, "i", "")
	schema.Arg(s, &u, "u", "")

	require.NoError(t, s.Parse([]string{"--", "1.5", "true", "-7", "9"}))
	assert.Equal(t, 1.5, f)
	assert.True(t, b)
	assert.Equal(t, int64(-7), i6)
	assert.Equal(t, uint(9), u)

	err := schema.New("conv").Parse([]string{"unexpected"})
	var perr *schema.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, schema.KindUnexpectedArgument, perr.Kind)
}

func TestIntegersAreDecimal(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"010", 10},
		{"08", 8},
		{"+3", 3},
		{"-12", -12},
	}
	for _, tt := range tests {
		c, err := parseLog(t, "--", "hello", tt.raw)
		if err != nil {
			t.Errorf("parse %q: unexpected error %v", tt.raw, err)
			continue
		}
		if c.Num == nil || *c.Num != tt.want {
			t.Errorf("parse %q: got %v, want %d", tt.raw, c.Num, tt.want)
		}
	}

	for _, raw := range []string{"0x10", "0b1", "1_000", "1.5", " 1"} {
		_, err := parseLog(t, "hello", raw)
		var perr *schema.Error
		if !errors.As(err, &perr) || perr.Kind != schema.KindInvalidValue {
			t.Errorf("parse %q: got %v, want invalid value", raw, err)
		}
	}

	var u uint
	s := schema.New("count")
	schema.Arg(s, &u, "n", "")
	require.NoError(t, s.Parse([]string{"007"}))
	assert.Equal(t, uint(7), u)
	assert.Error(t, schema.New("count").Parse([]string{"1"}), "a spec without arguments rejects extras")
}

func TestSpec_Metadata(t *testing.T) {
	var c logArgs
	s := schema.New("log")
	c.define(s)

	assert.Equal(t, "log", s.Name())
	assert.Equal(t, []string{"<msg>", "[num]"}, s.ArgNames())
	assert.Equal(t, []string{"--shout"}, s.FlagNames())
	assert.Equal(t, "Prints given arguments to the console", s.Describe())

	s.Short = ""
	s.Long = "First line\nSecond line"
	assert.Equal(t, "First line", s.Describe())
}
