package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/headless"
	"github.com/aretw0/headless/internal/testutils"
	mcpadapter "github.com/aretw0/headless/pkg/adapters/mcp"
	"github.com/aretw0/headless/pkg/domain"
	"github.com/aretw0/headless/pkg/registry"
	"github.com/aretw0/headless/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SayCommand struct {
	Words []string
}

func (*SayCommand) Name() string { return "say" }

func (c *SayCommand) Define(s *schema.Spec) {
	s.Short = "Prints each word on its own line"
	schema.RestArgs(s, &c.Words, "words", "Words to print")
}

func newApp(t *testing.T, opts ...mcpadapter.Option) (*headless.App, *mcpadapter.Server) {
	t.Helper()
	app := headless.New()
	headless.AddCommand[SayCommand](app, func(ctx context.Context, cmd *headless.Command[SayCommand]) {
		for {
			c, ok := cmd.Take()
			if !ok {
				return
			}
			for _, w := range c.Value.Words {
				cmd.Reply(w)
			}
		}
	})
	srv := mcpadapter.NewServer(opts...)
	require.NoError(t, app.AddPlugin(srv))
	// The first tick runs startup and publishes the per-command tools.
	require.NoError(t, app.Tick(context.Background()))
	return app, srv
}

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

func (r toolResult) text() string {
	if len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

// rpc sends one JSON-RPC request straight to the protocol server and decodes its result into v.
func rpc(t *testing.T, srv *mcpadapter.Server, method string, params any, v any) {
	t.Helper()
	body, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)

	resp := srv.MCPServer().HandleMessage(context.Background(), body)
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	require.Nil(t, envelope.Error, "%s failed: %s", method, data)
	require.NoError(t, json.Unmarshal(envelope.Result, v))
}

// callTool runs a tool while ticking app until the call returns.
func callTool(t *testing.T, app *headless.App, srv *mcpadapter.Server, name string, args map[string]any) toolResult {
	t.Helper()
	done := make(chan toolResult, 1)
	go func() {
		var res toolResult
		rpc(t, srv, "tools/call", map[string]any{"name": name, "arguments": args}, &res)
		done <- res
	}()

	var res toolResult
	testutils.TickUntil(t, app, 2*time.Second, func() bool {
		select {
		case res = <-done:
			return true
		default:
			return false
		}
	})
	return res
}

func TestRunCommand(t *testing.T) {
	app, srv := newApp(t)

	res := callTool(t, app, srv, "run_command", map[string]any{"input": "say hello world"})
	assert.False(t, res.IsError)
	assert.Equal(t, "hello\nworld", res.text())
	assert.Equal(t, []string{"say hello world"}, app.History())
}

func TestRunCommand_Errors(t *testing.T) {
	tests := []struct {
		name  string
		args  map[string]any
		want  string
		limit int
	}{
		{name: "unknown command", args: map[string]any{"input": "bogus"}, want: "Command not recognized: `bogus`"},
		{name: "unknown flag", args: map[string]any{"input": "say --bogus"}, want: "bogus"},
		{name: "missing input", args: map[string]any{}, want: "input"},
		{name: "too long", args: map[string]any{"input": "say a b c d"}, want: "limit=4", limit: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []mcpadapter.Option
			if tt.limit > 0 {
				opts = append(opts, mcpadapter.WithMaxInputSize(tt.limit))
			}
			app, srv := newApp(t, opts...)

			res := callTool(t, app, srv, "run_command", tt.args)
			assert.True(t, res.IsError)
			if got := res.text(); !strings.Contains(got, tt.want) {
				t.Errorf("result = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestToolsList(t *testing.T) {
	_, srv := newApp(t)

	var res struct {
		Tools []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"tools"`
	}
	rpc(t, srv, "tools/list", map[string]any{}, &res)

	descriptions := make(map[string]string)
	for _, tool := range res.Tools {
		descriptions[tool.Name] = tool.Description
	}
	for _, name := range []string{"run_command", "list_commands", "command_usage", "exit", "help", "say"} {
		assert.Contains(t, descriptions, name)
	}
	assert.Contains(t, descriptions["say"], "Prints each word on its own line")
	assert.Contains(t, descriptions["say"], "Usage: say")
}

func TestCommandTools(t *testing.T) {
	app, srv := newApp(t)

	res := callTool(t, app, srv, "say", map[string]any{"args": "one two"})
	assert.Equal(t, "one\ntwo", res.text())

	res = callTool(t, app, srv, "help", nil)
	assert.Contains(t, res.text(), "say - Prints each word on its own line")
}

func TestConcurrentCallsGetTheirOwnOutput(t *testing.T) {
	app, srv := newApp(t)

	words := []string{"alpha", "beta", "gamma", "delta"}
	results := make(chan string, len(words))
	for _, w := range words {
		go func(w string) {
			var res toolResult
			rpc(t, srv, "tools/call", map[string]any{
				"name":      "run_command",
				"arguments": map[string]any{"input": fmt.Sprintf("say %s %s", w, w)},
			}, &res)
			results <- res.text()
		}(w)
	}

	var got []string
	testutils.TickUntil(t, app, 2*time.Second, func() bool {
		for {
			select {
			case r := <-results:
				got = append(got, r)
			default:
				return len(got) == len(words)
			}
		}
	})
	for _, w := range words {
		assert.Contains(t, got, w+"\n"+w)
	}
}

func TestListAndUsageTools(t *testing.T) {
	app, srv := newApp(t)

	res := callTool(t, app, srv, "list_commands", nil)
	var cmds []registry.Descriptor
	require.NoError(t, json.Unmarshal([]byte(res.text()), &cmds))
	assert.Len(t, cmds, 3)

	res = callTool(t, app, srv, "command_usage", map[string]any{"name": "say"})
	assert.False(t, res.IsError)
	assert.Contains(t, res.text(), "Usage: say")

	res = callTool(t, app, srv, "command_usage", map[string]any{"name": "nope"})
	assert.True(t, res.IsError)
}

func TestRun_Timeout(t *testing.T) {
	_, srv := newApp(t, mcpadapter.WithTimeout(20*time.Millisecond))

	// Nothing ticks the app, so the line is never accepted.
	_, err := srv.Run(context.Background(), "say late")
	assert.ErrorIs(t, err, mcpadapter.ErrCallTimeout)
}

func TestRun_Closed(t *testing.T) {
	_, srv := newApp(t)
	srv.Close()
	srv.Close()

	_, err := srv.Run(context.Background(), "say hi")
	assert.ErrorIs(t, err, domain.ErrSourceClosed)
}

func TestRun_Full(t *testing.T) {
	_, srv := newApp(t, mcpadapter.WithBufferSize(1), mcpadapter.WithTimeout(10*time.Millisecond))

	// The first line stays buffered because nothing ticks the app.
	_, err := srv.Run(context.Background(), "say first")
	require.ErrorIs(t, err, mcpadapter.ErrCallTimeout)

	_, err = srv.Run(context.Background(), "say second")
	assert.ErrorIs(t, err, domain.ErrSourceFull)
}

func TestRun_ContextCanceled(t *testing.T) {
	_, srv := newApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := srv.Run(ctx, "say hi")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResources(t *testing.T) {
	app, srv := newApp(t)
	callTool(t, app, srv, "run_command", map[string]any{"input": "say hi"})

	tests := []struct {
		uri  string
		want string
	}{
		{uri: "headless://commands", want: `"name":"say"`},
		{uri: "headless://history", want: `["say hi"]`},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			var res struct {
				Contents []struct {
					URI      string `json:"uri"`
					MIMEType string `json:"mimeType"`
					Text     string `json:"text"`
				} `json:"contents"`
			}
			rpc(t, srv, "resources/read", map[string]any{"uri": tt.uri}, &res)
			require.Len(t, res.Contents, 1)
			assert.Equal(t, "application/json", res.Contents[0].MIMEType)
			if !strings.Contains(res.Contents[0].Text, tt.want) {
				t.Errorf("%s = %s, want it to contain %s", tt.uri, res.Contents[0].Text, tt.want)
			}
		})
	}
}

const initialize = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`

func TestHandler_Initialize(t *testing.T) {
	_, srv := newApp(t)

	req := httptest.NewRequest("POST", "/mcp", strings.NewReader(initialize))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "headless-mcp")
}

func TestServeStdio(t *testing.T) {
	_, srv := newApp(t)

	out := &testutils.SafeBuffer{}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() { _ = srv.ServeStdio(ctx, strings.NewReader(initialize+"\n"), out) }()
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "headless-mcp")
	}, 2*time.Second, 10*time.Millisecond)
}
