package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/headless/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPiped(t *testing.T, input string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out testutils.SafeBuffer
	err := RunTerminal(ctx, RunOptions{
		Stdin:  strings.NewReader(input),
		Stdout: &out,
	})
	require.NoError(t, err)
	require.NoError(t, ctx.Err(), "console should stop on its own once input is exhausted")
	return out.String()
}

func TestRunTerminal_Piped(t *testing.T) {
	out := runPiped(t, "log hi 2\necho -u a b\nbogus\n")

	assert.Equal(t, "hi\nhi\n[ok]\nA B\nCommand not recognized: `bogus`\n", out)
}

func TestRunTerminal_ParseError(t *testing.T) {
	out := runPiped(t, "log\n")

	assert.Contains(t, out, "error: the following required arguments were not provided")
	assert.Contains(t, out, "Usage: log <msg> [num]")
}

func TestRunTerminal_ExitCommand(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The reader never reaches EOF, so only exit can stop the console.
	pr, pw := io.Pipe()
	defer pw.Close()
	go io.WriteString(pw, "echo bye\nexit\n")

	var out testutils.SafeBuffer
	require.NoError(t, RunTerminal(ctx, RunOptions{Stdin: pr, Stdout: &out}))
	require.NoError(t, ctx.Err())
	assert.Equal(t, "bye\n", out.String())
}

func TestRunTerminal_History(t *testing.T) {
	out := runPiped(t, "echo one\nhistory\n")
	assert.Equal(t, "one\n  1  echo one\n  2  history\n", out)
}

func TestRunTerminal_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headless.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_input_size: 8\n"), 0o644))

	var out testutils.SafeBuffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := RunTerminal(ctx, RunOptions{
		ConfigPath: path,
		Stdin:      strings.NewReader("echo this line is too long\necho ok\n"),
		Stdout:     &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Error: input exceeds maximum allowed size")
	assert.Contains(t, out.String(), "ok\n")
}

func TestRunTerminal_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headless.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nope: true\n"), 0o644))

	err := RunTerminal(context.Background(), RunOptions{ConfigPath: path, Stdin: strings.NewReader("")})
	assert.ErrorContains(t, err, "error loading config")
}

func TestListCommands(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, ListCommands(RunOptions{Stdout: &out}, ""))

	var names []string
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		names = append(names, strings.Fields(line)[0])
	}
	assert.Equal(t, []string{"about", "echo", "exit", "help", "history", "log"}, names)

	out.Reset()
	require.NoError(t, ListCommands(RunOptions{Stdout: &out}, "log"))
	assert.Contains(t, out.String(), "Usage: log <msg> [num]")

	assert.Error(t, ListCommands(RunOptions{Stdout: &out}, "bogus"))
}

func TestServe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ServeOptions{
			RunOptions: RunOptions{Stdout: io.Discard},
			Addr:       "127.0.0.1:0",
			Ready:      func(addr string) { ready <- addr },
		})
	}()

	var base string
	select {
	case addr := <-ready:
		base = "http://" + addr
	case err := <-done:
		t.Fatalf("serve returned early: %v", err)
	}

	resp, err := http.Get(base + "/commands/log")
	require.NoError(t, err)
	resp.Body.Close()
	// Commands register in the first cycle.
	if resp.StatusCode == http.StatusNotFound {
		require.Eventually(t, func() bool {
			resp, err := http.Get(base + "/commands/log")
			if err != nil {
				return false
			}
			resp.Body.Close()
			return resp.StatusCode == http.StatusOK
		}, 2*time.Second, 20*time.Millisecond)
	}

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "headless_registered_commands 6")
	assert.Contains(t, string(body), "go_goroutines")

	req, err := http.NewRequest("POST", base+"/mcp", strings.NewReader(mcpInitialize))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "headless-mcp")

	resp, err = http.Post(base+"/lines", "text/plain", strings.NewReader("exit\n"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("serve did not stop after exit")
	}
}

func TestServe_RedisUnreachable(t *testing.T) {
	t.Setenv("HEADLESS_REDIS_ADDR", "127.0.0.1:1")
	err := Serve(context.Background(), ServeOptions{
		RunOptions: RunOptions{Stdout: io.Discard},
		Addr:       "127.0.0.1:0",
	})
	assert.ErrorContains(t, err, "failed to connect to redis")
}

const mcpInitialize = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`

func TestServeMCP(t *testing.T) {
	in, client := io.Pipe()
	defer client.Close()
	out := &testutils.SafeBuffer{}

	done := make(chan error, 1)
	go func() {
		done <- ServeMCP(context.Background(), RunOptions{Stdin: in, Stdout: out})
	}()

	send := func(msg string) {
		_, err := io.WriteString(client, msg+"\n")
		require.NoError(t, err)
	}
	send(mcpInitialize)
	send(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	send(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"run_command","arguments":{"input":"echo -u hi there"}}}`)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "HI THERE")
	}, 5*time.Second, 20*time.Millisecond)
	assert.NotContains(t, out.String(), ">>>")

	send(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"exit","arguments":{}}}`)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("mcp console did not stop after exit")
	}
}
