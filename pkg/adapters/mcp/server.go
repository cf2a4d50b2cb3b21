package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/headless"
	"github.com/aretw0/headless/pkg/domain"
	"github.com/aretw0/headless/pkg/events"
	"github.com/aretw0/headless/pkg/registry"
	"github.com/aretw0/headless/pkg/terminal"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefaultCallTimeout bounds how long a tool call waits for the pipeline.
const DefaultCallTimeout = 5 * time.Second

const (
	commandsURI = "headless://commands"
	historyURI  = "headless://history"
)

// ErrCallTimeout is returned when the pipeline does not answer a call in time.
var ErrCallTimeout = errors.New("timed out waiting for command output")

// fixedTools are never shadowed by a command of the same name.
var fixedTools = map[string]bool{
	"run_command":   true,
	"list_commands": true,
	"command_usage": true,
}

type call struct {
	lines []domain.OutputLine
	done  chan []domain.OutputLine
}

// Server is a line source whose lines come from MCP tool calls.
type Server struct {
	mcpServer *server.MCPServer
	logger    *slog.Logger
	timeout   time.Duration
	maxInput  int
	bufSize   int

	app      *headless.App
	registry *registry.Registry
	out      *events.Reader[domain.OutputLine]

	mu       sync.Mutex
	lines    chan string
	closed   bool
	queued   []*call
	inflight map[uint64]*call
	tools    map[string]bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger configures the structured logger. Defaults to the app logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTimeout sets how long a tool call waits for output.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxInputSize sets the longest accepted line. Defaults to terminal.MaxInputSize.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxInput = n
		}
	}
}

// WithBufferSize sets how many calls may wait for the next Input phase.
func WithBufferSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.bufSize = n
		}
	}
}

// NewServer creates a server. It becomes usable once attached with App.AddPlugin.
func NewServer(opts ...Option) *Server {
	s := &Server{
		timeout:  DefaultCallTimeout,
		bufSize:  headless.DefaultInputBufferSize,
		inflight: make(map[uint64]*call),
		tools:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lines = make(chan string, s.bufSize)
	s.mcpServer = server.NewMCPServer("headless-mcp", strings.TrimSpace(headless.Version),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// Build attaches the server to app.
func (s *Server) Build(app *headless.App) error {
	if s.logger == nil {
		s.logger = app.Logger()
	}
	s.app = app
	s.registry = app.Registry()
	s.out = app.OutputReader()

	app.AddLineSource(s)
	return app.AddSystem(domain.PhasePostCommands, "mcp_collect", s.collect)
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Handler serves the protocol over streamable HTTP.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer)
}

// ServeStdio serves the protocol on in and out until ctx is done or in is exhausted.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}

// Lines implements headless.LineSource.
func (s *Server) Lines() <-chan string {
	return s.lines
}

// Accepted implements headless.SequencedSource. Lines are accepted in push order.
func (s *Server) Accepted(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queued) == 0 {
		return
	}
	c := s.queued[0]
	s.queued = s.queued[1:]
	s.inflight[seq] = c
}

// Close stops accepting calls. Calls already queued still run.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.lines)
	}
}

// Run enters line and returns the output it caused.
func (s *Server) Run(ctx context.Context, line string) ([]domain.OutputLine, error) {
	c := &call{done: make(chan []domain.OutputLine, 1)}
	if err := s.push(line, c); err != nil {
		return nil, err
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case lines := <-c.done:
		return lines, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrCallTimeout
	}
}

func (s *Server) push(line string, c *call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSourceClosed
	}
	select {
	case s.lines <- line:
		s.queued = append(s.queued, c)
		return nil
	default:
		return domain.ErrSourceFull
	}
}

// collect hands finished calls their output. A call is finished once no command has
// invocations queued, since then every handler that will see its line has run.
func (s *Server) collect(ctx context.Context) error {
	lines := s.out.Read()
	s.syncCommandTools()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lines {
		if c, ok := s.inflight[l.Origin]; ok {
			c.lines = append(c.lines, l)
		}
	}
	if s.app.Pending() {
		return nil
	}
	for seq, c := range s.inflight {
		c.done <- c.lines
		delete(s.inflight, seq)
	}
	return nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("run_command",
		mcp.WithDescription("Run one console line, e.g. 'log hello 3', and return its output."),
		mcp.WithString("input", mcp.Required(), mcp.Description("The command line to run")),
	), s.handleRunCommand)

	s.mcpServer.AddTool(mcp.NewTool("list_commands",
		mcp.WithDescription("List the registered console commands with their summaries."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(s.registry.List())
		if err != nil {
			return nil, fmt.Errorf("encode commands: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("command_usage",
		mcp.WithDescription("Show the usage text of one console command."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Command name")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		usage, err := s.registry.Usage(name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Command not recognized: `%s`", name)), nil
		}
		return mcp.NewToolResultText(usage), nil
	})
}

// syncCommandTools adds a tool for every command registered since the last call.
func (s *Server) syncCommandTools() {
	if s.registry.Len() == len(s.tools) {
		return
	}
	for _, d := range s.registry.List() {
		if s.tools[d.Name] {
			continue
		}
		s.tools[d.Name] = true
		if fixedTools[d.Name] {
			s.logger.Warn("mcp tool name taken, command only reachable through run_command", "command", d.Name)
			continue
		}
		s.mcpServer.AddTool(mcp.NewTool(d.Name,
			mcp.WithDescription(d.Summary+"\n\n"+d.Usage),
			mcp.WithString("args", mcp.Description("Arguments and flags, as typed after the command name")),
		), s.commandHandler(d.Name))
	}
}

func (s *Server) commandHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		line := name
		if args := strings.TrimSpace(request.GetString("args", "")); args != "" {
			line += " " + args
		}
		return s.runLine(ctx, line), nil
	}
}

func (s *Server) handleRunCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.runLine(ctx, input), nil
}

func (s *Server) runLine(ctx context.Context, input string) *mcp.CallToolResult {
	clean, err := terminal.Sanitize(strings.TrimSpace(input), s.maxInput)
	if err != nil {
		s.logger.Warn("mcp input rejected", "err", err, "size", len(input))
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v. Please try again.", err))
	}

	lines, err := s.Run(ctx, clean)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}

	texts := make([]string, 0, len(lines))
	failed := false
	for _, l := range headless.Ordered(lines) {
		texts = append(texts, l.Text)
		failed = failed || l.Style == domain.StyleError || l.Style == domain.StyleFailed
	}
	text := strings.Join(texts, "\n")
	if failed {
		return mcp.NewToolResultError(text)
	}
	return mcp.NewToolResultText(text)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(commandsURI, "Registered Commands",
		mcp.WithResourceDescription("Every console command with its summary and usage"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(commandsURI, s.registry.List())
	})

	s.mcpServer.AddResource(mcp.NewResource(historyURI, "Input History",
		mcp.WithResourceDescription("The most recently entered lines, oldest first"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		history := s.app.History()
		if history == nil {
			history = []string{}
		}
		return jsonResource(historyURI, history)
	})
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
