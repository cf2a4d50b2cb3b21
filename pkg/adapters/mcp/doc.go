// Package mcp exposes a console as a Model Context Protocol server.
//
// Every registered command becomes a tool taking one "args" string, and the generic run_command
// tool accepts a whole line. A tool call pushes the line into the pipeline and returns the output
// lines caused by it, matched by Origin. The registry and the history are also served as resources.
package mcp
