/*
Package domain contains the message types that flow through the console pipeline.

A line travels as a RawLine from a line source to the router, becomes a CommandEntered when its
first token names a registered command, and anything a command (or the router) wants the user to see
is an OutputLine. Every message carries the sequence number of the line that caused it, so sinks can
keep replies next to the input they answer.

This package has no dependencies outside the standard library.
*/
package domain
