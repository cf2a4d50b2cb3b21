// Package redis connects a console to Redis lists: Source pops input lines with BLPOP and Sink
// pushes rendered output lines as JSON with RPUSH.
package redis
