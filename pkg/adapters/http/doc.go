/*
Package http exposes a console over HTTP.

Lines are submitted with POST /lines or as text frames on the /ws WebSocket; output lines are
streamed as JSON to every WebSocket client and to Server-Sent Events subscribers of /events.
The registry and the entered-line history can be queried with GET /commands and GET /history.
*/
package http
