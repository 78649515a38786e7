/*
Package relay contains the real-time fan-out core: the connection registry,
the per-room unflushed message buffers, and the client read/write pumps.

This file defines the wire formats exchanged over the WebSocket channel and
the text sanitizer applied before buffering and broadcast.
*/
package relay

import "strings"

// InboundMessage is the client-to-server chat event. The username is never
// taken from the client; it comes from the connection's authenticated identity.
type InboundMessage struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

// OutboundMessage is the server-to-client broadcast event.
type OutboundMessage struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// angleEscaper escapes the two characters that open HTML tags. The stored and
// broadcast form of "<script>" is "&lt;script&gt;".
var angleEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// Sanitize HTML-escapes message text before it is buffered, persisted, or broadcast.
func Sanitize(text string) string {
	return angleEscaper.Replace(text)
}
