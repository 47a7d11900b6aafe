// Package dispatcher is the WebSocket command surface: it upgrades an
// incoming HTTP connection, decodes the tagged JSON envelope from each
// text frame, and routes commands to the device registry, queries to a
// read-only snapshot path, and subscribe/unsubscribe to the fan-out
// manager.
//
// Each session runs one read-pump goroutine and one write-pump goroutine
// over a buffered outbound channel, in the shape of a classic WebSocket
// device manager: the read pump decodes frames and hands commands off to
// their own goroutine so a slow operation on one device never blocks
// frames for another, while the write pump owns the connection's write
// side exclusively and interleaves a ping keepalive with outbound
// responses and fanned-out events. Client disconnection cancels every
// command still in flight for that session and drops its subscriptions.
package dispatcher
