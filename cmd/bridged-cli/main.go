// Command bridged-cli is an interactive console for exercising a running
// bridged daemon's WebSocket command surface by hand during bring-up and
// debugging.
//
// Usage:
//
//	bridged-cli [flags]
//
// Flags:
//
//	-addr string   WebSocket URL of the running bridge (default "ws://localhost:8420/")
//
// Example:
//
//	bridged-cli -addr ws://localhost:8420/
package main

import (
	"flag"
	"fmt"
	"os"
)

var addr string

func init() {
	flag.StringVar(&addr, "addr", "ws://localhost:8420/", "WebSocket URL of the running bridge")
}

func main() {
	flag.Parse()

	c, err := dial(addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer c.close()

	console := newConsole(c)
	go c.listen(console.onFrame)
	console.run()
}
