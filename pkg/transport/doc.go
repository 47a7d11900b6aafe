// Package transport provides length-prefixed message framing over a raw
// byte stream, used by the sample bus driver to exchange sample frames
// with peers on the local network.
//
// # Frame format
//
//	┌────────────────────────────────┐
//	│      Sample Payload            │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP / UDP            │
//	└────────────────────────────────┘
//
// The control channel (command dispatch, subscriptions) runs over
// gorilla/websocket instead and does not use this framing.
package transport
