// Package serial implements the hard-real-time pulse-generator
// device.Driver over a USB-CDC serial port: a fixed command byte sequence
// written and flushed on every pulse, with the write+flush interval
// measured against a sub-millisecond latency budget on every call.
package serial
