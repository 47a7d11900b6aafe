// Package tcp implements the streaming TCP device driver: a single TCP
// connection maintained by an internal read loop, with exponential
// backoff reconnection bounded by a configurable attempt budget, built
// on pkg/connection's Manager.
package tcp
