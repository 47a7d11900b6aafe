// Package perfacct accounts for per-device I/O performance: rolling byte
// and error counters plus a p50/p95/p99 latency summary over a bounded
// sliding window, fed by a callback each driver invokes after every I/O
// completion.
package perfacct
