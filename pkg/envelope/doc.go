// Package envelope defines the tagged JSON wire format exchanged over the
// bridge's WebSocket surface: one discriminated union for inbound frames
// (command, query, subscribe, unsubscribe) and one for outbound frames
// (status, data, error, ack, event, query_result).
//
// The inbound union decodes through a small envelope type that holds each
// possible tag's body as a json.RawMessage, counts which tags are present,
// and re-parses the single present body into its concrete type. Outbound
// types are only encoded: each MarshalEnvelope wraps the response under
// its own tag key.
package envelope
