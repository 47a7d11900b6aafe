package envelope

import (
	"encoding/json"
	"fmt"
)

// Action is one of the recognized command actions.
type Action string

const (
	ActionConnect    Action = "connect"
	ActionDisconnect Action = "disconnect"
	ActionSend       Action = "send"
	ActionConfigure  Action = "configure"
	ActionStatus     Action = "status"
	ActionHeartbeat  Action = "heartbeat"
	ActionCustom     Action = "custom"
)

// QueryTarget is one of the recognized query targets.
type QueryTarget string

const (
	TargetDevices     QueryTarget = "devices"
	TargetDevice      QueryTarget = "device"
	TargetMetrics     QueryTarget = "metrics"
	TargetConnections QueryTarget = "connections"
	TargetStatus      QueryTarget = "status"
)

// Command is the `command` inbound tag: an operation targeted at one device.
type Command struct {
	Device  string          `json:"device"`
	Action  Action          `json:"action"`
	Custom  string          `json:"custom,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	ID      string          `json:"id,omitempty"`
}

// Query is the `query` inbound tag: a read-only request.
type Query struct {
	Target QueryTarget `json:"target"`
	Device string      `json:"device,omitempty"`
	ID     string      `json:"id,omitempty"`
}

// Subscribe is the `subscribe`/`unsubscribe` inbound tag.
type Subscribe struct {
	Device string   `json:"device,omitempty"`
	Events []string `json:"events"`
	ID     string   `json:"id,omitempty"`
}

// Inbound is the decoded form of any WebSocket text frame sent to the
// bridge. Exactly one of Command, Query, Subscribe is non-nil, selected by
// the Tag field.
type Inbound struct {
	Tag       string
	Command   *Command
	Query     *Query
	Subscribe *Subscribe
	// Unsubscribe reuses the Subscribe shape; true iff Tag == "unsubscribe".
	Unsubscribe bool
}

type taggedFrame struct {
	Command     json.RawMessage `json:"command"`
	Query       json.RawMessage `json:"query"`
	Subscribe   json.RawMessage `json:"subscribe"`
	Unsubscribe json.RawMessage `json:"unsubscribe"`
}

// DecodeInbound parses a raw WebSocket text frame into its tagged union
// member. A frame with zero or more than one recognized tag present is
// rejected.
func DecodeInbound(raw []byte) (*Inbound, error) {
	var tf taggedFrame
	if err := json.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("envelope: malformed frame: %w", err)
	}

	present := 0
	var in Inbound
	if tf.Command != nil {
		present++
		var c Command
		if err := json.Unmarshal(tf.Command, &c); err != nil {
			return nil, fmt.Errorf("envelope: malformed command: %w", err)
		}
		in.Tag = "command"
		in.Command = &c
	}
	if tf.Query != nil {
		present++
		var q Query
		if err := json.Unmarshal(tf.Query, &q); err != nil {
			return nil, fmt.Errorf("envelope: malformed query: %w", err)
		}
		in.Tag = "query"
		in.Query = &q
	}
	if tf.Subscribe != nil {
		present++
		var s Subscribe
		if err := json.Unmarshal(tf.Subscribe, &s); err != nil {
			return nil, fmt.Errorf("envelope: malformed subscribe: %w", err)
		}
		in.Tag = "subscribe"
		in.Subscribe = &s
	}
	if tf.Unsubscribe != nil {
		present++
		var s Subscribe
		if err := json.Unmarshal(tf.Unsubscribe, &s); err != nil {
			return nil, fmt.Errorf("envelope: malformed unsubscribe: %w", err)
		}
		in.Tag = "unsubscribe"
		in.Subscribe = &s
		in.Unsubscribe = true
	}

	if present != 1 {
		return nil, fmt.Errorf("envelope: frame must carry exactly one of command/query/subscribe/unsubscribe, got %d", present)
	}
	return &in, nil
}
