package envelope

import (
	"encoding/json"
	"testing"
)

func TestOutboundMarshalingRoundTrips(t *testing.T) {
	tests := []struct {
		name string
		out  Outbound
		key  string
	}{
		{"status", StatusResponse{Device: "d1", Status: "connected", TsMs: 1}, "status"},
		{"data", DataResponse{Device: "d1", Payload: map[string]any{"recording_id": "r-1"}, TsMs: 1}, "data"},
		{"error", ErrorResponse{Device: "d1", Message: "boom", Code: "unknown_device", TsMs: 1}, "error"},
		{"ack", AckResponse{ID: "q1", Success: true, TsMs: 1}, "ack"},
		{"event", EventResponse{Device: "d1", Event: EventSamplesDropped, Payload: map[string]any{"count": 3}, TsMs: 1}, "event"},
		{"query_result", QueryResultResponse{ID: "q2", Data: []string{"d1"}, TsMs: 1}, "query_result"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.out.MarshalEnvelope()
			if err != nil {
				t.Fatalf("MarshalEnvelope failed: %v", err)
			}
			var m map[string]json.RawMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				t.Fatalf("re-decode failed: %v", err)
			}
			if _, ok := m[tt.key]; !ok {
				t.Errorf("wire object missing top-level key %q: %s", tt.key, raw)
			}
		})
	}
}
