package envelope

import "testing"

func TestDecodeInboundCommand(t *testing.T) {
	raw := []byte(`{"command":{"device":"pupil","action":"send","payload":{"command":"recording_start"},"id":"q1"}}`)

	in, err := DecodeInbound(raw)
	if err != nil {
		t.Fatalf("DecodeInbound failed: %v", err)
	}
	if in.Tag != "command" || in.Command == nil {
		t.Fatalf("got tag %q, want command", in.Tag)
	}
	if in.Command.Device != "pupil" || in.Command.Action != ActionSend || in.Command.ID != "q1" {
		t.Errorf("command = %+v, unexpected fields", in.Command)
	}
}

func TestDecodeInboundQuery(t *testing.T) {
	raw := []byte(`{"query":{"target":"devices"}}`)

	in, err := DecodeInbound(raw)
	if err != nil {
		t.Fatalf("DecodeInbound failed: %v", err)
	}
	if in.Tag != "query" || in.Query == nil || in.Query.Target != TargetDevices {
		t.Errorf("query = %+v, unexpected fields", in.Query)
	}
}

func TestDecodeInboundSubscribeAndUnsubscribe(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantTag    string
		wantUnsub  bool
		wantDevice string
	}{
		{"subscribe wildcard", `{"subscribe":{"events":["samples"]}}`, "subscribe", false, ""},
		{"subscribe scoped", `{"subscribe":{"device":"d1","events":[]}}`, "subscribe", false, "d1"},
		{"unsubscribe", `{"unsubscribe":{"device":"d1","events":[]}}`, "unsubscribe", true, "d1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := DecodeInbound([]byte(tt.raw))
			if err != nil {
				t.Fatalf("DecodeInbound failed: %v", err)
			}
			if in.Tag != tt.wantTag || in.Unsubscribe != tt.wantUnsub {
				t.Errorf("got tag=%q unsub=%v, want tag=%q unsub=%v", in.Tag, in.Unsubscribe, tt.wantTag, tt.wantUnsub)
			}
			if in.Subscribe.Device != tt.wantDevice {
				t.Errorf("device = %q, want %q", in.Subscribe.Device, tt.wantDevice)
			}
		})
	}
}

func TestDecodeInboundRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `not json at all`},
		{"no tag", `{}`},
		{"two tags", `{"command":{"device":"d","action":"status"},"query":{"target":"devices"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeInbound([]byte(tt.raw)); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}
