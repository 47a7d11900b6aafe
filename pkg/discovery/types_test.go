package discovery

import "testing"

func TestStreamInfoValidate(t *testing.T) {
	cases := []struct {
		name    string
		info    StreamInfo
		wantErr bool
	}{
		{"valid", StreamInfo{StreamID: "s1", Host: "bridge.local", SampleRateHz: 1000}, false},
		{"missing stream id", StreamInfo{Host: "bridge.local", SampleRateHz: 1000}, true},
		{"missing host", StreamInfo{StreamID: "s1", SampleRateHz: 1000}, true},
		{"missing sample rate", StreamInfo{StreamID: "s1", Host: "bridge.local"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.info.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestInstanceNameTruncates(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "a"
	}
	name := InstanceName(long)
	if len(name) > MaxInstanceNameLen {
		t.Errorf("InstanceName produced length %d, want <= %d", len(name), MaxInstanceNameLen)
	}
}
