package bus

import "testing"

func TestEncodeDecodeNumericFormats(t *testing.T) {
	tests := []struct {
		format Format
		values []float64
	}{
		{FormatF32, []float64{1.5, -2.25, 0}},
		{FormatF64, []float64{3.14159, -1, 42}},
		{FormatI32, []float64{1, -1, 2147483647}},
		{FormatI16, []float64{1, -1, 32767}},
		{FormatI8, []float64{1, -1, 127}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			raw, err := EncodeSample(tt.format, tt.values, "")
			if err != nil {
				t.Fatalf("EncodeSample failed: %v", err)
			}
			decoded, _, err := DecodeSample(tt.format, raw)
			if err != nil {
				t.Fatalf("DecodeSample failed: %v", err)
			}
			if len(decoded) != len(tt.values) {
				t.Fatalf("decoded length = %d, want %d", len(decoded), len(tt.values))
			}
			for i := range tt.values {
				if decoded[i] != tt.values[i] {
					t.Errorf("value[%d] = %v, want %v", i, decoded[i], tt.values[i])
				}
			}
		})
	}
}

func TestEncodeDecodeString(t *testing.T) {
	raw, err := EncodeSample(FormatString, nil, "trial_start")
	if err != nil {
		t.Fatalf("EncodeSample failed: %v", err)
	}
	_, text, err := DecodeSample(FormatString, raw)
	if err != nil {
		t.Fatalf("DecodeSample failed: %v", err)
	}
	if text != "trial_start" {
		t.Errorf("text = %q, want trial_start", text)
	}
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	if _, _, err := DecodeSample(FormatF32, []byte{1, 2, 3}); err == nil {
		t.Error("expected an error for a non-multiple-of-4 f32 payload")
	}
	if _, _, err := DecodeSample(FormatString, []byte{1, 2}); err == nil {
		t.Error("expected an error for a string payload shorter than its length prefix")
	}
}
