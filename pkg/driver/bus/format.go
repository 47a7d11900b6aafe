package bus

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Format is one of the recognized sample bus wire encodings.
type Format string

const (
	FormatF32    Format = "f32"
	FormatF64    Format = "f64"
	FormatI32    Format = "i32"
	FormatI16    Format = "i16"
	FormatI8     Format = "i8"
	FormatString Format = "string"
)

// EncodeSample packs one sample value (per channel, already interleaved by
// the caller) into its little-endian wire representation. Numeric formats
// are packed plainly; string format is length-prefixed UTF-8.
func EncodeSample(format Format, values []float64, text string) ([]byte, error) {
	switch format {
	case FormatF32:
		buf := make([]byte, 4*len(values))
		for i, v := range values {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
		}
		return buf, nil
	case FormatF64:
		buf := make([]byte, 8*len(values))
		for i, v := range values {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		}
		return buf, nil
	case FormatI32:
		buf := make([]byte, 4*len(values))
		for i, v := range values {
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(int32(v)))
		}
		return buf, nil
	case FormatI16:
		buf := make([]byte, 2*len(values))
		for i, v := range values {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(v)))
		}
		return buf, nil
	case FormatI8:
		buf := make([]byte, len(values))
		for i, v := range values {
			buf[i] = byte(int8(v))
		}
		return buf, nil
	case FormatString:
		buf := make([]byte, 4+len(text))
		binary.LittleEndian.PutUint32(buf, uint32(len(text)))
		copy(buf[4:], text)
		return buf, nil
	default:
		return nil, fmt.Errorf("bus: unrecognized sample format %q", format)
	}
}

// DecodeSample unpacks a wire payload for the given format back into
// numeric values (or text, for FormatString).
func DecodeSample(format Format, raw []byte) (values []float64, text string, err error) {
	switch format {
	case FormatF32:
		if len(raw)%4 != 0 {
			return nil, "", fmt.Errorf("bus: f32 payload length %d not a multiple of 4", len(raw))
		}
		values = make([]float64, len(raw)/4)
		for i := range values {
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
		}
		return values, "", nil
	case FormatF64:
		if len(raw)%8 != 0 {
			return nil, "", fmt.Errorf("bus: f64 payload length %d not a multiple of 8", len(raw))
		}
		values = make([]float64, len(raw)/8)
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		return values, "", nil
	case FormatI32:
		if len(raw)%4 != 0 {
			return nil, "", fmt.Errorf("bus: i32 payload length %d not a multiple of 4", len(raw))
		}
		values = make([]float64, len(raw)/4)
		for i := range values {
			values[i] = float64(int32(binary.LittleEndian.Uint32(raw[i*4:])))
		}
		return values, "", nil
	case FormatI16:
		if len(raw)%2 != 0 {
			return nil, "", fmt.Errorf("bus: i16 payload length %d not a multiple of 2", len(raw))
		}
		values = make([]float64, len(raw)/2)
		for i := range values {
			values[i] = float64(int16(binary.LittleEndian.Uint16(raw[i*2:])))
		}
		return values, "", nil
	case FormatI8:
		values = make([]float64, len(raw))
		for i, b := range raw {
			values[i] = float64(int8(b))
		}
		return values, "", nil
	case FormatString:
		if len(raw) < 4 {
			return nil, "", fmt.Errorf("bus: string payload shorter than its length prefix")
		}
		n := binary.LittleEndian.Uint32(raw)
		if uint32(len(raw)-4) < n {
			return nil, "", fmt.Errorf("bus: string payload truncated")
		}
		return nil, string(raw[4 : 4+n]), nil
	default:
		return nil, "", fmt.Errorf("bus: unrecognized sample format %q", format)
	}
}
