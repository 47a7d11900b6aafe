package discovery

import (
	"strconv"
)

// TXTRecordMap is a parsed TXT record keyed by record key.
type TXTRecordMap map[string]string

// EncodeStreamTXT builds TXT records from stream info.
func EncodeStreamTXT(info *StreamInfo) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyStreamID:   info.StreamID,
		TXTKeySampleRate: strconv.FormatUint(uint64(info.SampleRateHz), 10),
		TXTKeyChannels:   strconv.FormatUint(uint64(info.Channels), 10),
	}
	if info.DeviceID != "" {
		txt[TXTKeyDeviceID] = info.DeviceID
	}
	if info.Format != "" {
		txt[TXTKeyFormat] = info.Format
	}
	return txt
}

// DecodeStreamTXT parses TXT records into stream info.
func DecodeStreamTXT(txt TXTRecordMap) (*StreamInfo, error) {
	streamID, ok := txt[TXTKeyStreamID]
	if !ok || streamID == "" {
		return nil, ErrMissingRequired
	}

	rateStr, ok := txt[TXTKeySampleRate]
	if !ok {
		return nil, ErrMissingRequired
	}
	rate, err := strconv.ParseUint(rateStr, 10, 32)
	if err != nil {
		return nil, ErrInvalidTXTRecord
	}

	var channels uint64
	if chStr, ok := txt[TXTKeyChannels]; ok {
		channels, err = strconv.ParseUint(chStr, 10, 8)
		if err != nil {
			return nil, ErrInvalidTXTRecord
		}
	}

	return &StreamInfo{
		StreamID:     streamID,
		DeviceID:     txt[TXTKeyDeviceID],
		SampleRateHz: uint32(rate),
		Channels:     uint8(channels),
		Format:       txt[TXTKeyFormat],
	}, nil
}

// TXTRecordsToStrings flattens a TXTRecordMap into "key=value" strings for
// zeroconf registration.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	out := make([]string, 0, len(txt))
	for k, v := range txt {
		out = append(out, k+"="+v)
	}
	return out
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(strs))
	for _, s := range strs {
		for i := 0; i < len(s); i++ {
			if s[i] == '=' {
				txt[s[:i]] = s[i+1:]
				break
			}
		}
	}
	return txt
}

// ValidateInstanceName checks the DNS label length limit.
func ValidateInstanceName(name string) error {
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	if name == "" {
		return ErrMissingRequired
	}
	return nil
}
