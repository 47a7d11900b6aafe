package discovery

import (
	"errors"
	"time"
)

// ServiceTypeStream is the mDNS service type advertised by sample bus
// streams so bridge instances can find each other on the local network.
const ServiceTypeStream = "_bridgestream._udp"

// Domain is the mDNS domain.
const Domain = "local"

// DefaultPort is the default sample bus stream port.
const DefaultPort = 6818

// TXT record key constants for stream descriptors.
const (
	TXTKeyStreamID   = "SID" // Stream identifier
	TXTKeyDeviceID   = "DI"  // Originating device ID
	TXTKeySampleRate = "SR"  // Sample rate in Hz
	TXTKeyChannels   = "CH"  // Channel count
	TXTKeyFormat     = "FM"  // Sample encoding, e.g. "f32le", "i16le"
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second

	// MDNSUpdateDelay is the maximum delay for mDNS updates.
	MDNSUpdateDelay = 1 * time.Second
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// MaxTXTRecordSize is the maximum total TXT record size.
	MaxTXTRecordSize = 400
)

// Discovery errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotFound            = errors.New("stream not found")
	ErrBrowseTimeout       = errors.New("browse timeout")
	ErrAlreadyExists       = errors.New("stream already exists")
)

// StreamInfo describes a sample bus stream for advertising.
type StreamInfo struct {
	// StreamID uniquely identifies the stream on the bus.
	StreamID string

	// DeviceID is the device originating the stream.
	DeviceID string

	// SampleRateHz is the nominal sample rate of the stream.
	SampleRateHz uint32

	// Channels is the number of interleaved channels per sample frame.
	Channels uint8

	// Format names the wire encoding of each sample value, e.g. "f32le".
	Format string

	// Port is the service port.
	Port uint16

	// Host is the hostname to advertise.
	Host string
}

// Validate checks that the StreamInfo carries the fields needed to
// advertise it.
func (s *StreamInfo) Validate() error {
	if s.StreamID == "" {
		return ErrMissingRequired
	}
	if s.Host == "" {
		return ErrMissingRequired
	}
	if s.SampleRateHz == 0 {
		return ErrMissingRequired
	}
	return nil
}

// StreamService represents a sample bus stream found via mDNS.
type StreamService struct {
	// InstanceName is the mDNS instance name.
	InstanceName string

	// Host is the hostname.
	Host string

	// Port is the service port.
	Port uint16

	// Addresses contains resolved IP addresses.
	Addresses []string

	// StreamID is the stream identifier (from TXT "SID").
	StreamID string

	// DeviceID is the originating device ID (from TXT "DI").
	DeviceID string

	// SampleRateHz is the sample rate in Hz (from TXT "SR").
	SampleRateHz uint32

	// Channels is the channel count (from TXT "CH").
	Channels uint8

	// Format is the sample encoding (from TXT "FM").
	Format string
}

// InstanceName builds the mDNS instance name for a stream, truncated to
// the DNS label limit.
func InstanceName(streamID string) string {
	name := "stream-" + streamID
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}
