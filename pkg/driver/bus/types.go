package bus

import "time"

// DiscoveryFilter narrows a stream search.
type DiscoveryFilter struct {
	NameRegex   string
	Kind        string
	MinChannels uint8
	MaxChannels uint8
	Hostname    string
	Timeout     time.Duration
}

// StreamDescriptor is the typed result of a discovery match.
type StreamDescriptor struct {
	Name         string
	Kind         string
	Channels     uint8
	SampleRateHz uint32
	Format       Format
	SourceID     string
	Hostname     string
	Metadata     map[string]string
}

// PublishSpec describes an outlet to create via the "publish" custom action.
type PublishSpec struct {
	Name         string `json:"name"`
	Channels     uint8  `json:"channels"`
	SampleRateHz uint32 `json:"sample_rate_hz"`
	Format       Format `json:"format"`
}
