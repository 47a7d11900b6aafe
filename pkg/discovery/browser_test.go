package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceEntryToStreamService(t *testing.T) {
	entry := &ServiceEntry{
		Instance: "stream-1",
		Host:     "bridge.local",
		Port:     6818,
		Text:     []string{"SID=stream-1", "DI=device-001", "SR=48000", "CH=2", "FM=f32le"},
		Addrs:    []string{"192.168.1.50"},
	}

	svc, err := entry.ToStreamService()
	require.NoError(t, err)
	assert.Equal(t, "stream-1", svc.StreamID)
	assert.EqualValues(t, 48000, svc.SampleRateHz)
	assert.EqualValues(t, 2, svc.Channels)
}

func TestServiceEntryToStreamServiceInvalidTXT(t *testing.T) {
	entry := &ServiceEntry{Instance: "stream-1", Text: []string{"junk"}}
	_, err := entry.ToStreamService()
	assert.Error(t, err)
}

func TestFilterByDeviceID(t *testing.T) {
	filter := FilterByDeviceID("device-001")

	assert.True(t, filter(&StreamService{DeviceID: "device-001"}))
	assert.False(t, filter(&StreamService{DeviceID: "device-002"}))
}

func TestFilterByFormat(t *testing.T) {
	filter := FilterByFormat("f32le")

	assert.True(t, filter(&StreamService{Format: "f32le"}))
	assert.False(t, filter(&StreamService{Format: "i16le"}))
}

func TestFilterBrowseResults(t *testing.T) {
	in := make(chan *StreamService, 3)
	in <- &StreamService{DeviceID: "a"}
	in <- &StreamService{DeviceID: "b"}
	in <- &StreamService{DeviceID: "a"}
	close(in)

	out := FilterBrowseResults(in, FilterByDeviceID("a"))

	count := 0
	for svc := range out {
		assert.Equal(t, "a", svc.DeviceID)
		count++
	}
	assert.Equal(t, 2, count)
}
