package main

import (
	"github.com/bridged-io/bridged/pkg/driver/serial"
	"github.com/bridged-io/bridged/pkg/hotplug"
)

// serialPortSource adapts serial.ListPorts to hotplug.Source so the
// demo/test Poller can drive the hotplug adapter from real USB-CDC
// enumeration, matching the vendor/product identity and macOS tty/cu
// de-duplication serial.ListPorts already applies.
func serialPortSource() ([]hotplug.AttachedDevice, error) {
	ports, err := serial.ListPorts()
	if err != nil {
		return nil, err
	}

	out := make([]hotplug.AttachedDevice, 0, len(ports))
	for _, p := range ports {
		out = append(out, hotplug.AttachedDevice{
			PortName:     p.Name,
			VendorID:     p.VID,
			ProductID:    p.PID,
			SerialNumber: p.SerialNumber,
		})
	}
	return out, nil
}
