package diag

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// HIDServiceClass is the IOKit class that exposes battery state for
// Bluetooth peripherals.
const HIDServiceClass = "AppleDeviceManagementHIDEventService"

// Minor types reported for peripherals.
const (
	MinorMouse    = "Mouse"
	MinorKeyboard = "Keyboard"
	MinorTrackpad = "Trackpad"
	MinorUnknown  = "Unknown"
)

// Device is one HID peripheral as reported by the I/O registry.
type Device struct {
	Name         string `json:"device_name,omitempty"`
	Product      string `json:"device_product,omitempty"`
	MinorType    string `json:"device_minorType,omitempty"`
	Address      string `json:"device_address,omitempty"`
	BatteryLevel *int   `json:"device_batteryLevelMain,omitempty"`
	RSSI         *int   `json:"device_rssi,omitempty"`
}

func (d Device) empty() bool {
	return d == Device{}
}

// Devices runs ioreg against the HID event service class and parses the
// result.
func (c *Collector) Devices(ctx context.Context) ([]Device, error) {
	out, err := c.run(ctx, "ioreg", "-c", HIDServiceClass, "-r", "-l")
	if err != nil {
		return nil, err
	}
	return ParseIORegistry(string(out), c.logger()), nil
}

// ParseIORegistry parses `ioreg -r -l` output. Each line starting with "+"
// begins a new device; property lines fill in the current one.
func ParseIORegistry(out string, logger *slog.Logger) []Device {
	if logger == nil {
		logger = slog.Default()
	}

	devices := []Device{}
	var cur Device
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasPrefix(line, "+") && !cur.empty() {
			devices = append(devices, cur)
			cur = Device{}
		}

		switch {
		case strings.Contains(line, "BatteryPercent"):
			if n, ok := intValue(line); ok {
				cur.BatteryLevel = &n
			} else {
				logger.Debug("failed to parse BatteryPercent", "line", line)
			}
		case strings.HasPrefix(strings.TrimLeft(line, " |"), `"Product" =`):
			cur.Product = stringValue(line)
			cur.MinorType = MinorType(cur.Product)
		case strings.Contains(line, "DeviceAddress"):
			cur.Address = stringValue(line)
		case strings.Contains(line, "DeviceName"):
			cur.Name = stringValue(line)
		case strings.Contains(line, "RSSI"):
			if n, ok := intValue(line); ok {
				cur.RSSI = &n
			} else {
				logger.Debug("failed to parse RSSI", "line", line)
			}
		}
	}
	if !cur.empty() {
		devices = append(devices, cur)
	}
	return devices
}

// MinorType classifies a product name by substring.
func MinorType(product string) string {
	for _, t := range []string{MinorMouse, MinorKeyboard, MinorTrackpad} {
		if strings.Contains(product, t) {
			return t
		}
	}
	return MinorUnknown
}

func rawValue(line string) string {
	i := strings.LastIndex(line, "=")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(line[i+1:])
}

func stringValue(line string) string {
	return strings.Trim(rawValue(line), `"`)
}

func intValue(line string) (int, bool) {
	n, err := strconv.Atoi(rawValue(line))
	if err != nil {
		return 0, false
	}
	return n, true
}
