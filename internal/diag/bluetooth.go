package diag

import (
	"context"
	"fmt"

	"howett.net/plist"
)

// ConnectedBluetooth returns the connected-device list from
// `system_profiler SPBluetoothDataType -xml`.
func (c *Collector) ConnectedBluetooth(ctx context.Context) ([]any, error) {
	out, err := c.run(ctx, "system_profiler", "SPBluetoothDataType", "-xml")
	if err != nil {
		return nil, err
	}
	return ParseBluetooth(out)
}

// ParseBluetooth extracts `[0]._items[0].device_connected` from a
// system_profiler property list. A report without connected devices yields an
// empty list.
func ParseBluetooth(data []byte) ([]any, error) {
	var reports []map[string]any
	if _, err := plist.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode system_profiler output: %w", err)
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("system_profiler returned no data types")
	}

	items, _ := reports[0]["_items"].([]any)
	if len(items) == 0 {
		return nil, fmt.Errorf("system_profiler report has no items")
	}
	controller, _ := items[0].(map[string]any)

	connected, _ := controller["device_connected"].([]any)
	if connected == nil {
		connected = []any{}
	}
	return connected, nil
}
