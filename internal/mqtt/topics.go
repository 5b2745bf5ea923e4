package mqtt

import "strings"

// Topics builds the topic names under a configurable prefix (default
// "horta"), e.g.
//
//	horta/pump/set      retained pump command consumed by the controller
//	horta/sensors       sensor snapshots published by the controller
//	horta/system/status API online/offline status (LWT)
type Topics struct {
	Prefix string
}

func (t Topics) join(parts ...string) string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		p = "horta"
	}
	return p + "/" + strings.Join(parts, "/")
}

// PumpCommand is where the desired pump state is published.
func (t Topics) PumpCommand() string { return t.join("pump", "set") }

// Sensors is where the field controller publishes its readings.
func (t Topics) Sensors() string { return t.join("sensors") }

// SystemStatus carries the API's online/offline status.
func (t Topics) SystemStatus() string { return t.join("system", "status") }
