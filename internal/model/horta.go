package model

// HortaID is the fixed _id of the singleton device-state document.
const HortaID = "current"

// Field names inside the horta document.
const (
	FieldID        = "_id"
	FieldIsPumpOn  = "isPumpOn"
	FieldUpdatedAt = "updatedAt"
)

// PumpAction is the command accepted by the pump endpoint.
type PumpAction string

const (
	PumpOn  PumpAction = "on"
	PumpOff PumpAction = "off"
)

// ParsePumpAction accepts exactly "on" or "off".
func ParsePumpAction(s string) (PumpAction, bool) {
	switch PumpAction(s) {
	case PumpOn, PumpOff:
		return PumpAction(s), true
	}
	return "", false
}

// On reports whether the action switches the pump on.
func (a PumpAction) On() bool { return a == PumpOn }

// SensorReadings are the opaque attributes produced by the field controller
// (soil moisture, temperature, ...).  They are merged into the singleton
// document as-is, except for the reserved keys.
type SensorReadings map[string]any

// Sanitized returns a copy without the keys owned by the service.
func (r SensorReadings) Sanitized() SensorReadings {
	out := make(SensorReadings, len(r))
	for k, v := range r {
		switch k {
		case FieldID, FieldIsPumpOn:
			continue
		}
		if k == "" || k[0] == '$' {
			continue
		}
		out[k] = v
	}
	return out
}
