package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePumpAction(t *testing.T) {
	tests := []struct {
		in     string
		want   PumpAction
		ok     bool
		wantOn bool
	}{
		{"on", PumpOn, true, true},
		{"off", PumpOff, true, false},
		{"ON", "", false, false},
		{" on", "", false, false},
		{"maybe", "", false, false},
		{"", "", false, false},
	}
	for _, tc := range tests {
		got, ok := ParsePumpAction(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.wantOn, got.On(), tc.in)
	}
}

func TestSensorReadings_Sanitized(t *testing.T) {
	in := SensorReadings{
		"_id":          "other",
		"isPumpOn":     true,
		"$set":         1,
		"soilMoisture": 41.5,
		"temperature":  22,
	}
	got := in.Sanitized()
	assert.Equal(t, SensorReadings{"soilMoisture": 41.5, "temperature": 22}, got)
	assert.Len(t, in, 5, "input is not modified")
}
