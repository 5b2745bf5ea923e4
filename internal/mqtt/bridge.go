package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fitlgui/Api-OurThree/internal/model"
)

// Publisher is satisfied by *Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// ReadingsStore receives sensor snapshots.  *repository.HortaRepo fits.
type ReadingsStore interface {
	MergeReadings(ctx context.Context, readings model.SensorReadings) error
}

// PumpBridge forwards persisted pump states to the field controller.
type PumpBridge struct {
	pub    Publisher
	topics Topics
	qos    byte
}

// NewPumpBridge returns a bridge publishing on topics.PumpCommand().
func NewPumpBridge(pub Publisher, topics Topics, qos byte) *PumpBridge {
	return &PumpBridge{pub: pub, topics: topics, qos: qos}
}

type pumpCommand struct {
	IsPumpOn bool `json:"isPumpOn"`
}

// PumpChanged publishes {"isPumpOn":on} retained, so a controller that
// reconnects picks up the last commanded state.
func (b *PumpBridge) PumpChanged(_ context.Context, on bool) error {
	payload, err := json.Marshal(pumpCommand{IsPumpOn: on})
	if err != nil {
		return err
	}
	return b.pub.Publish(b.topics.PumpCommand(), payload, b.qos, true)
}

// Invalidator drops cached views of the state after a successful merge.
type Invalidator func(ctx context.Context) error

// SensorHandler decodes a JSON object of readings and merges it into the
// singleton through store, then runs invalidate when it is non-nil.
// Non-object payloads are rejected.
func SensorHandler(store ReadingsStore, timeout time.Duration, invalidate Invalidator) MessageHandler {
	return func(topic string, payload []byte) error {
		var readings model.SensorReadings
		if err := json.Unmarshal(payload, &readings); err != nil {
			return fmt.Errorf("decode sensor payload on %s: %w", topic, err)
		}
		if readings == nil {
			return fmt.Errorf("decode sensor payload on %s: not a JSON object", topic)
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := store.MergeReadings(ctx, readings); err != nil {
			return err
		}
		if invalidate == nil {
			return nil
		}
		if err := invalidate(ctx); err != nil {
			return fmt.Errorf("invalidate state cache: %w", err)
		}
		return nil
	}
}
