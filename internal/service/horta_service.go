package service

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/fitlgui/Api-OurThree/internal/logging"
	"github.com/fitlgui/Api-OurThree/internal/model"
	"github.com/fitlgui/Api-OurThree/internal/queue"
)

// HortaStore is the persistence the device-state service needs.
// *repository.HortaRepo implements it.
type HortaStore interface {
	Get(ctx context.Context) (bson.Raw, error)
	SetPump(ctx context.Context, on bool) (bool, error)
}

// PumpNotifier is told about every persisted pump state.
// *mqtt.PumpBridge implements it.
type PumpNotifier interface {
	PumpChanged(ctx context.Context, on bool) error
}

// PumpResult is the outcome of SetPump.
type PumpResult struct {
	Message  string `json:"message"`
	IsPumpOn bool   `json:"isPumpOn"`
}

// HortaService reads and toggles the irrigation state.
type HortaService struct {
	store  HortaStore
	notify PumpNotifier
	events EventPublisher
	log    logging.Logger
}

// NewHortaService wires the service.  notify and events may be nil.
func NewHortaService(store HortaStore, notify PumpNotifier, events EventPublisher, log logging.Logger) *HortaService {
	return &HortaService{store: store, notify: notify, events: events, log: log}
}

var jsonNull = json.RawMessage("null")

// GetState returns the singleton document as JSON, or JSON null when the
// document does not exist yet.  Dates render as ISO-8601 strings; other
// non-JSON types keep their relaxed Extended JSON form.
func (s *HortaService) GetState(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.store.Get(ctx)
	if err != nil {
		return nil, internal("read state", err)
	}
	if raw == nil {
		return jsonNull, nil
	}
	ext, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, internal("render state", err)
	}
	dec := json.NewDecoder(bytes.NewReader(ext))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, internal("render state", err)
	}
	out, err := json.Marshal(plainDates(doc))
	if err != nil {
		return nil, internal("render state", err)
	}
	return out, nil
}

// plainDates replaces {"$date":"<ISO-8601>"} wrappers with the bare string.
// Stored keys never start with '$', so the wrapper cannot be sensor data.
func plainDates(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if s, ok := x["$date"].(string); ok && len(x) == 1 {
			return s
		}
		for k, e := range x {
			x[k] = plainDates(e)
		}
	case []any:
		for i, e := range x {
			x[i] = plainDates(e)
		}
	}
	return v
}

// SetPump validates action and persists the pump state in one atomic
// upsert.  The result reflects the value written by this call.
func (s *HortaService) SetPump(ctx context.Context, action string) (PumpResult, error) {
	a, ok := model.ParsePumpAction(action)
	if !ok {
		return PumpResult{}, ErrInvalidAction
	}

	on, err := s.store.SetPump(ctx, a.On())
	if err != nil {
		return PumpResult{}, internal("set pump", err)
	}

	msg := "Pump turned off"
	if on {
		msg = "Pump turned on"
	}
	s.log.Info(ctx, "pump updated", "isPumpOn", on)

	if s.notify != nil {
		if err := s.notify.PumpChanged(ctx, on); err != nil {
			s.log.Warn(ctx, "pump command not forwarded", "err", err)
		}
	}
	if s.events != nil {
		ev := queue.PumpToggledEvent{IsPumpOn: on, ToggledAt: time.Now().UTC()}
		if err := s.events.Publish(ctx, ev); err != nil {
			s.log.Warn(ctx, "event publish failed", "routing_key", ev.RoutingKey(), "err", err)
		}
	}
	return PumpResult{Message: msg, IsPumpOn: on}, nil
}
