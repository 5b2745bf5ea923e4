package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/fitlgui/Api-OurThree/internal/logging"
	"github.com/fitlgui/Api-OurThree/internal/model"
	"github.com/fitlgui/Api-OurThree/internal/queue"
	"github.com/fitlgui/Api-OurThree/internal/service/servicetest"
)

func newHorta() (*HortaService, *servicetest.Horta, *servicetest.Notifier, *servicetest.Events) {
	store := servicetest.NewHorta()
	notify := &servicetest.Notifier{}
	events := &servicetest.Events{}
	return NewHortaService(store, notify, events, logging.Discard()), store, notify, events
}

func stateOf(t *testing.T, s *HortaService) map[string]any {
	t.Helper()
	raw, err := s.GetState(context.Background())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestGetState_EmptyIsNull(t *testing.T) {
	s, _, _, _ := newHorta()
	raw, err := s.GetState(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, "null", string(raw))
}

type fixedStore struct{ raw bson.Raw }

func (f fixedStore) Get(context.Context) (bson.Raw, error)            { return f.raw, nil }
func (f fixedStore) SetPump(_ context.Context, on bool) (bool, error) { return on, nil }

func TestGetState_DatesAreISOStrings(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 123e6, time.UTC)
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: model.HortaID},
		{Key: "isPumpOn", Value: true},
		{Key: "updatedAt", Value: at},
		{Key: "soilMoisture", Value: 38.5},
		{Key: "history", Value: bson.A{bson.D{{Key: "at", Value: at}}}},
	})
	require.NoError(t, err)

	s := NewHortaService(fixedStore{raw: raw}, nil, nil, logging.Discard())
	out, err := s.GetState(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"_id":"current",
		"isPumpOn":true,
		"updatedAt":"2024-05-01T12:00:00.123Z",
		"soilMoisture":38.5,
		"history":[{"at":"2024-05-01T12:00:00.123Z"}]
	}`, string(out))
}

func TestSetPump_UpsertThenToggle(t *testing.T) {
	s, store, notify, events := newHorta()
	ctx := context.Background()

	res, err := s.SetPump(ctx, "on")
	require.NoError(t, err)
	assert.Equal(t, PumpResult{Message: "Pump turned on", IsPumpOn: true}, res)
	assert.Equal(t, true, stateOf(t, s)["isPumpOn"])

	res, err = s.SetPump(ctx, "off")
	require.NoError(t, err)
	assert.Equal(t, PumpResult{Message: "Pump turned off", IsPumpOn: false}, res)
	assert.Equal(t, false, stateOf(t, s)["isPumpOn"])

	// idempotent
	res, err = s.SetPump(ctx, "off")
	require.NoError(t, err)
	assert.False(t, res.IsPumpOn)
	on, exists := store.PumpOn()
	assert.True(t, exists)
	assert.False(t, on)

	assert.Equal(t, []bool{true, false, false}, notify.States)
	assert.Equal(t, []string{queue.KeyPumpToggled, queue.KeyPumpToggled, queue.KeyPumpToggled}, events.Keys())
}

func TestSetPump_InvalidActionLeavesState(t *testing.T) {
	s, store, notify, _ := newHorta()
	ctx := context.Background()
	_, err := s.SetPump(ctx, "on")
	require.NoError(t, err)
	calls := store.Calls

	for _, a := range []string{"maybe", "", "ON", "true"} {
		_, err := s.SetPump(ctx, a)
		assert.ErrorIs(t, err, ErrBadRequest, a)
		assert.ErrorIs(t, err, ErrInvalidAction, a)
	}
	assert.Equal(t, calls, store.Calls, "store untouched")
	on, _ := store.PumpOn()
	assert.True(t, on)
	assert.Len(t, notify.States, 1)
}

func TestGetState_PassesSensorFieldsThrough(t *testing.T) {
	s, store, _, _ := newHorta()
	require.NoError(t, store.MergeReadings(context.Background(), model.SensorReadings{"soilMoisture": 40.5, "temperature": int32(21)}))

	m := stateOf(t, s)
	assert.Equal(t, "current", m["_id"])
	assert.Equal(t, 40.5, m["soilMoisture"])
	assert.Equal(t, float64(21), m["temperature"])
}

func TestHorta_StoreFailureIsInternal(t *testing.T) {
	s, store, notify, _ := newHorta()
	store.Err = errors.New("timeout")

	_, err := s.GetState(context.Background())
	assert.ErrorIs(t, err, ErrInternal)

	_, err = s.SetPump(context.Background(), "on")
	assert.ErrorIs(t, err, ErrInternal)
	assert.Empty(t, notify.States)
}

func TestSetPump_NotifierFailureDoesNotFail(t *testing.T) {
	s, _, notify, events := newHorta()
	notify.Err = errors.New("mqtt down")
	events.Err = errors.New("amqp down")

	res, err := s.SetPump(context.Background(), "on")
	require.NoError(t, err)
	assert.True(t, res.IsPumpOn)
}

func TestHortaService_NilCollaborators(t *testing.T) {
	s := NewHortaService(servicetest.NewHorta(), nil, nil, logging.Discard())
	res, err := s.SetPump(context.Background(), "on")
	require.NoError(t, err)
	assert.True(t, res.IsPumpOn)
}
