package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/fitlgui/Api-OurThree/internal/database"
	"github.com/fitlgui/Api-OurThree/internal/model"
)

// HortaRepo stores the device-state singleton.  Every operation targets the
// document whose _id is model.HortaID, so the collection never holds more
// than one state document written by this service.
type HortaRepo struct{ Coll *mongo.Collection }

func NewHortaRepo(db *mongo.Database) *HortaRepo {
	return &HortaRepo{Coll: db.Collection(database.HortaCollection)}
}

var singleton = bson.D{{Key: model.FieldID, Value: model.HortaID}}

// Get returns the raw singleton document, or nil when it does not exist yet.
func (r *HortaRepo) Get(ctx context.Context) (bson.Raw, error) {
	raw, err := r.Coll.FindOne(ctx, singleton).Raw()
	if err != nil {
		err = translate(err)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

// SetPump atomically sets isPumpOn on the singleton, creating it when
// absent, and returns the value persisted by this call.
func (r *HortaRepo) SetPump(ctx context.Context, on bool) (bool, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: model.FieldIsPumpOn, Value: on},
		{Key: model.FieldUpdatedAt, Value: time.Now().UTC()},
	}}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: model.FieldIsPumpOn, Value: 1}})

	var out struct {
		IsPumpOn bool `bson:"isPumpOn"`
	}
	if err := r.Coll.FindOneAndUpdate(ctx, singleton, update, opts).Decode(&out); err != nil {
		return false, translate(err)
	}
	return out.IsPumpOn, nil
}

// MergeReadings $sets the sensor attributes on the singleton, upserting it.
// Reserved keys are stripped so a sensor payload can never flip the pump.
func (r *HortaRepo) MergeReadings(ctx context.Context, readings model.SensorReadings) error {
	clean := readings.Sanitized()
	if len(clean) == 0 {
		return nil
	}
	set := bson.M(clean)
	set[model.FieldUpdatedAt] = time.Now().UTC()

	_, err := r.Coll.UpdateOne(ctx, singleton, bson.D{{Key: "$set", Value: set}}, options.UpdateOne().SetUpsert(true))
	return translate(err)
}
