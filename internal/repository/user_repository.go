package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/fitlgui/Api-OurThree/internal/database"
	"github.com/fitlgui/Api-OurThree/internal/model"
)

type UserRepo struct{ Coll *mongo.Collection }

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{Coll: db.Collection(database.UsersCollection)}
}

// ExistsByUsername reports whether a user with the given username exists.
func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.D{{Key: "username", Value: username}})
}

// ExistsByEmail reports whether a user with the given email exists.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *UserRepo) exists(ctx context.Context, filter bson.D) (bool, error) {
	n, err := r.Coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts the user.  A unique-index violation on username or email
// comes back as ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.Coll.InsertOne(ctx, u)
	return translate(err)
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.Coll.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&u)
	return u, translate(err)
}
