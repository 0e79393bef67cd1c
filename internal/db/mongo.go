// MongoDB user store (default STORE_DRIVER).
// Documents keep the field names of the original users collection.

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const usersCollection = "users"

type Mongo struct {
	client *mongo.Client
	users  *mongo.Collection
	now    func() time.Time
}

// userDocument - stored shape of a user in the users collection
type userDocument struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Username     string        `bson:"username"`
	Email        string        `bson:"email"`
	FullName     string        `bson:"fullName"`
	Avatar       string        `bson:"avatar"`
	CoverImage   string        `bson:"coverImage"`
	Password     string        `bson:"password"`
	RefreshToken string        `bson:"refreshToken,omitempty"`
	WatchHistory []string      `bson:"watchHistory"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

func (d userDocument) toModel() *model.User {
	history := d.WatchHistory
	if history == nil {
		history = []string{}
	}
	return &model.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		FullName:     d.FullName,
		Avatar:       d.Avatar,
		CoverImage:   d.CoverImage,
		PasswordHash: d.Password,
		RefreshToken: d.RefreshToken,
		WatchHistory: history,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// OpenMongo connects, pings and ensures the unique indexes.
func OpenMongo(ctx context.Context, cfg config.MongoConfig) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	store := NewMongo(client, cfg.Database)
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

func NewMongo(client *mongo.Client, database string) *Mongo {
	return &Mongo{
		client: client,
		users:  client.Database(database).Collection(usersCollection),
		now:    time.Now,
	}
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "fullName", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to ensure user indexes: %w", err)
	}
	return nil
}

func (m *Mongo) FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	filter, ok := identityFilter(email, username)
	if !ok {
		return nil, ErrNotFound
	}
	return m.findOne(ctx, filter)
}

func (m *Mongo) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return m.findOne(ctx, bson.M{"_id": oid})
}

func (m *Mongo) Create(ctx context.Context, user model.User) (*model.User, error) {
	now := m.now().UTC()
	doc := userDocument{
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		Avatar:       user.Avatar,
		CoverImage:   user.CoverImage,
		Password:     user.PasswordHash,
		WatchHistory: user.WatchHistory,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if doc.WatchHistory == nil {
		doc.WatchHistory = []string{}
	}

	res, err := m.users.InsertOne(ctx, doc)
	if err != nil {
		return nil, normalizeError(err)
	}
	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toModel(), nil
}

func (m *Mongo) UpdateFields(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err = m.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, patchUpdate(patch, m.now().UTC()), opts).Decode(&doc)
	if err != nil {
		return nil, normalizeError(err)
	}
	return doc.toModel(), nil
}

func (m *Mongo) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDocument
	if err := m.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, normalizeError(err)
	}
	return doc.toModel(), nil
}

// identityFilter matches on email OR username, skipping blank criteria.
func identityFilter(email, username string) (bson.M, bool) {
	var or bson.A
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if len(or) == 0 {
		return nil, false
	}
	return bson.M{"$or": or}, true
}

// patchUpdate renders $set for present fields; an empty refresh token becomes $unset.
func patchUpdate(patch model.UserPatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	unset := bson.M{}

	if patch.FullName != nil {
		set["fullName"] = *patch.FullName
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Avatar != nil {
		set["avatar"] = *patch.Avatar
	}
	if patch.CoverImage != nil {
		set["coverImage"] = *patch.CoverImage
	}
	if patch.PasswordHash != nil {
		set["password"] = *patch.PasswordHash
	}
	if patch.RefreshToken != nil {
		if *patch.RefreshToken == "" {
			unset["refreshToken"] = 1
		} else {
			set["refreshToken"] = *patch.RefreshToken
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}
