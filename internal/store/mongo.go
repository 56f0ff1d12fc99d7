package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"bookshelf/internal/apperr"
	"bookshelf/internal/collection"
	"bookshelf/internal/user"
)

// UsersCollection is the collection holding one document per user, with the
// book collection embedded.
const UsersCollection = "Users"

type mongoUser struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	FullName   string             `bson:"fullName"`
	Email      string             `bson:"email"`
	Password   string             `bson:"password"`
	Bio        string             `bson:"bio,omitempty"`
	Collection []collection.Entry `bson:"collection"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

func (m mongoUser) toUser() user.User {
	return user.User{
		ID:           m.ID.Hex(),
		FullName:     m.FullName,
		Email:        m.Email,
		PasswordHash: m.Password,
		Bio:          m.Bio,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type MongoStore struct {
	db      *mongo.Database
	users   *mongo.Collection
	timeout time.Duration
}

func NewMongoStore(db *mongo.Database, timeout time.Duration) *MongoStore {
	return &MongoStore{db: db, users: db.Collection(UsersCollection), timeout: timeout}
}

func (s *MongoStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// EnsureIndexes creates the unique email index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	doc := mongoUser{
		FullName:   u.FullName,
		Email:      user.NormalizeEmail(u.Email),
		Password:   u.PasswordHash,
		Bio:        u.Bio,
		Collection: []collection.Entry{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errUserExists
		}
		return apperr.Internal("create user", err)
	}

	id, _ := res.InsertedID.(primitive.ObjectID)
	u.ID = id.Hex()
	u.Email = doc.Email
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (s *MongoStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return s.findOne(ctx, bson.M{"email": user.NormalizeEmail(email)})
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, errUserNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (user.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc mongoUser
	opts := options.FindOne().SetProjection(bson.M{"collection": 0})
	if err := s.users.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, errUserNotFound
		}
		return user.User{}, apperr.Internal("find user", err)
	}
	return doc.toUser(), nil
}

func (s *MongoStore) UpdateBio(ctx context.Context, id, bio string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errUserNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"bio": bio, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return apperr.Internal("update bio", err)
	}
	if res.MatchedCount == 0 {
		return errUserNotFound
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, userID string) ([]collection.Entry, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errUserNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc struct {
		Collection []collection.Entry `bson:"collection"`
	}
	opts := options.FindOne().SetProjection(bson.M{"collection": 1})
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errUserNotFound
		}
		return nil, apperr.Internal("list collection", err)
	}

	out := make([]collection.Entry, 0, len(doc.Collection))
	for _, e := range doc.Collection {
		out = append(out, legacyKey(e))
	}
	return out, nil
}

// Add appends e only when no entry with the same key exists. The check and
// the push are one document update.
func (s *MongoStore) Add(ctx context.Context, userID string, e collection.Entry) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errUserNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	filter := bson.M{
		"_id":                   oid,
		"collection.catalogKey": bson.M{"$ne": e.CatalogKey},
		"collection.key":        bson.M{"$ne": e.CatalogKey},
	}
	update := bson.M{
		"$push": bson.M{"collection": e},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := s.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Internal("add book", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	return s.missOrConflict(ctx, oid, errBookExists)
}

func (s *MongoStore) Remove(ctx context.Context, userID, catalogKey string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errUserNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	match := bson.A{
		bson.M{"catalogKey": catalogKey},
		bson.M{"key": catalogKey},
	}
	filter := bson.M{
		"_id": oid,
		"$or": bson.A{
			bson.M{"collection.catalogKey": catalogKey},
			bson.M{"collection.key": catalogKey},
		},
	}
	update := bson.M{
		"$pull": bson.M{"collection": bson.M{"$or": match}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := s.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Internal("remove book", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	return s.missOrConflict(ctx, oid, errBookNotFound)
}

// missOrConflict tells a missing user apart from a failed collection
// condition after an update matched nothing.
func (s *MongoStore) missOrConflict(ctx context.Context, oid primitive.ObjectID, conditionErr error) error {
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return apperr.Internal("count user", err)
	}
	if n == 0 {
		return errUserNotFound
	}
	return conditionErr
}
