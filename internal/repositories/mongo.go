package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidhive/backend/internal/auth"
	"github.com/vidhive/backend/internal/models"
)

const (
	usersCollection          = "users"
	sessionsCollection       = "sessions"
	videosCollection         = "videos"
	commentsCollection       = "comments"
	likesCollection          = "likes"
	tweetsCollection         = "tweets"
	subscriptionsCollection  = "subscriptions"
	pendingUploadsCollection = "pending_uploads"
)

// NewMongoSet builds every store on top of one MongoDB database.
func NewMongoSet(database *mongo.Database) Set {
	return Set{
		Users:          NewMongoUserRepository(database),
		Sessions:       NewMongoSessionStore(database),
		Videos:         NewMongoVideoRepository(database),
		Comments:       NewMongoCommentRepository(database),
		Likes:          NewMongoLikeRepository(database),
		Tweets:         NewMongoTweetRepository(database),
		Subscriptions:  NewMongoSubscriptionRepository(database),
		PendingUploads: NewMongoPendingUploadRepository(database),
	}
}

// EnsureMongoIndexes creates the indexes that back lookups and the
// uniqueness rules for likes, subscriptions and accounts.
func EnsureMongoIndexes(ctx context.Context, database *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		},
		sessionsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}},
		},
		videosCollection: {
			{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "videoId", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}},
		},
		likesCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "targetType", Value: 1}, {Key: "targetId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "targetType", Value: 1}, {Key: "targetId", Value: 1}}},
		},
		tweetsCollection: {
			{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		subscriptionsCollection: {
			{Keys: bson.D{{Key: "subscriberId", Value: 1}, {Key: "channelId", Value: 1}}, Options: unique},
		},
		pendingUploadsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		},
	}

	for collection, specs := range indexes {
		if _, err := database.Collection(collection).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}
	return nil
}

func mongoWriteError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, op string) (T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return doc, ErrNotFound
		}
		return doc, fmt.Errorf("%s: %w", op, err)
	}
	return doc, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts *options.FindOptions, op string) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	docs := make([]T, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return docs, nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, filter any, op string) (bool, error) {
	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return res.DeletedCount > 0, nil
}

func deleteByKey(ctx context.Context, coll *mongo.Collection, id, op string) error {
	deleted, err := deleteOne(ctx, coll, bson.M{"_id": id}, op)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

type userDocument struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

// MongoUserRepository provides MongoDB-backed persistence for users.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository constructs a user repository backed by MongoDB.
func NewMongoUserRepository(database *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: database.Collection(usersCollection)}
}

// Create persists a new user record.
func (r *MongoUserRepository) Create(ctx context.Context, user models.User) error {
	_, err := r.coll.InsertOne(ctx, userDocument{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.Password,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	})
	if err != nil {
		return mongoWriteError("insert user", err)
	}
	return nil
}

// FindByEmail fetches a user by their email address.
func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	doc, err := findOne[userDocument](ctx, r.coll, bson.M{"email": email}, "find user by email")
	if err != nil {
		return models.User{}, err
	}
	return models.User{
		ID:        doc.ID,
		Username:  doc.Username,
		Email:     doc.Email,
		Password:  doc.PasswordHash,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

type sessionDocument struct {
	RefreshToken string    `bson:"_id"`
	UserID       string    `bson:"userId"`
	ExpiresAt    time.Time `bson:"expiresAt"`
}

// MongoSessionStore persists refresh tokens to MongoDB.
type MongoSessionStore struct {
	coll *mongo.Collection
}

// NewMongoSessionStore constructs a session store backed by MongoDB.
func NewMongoSessionStore(database *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{coll: database.Collection(sessionsCollection)}
}

// Save stores or updates a session record.
func (s *MongoSessionStore) Save(ctx context.Context, session auth.Session) error {
	doc := sessionDocument{RefreshToken: session.RefreshToken, UserID: session.UserID, ExpiresAt: session.ExpiresAt.UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.RefreshToken}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return mongoWriteError("upsert session", err)
	}
	return nil
}

// Find loads a session by its refresh token.
func (s *MongoSessionStore) Find(ctx context.Context, refreshToken string) (auth.Session, error) {
	doc, err := findOne[sessionDocument](ctx, s.coll, bson.M{"_id": refreshToken}, "find session")
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, err
	}
	return auth.Session{RefreshToken: doc.RefreshToken, UserID: doc.UserID, ExpiresAt: doc.ExpiresAt.UTC()}, nil
}

// Delete removes a session by its refresh token.
func (s *MongoSessionStore) Delete(ctx context.Context, refreshToken string) error {
	deleted, err := deleteOne(ctx, s.coll, bson.M{"_id": refreshToken}, "delete session")
	if err != nil {
		return err
	}
	if !deleted {
		return auth.ErrSessionNotFound
	}
	return nil
}

// PurgeExpired removes sessions whose refresh token expired before the cutoff.
func (s *MongoSessionStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": before.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return res.DeletedCount, nil
}

type pendingUploadDocument struct {
	ID                string    `bson:"_id"`
	VideoID           string    `bson:"videoId"`
	OwnerID           string    `bson:"ownerId"`
	VideoStoredID     string    `bson:"videoStoredId"`
	ThumbnailStoredID string    `bson:"thumbnailStoredId"`
	CreatedAt         time.Time `bson:"createdAt"`
}

// MongoPendingUploadRepository persists upload saga markers in MongoDB.
type MongoPendingUploadRepository struct {
	coll *mongo.Collection
}

// NewMongoPendingUploadRepository constructs a marker repository backed by MongoDB.
func NewMongoPendingUploadRepository(database *mongo.Database) *MongoPendingUploadRepository {
	return &MongoPendingUploadRepository{coll: database.Collection(pendingUploadsCollection)}
}

// Create stores a new marker.
func (r *MongoPendingUploadRepository) Create(ctx context.Context, upload models.PendingUpload) error {
	if _, err := r.coll.InsertOne(ctx, pendingUploadDocument(upload)); err != nil {
		return mongoWriteError("insert pending upload", err)
	}
	return nil
}

// Update records the stored ids reached so far.
func (r *MongoPendingUploadRepository) Update(ctx context.Context, upload models.PendingUpload) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": upload.ID}, bson.M{"$set": bson.M{
		"videoStoredId":     upload.VideoStoredID,
		"thumbnailStoredId": upload.ThumbnailStoredID,
	}})
	if err != nil {
		return fmt.Errorf("update pending upload: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a marker.
func (r *MongoPendingUploadRepository) Delete(ctx context.Context, id string) error {
	return deleteByKey(ctx, r.coll, id, "delete pending upload")
}

// ListStale returns markers created before the cutoff, oldest first.
func (r *MongoPendingUploadRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]models.PendingUpload, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit))
	docs, err := findAll[pendingUploadDocument](ctx, r.coll, bson.M{"createdAt": bson.M{"$lt": before}}, opts, "list stale uploads")
	if err != nil {
		return nil, err
	}
	uploads := make([]models.PendingUpload, 0, len(docs))
	for _, doc := range docs {
		uploads = append(uploads, models.PendingUpload(doc))
	}
	return uploads, nil
}

var _ UserRepository = (*MongoUserRepository)(nil)
var _ auth.SessionStore = (*MongoSessionStore)(nil)
var _ PendingUploadRepository = (*MongoPendingUploadRepository)(nil)
