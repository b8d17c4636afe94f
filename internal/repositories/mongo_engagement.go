package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidhive/backend/internal/models"
)

type likeDocument struct {
	ID         string            `bson:"_id"`
	TargetType models.LikeTarget `bson:"targetType"`
	TargetID   string            `bson:"targetId"`
	UserID     string            `bson:"userId"`
	CreatedAt  time.Time         `bson:"createdAt"`
}

// MongoLikeRepository provides MongoDB-backed persistence for likes.
type MongoLikeRepository struct {
	coll *mongo.Collection
}

// NewMongoLikeRepository constructs a like repository backed by MongoDB.
func NewMongoLikeRepository(database *mongo.Database) *MongoLikeRepository {
	return &MongoLikeRepository{coll: database.Collection(likesCollection)}
}

// Create stores the like. A duplicate on the unique user/target index is
// reported as not created.
func (r *MongoLikeRepository) Create(ctx context.Context, like models.Like) (bool, error) {
	if _, err := r.coll.InsertOne(ctx, likeDocument(like)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert like: %w", err)
	}
	return true, nil
}

// Delete removes the user's like on the target, if any.
func (r *MongoLikeRepository) Delete(ctx context.Context, userID string, target models.LikeTarget, targetID string) (bool, error) {
	return deleteOne(ctx, r.coll, bson.M{"userId": userID, "targetType": target, "targetId": targetID}, "delete like")
}

// Count returns the number of likes on the target.
func (r *MongoLikeRepository) Count(ctx context.Context, target models.LikeTarget, targetID string) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"targetType": target, "targetId": targetID})
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

// DeleteByTargets removes all likes on the given targets.
func (r *MongoLikeRepository) DeleteByTargets(ctx context.Context, target models.LikeTarget, targetIDs []string) (int64, error) {
	if len(targetIDs) == 0 {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"targetType": target, "targetId": bson.M{"$in": targetIDs}})
	if err != nil {
		return 0, fmt.Errorf("delete likes by targets: %w", err)
	}
	return res.DeletedCount, nil
}

type subscriptionDocument struct {
	ID           string    `bson:"_id"`
	SubscriberID string    `bson:"subscriberId"`
	ChannelID    string    `bson:"channelId"`
	CreatedAt    time.Time `bson:"createdAt"`
}

// MongoSubscriptionRepository provides MongoDB-backed persistence for subscriptions.
type MongoSubscriptionRepository struct {
	coll *mongo.Collection
}

// NewMongoSubscriptionRepository constructs a subscription repository backed by MongoDB.
func NewMongoSubscriptionRepository(database *mongo.Database) *MongoSubscriptionRepository {
	return &MongoSubscriptionRepository{coll: database.Collection(subscriptionsCollection)}
}

// Create stores the subscription unless it already exists.
func (r *MongoSubscriptionRepository) Create(ctx context.Context, sub models.Subscription) (bool, error) {
	if sub.SubscriberID == sub.ChannelID {
		return false, ErrInvalid
	}
	if _, err := r.coll.InsertOne(ctx, subscriptionDocument(sub)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert subscription: %w", err)
	}
	return true, nil
}

// Delete removes the subscription, if any.
func (r *MongoSubscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) (bool, error) {
	return deleteOne(ctx, r.coll, bson.M{"subscriberId": subscriberID, "channelId": channelID}, "delete subscription")
}

// ListBySubscriber returns the channels a user follows, newest first.
func (r *MongoSubscriptionRepository) ListBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	docs, err := findAll[subscriptionDocument](ctx, r.coll, bson.M{"subscriberId": subscriberID}, opts, "list subscriptions")
	if err != nil {
		return nil, err
	}
	subs := make([]models.Subscription, 0, len(docs))
	for _, doc := range docs {
		subs = append(subs, models.Subscription(doc))
	}
	return subs, nil
}

var _ LikeRepository = (*MongoLikeRepository)(nil)
var _ SubscriptionRepository = (*MongoSubscriptionRepository)(nil)
