package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidhive/backend/internal/models"
)

type videoDocument struct {
	ID                string    `bson:"_id"`
	OwnerID           string    `bson:"ownerId"`
	Title             string    `bson:"title"`
	Description       string    `bson:"description"`
	DurationSeconds   float64   `bson:"durationSeconds"`
	VideoStoredID     string    `bson:"videoStoredId"`
	ThumbnailStoredID string    `bson:"thumbnailStoredId"`
	VideoURL          string    `bson:"videoUrl"`
	ThumbnailURL      string    `bson:"thumbnailUrl"`
	CreatedAt         time.Time `bson:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt"`
}

// MongoVideoRepository provides MongoDB-backed persistence for videos.
type MongoVideoRepository struct {
	coll *mongo.Collection
}

// NewMongoVideoRepository constructs a video repository backed by MongoDB.
func NewMongoVideoRepository(database *mongo.Database) *MongoVideoRepository {
	return &MongoVideoRepository{coll: database.Collection(videosCollection)}
}

// Create stores a new video record.
func (r *MongoVideoRepository) Create(ctx context.Context, video models.Video) error {
	if _, err := r.coll.InsertOne(ctx, videoDocument(video)); err != nil {
		return mongoWriteError("insert video", err)
	}
	return nil
}

// FindByID loads a single video.
func (r *MongoVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	doc, err := findOne[videoDocument](ctx, r.coll, bson.M{"_id": id}, "find video")
	if err != nil {
		return models.Video{}, err
	}
	return models.Video(doc), nil
}

// ListByOwner returns the owner's videos, newest first.
func (r *MongoVideoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return r.list(ctx, bson.M{"ownerId": ownerID}, opts, "list videos by owner")
}

// ListMissingStoredIDs returns records lacking a persisted video or thumbnail id.
func (r *MongoVideoRepository) ListMissingStoredIDs(ctx context.Context) ([]models.Video, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"videoStoredId": bson.M{"$in": bson.A{"", nil}}},
		bson.M{"thumbnailStoredId": bson.M{"$in": bson.A{"", nil}}},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.list(ctx, filter, opts, "list videos missing stored ids")
}

func (r *MongoVideoRepository) list(ctx context.Context, filter any, opts *options.FindOptions, op string) ([]models.Video, error) {
	docs, err := findAll[videoDocument](ctx, r.coll, filter, opts, op)
	if err != nil {
		return nil, err
	}
	videos := make([]models.Video, 0, len(docs))
	for _, doc := range docs {
		videos = append(videos, models.Video(doc))
	}
	return videos, nil
}

// UpdateText overwrites the provided text fields and bumps updatedAt.
func (r *MongoVideoRepository) UpdateText(ctx context.Context, id string, title, description *string, updatedAt time.Time) (models.Video, error) {
	set := bson.M{"updatedAt": updatedAt}
	if title != nil {
		set["title"] = *title
	}
	if description != nil {
		set["description"] = *description
	}

	var doc videoDocument
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("update video text: %w", err)
	}
	return models.Video(doc), nil
}

// SetStoredIDs records the media host identifiers of an existing video.
func (r *MongoVideoRepository) SetStoredIDs(ctx context.Context, id, videoStoredID, thumbnailStoredID string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"videoStoredId":     videoStoredID,
		"thumbnailStoredId": thumbnailStoredID,
	}})
	if err != nil {
		return fmt.Errorf("update video stored ids: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a video record.
func (r *MongoVideoRepository) Delete(ctx context.Context, id string) error {
	return deleteByKey(ctx, r.coll, id, "delete video")
}

type commentDocument struct {
	ID        string    `bson:"_id"`
	VideoID   string    `bson:"videoId"`
	OwnerID   string    `bson:"ownerId"`
	Body      string    `bson:"body"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoCommentRepository provides MongoDB-backed persistence for comments.
type MongoCommentRepository struct {
	coll *mongo.Collection
}

// NewMongoCommentRepository constructs a comment repository backed by MongoDB.
func NewMongoCommentRepository(database *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{coll: database.Collection(commentsCollection)}
}

// Create stores a new comment.
func (r *MongoCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	if _, err := r.coll.InsertOne(ctx, commentDocument(comment)); err != nil {
		return mongoWriteError("insert comment", err)
	}
	return nil
}

// FindByID loads a single comment.
func (r *MongoCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	doc, err := findOne[commentDocument](ctx, r.coll, bson.M{"_id": id}, "find comment")
	if err != nil {
		return models.Comment{}, err
	}
	return models.Comment(doc), nil
}

// UpdateBody replaces the comment text.
func (r *MongoCommentRepository) UpdateBody(ctx context.Context, id, body string, updatedAt time.Time) (models.Comment, error) {
	var doc commentDocument
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"body": body, "updatedAt": updatedAt}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return models.Comment(doc), nil
}

// Delete removes a comment.
func (r *MongoCommentRepository) Delete(ctx context.Context, id string) error {
	return deleteByKey(ctx, r.coll, id, "delete comment")
}

// ListByVideo returns a window of the video's comments, oldest first.
func (r *MongoCommentRepository) ListByVideo(ctx context.Context, videoID string, offset, limit int) ([]models.Comment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(max(offset, 0)))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	docs, err := findAll[commentDocument](ctx, r.coll, bson.M{"videoId": videoID}, opts, "list comments")
	if err != nil {
		return nil, err
	}
	comments := make([]models.Comment, 0, len(docs))
	for _, doc := range docs {
		comments = append(comments, models.Comment(doc))
	}
	return comments, nil
}

// CountByVideo counts the comments attached to a video.
func (r *MongoCommentRepository) CountByVideo(ctx context.Context, videoID string) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"videoId": videoID})
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return count, nil
}

// DeleteByVideo removes all comments on a video and returns their ids.
func (r *MongoCommentRepository) DeleteByVideo(ctx context.Context, videoID string) ([]string, error) {
	filter := bson.M{"videoId": videoID}
	docs, err := findAll[commentDocument](ctx, r.coll, filter, options.Find().SetProjection(bson.M{"_id": 1}), "list comments by video")
	if err != nil {
		return nil, err
	}
	if _, err := r.coll.DeleteMany(ctx, filter); err != nil {
		return nil, fmt.Errorf("delete comments by video: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

type tweetDocument struct {
	ID        string    `bson:"_id"`
	OwnerID   string    `bson:"ownerId"`
	Body      string    `bson:"body"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoTweetRepository provides MongoDB-backed persistence for tweets.
type MongoTweetRepository struct {
	coll *mongo.Collection
}

// NewMongoTweetRepository constructs a tweet repository backed by MongoDB.
func NewMongoTweetRepository(database *mongo.Database) *MongoTweetRepository {
	return &MongoTweetRepository{coll: database.Collection(tweetsCollection)}
}

// Create stores a new tweet.
func (r *MongoTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	if _, err := r.coll.InsertOne(ctx, tweetDocument(tweet)); err != nil {
		return mongoWriteError("insert tweet", err)
	}
	return nil
}

// FindByID loads a single tweet.
func (r *MongoTweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	doc, err := findOne[tweetDocument](ctx, r.coll, bson.M{"_id": id}, "find tweet")
	if err != nil {
		return models.Tweet{}, err
	}
	return models.Tweet(doc), nil
}

// UpdateBody replaces the tweet text.
func (r *MongoTweetRepository) UpdateBody(ctx context.Context, id, body string, updatedAt time.Time) (models.Tweet, error) {
	var doc tweetDocument
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"body": body, "updatedAt": updatedAt}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Tweet{}, ErrNotFound
		}
		return models.Tweet{}, fmt.Errorf("update tweet: %w", err)
	}
	return models.Tweet(doc), nil
}

// Delete removes a tweet.
func (r *MongoTweetRepository) Delete(ctx context.Context, id string) error {
	return deleteByKey(ctx, r.coll, id, "delete tweet")
}

// ListByOwner returns the owner's tweets, newest first.
func (r *MongoTweetRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	docs, err := findAll[tweetDocument](ctx, r.coll, bson.M{"ownerId": ownerID}, opts, "list tweets")
	if err != nil {
		return nil, err
	}
	tweets := make([]models.Tweet, 0, len(docs))
	for _, doc := range docs {
		tweets = append(tweets, models.Tweet(doc))
	}
	return tweets, nil
}

var _ VideoRepository = (*MongoVideoRepository)(nil)
var _ CommentRepository = (*MongoCommentRepository)(nil)
var _ TweetRepository = (*MongoTweetRepository)(nil)
