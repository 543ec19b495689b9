package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fitweek/planner/internal/domain"
	"fitweek/planner/internal/repository"
)

const completionCollectionName = "daily_completions"

// mongoCompletionRepository implements repository.CompletionRepository
type mongoCompletionRepository struct {
	collection *mongo.Collection
}

// NewMongoCompletionRepository creates a new daily completion repository.
func NewMongoCompletionRepository(db *mongo.Database) repository.CompletionRepository {
	return &mongoCompletionRepository{
		collection: db.Collection(completionCollectionName),
	}
}

// Get retrieves one completion document by user and ISO date key.
func (r *mongoCompletionRepository) Get(ctx context.Context, userID, dateKey string) (*domain.DailyCompletion, error) {
	filter := bson.M{
		"userId":  userID,
		"dateKey": dateKey,
	}

	var completion domain.DailyCompletion
	err := r.collection.FindOne(ctx, filter).Decode(&completion)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &completion, nil
}

// Upsert writes the completion record, creating the document on first write
// for that date. History is never trimmed.
func (r *mongoCompletionRepository) Upsert(ctx context.Context, completion *domain.DailyCompletion) error {
	if completion.UserID == "" || completion.DateKey == "" {
		return errors.New("completion requires a userId and a dateKey")
	}
	completion.UpdatedAt = time.Now().UTC()

	filter := bson.M{
		"userId":  completion.UserID,
		"dateKey": completion.DateKey,
	}
	update := bson.M{"$set": bson.M{
		"completedMealIds":     completion.CompletedMealIDs,
		"completedExerciseIds": completion.CompletedExerciseIDs,
		"updatedAt":            completion.UpdatedAt,
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// EnsureCompletionIndexes creates necessary indexes. Call during startup.
func EnsureCompletionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One document per user per date.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "dateKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
