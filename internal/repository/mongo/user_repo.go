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

const userCollectionName = "users"

// userDocument is the shape of the user's root record. Streak fields live
// directly on it, not in a sub-collection.
type userDocument struct {
	ID        string            `bson:"_id"`
	Streak    domain.StreakData `bson:"streak"`
	UpdatedAt time.Time         `bson:"updatedAt"`
}

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
// It expects a connected *mongo.Database instance.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// GetStreak reads the streak fields off the user's root record. A missing
// record yields a zero-valued streak, not an error; the record is created
// lazily on the first streak update.
func (r *mongoUserRepository) GetStreak(ctx context.Context, userID string) (domain.StreakData, error) {
	if userID == "" {
		return domain.StreakData{}, errors.New("user ID is required")
	}

	var doc userDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.StreakData{}, nil
		}
		return domain.StreakData{}, err
	}
	return doc.Streak, nil
}

// UpdateStreak upserts the streak fields on the user's root record.
func (r *mongoUserRepository) UpdateStreak(ctx context.Context, userID string, data domain.StreakData) error {
	if userID == "" {
		return errors.New("user ID is required")
	}

	update := bson.M{"$set": bson.M{
		"streak":    data,
		"updatedAt": time.Now().UTC(),
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	return err
}
