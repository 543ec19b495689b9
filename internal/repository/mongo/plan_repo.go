package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fitweek/planner/internal/domain"
	"fitweek/planner/internal/repository"
)

const planCollectionName = "weekly_plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new weekly plan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new weekly plan document.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.WeeklyPlan) error {
	if plan.ID == "" || plan.UserID == "" {
		return errors.New("plan requires an id and a userId")
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}

	_, err := r.collection.InsertOne(ctx, plan)
	return err
}

// Upsert replaces the stored document wholesale, inserting it if missing.
func (r *mongoPlanRepository) Upsert(ctx context.Context, plan *domain.WeeklyPlan) error {
	if plan.ID == "" || plan.UserID == "" {
		return errors.New("plan requires an id and a userId")
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}

	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": plan.ID},
		plan,
		options.Replace().SetUpsert(true),
	)
	return err
}

// GetByID retrieves a single plan by its ID.
func (r *mongoPlanRepository) GetByID(ctx context.Context, planID string) (*domain.WeeklyPlan, error) {
	var plan domain.WeeklyPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": planID}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetActiveByUser returns the user's active plan. "Active" means
// isActive=true, newest creation time first, limit 1.
func (r *mongoPlanRepository) GetActiveByUser(ctx context.Context, userID string) (*domain.WeeklyPlan, error) {
	filter := bson.M{
		"userId":   userID,
		"isActive": true,
	}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var plan domain.WeeklyPlan
	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ArchiveOtherPlans flips isActive off every plan of the user except
// keepPlanID. Archived plans stay in the collection; nothing is deleted.
func (r *mongoPlanRepository) ArchiveOtherPlans(ctx context.Context, userID, keepPlanID string) error {
	filter := bson.M{
		"userId":   userID,
		"isActive": true,
		"_id":      bson.M{"$ne": keepPlanID},
	}
	update := bson.M{"$set": bson.M{"isActive": false}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// ReplaceDays overwrites the full days array of one plan document. Used by
// the modification path after a validated merge.
func (r *mongoPlanRepository) ReplaceDays(ctx context.Context, planID string, days []domain.DayPlan) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": planID},
		bson.M{"$set": bson.M{"days": days}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetExerciseComplete updates the isComplete flag of a single exercise via
// its field path, leaving every other field of the document untouched.
func (r *mongoPlanRepository) SetExerciseComplete(ctx context.Context, planID string, dayIndex, exerciseIndex int, complete bool) error {
	field := fmt.Sprintf("days.%d.workout.exercises.%d.isComplete", dayIndex, exerciseIndex)
	return r.setField(ctx, planID, field, complete)
}

// SetMealComplete updates the isComplete flag of a single meal via its field
// path.
func (r *mongoPlanRepository) SetMealComplete(ctx context.Context, planID string, dayIndex, mealIndex int, complete bool) error {
	field := fmt.Sprintf("days.%d.meals.%d.isComplete", dayIndex, mealIndex)
	return r.setField(ctx, planID, field, complete)
}

func (r *mongoPlanRepository) setField(ctx context.Context, planID, field string, value any) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": planID},
		bson.M{"$set": bson.M{field: value}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePlanIndexes creates necessary indexes. Call during startup.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// The main query pattern: the newest active plan for a user.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
