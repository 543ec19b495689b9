package repository

import (
	"context"

	"fitweek/planner/internal/domain"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// PlanRepository is the durable remote store for weekly plans. Each user owns
// a set of plan documents of which at most one is active; superseded plans
// are archived, never deleted.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.WeeklyPlan) error
	// Upsert replaces the stored document wholesale, inserting it if absent.
	// The outbox replays interrupted writes through this path.
	Upsert(ctx context.Context, plan *domain.WeeklyPlan) error
	GetByID(ctx context.Context, planID string) (*domain.WeeklyPlan, error)
	// GetActiveByUser returns the newest active plan, or ErrNotFound.
	GetActiveByUser(ctx context.Context, userID string) (*domain.WeeklyPlan, error)
	// ArchiveOtherPlans flips isActive off every plan of the user except the
	// one being kept active.
	ArchiveOtherPlans(ctx context.Context, userID, keepPlanID string) error
	// ReplaceDays overwrites the days array of one plan document.
	ReplaceDays(ctx context.Context, planID string, days []domain.DayPlan) error
	// SetExerciseComplete and SetMealComplete update the single isComplete
	// field path of one entry rather than rewriting the whole document, so a
	// concurrent toggle on another field is never clobbered.
	SetExerciseComplete(ctx context.Context, planID string, dayIndex, exerciseIndex int, complete bool) error
	SetMealComplete(ctx context.Context, planID string, dayIndex, mealIndex int, complete bool) error
}

// CompletionRepository stores one completion document per user per calendar
// date, keyed by an ISO date-only string. History accumulates indefinitely.
type CompletionRepository interface {
	// Get returns the record for the date, or ErrNotFound if the user has
	// not completed anything that day yet.
	Get(ctx context.Context, userID, dateKey string) (*domain.DailyCompletion, error)
	Upsert(ctx context.Context, completion *domain.DailyCompletion) error
}

// UserRepository persists per-user streak fields directly on the user's root
// record, not a sub-collection.
type UserRepository interface {
	// GetStreak returns the user's streak, or a zero-valued StreakData if the
	// user record carries none yet.
	GetStreak(ctx context.Context, userID string) (domain.StreakData, error)
	UpdateStreak(ctx context.Context, userID string, data domain.StreakData) error
}
