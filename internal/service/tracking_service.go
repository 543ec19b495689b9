package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fitweek/planner/internal/apperrors"
	"fitweek/planner/internal/cache"
	"fitweek/planner/internal/domain"
	"fitweek/planner/internal/repository"
	"fitweek/planner/internal/streak"
)

// TrackingService records daily meal and exercise completion and maintains
// the consecutive-day streak. Completion records are the source of truth;
// the matching isComplete flags on the plan document are mirrored
// best-effort for display.
type TrackingService interface {
	// GetCompletion returns the record for the date, creating an empty one
	// on first read.
	GetCompletion(ctx context.Context, userID string, date time.Time) (*domain.DailyCompletion, error)
	ToggleMeal(ctx context.Context, userID string, date time.Time, mealID string) (*domain.DailyCompletion, error)
	ToggleExercise(ctx context.Context, userID string, date time.Time, exerciseID string) (*domain.DailyCompletion, error)
	GetStreak(ctx context.Context, userID string) (domain.StreakData, error)
	// CheckAndResetStreak lazily zeroes a lapsed streak. Called on app start,
	// not by any background poller.
	CheckAndResetStreak(ctx context.Context, userID string) (domain.StreakData, error)
}

// planReader is the read side of the plan synchronization repository.
type planReader interface {
	GetCurrentPlan(ctx context.Context, userID string) (*domain.WeeklyPlan, error)
}

// trackingService implements the TrackingService interface.
type trackingService struct {
	completionRepo repository.CompletionRepository
	userRepo       repository.UserRepository
	planRepo       repository.PlanRepository
	planCache      cache.PlanCache
	plans          planReader

	now func() time.Time
}

// NewTrackingService creates a new instance of trackingService.
func NewTrackingService(
	completionRepo repository.CompletionRepository,
	userRepo repository.UserRepository,
	planRepo repository.PlanRepository,
	planCache cache.PlanCache,
	plans planReader,
) TrackingService {
	return &trackingService{
		completionRepo: completionRepo,
		userRepo:       userRepo,
		planRepo:       planRepo,
		planCache:      planCache,
		plans:          plans,
		now:            time.Now,
	}
}

// === Completion records ===

func (s *trackingService) GetCompletion(ctx context.Context, userID string, date time.Time) (*domain.DailyCompletion, error) {
	record, err := s.loadOrCreate(ctx, userID, domain.DateKey(date))
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ToggleMeal flips the completion state of one meal for the date. The
// completion record commits first; the plan document's isComplete flag and
// the streak follow.
func (s *trackingService) ToggleMeal(ctx context.Context, userID string, date time.Time, mealID string) (*domain.DailyCompletion, error) {
	return s.toggle(ctx, userID, date, mealID, false)
}

// ToggleExercise flips the completion state of one exercise for the date.
func (s *trackingService) ToggleExercise(ctx context.Context, userID string, date time.Time, exerciseID string) (*domain.DailyCompletion, error) {
	return s.toggle(ctx, userID, date, exerciseID, true)
}

func (s *trackingService) toggle(ctx context.Context, userID string, date time.Time, itemID string, isExercise bool) (*domain.DailyCompletion, error) {
	record, err := s.loadOrCreate(ctx, userID, domain.DateKey(date))
	if err != nil {
		return nil, err
	}

	var nowComplete bool
	if isExercise {
		nowComplete = record.ToggleExercise(itemID)
	} else {
		nowComplete = record.ToggleMeal(itemID)
	}
	record.UpdatedAt = s.now().UTC()

	if err := s.completionRepo.Upsert(ctx, record); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindSyncFailed, "Could not save your progress. Please try again.")
	}

	s.mirrorToplan(ctx, userID, record, itemID, isExercise, nowComplete, date)
	return record, nil
}

// mirrorToplan reflects a toggle onto the plan document's isComplete flag
// (single field path, so concurrent toggles never clobber each other) and
// advances the streak when the day's tasks are all done. Every step here is
// best-effort; the completion record has already committed.
func (s *trackingService) mirrorToplan(ctx context.Context, userID string, record *domain.DailyCompletion, itemID string, isExercise, complete bool, date time.Time) {
	weekly, err := s.plans.GetCurrentPlan(ctx, userID)
	if err != nil || weekly == nil {
		return
	}

	dayIndex, day := findDayByDate(weekly, record.DateKey)
	if day == nil {
		return
	}

	itemIndex := -1
	if isExercise {
		if day.Workout != nil {
			for i, ex := range day.Workout.Exercises {
				if ex.ID == itemID {
					itemIndex = i
					break
				}
			}
		}
	} else {
		for i, meal := range day.Meals {
			if meal.ID == itemID {
				itemIndex = i
				break
			}
		}
	}

	if itemIndex >= 0 {
		if isExercise {
			day.Workout.Exercises[itemIndex].IsComplete = complete
			err = s.planRepo.SetExerciseComplete(ctx, weekly.ID, dayIndex, itemIndex, complete)
		} else {
			day.Meals[itemIndex].IsComplete = complete
			err = s.planRepo.SetMealComplete(ctx, weekly.ID, dayIndex, itemIndex, complete)
		}
		if err != nil {
			slog.Warn("plan completion flag sync failed",
				"plan_id", weekly.ID, "day_index", dayIndex, "error", err.Error())
		}
		if err := s.planCache.Set(ctx, userID, weekly); err != nil {
			slog.Warn("plan cache refresh after toggle failed", "user_id", userID, "error", err.Error())
		}
	}

	totalExercises := 0
	if day.Workout != nil {
		totalExercises = len(day.Workout.Exercises)
	}
	if complete && record.IsDayComplete(len(day.Meals), totalExercises) {
		s.advanceStreak(ctx, userID, date)
	}
}

// === Streak ===

func (s *trackingService) GetStreak(ctx context.Context, userID string) (domain.StreakData, error) {
	return s.userRepo.GetStreak(ctx, userID)
}

func (s *trackingService) CheckAndResetStreak(ctx context.Context, userID string) (domain.StreakData, error) {
	prev, err := s.userRepo.GetStreak(ctx, userID)
	if err != nil {
		return domain.StreakData{}, err
	}
	if !streak.NeedsReset(prev, s.now()) {
		return prev, nil
	}
	next := streak.Reset(prev)
	if err := s.userRepo.UpdateStreak(ctx, userID, next); err != nil {
		return domain.StreakData{}, err
	}
	slog.Info("streak lapsed and was reset", "user_id", userID, "longest_streak", next.LongestStreak)
	return next, nil
}

func (s *trackingService) advanceStreak(ctx context.Context, userID string, completionDate time.Time) {
	prev, err := s.userRepo.GetStreak(ctx, userID)
	if err != nil {
		slog.Warn("streak read failed after day completion", "user_id", userID, "error", err.Error())
		return
	}
	next := streak.Advance(prev, completionDate)
	if err := s.userRepo.UpdateStreak(ctx, userID, next); err != nil {
		slog.Warn("streak update failed after day completion", "user_id", userID, "error", err.Error())
	}
}

// === Helpers ===

func (s *trackingService) loadOrCreate(ctx context.Context, userID, dateKey string) (*domain.DailyCompletion, error) {
	record, err := s.completionRepo.Get(ctx, userID, dateKey)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Wrap(err, apperrors.KindSyncFailed, "Could not load your progress.")
	}
	return domain.NewDailyCompletion(userID, dateKey), nil
}

// findDayByDate matches a completion date key against plan day dates.
func findDayByDate(weekly *domain.WeeklyPlan, dateKey string) (int, *domain.DayPlan) {
	for i := range weekly.Days {
		day := &weekly.Days[i]
		if !day.Date.IsZero() && domain.DateKey(day.Date) == dateKey {
			return i, day
		}
	}
	return -1, nil
}
