package domain

import "time"

// DateKeyLayout is the ISO date-only format used to key completion records.
const DateKeyLayout = "2006-01-02"

// DateKey formats t as the ISO date-only key used for completion documents.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// DailyCompletion records which meal and exercise identifiers a user has
// marked done on a single calendar date. It carries no knowledge of the
// plan's shape; day completeness is computed by the caller supplying the
// day's actual totals.
type DailyCompletion struct {
	UserID               string    `bson:"userId" json:"userId"`
	DateKey              string    `bson:"dateKey" json:"dateKey"`
	CompletedMealIDs     []string  `bson:"completedMealIds" json:"completedMealIds"`
	CompletedExerciseIDs []string  `bson:"completedExerciseIds" json:"completedExerciseIds"`
	UpdatedAt            time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewDailyCompletion returns an empty completion record for the given user
// and date key. Records are created empty on first read if absent.
func NewDailyCompletion(userID, dateKey string) *DailyCompletion {
	return &DailyCompletion{
		UserID:               userID,
		DateKey:              dateKey,
		CompletedMealIDs:     []string{},
		CompletedExerciseIDs: []string{},
	}
}

// HasMeal reports whether the meal id is marked complete.
func (c *DailyCompletion) HasMeal(mealID string) bool {
	return contains(c.CompletedMealIDs, mealID)
}

// HasExercise reports whether the exercise id is marked complete.
func (c *DailyCompletion) HasExercise(exerciseID string) bool {
	return contains(c.CompletedExerciseIDs, exerciseID)
}

// ToggleMeal flips the completion state of the meal id and reports the new
// state.
func (c *DailyCompletion) ToggleMeal(mealID string) bool {
	if c.HasMeal(mealID) {
		c.CompletedMealIDs = remove(c.CompletedMealIDs, mealID)
		return false
	}
	c.CompletedMealIDs = append(c.CompletedMealIDs, mealID)
	return true
}

// ToggleExercise flips the completion state of the exercise id and reports
// the new state.
func (c *DailyCompletion) ToggleExercise(exerciseID string) bool {
	if c.HasExercise(exerciseID) {
		c.CompletedExerciseIDs = remove(c.CompletedExerciseIDs, exerciseID)
		return false
	}
	c.CompletedExerciseIDs = append(c.CompletedExerciseIDs, exerciseID)
	return true
}

// MarkMealComplete marks the meal done. No-op if already complete.
func (c *DailyCompletion) MarkMealComplete(mealID string) {
	if !c.HasMeal(mealID) {
		c.CompletedMealIDs = append(c.CompletedMealIDs, mealID)
	}
}

// MarkMealIncomplete clears the meal. No-op if already incomplete.
func (c *DailyCompletion) MarkMealIncomplete(mealID string) {
	c.CompletedMealIDs = remove(c.CompletedMealIDs, mealID)
}

// MarkExerciseComplete marks the exercise done. No-op if already complete.
func (c *DailyCompletion) MarkExerciseComplete(exerciseID string) {
	if !c.HasExercise(exerciseID) {
		c.CompletedExerciseIDs = append(c.CompletedExerciseIDs, exerciseID)
	}
}

// MarkExerciseIncomplete clears the exercise. No-op if already incomplete.
func (c *DailyCompletion) MarkExerciseIncomplete(exerciseID string) {
	c.CompletedExerciseIDs = remove(c.CompletedExerciseIDs, exerciseID)
}

// IsDayComplete reports whether every meal and exercise of the day is done,
// given the day's actual totals. A day with no tasks at all is not complete.
func (c *DailyCompletion) IsDayComplete(totalMeals, totalExercises int) bool {
	if totalMeals == 0 && totalExercises == 0 {
		return false
	}
	return len(c.CompletedMealIDs) >= totalMeals && len(c.CompletedExerciseIDs) >= totalExercises
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
