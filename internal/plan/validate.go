// Package plan holds the structural rules of a weekly plan and the partial
// modification merge. Both freshly generated and merged plans pass through the
// same validation before anything is persisted.
package plan

import (
	"fmt"

	"fitweek/planner/internal/apperrors"
	"fitweek/planner/internal/domain"
)

// DaysPerWeek is the fixed length of every weekly plan.
const DaysPerWeek = 7

// ValidateStructure enforces the plan invariants: exactly 7 days, day i at
// index i, known workout types, empty exercise lists on rest days and sane
// exercise numbers. It returns an invalidResponse error naming the first
// violation.
func ValidateStructure(p *domain.WeeklyPlan) error {
	if p == nil {
		return apperrors.New(apperrors.KindInvalidResponse, "The plan is missing.")
	}
	if len(p.Days) != DaysPerWeek {
		return structural(fmt.Sprintf("plan has %d days, expected %d", len(p.Days), DaysPerWeek))
	}

	for i := range p.Days {
		day := &p.Days[i]
		if day.DayIndex != i {
			return structural(fmt.Sprintf("day at position %d has index %d", i, day.DayIndex))
		}
		if err := validateDay(day); err != nil {
			return err
		}
	}
	return nil
}

func validateDay(day *domain.DayPlan) error {
	if day.Workout != nil {
		if !day.Workout.Type.IsValid() {
			return structural(fmt.Sprintf("day %d has unknown workout type %q", day.DayIndex, day.Workout.Type))
		}
		if day.Workout.Type == domain.WorkoutRest && len(day.Workout.Exercises) > 0 {
			return structural(fmt.Sprintf("day %d is a rest day but carries %d exercises", day.DayIndex, len(day.Workout.Exercises)))
		}
		for _, ex := range day.Workout.Exercises {
			if ex.Name == "" {
				return structural(fmt.Sprintf("day %d has an exercise without a name", day.DayIndex))
			}
			if ex.Sets <= 0 || ex.Reps <= 0 {
				return structural(fmt.Sprintf("day %d exercise %q has non-positive sets or reps", day.DayIndex, ex.Name))
			}
		}
	}

	for _, meal := range day.Meals {
		if meal.ID == "" {
			return structural(fmt.Sprintf("day %d has a meal without an id", day.DayIndex))
		}
		if meal.Name == "" {
			return structural(fmt.Sprintf("day %d has a meal without a name", day.DayIndex))
		}
	}
	return nil
}

func structural(detail string) error {
	return apperrors.Wrap(fmt.Errorf("%s", detail), apperrors.KindInvalidResponse, "The generated plan failed validation.")
}
