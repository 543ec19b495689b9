package plan

import (
	"fmt"

	"fitweek/planner/internal/apperrors"
	"fitweek/planner/internal/domain"
)

// Merge applies an AI-proposed day-indexed diff onto current and returns the
// merged plan. The input plan is never mutated; days absent from the diff are
// carried over untouched.
//
// A rejected modification produces an invalidRequest error carrying the AI's
// explanation and no merged plan. The merged result passes through the same
// structural validation as a freshly generated plan before it is returned.
func Merge(current *domain.WeeklyPlan, mod *domain.PlanModification) (*domain.WeeklyPlan, error) {
	if current == nil {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "There is no plan to modify yet.")
	}
	if mod == nil || !mod.Type.IsValid() {
		return nil, apperrors.New(apperrors.KindInvalidResponse, "The AI returned an unknown modification type.")
	}
	if mod.Type == domain.ModificationRejected {
		explanation := mod.Explanation
		if explanation == "" {
			explanation = "The AI could not apply this modification."
		}
		return nil, apperrors.New(apperrors.KindInvalidRequest, explanation)
	}

	merged := *current
	merged.Days = make([]domain.DayPlan, len(current.Days))
	copy(merged.Days, current.Days)

	for _, day := range mod.ModifiedDays {
		if day.DayIndex < 0 || day.DayIndex >= len(merged.Days) {
			return nil, apperrors.Wrap(
				fmt.Errorf("modified day index %d out of range", day.DayIndex),
				apperrors.KindInvalidResponse,
				"The AI modified a day that does not exist.",
			)
		}

		// Whole-day replacement, but the date stays anchored to the plan's
		// start date even when the AI omitted it.
		replacement := day
		if replacement.Date.IsZero() {
			replacement.Date = merged.Days[day.DayIndex].Date
		}
		merged.Days[day.DayIndex] = replacement
	}

	if err := ValidateStructure(&merged); err != nil {
		return nil, err
	}
	return &merged, nil
}
