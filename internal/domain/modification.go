package domain

// ModificationType discriminates an AI-proposed plan modification.
type ModificationType string

const (
	ModificationDayReplacement ModificationType = "dayReplacement"
	ModificationWorkoutUpdate  ModificationType = "workoutUpdate"
	ModificationMealUpdate     ModificationType = "mealUpdate"
	ModificationRejected       ModificationType = "rejected"
)

// IsValid reports whether t is one of the known modification types.
func (t ModificationType) IsValid() bool {
	switch t {
	case ModificationDayReplacement, ModificationWorkoutUpdate, ModificationMealUpdate, ModificationRejected:
		return true
	}
	return false
}

// PlanModification is a day-indexed diff proposed by the AI against an
// existing plan. When Type is "rejected" ModifiedDays is empty and
// Explanation carries the AI's refusal text.
type PlanModification struct {
	Type         ModificationType `json:"modificationType"`
	ModifiedDays []DayPlan        `json:"modifiedDays"`
	Explanation  string           `json:"explanation"`
}
