package domain

// FitnessGoal is the user's primary training objective.
type FitnessGoal string

const (
	GoalLoseWeight  FitnessGoal = "lose_weight"
	GoalBuildMuscle FitnessGoal = "build_muscle"
	GoalEndurance   FitnessGoal = "endurance"
	GoalMaintain    FitnessGoal = "maintain"
)

// IsValid reports whether g is one of the known fitness goals.
func (g FitnessGoal) IsValid() bool {
	switch g {
	case GoalLoseWeight, GoalBuildMuscle, GoalEndurance, GoalMaintain:
		return true
	}
	return false
}

// UserProfileSnapshot is an immutable copy of the user's biometrics, goal,
// equipment and dietary restrictions taken at plan-creation time. It is
// embedded in the plan for reproducibility and never mutated afterwards.
type UserProfileSnapshot struct {
	Age                 int         `bson:"age" json:"age"`
	Gender              string      `bson:"gender" json:"gender"`
	HeightCm            float64     `bson:"heightCm" json:"heightCm"`
	WeightKg            float64     `bson:"weightKg" json:"weightKg"`
	Goal                FitnessGoal `bson:"goal" json:"goal"`
	ActivityLevel       string      `bson:"activityLevel" json:"activityLevel"`
	Equipment           []string    `bson:"equipment" json:"equipment"`
	DietaryRestrictions []string    `bson:"dietaryRestrictions" json:"dietaryRestrictions"`
}
