package medications

// DoseStatus es el estado de una toma registrada en el historial.
// @Enum taken, missed
type DoseStatus string

const (
	DoseStatusTaken  DoseStatus = "taken"
	DoseStatusMissed DoseStatus = "missed"
)

func (s DoseStatus) Valid() bool {
	return s == DoseStatusTaken || s == DoseStatusMissed
}

// MealRelation indica cómo se toma la medicación respecto a las comidas.
// @Enum Before Meal, After Meal, Anytime, With Food
type MealRelation string

const (
	MealBefore   MealRelation = "Before Meal"
	MealAfter    MealRelation = "After Meal"
	MealAnytime  MealRelation = "Anytime"
	MealWithFood MealRelation = "With Food"
)

const DefaultRefillThreshold = 5
