package model

// MacroProfile is a snapshot of the day's intake, in grams and kcal.
type MacroProfile struct {
	Protein  float64 `json:"protein" yaml:"protein" binding:"gte=0"`
	Carbs    float64 `json:"carbs" yaml:"carbs" binding:"gte=0"`
	Fats     float64 `json:"fats" yaml:"fats" binding:"gte=0"`
	Calories float64 `json:"calories" yaml:"calories" binding:"gte=0"`
}

// DefaultMacroProfile is the dashboard snapshot used when a caller has no intake yet.
var DefaultMacroProfile = MacroProfile{Protein: 85, Carbs: 210, Fats: 42, Calories: 1850}

// Validate rejects negative values.
func (m MacroProfile) Validate() error {
	return nonNegative(
		field{"protein", m.Protein},
		field{"carbs", m.Carbs},
		field{"fats", m.Fats},
		field{"calories", m.Calories},
	)
}

// IsZero reports whether no macro value was supplied.
func (m MacroProfile) IsZero() bool {
	return m == MacroProfile{}
}
