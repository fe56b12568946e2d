package lessons

// Category groups lessons by topic.
type Category string

const (
	CategoryHealth  Category = "health"
	CategoryScience Category = "science"
	CategorySocial  Category = "social"
	CategoryLegal   Category = "legal"
	CategoryMyths   Category = "myths"
)

// AllCategories returns all categories in display order.
func AllCategories() []Category {
	return []Category{CategoryHealth, CategoryScience, CategorySocial, CategoryLegal, CategoryMyths}
}

// DisplayName returns a human-readable label for the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryHealth:
		return "Health Effects"
	case CategoryScience:
		return "Science"
	case CategorySocial:
		return "Social Pressure"
	case CategoryLegal:
		return "Legal"
	case CategoryMyths:
		return "Myths vs Facts"
	default:
		return string(c)
	}
}

func (c Category) valid() bool {
	for _, k := range AllCategories() {
		if c == k {
			return true
		}
	}
	return false
}

// Difficulty determines how many attempts earn points.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// MaxAttempts returns the number of attempts that can still earn points,
// or 0 for an unknown difficulty.
func (d Difficulty) MaxAttempts() int {
	switch d {
	case DifficultyBeginner:
		return 5
	case DifficultyIntermediate:
		return 7
	case DifficultyAdvanced:
		return 10
	default:
		return 0
	}
}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	return d.MaxAttempts() > 0
}

// DisplayName returns a human-readable label for the difficulty.
func (d Difficulty) DisplayName() string {
	switch d {
	case DifficultyBeginner:
		return "Beginner"
	case DifficultyIntermediate:
		return "Intermediate"
	case DifficultyAdvanced:
		return "Advanced"
	default:
		return string(d)
	}
}

// Lesson is a static piece of course content.
type Lesson struct {
	ID               string     `yaml:"id" json:"id"`
	Title            string     `yaml:"title" json:"title"`
	Category         Category   `yaml:"category" json:"category"`
	Description      string     `yaml:"description" json:"description"`
	Content          string     `yaml:"content" json:"content,omitempty"`
	Difficulty       Difficulty `yaml:"difficulty" json:"difficulty"`
	PointsReward     int        `yaml:"points_reward" json:"pointsReward"`
	EstimatedMinutes int        `yaml:"estimated_minutes" json:"estimatedMinutes"`
}

// Summary returns the lesson without its content body.
func (l Lesson) Summary() Lesson {
	l.Content = ""
	return l
}
