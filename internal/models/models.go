package models

import "time"

// Category labels a task by area of life.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryHealth   Category = "health"
	CategoryHome     Category = "home"
	CategoryLearning Category = "learning"
	CategoryShopping Category = "shopping"
	CategoryOther    Category = "other"
)

// Priority labels how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultCategory and DefaultPriority are applied whenever classification
// fails or returns a label outside the closed sets.
const (
	DefaultCategory = CategoryOther
	DefaultPriority = PriorityMedium
)

// ValidCategories enumerates the categories a task may carry.
var ValidCategories = map[Category]struct{}{
	CategoryWork:     {},
	CategoryPersonal: {},
	CategoryHealth:   {},
	CategoryHome:     {},
	CategoryLearning: {},
	CategoryShopping: {},
	CategoryOther:    {},
}

// ValidPriorities enumerates the priorities a task may carry.
var ValidPriorities = map[Priority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
}

// Task represents a single todo item owned by one user.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Priority    Priority   `json:"priority"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Owner       string     `json:"owner"`
}

// Normalize clamps category and priority to their closed sets so that
// whatever the backend stored never leaks an unknown label into app state.
func (t *Task) Normalize() {
	if _, ok := ValidCategories[t.Category]; !ok {
		t.Category = DefaultCategory
	}
	if _, ok := ValidPriorities[t.Priority]; !ok {
		t.Priority = DefaultPriority
	}
}

// User identifies an authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
