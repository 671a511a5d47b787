package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"taskmind/internal/models"
)

// Classifier assigns a category and a priority to a task by asking a
// text-generation model for a single-word label. It never fails: any model
// error, timeout or off-enum reply collapses to the default label, so task
// creation is never blocked by classification.
type Classifier struct {
	model     llms.Model
	maxTokens int
	logger    *slog.Logger
}

// New builds a classifier around the given model. A nil model yields a
// classifier that always returns the defaults.
func New(model llms.Model, maxTokens int, logger *slog.Logger) *Classifier {
	if maxTokens <= 0 {
		maxTokens = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{model: model, maxTokens: maxTokens, logger: logger}
}

var categoryHints = []string{
	"work: job, meetings, projects, professional tasks",
	"personal: errands, social plans, life admin",
	"health: exercise, appointments, medication, wellbeing",
	"home: chores, repairs, household upkeep",
	"learning: study, reading, courses, practice",
	"shopping: purchases, groceries, orders",
	"other: anything that fits none of the above",
}

var priorityHints = []string{
	"low: no deadline, can wait indefinitely",
	"medium: should happen soon but nothing breaks if it slips",
	"high: urgent or time-sensitive, needs attention now",
}

// Category asks the model for the task's category label.
func (c *Classifier) Category(ctx context.Context, title, description string) models.Category {
	reply, err := c.generate(ctx, "category", title, description, categoryHints)
	if err != nil {
		c.logger.Warn("category classification failed", slog.String("error", err.Error()))
		return models.DefaultCategory
	}
	label := models.Category(reply)
	if _, ok := models.ValidCategories[label]; !ok {
		c.logger.Warn("category outside label set", slog.String("reply", reply))
		return models.DefaultCategory
	}
	return label
}

// Priority asks the model for the task's priority label.
func (c *Classifier) Priority(ctx context.Context, title, description string) models.Priority {
	reply, err := c.generate(ctx, "priority", title, description, priorityHints)
	if err != nil {
		c.logger.Warn("priority classification failed", slog.String("error", err.Error()))
		return models.DefaultPriority
	}
	label := models.Priority(reply)
	if _, ok := models.ValidPriorities[label]; !ok {
		c.logger.Warn("priority outside label set", slog.String("reply", reply))
		return models.DefaultPriority
	}
	return label
}

// Classify resolves both labels for one task. The two model calls are
// independent, so they run concurrently and are joined before returning.
func (c *Classifier) Classify(ctx context.Context, title, description string) (models.Category, models.Priority) {
	var (
		wg       sync.WaitGroup
		category models.Category
		priority models.Priority
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		category = c.Category(ctx, title, description)
	}()
	go func() {
		defer wg.Done()
		priority = c.Priority(ctx, title, description)
	}()
	wg.Wait()
	return category, priority
}

func (c *Classifier) generate(ctx context.Context, kind, title, description string, hints []string) (string, error) {
	if c.model == nil {
		return "", fmt.Errorf("no model configured")
	}
	prompt := buildPrompt(kind, title, description, hints)
	reply, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
		llms.WithMaxTokens(c.maxTokens),
		llms.WithTemperature(0),
	)
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", kind, err)
	}
	return strings.ToLower(strings.TrimSpace(reply)), nil
}

func buildPrompt(kind, title, description string, hints []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pick the %s of the following task.\n", kind)
	fmt.Fprintf(&b, "Task: %s\n", title)
	if description != "" {
		fmt.Fprintf(&b, "Details: %s\n", description)
	}
	b.WriteString("Valid answers:\n")
	for _, h := range hints {
		fmt.Fprintf(&b, "- %s\n", h)
	}
	b.WriteString("Answer with exactly one word from the list above, nothing else.")
	return b.String()
}
