package tasklist

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskmind/internal/auth"
	"taskmind/internal/classify"
	"taskmind/internal/models"
	"taskmind/internal/storage"
)

// ErrEmptyTitle rejects a create whose trimmed title is empty. No store or
// classifier call is made and no state changes.
var ErrEmptyTitle = errors.New("task title must not be empty")

const loadTimeout = 30 * time.Second

// Controller owns the in-memory task collections, one per signed-in owner.
// Mutations persist first and touch memory only after the store call
// succeeds, so a failed operation leaves the last known-good state intact.
// Collections are replaced or copied, never mutated in place.
type Controller struct {
	store      storage.Store
	classifier *classify.Classifier
	logger     *slog.Logger

	mu     sync.Mutex
	owners map[string]*ownerState
}

type ownerState struct {
	tasks    []models.Task
	loading  bool
	creating bool
}

// Summary aggregates counts over an owner's full collection.
type Summary struct {
	Total            int `json:"total"`
	Completed        int `json:"completed"`
	Remaining        int `json:"remaining"`
	HighPriorityOpen int `json:"high_priority_open"`
}

// New builds a controller over the given store and classifier.
func New(store storage.Store, classifier *classify.Classifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:      store,
		classifier: classifier,
		logger:     logger,
		owners:     make(map[string]*ownerState),
	}
}

// BindAuth subscribes the controller to auth-state changes: sign-in loads
// the owner's tasks, sign-out drops the owner's collection. The returned
// function unsubscribes.
func (c *Controller) BindAuth(svc *auth.Service) func() {
	return svc.Subscribe(func(ev auth.Event) {
		if ev.SignedIn {
			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()
			if err := c.Load(ctx, ev.User.ID); err != nil {
				c.logger.Warn("initial task load failed",
					slog.String("owner", ev.User.ID), slog.String("error", err.Error()))
			}
			return
		}
		c.evict(ev.User.ID)
	})
}

// Load replaces the owner's collection with the store's view. Records with
// a blank id are dropped and duplicate ids are collapsed (last seen wins).
// On failure the previous collection is kept and the error is returned for
// the caller to surface.
func (c *Controller) Load(ctx context.Context, owner string) error {
	c.setLoading(owner, true)
	defer c.setLoading(owner, false)

	fetched, err := c.store.List(ctx, owner)
	if err != nil {
		return err
	}

	tasks := dedupe(fetched)
	sortNewestFirst(tasks)

	c.mu.Lock()
	c.state(owner).tasks = tasks
	c.mu.Unlock()
	return nil
}

// sortNewestFirst enforces the collection order regardless of how the
// backend returned the records. Stable so equal timestamps keep their
// post-dedupe positions.
func sortNewestFirst(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

// dedupe drops blank-id records and collapses duplicate ids, keeping the
// position of the first occurrence and the value of the last.
func dedupe(tasks []models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	index := make(map[string]int, len(tasks))
	for _, t := range tasks {
		if strings.TrimSpace(t.ID) == "" {
			continue
		}
		if pos, seen := index[t.ID]; seen {
			out[pos] = t
			continue
		}
		index[t.ID] = len(out)
		out = append(out, t)
	}
	return out
}

// Create classifies, persists and inserts a new task at the front of the
// owner's collection. The two classification calls run concurrently and
// never fail; persistence failure returns the error with no state change.
func (c *Controller) Create(ctx context.Context, owner, title, description string, due *time.Time) (models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Task{}, ErrEmptyTitle
	}
	description = strings.TrimSpace(description)

	c.setCreating(owner, true)
	defer c.setCreating(owner, false)

	category, priority := c.classifier.Classify(ctx, title, description)

	task := models.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Category:    category,
		Priority:    priority,
		Completed:   false,
		CreatedAt:   time.Now().UTC(),
		DueDate:     due,
		Owner:       owner,
	}

	if err := c.store.Create(ctx, task); err != nil {
		return models.Task{}, err
	}

	c.mu.Lock()
	state := c.state(owner)
	// Guards against duplicate insertion from rapid double-submission.
	kept := withoutID(state.tasks, task.ID)
	state.tasks = append([]models.Task{task}, kept...)
	c.mu.Unlock()

	return task, nil
}

// Toggle persists the new completed state, then reflects it in memory. A
// blank id is a no-op; a store failure leaves memory untouched.
func (c *Controller) Toggle(ctx context.Context, owner, id string, completed bool) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}

	if err := c.store.Update(ctx, owner, id, map[string]any{"completed": completed}); err != nil {
		return err
	}

	c.mu.Lock()
	state := c.state(owner)
	next := make([]models.Task, len(state.tasks))
	copy(next, state.tasks)
	for i := range next {
		if next[i].ID == id {
			next[i].Completed = completed
		}
	}
	state.tasks = next
	c.mu.Unlock()
	return nil
}

// Delete removes the task from the store, then from memory. A store failure
// leaves memory untouched.
func (c *Controller) Delete(ctx context.Context, owner, id string) error {
	if err := c.store.Delete(ctx, owner, id); err != nil {
		return err
	}

	c.mu.Lock()
	state := c.state(owner)
	state.tasks = withoutID(state.tasks, id)
	c.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the owner's collection plus the in-flight flags.
func (c *Controller) Snapshot(owner string) (tasks []models.Task, loading, creating bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.state(owner)
	tasks = make([]models.Task, len(state.tasks))
	copy(tasks, state.tasks)
	return tasks, state.loading, state.creating
}

// Filter reports the tasks visible under the current search term and
// category selection. A task matches when its title or description contains
// the term case-insensitively and the category filter is "all" (or empty)
// or equals the task's category. Pure; derived from state, never stored.
func Filter(tasks []models.Task, search, category string) []models.Task {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		if category != "" && category != "all" && category != string(t.Category) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Stats aggregates over the full collection, not a filtered view.
func Stats(tasks []models.Task) Summary {
	s := Summary{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
			continue
		}
		if t.Priority == models.PriorityHigh {
			s.HighPriorityOpen++
		}
	}
	s.Remaining = s.Total - s.Completed
	return s
}

// state returns the owner's bucket, creating it on first touch. Callers hold c.mu.
func (c *Controller) state(owner string) *ownerState {
	st, ok := c.owners[owner]
	if !ok {
		st = &ownerState{}
		c.owners[owner] = st
	}
	return st
}

func (c *Controller) setLoading(owner string, v bool) {
	c.mu.Lock()
	c.state(owner).loading = v
	c.mu.Unlock()
}

func (c *Controller) setCreating(owner string, v bool) {
	c.mu.Lock()
	c.state(owner).creating = v
	c.mu.Unlock()
}

func (c *Controller) evict(owner string) {
	c.mu.Lock()
	delete(c.owners, owner)
	c.mu.Unlock()
}

func withoutID(tasks []models.Task, id string) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == id {
			continue
		}
		out = append(out, t)
	}
	return out
}
