package remote

import (
	"encoding/json"
	"sort"
	"time"

	"taskmind/internal/models"
)

// boolish accepts the completed flag as a real boolean or as a numeric 0/1,
// which some record-store deployments return. Everything past this decode
// sees a plain bool.
type boolish bool

func (b *boolish) UnmarshalJSON(data []byte) error {
	var asBool bool
	if err := json.Unmarshal(data, &asBool); err == nil {
		*b = boolish(asBool)
		return nil
	}
	var asNum float64
	if err := json.Unmarshal(data, &asNum); err == nil {
		*b = asNum > 0
		return nil
	}
	*b = false
	return nil
}

// record mirrors the wire shape of a stored task.
type record struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    models.Category `json:"category"`
	Priority    models.Priority `json:"priority"`
	Completed   boolish         `json:"completed"`
	CreatedAt   time.Time       `json:"created_at"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Owner       string          `json:"owner"`
}

func (r record) toTask() models.Task {
	t := models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Priority:    r.Priority,
		Completed:   bool(r.Completed),
		CreatedAt:   r.CreatedAt,
		DueDate:     r.DueDate,
		Owner:       r.Owner,
	}
	t.Normalize()
	return t
}

func fromTask(t models.Task) record {
	return record{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Priority:    t.Priority,
		Completed:   boolish(t.Completed),
		CreatedAt:   t.CreatedAt,
		DueDate:     t.DueDate,
		Owner:       t.Owner,
	}
}

// wrapperKey is the envelope field the record store conventionally uses.
const wrapperKey = "records"

// normalizeList coerces whatever the record store returned into a task
// slice. The response envelope is not contractually stable: sometimes the
// list arrives bare, sometimes nested under "records", sometimes under an
// arbitrary key. An unrecognized shape degrades to an empty slice, never an
// error; callers must treat that as "no data available", not confirmed-empty.
func normalizeList(raw []byte) []models.Task {
	var recs []record
	if err := json.Unmarshal(raw, &recs); err == nil {
		return toTasks(recs)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return []models.Task{}
	}

	if nested, ok := envelope[wrapperKey]; ok {
		if err := json.Unmarshal(nested, &recs); err == nil {
			return toTasks(recs)
		}
	}

	// Map iteration is unordered, so walk the keys sorted to keep the
	// fallback deterministic.
	keys := make([]string, 0, len(envelope))
	for k := range envelope {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == wrapperKey {
			continue
		}
		if err := json.Unmarshal(envelope[k], &recs); err == nil && isArray(envelope[k]) {
			return toTasks(recs)
		}
		recs = nil
	}

	return []models.Task{}
}

func isArray(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return c == '['
		}
	}
	return false
}

func toTasks(recs []record) []models.Task {
	tasks := make([]models.Task, 0, len(recs))
	for _, r := range recs {
		tasks = append(tasks, r.toTask())
	}
	return tasks
}
