// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
tasks.go - task list adapter

Surfaces open tasks from a local YAML list as compass cards with
complete/snooze buttons. Responses mutate the file in place, so the
list works as a standalone store and the scroll is just a view onto it.

	tasks:
	  - id: water-plants
	    title: Water the plants
	    due: 2026-08-26
	    notes: The fern looks thirsty.
*/

package source

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/boonware/boonscroll/internal/models"
)

// TasksConfig configures the tasks adapter.
type TasksConfig struct {
	// Path to the tasks YAML file.
	Path string
}

// Tasks is the compass-tier adapter over a local task list.
type Tasks struct {
	store *yamlStore[taskFile]

	now func() time.Time
}

var (
	_ Adapter   = (*Tasks)(nil)
	_ Responder = (*Tasks)(nil)
)

// NewTasks creates the tasks adapter.
func NewTasks(cfg TasksConfig) *Tasks {
	path := cfg.Path
	if path == "" {
		path = "data/tasks.yaml"
	}
	return &Tasks{
		store: newYAMLStore[taskFile](path),
		now:   time.Now,
	}
}

func (t *Tasks) SourceType() string       { return "tasks" }
func (t *Tasks) Prefixes() []Prefix       { return []Prefix{{Prefix: "task"}} }
func (t *Tasks) DefaultTier() models.Tier { return models.TierCompass }

type taskFile struct {
	Tasks []taskRecord `yaml:"tasks"`
}

type taskRecord struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Notes  string `yaml:"notes,omitempty"`
	Due    string `yaml:"due,omitempty"` // 2006-01-02
	Done   bool   `yaml:"done,omitempty"`
	DoneAt string `yaml:"done_at,omitempty"`
}

// Fetch returns open tasks due today or overdue, most overdue first.
// Undated tasks surface last. Single page.
func (t *Tasks) Fetch(_ context.Context, q FetchQuery) (FetchResult, error) {
	if q.Page != "" {
		return FetchResult{}, nil
	}
	doc, err := t.store.load()
	if err != nil {
		return FetchResult{}, fmt.Errorf("tasks: %w", err)
	}

	today := dateOnly(t.now())
	var items []*models.FeedItem
	for i := range doc.Tasks {
		task := &doc.Tasks[i]
		if task.Done {
			continue
		}
		due, hasDue := parseDate(task.Due)
		if hasDue && due.After(today) {
			continue // not yet actionable
		}
		items = append(items, t.itemFromTask(task, due, hasDue, today))
	}

	sort.Slice(items, func(a, b int) bool {
		if items[a].Priority != items[b].Priority {
			return items[a].Priority > items[b].Priority
		}
		return items[a].Title < items[b].Title
	})
	if size := pageSizeOrDefault(q, 10); len(items) > size {
		items = items[:size]
	}
	return FetchResult{Items: items}, nil
}

// GetItem looks the task up by id.
func (t *Tasks) GetItem(_ context.Context, localID string) (*models.FeedItem, error) {
	doc, err := t.store.load()
	if err != nil {
		return nil, fmt.Errorf("tasks: %w", err)
	}
	today := dateOnly(t.now())
	for i := range doc.Tasks {
		task := &doc.Tasks[i]
		if task.ID == localID {
			due, hasDue := parseDate(task.Due)
			return t.itemFromTask(task, due, hasDue, today), nil
		}
	}
	return nil, fmt.Errorf("task %s: %w", localID, ErrNotFound)
}

// GetDetail renders notes plus due/state metadata.
func (t *Tasks) GetDetail(ctx context.Context, localID string, _ models.Meta) ([]models.DetailSection, error) {
	item, err := t.GetItem(ctx, localID)
	if err != nil {
		return nil, err
	}
	var sections []models.DetailSection
	if notes := item.Meta.GetString("notes"); notes != "" {
		sections = append(sections, models.BodySection(notes))
	}
	entries := []models.LabeledValue{
		{Label: "Status", Value: item.Meta.GetString("status")},
	}
	if due := item.Meta.GetString("due"); due != "" {
		entries = append(entries, models.LabeledValue{Label: "Due", Value: due})
	}
	sections = append(sections, models.MetadataSection(entries...))
	return sections, nil
}

// HandleResponse completes or snoozes a task. "done" marks it complete;
// "snooze" pushes the due date to tomorrow.
func (t *Tasks) HandleResponse(_ context.Context, _ string, localID, response string, _ map[string]string) (map[string]interface{}, error) {
	doc, err := t.store.load()
	if err != nil {
		return nil, fmt.Errorf("tasks: %w", err)
	}

	for i := range doc.Tasks {
		task := &doc.Tasks[i]
		if task.ID != localID {
			continue
		}
		switch response {
		case "done":
			task.Done = true
			task.DoneAt = t.now().UTC().Format(time.RFC3339)
		case "snooze":
			task.Due = dateOnly(t.now()).AddDate(0, 0, 1).Format("2006-01-02")
		default:
			return nil, fmt.Errorf("task %s: unknown response %q", localID, response)
		}
		if err := t.store.save(doc); err != nil {
			return nil, fmt.Errorf("tasks: %w", err)
		}
		return map[string]interface{}{
			"action": response,
			"task":   task.ID,
			"due":    task.Due,
		}, nil
	}
	return nil, fmt.Errorf("task %s: %w", localID, ErrNotFound)
}

func (t *Tasks) itemFromTask(task *taskRecord, due time.Time, hasDue bool, today time.Time) *models.FeedItem {
	status := "open"
	priority := 0
	timestamp := today
	dueLabel := ""
	if hasDue {
		timestamp = due
		dueLabel = due.Format("2006-01-02")
		if overdue := int(today.Sub(due).Hours() / 24); overdue > 0 {
			status = fmt.Sprintf("overdue by %dd", overdue)
			priority = overdue
		} else {
			status = "due today"
			priority = 1
		}
	}
	return &models.FeedItem{
		ID:        models.CompoundID(t.SourceType(), task.ID),
		Source:    t.SourceType(),
		Tier:      t.DefaultTier(),
		Title:     task.Title,
		Body:      snippet(task.Notes),
		Timestamp: timestamp.UTC(),
		Priority:  priority,
		Meta: models.Meta{
			"notes":  models.MetaString(task.Notes),
			"status": models.MetaString(status),
			"due":    models.MetaString(dueLabel),
		},
		Interaction: &models.Interaction{
			Kind: models.InteractionButtons,
			Buttons: []models.InteractionButton{
				{Label: "Done", Value: "done", Style: "primary"},
				{Label: "Snooze", Value: "snooze"},
			},
			Endpoint: "/feed/respond",
			Context:  map[string]string{"itemId": models.CompoundID(t.SourceType(), task.ID)},
		},
	}
}

func dateOnly(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	when, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return when, true
}
