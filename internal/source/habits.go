// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
habits.go - habit tracker adapter

Surfaces each habit once per day as a compass rating card until the
user logs it. Ratings append to the log section of the same file, which
doubles as the habit history.

	habits:
	  - id: stretching
	    name: Morning stretching
	    prompt: How did stretching go today?
	    scale: 5
	log:
	  - habit: stretching
	    date: 2026-08-25
	    rating: 4
*/

package source

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/boonware/boonscroll/internal/models"
)

// HabitsConfig configures the habits adapter.
type HabitsConfig struct {
	// Path to the habits YAML file.
	Path string
}

// Habits is the compass-tier adapter over a local habit tracker.
type Habits struct {
	store *yamlStore[habitFile]

	now func() time.Time
}

var (
	_ Adapter   = (*Habits)(nil)
	_ Responder = (*Habits)(nil)
)

// NewHabits creates the habits adapter.
func NewHabits(cfg HabitsConfig) *Habits {
	path := cfg.Path
	if path == "" {
		path = "data/habits.yaml"
	}
	return &Habits{
		store: newYAMLStore[habitFile](path),
		now:   time.Now,
	}
}

func (h *Habits) SourceType() string       { return "habits" }
func (h *Habits) Prefixes() []Prefix       { return []Prefix{{Prefix: "habit"}} }
func (h *Habits) DefaultTier() models.Tier { return models.TierCompass }

type habitFile struct {
	Habits []habitRecord   `yaml:"habits"`
	Log    []habitLogEntry `yaml:"log,omitempty"`
}

type habitRecord struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Prompt string `yaml:"prompt,omitempty"`
	Scale  int    `yaml:"scale,omitempty"` // defaults to 5
}

type habitLogEntry struct {
	Habit  string `yaml:"habit"`
	Date   string `yaml:"date"` // 2006-01-02
	Rating int    `yaml:"rating"`
}

// Fetch returns one rating card per habit not yet logged today.
func (h *Habits) Fetch(_ context.Context, q FetchQuery) (FetchResult, error) {
	if q.Page != "" {
		return FetchResult{}, nil
	}
	doc, err := h.store.load()
	if err != nil {
		return FetchResult{}, fmt.Errorf("habits: %w", err)
	}

	today := h.now().UTC().Format("2006-01-02")
	logged := make(map[string]bool, len(doc.Log))
	for _, entry := range doc.Log {
		if entry.Date == today {
			logged[entry.Habit] = true
		}
	}

	var items []*models.FeedItem
	for i := range doc.Habits {
		habit := &doc.Habits[i]
		if logged[habit.ID] {
			continue
		}
		items = append(items, h.itemFromHabit(habit, doc.Log))
	}
	if size := pageSizeOrDefault(q, 10); len(items) > size {
		items = items[:size]
	}
	return FetchResult{Items: items}, nil
}

// GetItem looks the habit up by id; the card is the same whether or not
// it was logged today.
func (h *Habits) GetItem(_ context.Context, localID string) (*models.FeedItem, error) {
	doc, err := h.store.load()
	if err != nil {
		return nil, fmt.Errorf("habits: %w", err)
	}
	for i := range doc.Habits {
		if doc.Habits[i].ID == localID {
			return h.itemFromHabit(&doc.Habits[i], doc.Log), nil
		}
	}
	return nil, fmt.Errorf("habit %s: %w", localID, ErrNotFound)
}

// GetDetail renders the prompt plus streak statistics from the log.
func (h *Habits) GetDetail(ctx context.Context, localID string, _ models.Meta) ([]models.DetailSection, error) {
	item, err := h.GetItem(ctx, localID)
	if err != nil {
		return nil, err
	}
	sections := []models.DetailSection{}
	if body := item.Body; body != "" {
		sections = append(sections, models.BodySection(body))
	}
	sections = append(sections, models.DetailSection{
		Kind: models.SectionStats,
		Entries: []models.LabeledValue{
			{Label: "Streak", Value: item.Meta.GetString("streak") + " days"},
			{Label: "Logged", Value: item.Meta.GetString("logged") + " times"},
		},
	})
	return sections, nil
}

// HandleResponse records a rating for today. The response is the rating
// as a decimal string; values outside 1..scale are rejected.
func (h *Habits) HandleResponse(_ context.Context, _ string, localID, response string, _ map[string]string) (map[string]interface{}, error) {
	doc, err := h.store.load()
	if err != nil {
		return nil, fmt.Errorf("habits: %w", err)
	}

	var habit *habitRecord
	for i := range doc.Habits {
		if doc.Habits[i].ID == localID {
			habit = &doc.Habits[i]
			break
		}
	}
	if habit == nil {
		return nil, fmt.Errorf("habit %s: %w", localID, ErrNotFound)
	}

	rating, err := strconv.Atoi(response)
	if err != nil || rating < 1 || rating > habitScale(habit) {
		return nil, fmt.Errorf("habit %s: rating %q out of range 1..%d", localID, response, habitScale(habit))
	}

	today := h.now().UTC().Format("2006-01-02")
	for i := range doc.Log {
		if doc.Log[i].Habit == localID && doc.Log[i].Date == today {
			doc.Log[i].Rating = rating // re-rating overwrites
			if err := h.store.save(doc); err != nil {
				return nil, fmt.Errorf("habits: %w", err)
			}
			return map[string]interface{}{"action": "rated", "habit": localID, "rating": rating}, nil
		}
	}

	doc.Log = append(doc.Log, habitLogEntry{Habit: localID, Date: today, Rating: rating})
	if err := h.store.save(doc); err != nil {
		return nil, fmt.Errorf("habits: %w", err)
	}
	return map[string]interface{}{"action": "rated", "habit": localID, "rating": rating}, nil
}

func (h *Habits) itemFromHabit(habit *habitRecord, log []habitLogEntry) *models.FeedItem {
	prompt := habit.Prompt
	if prompt == "" {
		prompt = "How did it go today?"
	}
	streak, total := habitStats(habit.ID, log, h.now().UTC())
	return &models.FeedItem{
		ID:        models.CompoundID(h.SourceType(), habit.ID),
		Source:    h.SourceType(),
		Tier:      h.DefaultTier(),
		Title:     habit.Name,
		Body:      prompt,
		Timestamp: dateOnly(h.now()),
		Meta: models.Meta{
			"streak": models.MetaString(strconv.Itoa(streak)),
			"logged": models.MetaString(strconv.Itoa(total)),
		},
		Interaction: &models.Interaction{
			Kind:     models.InteractionRating,
			Rating:   &models.RatingSpec{Scale: habitScale(habit)},
			Endpoint: "/feed/respond",
			Context:  map[string]string{"itemId": models.CompoundID(h.SourceType(), habit.ID)},
		},
	}
}

func habitScale(habit *habitRecord) int {
	if habit.Scale > 0 {
		return habit.Scale
	}
	return 5
}

// habitStats counts consecutive logged days ending yesterday-or-today
// plus the all-time log count.
func habitStats(habitID string, log []habitLogEntry, now time.Time) (streak, total int) {
	days := make(map[string]bool)
	for _, entry := range log {
		if entry.Habit == habitID {
			days[entry.Date] = true
			total++
		}
	}
	cursor := now
	if !days[cursor.Format("2006-01-02")] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for days[cursor.Format("2006-01-02")] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak, total
}
