// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
journal.go - personal journal adapter

Reads a local YAML journal and surfaces scrapbook cards: entries written
on this day in earlier years first, then the most recent entries. The
file is the single source of truth; edits are picked up on mtime change.

	entries:
	  - id: 2021-03-14-pi-day
	    date: 2021-03-14
	    title: Pi day
	    text: |
	      Made a terrible pie.
	    tags: [family]
*/

package source

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/boonware/boonscroll/internal/models"
)

// JournalConfig configures the journal adapter.
type JournalConfig struct {
	// Path to the journal YAML file.
	Path string
}

// Journal is the scrapbook-tier adapter over a local journal file.
type Journal struct {
	store *yamlStore[journalFile]

	now func() time.Time
}

var _ Adapter = (*Journal)(nil)

// NewJournal creates the journal adapter.
func NewJournal(cfg JournalConfig) *Journal {
	path := cfg.Path
	if path == "" {
		path = "data/journal.yaml"
	}
	return &Journal{
		store: newYAMLStore[journalFile](path),
		now:   time.Now,
	}
}

func (j *Journal) SourceType() string       { return "journal" }
func (j *Journal) Prefixes() []Prefix       { return []Prefix{{Prefix: "jrnl"}} }
func (j *Journal) DefaultTier() models.Tier { return models.TierScrapbook }

type journalFile struct {
	Entries []journalEntry `yaml:"entries"`
}

type journalEntry struct {
	ID    string   `yaml:"id"`
	Date  string   `yaml:"date"` // 2006-01-02
	Title string   `yaml:"title"`
	Text  string   `yaml:"text"`
	Tags  []string `yaml:"tags"`
}

// Fetch returns a single page: on-this-day entries from earlier years
// ranked by age, then the most recent entries to fill out the page.
func (j *Journal) Fetch(_ context.Context, q FetchQuery) (FetchResult, error) {
	if q.Page != "" {
		return FetchResult{}, nil
	}
	doc, err := j.store.load()
	if err != nil {
		return FetchResult{}, fmt.Errorf("journal: %w", err)
	}

	today := j.now()
	var anniversaries, recent []*models.FeedItem
	for i := range doc.Entries {
		entry := &doc.Entries[i]
		when, perr := time.Parse("2006-01-02", entry.Date)
		if perr != nil {
			continue
		}
		item := j.itemFromEntry(entry, when, today)
		if when.Month() == today.Month() && when.Day() == today.Day() && when.Year() < today.Year() {
			item.Meta[models.MetaEventKind] = models.MetaString("onThisDay")
			anniversaries = append(anniversaries, item)
		} else {
			item.Meta[models.MetaEventKind] = models.MetaString("recent")
			recent = append(recent, item)
		}
	}

	sort.Slice(anniversaries, func(a, b int) bool {
		return anniversaries[a].Priority > anniversaries[b].Priority
	})
	sort.Slice(recent, func(a, b int) bool {
		return recent[a].Timestamp.After(recent[b].Timestamp)
	})

	items := append(anniversaries, recent...)
	if size := pageSizeOrDefault(q, 10); len(items) > size {
		items = items[:size]
	}
	return FetchResult{Items: items}, nil
}

// GetItem looks the entry up by id.
func (j *Journal) GetItem(_ context.Context, localID string) (*models.FeedItem, error) {
	doc, err := j.store.load()
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	today := j.now()
	for i := range doc.Entries {
		entry := &doc.Entries[i]
		if entry.ID != localID {
			continue
		}
		when, perr := time.Parse("2006-01-02", entry.Date)
		if perr != nil {
			return nil, fmt.Errorf("journal entry %s has bad date %q: %w", localID, entry.Date, ErrNotFound)
		}
		return j.itemFromEntry(entry, when, today), nil
	}
	return nil, fmt.Errorf("journal entry %s: %w", localID, ErrNotFound)
}

// GetDetail renders the full entry text plus its metadata.
func (j *Journal) GetDetail(ctx context.Context, localID string, _ models.Meta) ([]models.DetailSection, error) {
	item, err := j.GetItem(ctx, localID)
	if err != nil {
		return nil, err
	}
	sections := []models.DetailSection{
		models.BodySection(item.Meta.GetString("text")),
	}
	entries := []models.LabeledValue{
		{Label: "Written", Value: item.Timestamp.Format("January 2, 2006")},
	}
	if tags := item.Meta.GetString("tags"); tags != "" {
		entries = append(entries, models.LabeledValue{Label: "Tags", Value: tags})
	}
	sections = append(sections, models.MetadataSection(entries...))
	return sections, nil
}

func (j *Journal) itemFromEntry(entry *journalEntry, when, today time.Time) *models.FeedItem {
	years := today.Year() - when.Year()
	title := entry.Title
	if title == "" {
		title = when.Format("January 2, 2006")
	}
	priority := 0
	if years > 0 {
		priority = years
	}
	return &models.FeedItem{
		ID:        models.CompoundID(j.SourceType(), entry.ID),
		Source:    j.SourceType(),
		Tier:      j.DefaultTier(),
		Title:     title,
		Body:      snippet(entry.Text),
		Timestamp: when.UTC(),
		Priority:  priority,
		Meta: models.Meta{
			"text":  models.MetaString(entry.Text),
			"tags":  models.MetaString(strings.Join(entry.Tags, ", ")),
			"years": models.MetaInt(int64(years)),
		},
	}
}
