// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
scripture.go - scripture / passage set adapter

Serves rotating passages from named YAML sets, one file per set under
the configured directory. A set is addressed through a named query:

	queries:
	  morning-reading:
	    source: scripture
	    params:
	      set: psalms

Rotation is deterministic by day of year, so the same passage surfaces
all day and moves on at midnight. Cards carry a quick-reply interaction;
replies append to a reflections file next to the sets.
*/

package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/boonware/boonscroll/internal/models"
)

// ScriptureConfig configures the scripture adapter.
type ScriptureConfig struct {
	// Dir holds one YAML file per passage set plus the reflections log.
	Dir string

	// DefaultSet resolves bare "verse:{id}" references. Defaults to
	// "daily".
	DefaultSet string
}

// Scripture is the library-tier adapter for passage sets.
type Scripture struct {
	dir        string
	defaultSet string

	mu    sync.Mutex
	sets  map[string]*yamlStore[scriptureSet]
	notes *yamlStore[reflectionsFile]

	now func() time.Time
}

var (
	_ Adapter   = (*Scripture)(nil)
	_ Responder = (*Scripture)(nil)
)

// NewScripture creates the scripture adapter.
func NewScripture(cfg ScriptureConfig) *Scripture {
	dir := cfg.Dir
	if dir == "" {
		dir = "data/scripture"
	}
	defaultSet := cfg.DefaultSet
	if defaultSet == "" {
		defaultSet = "daily"
	}
	return &Scripture{
		dir:        dir,
		defaultSet: defaultSet,
		sets:       make(map[string]*yamlStore[scriptureSet]),
		notes:      newYAMLStore[reflectionsFile](filepath.Join(dir, "reflections.yaml")),
		now:        time.Now,
	}
}

func (s *Scripture) SourceType() string { return "scripture" }

// Prefixes maps bare "verse:{id}" references into the default set, the
// one prefix in the registry that rewrites its local id.
func (s *Scripture) Prefixes() []Prefix {
	return []Prefix{
		{Prefix: "verse", Transform: func(localID string) string {
			return s.defaultSet + "/" + localID
		}},
	}
}

func (s *Scripture) DefaultTier() models.Tier { return models.TierLibrary }

type scriptureSet struct {
	Title    string             `yaml:"title"`
	Passages []scripturePassage `yaml:"passages"`
}

type scripturePassage struct {
	ID        string `yaml:"id"`
	Reference string `yaml:"reference"`
	Text      string `yaml:"text"`
}

type reflectionsFile struct {
	Reflections []reflection `yaml:"reflections,omitempty"`
}

type reflection struct {
	User    string `yaml:"user"`
	Passage string `yaml:"passage"` // {set}/{passageId}
	Date    string `yaml:"date"`
	Note    string `yaml:"note"`
}

// Fetch returns today's rotation slice of the queried set. Single page:
// the rotation window is the page.
func (s *Scripture) Fetch(_ context.Context, q FetchQuery) (FetchResult, error) {
	if q.Page != "" {
		return FetchResult{}, nil
	}
	setName := q.Param("set")
	if setName == "" {
		setName = s.defaultSet
	}
	set, err := s.loadSet(setName)
	if err != nil {
		return FetchResult{}, err
	}
	if len(set.Passages) == 0 {
		return FetchResult{}, nil
	}

	size := pageSizeOrDefault(q, 3)
	if size > len(set.Passages) {
		size = len(set.Passages)
	}

	// Day-of-year offset keeps the rotation stable within a day and
	// advances it across days without any stored cursor.
	start := (s.now().UTC().YearDay() * size) % len(set.Passages)
	items := make([]*models.FeedItem, 0, size)
	for i := 0; i < size; i++ {
		passage := &set.Passages[(start+i)%len(set.Passages)]
		items = append(items, s.itemFromPassage(setName, set, passage))
	}
	return FetchResult{Items: items}, nil
}

// GetItem resolves "{set}/{passageId}".
func (s *Scripture) GetItem(_ context.Context, localID string) (*models.FeedItem, error) {
	setName, passageID, found := strings.Cut(localID, "/")
	if !found {
		return nil, fmt.Errorf("scripture id %q: %w", localID, ErrNotFound)
	}
	set, err := s.loadSet(setName)
	if err != nil {
		return nil, err
	}
	for i := range set.Passages {
		if set.Passages[i].ID == passageID {
			return s.itemFromPassage(setName, set, &set.Passages[i]), nil
		}
	}
	return nil, fmt.Errorf("scripture passage %s: %w", localID, ErrNotFound)
}

// GetDetail renders the full passage text under its reference.
func (s *Scripture) GetDetail(ctx context.Context, localID string, _ models.Meta) ([]models.DetailSection, error) {
	item, err := s.GetItem(ctx, localID)
	if err != nil {
		return nil, err
	}
	return []models.DetailSection{
		{Kind: models.SectionArticle, Title: item.Title, HTML: item.Meta.GetString("text")},
		models.MetadataSection(
			models.LabeledValue{Label: "Collection", Value: item.Meta.GetString(models.MetaSourceName)},
		),
	}, nil
}

// HandleResponse appends the quick reply to the reflections log.
func (s *Scripture) HandleResponse(_ context.Context, user, localID, response string, _ map[string]string) (map[string]interface{}, error) {
	note := strings.TrimSpace(response)
	if note == "" {
		return nil, fmt.Errorf("scripture %s: empty reflection", localID)
	}

	doc, err := s.notes.load()
	if err != nil {
		// First reflection ever; start the file.
		doc = &reflectionsFile{}
	}
	doc.Reflections = append(doc.Reflections, reflection{
		User:    user,
		Passage: localID,
		Date:    s.now().UTC().Format("2006-01-02"),
		Note:    note,
	})
	if err := s.notes.save(doc); err != nil {
		return nil, fmt.Errorf("scripture reflections: %w", err)
	}
	return map[string]interface{}{"action": "reflected", "passage": localID}, nil
}

func (s *Scripture) itemFromPassage(setName string, set *scriptureSet, passage *scripturePassage) *models.FeedItem {
	localID := setName + "/" + passage.ID
	setTitle := set.Title
	if setTitle == "" {
		setTitle = setName
	}
	return &models.FeedItem{
		ID:        models.CompoundID(s.SourceType(), localID),
		Source:    s.SourceType(),
		Tier:      s.DefaultTier(),
		Title:     passage.Reference,
		Body:      snippet(passage.Text),
		Timestamp: dateOnly(s.now()),
		Meta: models.Meta{
			models.MetaSourceName: models.MetaString(setTitle),
			"text":                models.MetaString(passage.Text),
		},
		Interaction: &models.Interaction{
			Kind:      models.InteractionQuickReply,
			TextInput: &models.TextInputSpec{Placeholder: "Note a thought", MaxLength: 500},
			Endpoint:  "/feed/respond",
			Context:   map[string]string{"itemId": models.CompoundID(s.SourceType(), localID)},
		},
	}
}

func (s *Scripture) loadSet(name string) (*scriptureSet, error) {
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("scripture set %q: %w", name, ErrNotFound)
	}
	s.mu.Lock()
	store, ok := s.sets[name]
	if !ok {
		store = newYAMLStore[scriptureSet](filepath.Join(s.dir, name+".yaml"))
		s.sets[name] = store
	}
	s.mu.Unlock()

	set, err := store.load()
	if err != nil {
		return nil, fmt.Errorf("scripture set %s: %w", name, err)
	}
	return set, nil
}
