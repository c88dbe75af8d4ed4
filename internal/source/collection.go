// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
collection.go - curated collection adapter

Aggregates hand-picked items from other sources. A collection is a YAML
file of compound ids; each id resolves through the shared resolver and
the child adapter supplies the card. Collections are addressed through
named queries:

	queries:
	  sunday-mixtape:
	    source: collection
	    params:
	      collection: mixtape

By default children keep their own ids, so detail and interactions flow
straight to the owning adapter. rewrite_source: true re-stamps them
under the collection instead, which keeps a curated set visually
uniform but routes detail back through this adapter.
*/

package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/boonware/boonscroll/internal/models"
)

// CollectionConfig configures the collection adapter.
type CollectionConfig struct {
	// Dir holds one YAML file per collection.
	Dir string
}

// Collection is the library-tier aggregator adapter.
//
// The resolver is attached after registry construction (SetResolver)
// because the resolver itself is built over the full registry.
type Collection struct {
	dir string

	mu       sync.Mutex
	files    map[string]*yamlStore[collectionFile]
	resolver *Resolver
}

var _ Adapter = (*Collection)(nil)

// NewCollection creates the collection adapter.
func NewCollection(cfg CollectionConfig) *Collection {
	dir := cfg.Dir
	if dir == "" {
		dir = "data/collections"
	}
	return &Collection{
		dir:   dir,
		files: make(map[string]*yamlStore[collectionFile]),
	}
}

// SetResolver wires the shared id resolver in after startup.
func (c *Collection) SetResolver(r *Resolver) {
	c.mu.Lock()
	c.resolver = r
	c.mu.Unlock()
}

func (c *Collection) SourceType() string       { return "collection" }
func (c *Collection) Prefixes() []Prefix       { return []Prefix{{Prefix: "mix"}} }
func (c *Collection) DefaultTier() models.Tier { return models.TierLibrary }

type collectionFile struct {
	Title         string   `yaml:"title"`
	RewriteSource bool     `yaml:"rewrite_source,omitempty"`
	Items         []string `yaml:"items"`
}

// Fetch pages through the collection in file order; the page token is a
// decimal offset. Children that no longer resolve are skipped rather
// than failing the page.
func (c *Collection) Fetch(ctx context.Context, q FetchQuery) (FetchResult, error) {
	name := q.Param("collection")
	if name == "" {
		return FetchResult{}, fmt.Errorf("collection: no collection named in params: %w", ErrUnavailable)
	}
	doc, err := c.loadCollection(name)
	if err != nil {
		return FetchResult{}, err
	}

	offset := 0
	if q.Page != "" {
		parsed, perr := strconv.Atoi(q.Page)
		if perr != nil || parsed < 0 {
			return FetchResult{}, fmt.Errorf("collection: bad page token %q", q.Page)
		}
		offset = parsed
	}
	if offset >= len(doc.Items) {
		return FetchResult{}, nil
	}

	size := pageSizeOrDefault(q, 10)
	end := offset + size
	if end > len(doc.Items) {
		end = len(doc.Items)
	}

	items := make([]*models.FeedItem, 0, end-offset)
	for _, childID := range doc.Items[offset:end] {
		item, cerr := c.resolveChild(ctx, childID)
		if cerr != nil {
			if errors.Is(cerr, ErrNotFound) || errors.Is(cerr, ErrUnresolved) {
				continue // stale entry; the rest of the page still serves
			}
			return FetchResult{}, cerr
		}
		c.stamp(item, name, doc)
		items = append(items, item)
	}

	return FetchResult{
		Items:    items,
		HasMore:  end < len(doc.Items),
		NextPage: strconv.Itoa(end),
	}, nil
}

// GetItem resolves "{collection}/{childCompoundId}", the id shape
// rewrite_source collections stamp.
func (c *Collection) GetItem(ctx context.Context, localID string) (*models.FeedItem, error) {
	name, childID, found := strings.Cut(localID, "/")
	if !found {
		return nil, fmt.Errorf("collection id %q: %w", localID, ErrNotFound)
	}
	doc, err := c.loadCollection(name)
	if err != nil {
		return nil, err
	}
	item, err := c.resolveChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	c.stamp(item, name, doc)
	return item, nil
}

// GetDetail delegates to the child adapter.
func (c *Collection) GetDetail(ctx context.Context, localID string, meta models.Meta) ([]models.DetailSection, error) {
	_, childID, found := strings.Cut(localID, "/")
	if !found {
		return nil, fmt.Errorf("collection id %q: %w", localID, ErrNotFound)
	}
	resolved, err := c.resolve(childID)
	if err != nil {
		return nil, err
	}
	return resolved.Adapter.GetDetail(ctx, resolved.LocalID, meta)
}

func (c *Collection) resolveChild(ctx context.Context, childID string) (*models.FeedItem, error) {
	resolved, err := c.resolve(childID)
	if err != nil {
		return nil, err
	}
	item, err := resolved.Adapter.GetItem(ctx, resolved.LocalID)
	if err != nil {
		return nil, fmt.Errorf("collection child %s: %w", childID, err)
	}
	return item, nil
}

// stamp applies the collection's identity policy to a child card. The
// tier always becomes the collection's: curation is a library act even
// when the child came off the wire.
func (c *Collection) stamp(item *models.FeedItem, name string, doc *collectionFile) {
	item.Tier = c.DefaultTier()
	title := doc.Title
	if title == "" {
		title = name
	}
	if item.Meta == nil {
		item.Meta = models.Meta{}
	}
	item.Meta[models.MetaSourceName] = models.MetaString(title)
	if doc.RewriteSource {
		item.Meta["childId"] = models.MetaString(item.ID)
		item.Source = c.SourceType()
		item.ID = models.CompoundID(c.SourceType(), name+"/"+item.ID)
	}
}

func (c *Collection) resolve(childID string) (*Resolved, error) {
	c.mu.Lock()
	r := c.resolver
	c.mu.Unlock()
	if r == nil {
		return nil, fmt.Errorf("collection: resolver not attached: %w", ErrUnavailable)
	}
	resolved, err := r.Resolve(childID)
	if err != nil {
		return nil, err
	}
	if resolved.Adapter.SourceType() == c.SourceType() {
		return nil, fmt.Errorf("collection: nested collections are not supported: %w", ErrUnresolved)
	}
	return resolved, nil
}

func (c *Collection) loadCollection(name string) (*collectionFile, error) {
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}
	c.mu.Lock()
	store, ok := c.files[name]
	if !ok {
		store = newYAMLStore[collectionFile](filepath.Join(c.dir, name+".yaml"))
		c.files[name] = store
	}
	c.mu.Unlock()

	doc, err := store.load()
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", name, err)
	}
	return doc, nil
}
