// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/boonware/boonscroll/internal/models"
)

// newTestCollection wires a collection over stub child adapters and the
// shared resolver, mirroring the two-phase startup wiring.
func newTestCollection(t *testing.T, files map[string]string) *Collection {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0o644); err != nil {
			t.Fatalf("write collection: %v", err)
		}
	}

	c := NewCollection(CollectionConfig{Dir: dir})
	registry := newStubRegistry(t,
		&stubAdapter{sourceType: "youtube", tier: models.TierLibrary},
		&stubAdapter{sourceType: "hackernews", tier: models.TierWire, prefixes: []Prefix{{Prefix: "hn"}}},
	)
	registry.MustRegister(c)
	r, err := NewResolver(registry, nil, "")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	c.SetResolver(r)
	return c
}

func TestCollectionFetch(t *testing.T) {
	c := newTestCollection(t, map[string]string{
		"mixtape": `title: Sunday Mixtape
items:
  - youtube:v1
  - hn:123
  - nosuch:child
  - youtube:v2
`,
	})
	q := FetchQuery{Query: &models.QuerySettings{
		Source: "collection",
		Params: map[string]string{"collection": "mixtape"},
	}}

	res, err := c.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	// The unresolvable child is skipped, not fatal.
	if len(res.Items) != 3 {
		t.Fatalf("fetched %d items, want 3", len(res.Items))
	}

	for _, item := range res.Items {
		if item.Tier != models.TierLibrary {
			t.Errorf("item %s tier %s, want curation tier library", item.ID, item.Tier)
		}
		if got := item.Meta.GetString(models.MetaSourceName); got != "Sunday Mixtape" {
			t.Errorf("item %s source name %q, want collection title", item.ID, got)
		}
	}
	// Children keep their own ids by default.
	if res.Items[0].ID != "youtube:v1" || res.Items[1].ID != "hackernews:123" {
		t.Errorf("child ids = %s, %s", res.Items[0].ID, res.Items[1].ID)
	}
}

func TestCollectionFetchPaging(t *testing.T) {
	c := newTestCollection(t, map[string]string{
		"mixtape": "title: Mixtape\nitems: [youtube:a, youtube:b, youtube:c]\n",
	})
	q := FetchQuery{
		PageSize: 2,
		Query: &models.QuerySettings{
			Source: "collection",
			Params: map[string]string{"collection": "mixtape"},
		},
	}

	first, err := c.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(first.Items) != 2 || !first.HasMore || first.NextPage != "2" {
		t.Fatalf("first page = %d items hasMore=%v next=%q", len(first.Items), first.HasMore, first.NextPage)
	}

	q.Page = first.NextPage
	second, err := c.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if len(second.Items) != 1 || second.HasMore {
		t.Fatalf("second page = %d items hasMore=%v", len(second.Items), second.HasMore)
	}
}

func TestCollectionRewriteSource(t *testing.T) {
	c := newTestCollection(t, map[string]string{
		"uniform": `title: Uniform
rewrite_source: true
items: [youtube:v1]
`,
	})
	q := FetchQuery{Query: &models.QuerySettings{
		Source: "collection",
		Params: map[string]string{"collection": "uniform"},
	}}

	res, err := c.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	item := res.Items[0]
	if item.ID != "collection:uniform/youtube:v1" || item.Source != "collection" {
		t.Errorf("rewritten id = %s source = %s", item.ID, item.Source)
	}
	if got := item.Meta.GetString("childId"); got != "youtube:v1" {
		t.Errorf("childId = %q, want original id", got)
	}

	// The rewritten id resolves back through GetItem.
	round, err := c.GetItem(context.Background(), "uniform/youtube:v1")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if round.ID != item.ID {
		t.Errorf("GetItem id = %s, want %s", round.ID, item.ID)
	}
}

func TestCollectionErrors(t *testing.T) {
	c := newTestCollection(t, map[string]string{
		"loop": "title: Loop\nitems: [collection:other/youtube:v1]\n",
	})
	ctx := context.Background()

	// No collection named.
	if _, err := c.Fetch(ctx, FetchQuery{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("missing param error = %v, want ErrUnavailable", err)
	}
	// Unknown collection file.
	q := FetchQuery{Query: &models.QuerySettings{Params: map[string]string{"collection": "nosuch"}}}
	if _, err := c.Fetch(ctx, q); !errors.Is(err, ErrUnavailable) {
		t.Errorf("missing file error = %v, want ErrUnavailable", err)
	}
	// Nested collections skip like any unresolvable child.
	q = FetchQuery{Query: &models.QuerySettings{Params: map[string]string{"collection": "loop"}}}
	res, err := c.Fetch(ctx, q)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Items) != 0 {
		t.Errorf("nested child served: %d items", len(res.Items))
	}
}

func TestCollectionGetDetailDelegates(t *testing.T) {
	c := newTestCollection(t, map[string]string{
		"uniform": "title: Uniform\nrewrite_source: true\nitems: [youtube:v1]\n",
	})

	sections, err := c.GetDetail(context.Background(), "uniform/youtube:v1", nil)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if len(sections) == 0 {
		t.Fatal("no sections from delegated detail")
	}
	// The stub's fallback detail names the child source.
	found := false
	for _, sec := range sections {
		for _, entry := range sec.Entries {
			if entry.Label == "Source" && entry.Value == "youtube" {
				found = true
			}
		}
	}
	if !found {
		t.Error("delegated detail does not reach the child adapter")
	}
}
