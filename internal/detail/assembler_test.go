// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package detail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/boonware/boonscroll/internal/bridge"
	"github.com/boonware/boonscroll/internal/config"
	"github.com/boonware/boonscroll/internal/models"
	"github.com/boonware/boonscroll/internal/source"
)

type fakeAdapter struct {
	sourceType string
	item       *models.FeedItem
	sections   []models.DetailSection
	itemErr    error
	detailErr  error
}

func (f *fakeAdapter) SourceType() string        { return f.sourceType }
func (f *fakeAdapter) Prefixes() []source.Prefix { return nil }
func (f *fakeAdapter) DefaultTier() models.Tier  { return models.TierLibrary }

func (f *fakeAdapter) Fetch(context.Context, source.FetchQuery) (source.FetchResult, error) {
	return source.FetchResult{}, nil
}

func (f *fakeAdapter) GetItem(context.Context, string) (*models.FeedItem, error) {
	if f.itemErr != nil {
		return nil, f.itemErr
	}
	clone := *f.item
	return &clone, nil
}

func (f *fakeAdapter) GetDetail(context.Context, string, models.Meta) ([]models.DetailSection, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.sections, nil
}

func newAssembler(t *testing.T, a source.Adapter, bridgeSvc *bridge.Service, eager bool) *Assembler {
	t.Helper()
	registry := source.NewRegistry(source.GuardConfig{FetchTimeout: time.Second})
	registry.MustRegister(a)
	resolver, err := source.NewResolver(registry, nil, "")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return NewAssembler(resolver, bridgeSvc, eager)
}

func newTestBridgeService(t *testing.T) (*bridge.Service, *bridge.MemoryRelay) {
	t.Helper()
	relay := bridge.NewMemoryRelay()
	svc, err := bridge.NewService(relay, config.BridgeConfig{
		Enabled:      true,
		SecretKey:    nostr.GeneratePrivateKey(),
		StatsTTL:     time.Minute,
		QueryTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("bridge.NewService: %v", err)
	}
	return svc, relay
}

func bookItem() *models.FeedItem {
	return &models.FeedItem{
		ID:        "books:1",
		Source:    "books",
		Tier:      models.TierLibrary,
		Title:     "A Good Book",
		Body:      "Chapter one.",
		Link:      "https://example.com/book",
		Timestamp: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestGetDetailRichView(t *testing.T) {
	adapter := &fakeAdapter{
		sourceType: "books",
		item:       bookItem(),
		sections:   []models.DetailSection{models.BodySection("Full text.")},
	}
	a := newAssembler(t, adapter, nil, false)

	item, sections, err := a.GetDetail(context.Background(), "books:1", nil)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if item.ID != "books:1" || item.Title != "A Good Book" {
		t.Errorf("item = %s %q", item.ID, item.Title)
	}
	if len(sections) != 1 || sections[0].Kind != models.SectionBody || sections[0].Text != "Full text." {
		t.Errorf("sections = %+v", sections)
	}
}

func TestGetDetailFallback(t *testing.T) {
	adapter := &fakeAdapter{
		sourceType: "books",
		item:       bookItem(),
		detailErr:  source.ErrNotFound,
	}
	a := newAssembler(t, adapter, nil, false)

	_, sections, err := a.GetDetail(context.Background(), "books:1", nil)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	// Synthesized from the card: body plus metadata.
	if len(sections) != 2 || sections[0].Kind != models.SectionBody || sections[1].Kind != models.SectionMetadata {
		t.Fatalf("fallback sections = %+v", sections)
	}
	foundLink := false
	for _, entry := range sections[1].Entries {
		if entry.Label == "Link" && entry.Value == "https://example.com/book" {
			foundLink = true
		}
	}
	if !foundLink {
		t.Error("fallback metadata misses the link")
	}
}

func TestGetDetailSkeletonCard(t *testing.T) {
	// The item is gone upstream but a meta-backed detail still serves.
	adapter := &fakeAdapter{
		sourceType: "books",
		itemErr:    source.ErrNotFound,
		sections:   []models.DetailSection{models.BodySection("Archived copy.")},
	}
	a := newAssembler(t, adapter, nil, false)

	meta := models.Meta{"title": models.MetaString("A Lost Book")}
	item, sections, err := a.GetDetail(context.Background(), "books:gone", meta)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if item.ID != "books:gone" || item.Title != "A Lost Book" {
		t.Errorf("skeleton card = %s %q", item.ID, item.Title)
	}
	if item.Tier != models.TierLibrary {
		t.Errorf("skeleton tier %s, want adapter default", item.Tier)
	}
	if len(sections) != 1 {
		t.Errorf("sections = %+v", sections)
	}
}

func TestGetDetailErrors(t *testing.T) {
	boom := errors.New("upstream down")
	adapter := &fakeAdapter{sourceType: "books", item: bookItem(), detailErr: boom}
	a := newAssembler(t, adapter, nil, false)
	ctx := context.Background()

	if _, _, err := a.GetDetail(ctx, "books:1", nil); !errors.Is(err, boom) {
		t.Errorf("detail error = %v, want wrapped upstream error", err)
	}
	if _, _, err := a.GetDetail(ctx, "nosuch:1", nil); !errors.Is(err, source.ErrUnresolved) {
		t.Errorf("unknown source error = %v, want ErrUnresolved", err)
	}
}

func TestGetDetailBridgeSection(t *testing.T) {
	adapter := &fakeAdapter{
		sourceType: "books",
		item:       bookItem(),
		sections:   []models.DetailSection{models.BodySection("Full text.")},
	}
	bridgeSvc, _ := newTestBridgeService(t)
	a := newAssembler(t, adapter, bridgeSvc, false)
	ctx := context.Background()

	// No anchor yet: no bridge section, no bridge meta.
	item, sections, err := a.GetDetail(ctx, "books:1", nil)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("sections before bridging = %+v", sections)
	}
	if _, ok := item.Meta.Get(models.MetaBridgeOK); ok {
		t.Errorf("bridge meta stamped without a bridge: %v", item.Meta)
	}

	if _, _, err := bridgeSvc.Comment(ctx, bookItem(), "Loved this.", bridge.VisibilityPublic); err != nil {
		t.Fatalf("Comment: %v", err)
	}

	item, sections, err = a.GetDetail(ctx, "books:1", nil)
	if err != nil {
		t.Fatalf("GetDetail after comment: %v", err)
	}
	last := sections[len(sections)-1]
	if last.Kind != models.SectionStats {
		t.Fatalf("sections after bridging = %+v, want trailing stats", sections)
	}
	foundCount := false
	for _, entry := range last.Entries {
		if entry.Label == "Bridge comments" && entry.Value == "1" {
			foundCount = true
		}
	}
	if !foundCount {
		t.Errorf("bridge section entries = %+v", last.Entries)
	}
	// The card's meta carries the bridge summary alongside the section.
	if v, _ := item.Meta.Get(models.MetaBridgeOK); !v.Bool() {
		t.Errorf("meta %s = %v, want true", models.MetaBridgeOK, v)
	}
	if v, _ := item.Meta.Get(models.MetaBridgeCount); v.Int() != 1 {
		t.Errorf("meta %s = %v, want 1", models.MetaBridgeCount, v)
	}
}

func TestGetDetailEagerBridge(t *testing.T) {
	adapter := &fakeAdapter{
		sourceType: "books",
		item:       bookItem(),
		sections:   []models.DetailSection{models.BodySection("Full text.")},
	}
	bridgeSvc, relay := newTestBridgeService(t)
	a := newAssembler(t, adapter, bridgeSvc, true)
	ctx := context.Background()

	// Eager mode mints the anchor on first view, before any comment.
	item, sections, err := a.GetDetail(ctx, "books:1", nil)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if relay.Len() != 1 {
		t.Fatalf("relay holds %d events, want the eager anchor", relay.Len())
	}
	if sections[len(sections)-1].Kind != models.SectionStats {
		t.Fatalf("sections = %+v, want trailing stats", sections)
	}
	if v, _ := item.Meta.Get(models.MetaBridgeOK); !v.Bool() {
		t.Errorf("meta %s = %v, want true", models.MetaBridgeOK, v)
	}
	if v, _ := item.Meta.Get(models.MetaBridgeCount); v.Int() != 0 {
		t.Errorf("meta %s = %v, want 0", models.MetaBridgeCount, v)
	}

	// A second view reuses the anchor.
	if _, _, err := a.GetDetail(ctx, "books:1", nil); err != nil {
		t.Fatalf("second GetDetail: %v", err)
	}
	if relay.Len() != 1 {
		t.Errorf("relay holds %d events after second view, want still 1", relay.Len())
	}
}
