// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip04"

	"github.com/boonware/boonscroll/internal/config"
	"github.com/boonware/boonscroll/internal/models"
)

func newTestBridge(t *testing.T) (*Service, *MemoryRelay) {
	t.Helper()
	relay := NewMemoryRelay()
	svc, err := NewService(relay, config.BridgeConfig{
		Enabled:      true,
		SecretKey:    nostr.GeneratePrivateKey(),
		StatsTTL:     time.Minute,
		QueryTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, relay
}

func testBridgeItem() *models.FeedItem {
	return &models.FeedItem{
		ID:     "hackernews:42",
		Source: "hackernews",
		Tier:   models.TierWire,
		Title:  "The Answer",
		Body:   "A short excerpt.",
		Link:   "https://example.com/42",
		Meta:   models.Meta{models.MetaSourceName: models.MetaString("Hacker News")},
	}
}

func TestBridgeDisabled(t *testing.T) {
	svc, err := NewService(NewMemoryRelay(), config.BridgeConfig{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if svc.Enabled() {
		t.Error("Enabled() true for disabled bridge")
	}

	ctx := context.Background()
	item := testBridgeItem()
	if _, err := svc.GetOrCreateBridge(ctx, item); !errors.Is(err, ErrDisabled) {
		t.Errorf("GetOrCreateBridge error = %v, want ErrDisabled", err)
	}
	if _, err := svc.GetBridgeStats(ctx, item); !errors.Is(err, ErrDisabled) {
		t.Errorf("GetBridgeStats error = %v, want ErrDisabled", err)
	}
	if _, _, err := svc.Comment(ctx, item, "hi", VisibilityPublic); !errors.Is(err, ErrDisabled) {
		t.Errorf("Comment error = %v, want ErrDisabled", err)
	}
}

func TestBridgeBadSecretKey(t *testing.T) {
	_, err := NewService(NewMemoryRelay(), config.BridgeConfig{Enabled: true, SecretKey: "not-hex"})
	if err == nil {
		t.Fatal("bad secret key accepted")
	}
}

func TestAnchorCreateIdempotent(t *testing.T) {
	svc, relay := newTestBridge(t)
	ctx := context.Background()
	item := testBridgeItem()

	anchor, err := svc.GetOrCreateBridge(ctx, item)
	if err != nil {
		t.Fatalf("GetOrCreateBridge: %v", err)
	}
	if anchor.ID == "" || anchor.Pubkey == "" {
		t.Fatalf("anchor = %+v", anchor)
	}
	if !strings.Contains(anchor.Content, "🔗 From Hacker News:") {
		t.Errorf("anchor content missing source label:\n%s", anchor.Content)
	}
	if !strings.Contains(anchor.Content, `"The Answer"`) {
		t.Errorf("anchor content missing quoted title:\n%s", anchor.Content)
	}
	if !strings.Contains(anchor.Content, item.Link) {
		t.Errorf("anchor content missing link:\n%s", anchor.Content)
	}

	// A second call finds the published anchor instead of minting another.
	again, err := svc.GetOrCreateBridge(ctx, item)
	if err != nil {
		t.Fatalf("second GetOrCreateBridge: %v", err)
	}
	if again.ID != anchor.ID {
		t.Errorf("second anchor %s, want %s", again.ID, anchor.ID)
	}
	if relay.Len() != 1 {
		t.Errorf("relay holds %d events, want 1", relay.Len())
	}
}

func TestAnchorConvergesOnOldest(t *testing.T) {
	svc, relay := newTestBridge(t)
	ctx := context.Background()
	item := testBridgeItem()

	// Another instance bridged the same item a while ago.
	foreign := nostr.Event{
		CreatedAt: nostr.Now() - 3600,
		Kind:      nostr.KindTextNote,
		Content:   "🔗 From Hacker News:\n\n\"The Answer\"",
		Tags: nostr.Tags{
			{"r", item.Link},
			{"ext", item.Source, "42"},
			{"t", "bridged"},
		},
	}
	if err := foreign.Sign(nostr.GeneratePrivateKey()); err != nil {
		t.Fatalf("sign foreign anchor: %v", err)
	}
	if err := relay.Publish(ctx, &foreign); err != nil {
		t.Fatalf("publish foreign anchor: %v", err)
	}

	anchor, err := svc.GetOrCreateBridge(ctx, item)
	if err != nil {
		t.Fatalf("GetOrCreateBridge: %v", err)
	}
	if anchor.ID != foreign.ID {
		t.Errorf("adopted anchor %s, want the older foreign one %s", anchor.ID, foreign.ID)
	}
	if relay.Len() != 1 {
		t.Errorf("relay holds %d events, want 1 (no duplicate anchor)", relay.Len())
	}
}

func TestCommentCreatesAnchorLazily(t *testing.T) {
	svc, relay := newTestBridge(t)
	ctx := context.Background()
	item := testBridgeItem()

	anchor, commentID, err := svc.Comment(ctx, item, "First!", VisibilityPublic)
	if err != nil {
		t.Fatalf("Comment: %v", err)
	}
	if commentID == "" || commentID == anchor.ID {
		t.Fatalf("comment id %q, anchor id %q", commentID, anchor.ID)
	}
	if relay.Len() != 2 {
		t.Fatalf("relay holds %d events, want anchor + comment", relay.Len())
	}

	if _, _, err := svc.Comment(ctx, item, "   ", VisibilityPublic); err == nil {
		t.Error("blank comment accepted")
	}
}

func TestGetThreadNesting(t *testing.T) {
	svc, relay := newTestBridge(t)
	ctx := context.Background()
	item := testBridgeItem()

	anchor, commentID, err := svc.Comment(ctx, item, "Top-level comment", VisibilityPublic)
	if err != nil {
		t.Fatalf("Comment: %v", err)
	}

	// A reply to the comment, marked per NIP-10.
	nested := nostr.Event{
		CreatedAt: nostr.Now() + 10,
		Kind:      nostr.KindTextNote,
		Content:   "Replying to you",
		Tags: nostr.Tags{
			{"e", anchor.ID, "", "root"},
			{"e", commentID, "", "reply"},
		},
	}
	if err := nested.Sign(nostr.GeneratePrivateKey()); err != nil {
		t.Fatalf("sign reply: %v", err)
	}
	if err := relay.Publish(ctx, &nested); err != nil {
		t.Fatalf("publish reply: %v", err)
	}

	thread, err := svc.GetThread(ctx, anchor.ID)
	if err != nil {
		t.Fatalf("GetThread: %v", err)
	}
	if thread.ID != anchor.ID {
		t.Fatalf("root id %s, want anchor", thread.ID)
	}
	if len(thread.Replies) != 1 || thread.Replies[0].ID != commentID {
		t.Fatalf("root replies = %+v, want the top-level comment", thread.Replies)
	}
	top := thread.Replies[0]
	if len(top.Replies) != 1 || top.Replies[0].ID != nested.ID {
		t.Fatalf("nested replies = %+v, want the marked reply", top.Replies)
	}
	if top.Replies[0].Content != "Replying to you" {
		t.Errorf("nested content %q", top.Replies[0].Content)
	}

	if _, err := svc.GetThread(ctx, "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"); !errors.Is(err, ErrNoAnchor) {
		t.Errorf("missing anchor error = %v, want ErrNoAnchor", err)
	}
}

func TestBridgeStats(t *testing.T) {
	svc, relay := newTestBridge(t)
	ctx := context.Background()
	item := testBridgeItem()

	// No anchor yet: a valid, cacheable zero answer.
	stats, err := svc.GetBridgeStats(ctx, item)
	if err != nil {
		t.Fatalf("GetBridgeStats: %v", err)
	}
	if stats.Exists || stats.CommentCount != 0 {
		t.Fatalf("empty stats = %+v", stats)
	}

	anchor, _, err := svc.Comment(ctx, item, "Hello there", VisibilityPublic)
	if err != nil {
		t.Fatalf("Comment: %v", err)
	}

	// Comment invalidated the cached zero; the next read sees the thread.
	stats, err = svc.GetBridgeStats(ctx, item)
	if err != nil {
		t.Fatalf("GetBridgeStats after comment: %v", err)
	}
	if !stats.Exists || stats.AnchorID != anchor.ID || stats.CommentCount != 1 {
		t.Fatalf("stats = %+v, want 1 comment under %s", stats, anchor.ID)
	}
	if stats.LastActivity == nil || stats.LastActivity.IsZero() {
		t.Error("missing last activity")
	}

	// A comment landing behind the cache stays invisible until the TTL
	// lapses.
	extra := nostr.Event{
		CreatedAt: nostr.Now() + 5,
		Kind:      nostr.KindTextNote,
		Content:   "Late arrival",
		Tags:      nostr.Tags{{"e", anchor.ID, "", "root"}},
	}
	if err := extra.Sign(nostr.GeneratePrivateKey()); err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := relay.Publish(ctx, &extra); err != nil {
		t.Fatalf("publish: %v", err)
	}

	stats, err = svc.GetBridgeStats(ctx, item)
	if err != nil {
		t.Fatalf("GetBridgeStats cached: %v", err)
	}
	if stats.CommentCount != 1 {
		t.Errorf("cached count %d, want stale 1", stats.CommentCount)
	}

	svc.stats.SetClock(func() time.Time { return time.Now().Add(2 * time.Minute) })
	stats, err = svc.GetBridgeStats(ctx, item)
	if err != nil {
		t.Fatalf("GetBridgeStats refreshed: %v", err)
	}
	if stats.CommentCount != 2 {
		t.Errorf("refreshed count %d, want 2", stats.CommentCount)
	}
}

func TestCommentVisibilityEncrypts(t *testing.T) {
	svc, relay := newTestBridge(t)
	ctx := context.Background()
	item := testBridgeItem()
	plaintext := "Only for the inner circle."

	anchor, commentID, err := svc.Comment(ctx, item, plaintext, "circle:family")
	if err != nil {
		t.Fatalf("Comment: %v", err)
	}

	events, err := relay.Query(ctx, nostr.Filter{IDs: []string{commentID}})
	if err != nil || len(events) != 1 {
		t.Fatalf("comment lookup = %v, %v", events, err)
	}
	ev := events[0]
	if ev.Kind != nostr.KindEncryptedDirectMessage {
		t.Fatalf("kind %d, want encrypted DM", ev.Kind)
	}
	if strings.Contains(ev.Content, plaintext) {
		t.Fatal("relay sees the plaintext")
	}

	// The instance key round-trips the ciphertext.
	shared, err := nip04.ComputeSharedSecret(svc.pubkey, svc.secretKey)
	if err != nil {
		t.Fatalf("shared secret: %v", err)
	}
	decrypted, err := nip04.Decrypt(ev.Content, shared)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("decrypted %q, want %q", decrypted, plaintext)
	}

	thread, err := svc.GetThread(ctx, anchor.ID)
	if err != nil {
		t.Fatalf("GetThread: %v", err)
	}
	node := thread.Replies[0]
	if !node.Encrypted || node.Audience != "circle:family" {
		t.Errorf("thread node = %+v, want encrypted with audience", node)
	}
}

func TestSweepStats(t *testing.T) {
	svc, _ := newTestBridge(t)
	ctx := context.Background()

	if _, err := svc.GetBridgeStats(ctx, testBridgeItem()); err != nil {
		t.Fatalf("GetBridgeStats: %v", err)
	}
	if n := svc.SweepStats(); n != 0 {
		t.Errorf("swept %d fresh entries", n)
	}
	svc.stats.SetClock(func() time.Time { return time.Now().Add(time.Hour) })
	if n := svc.SweepStats(); n != 1 {
		t.Errorf("swept %d, want 1 expired entry", n)
	}
}
