// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
service.go - content bridge over Nostr

External items get a public anchor note so comments from different
sources (and different instances) converge on one thread:

	content: "🔗 From <sourceLabel>:\n\n"<title>"\n\n<snippet>\n\n<link>"
	tags:    ["r", <link>], ["ext", <source>, <localId>], ["t", "bridged"]

Anchor discovery queries the ext tag and is idempotent: whoever
publishes first wins, everyone else adopts the oldest anchor. Comments
are NIP-10 replies ("e" tag with root marker). Non-public visibility
encrypts the comment body to the instance key and tags the audience
label; relays see ciphertext only.
*/

package bridge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip04"

	"github.com/boonware/boonscroll/internal/cache"
	"github.com/boonware/boonscroll/internal/config"
	"github.com/boonware/boonscroll/internal/logging"
	"github.com/boonware/boonscroll/internal/metrics"
	"github.com/boonware/boonscroll/internal/models"
)

// ErrDisabled is returned when the bridge is configured off.
var ErrDisabled = errors.New("bridge: disabled")

// ErrNoAnchor means the item has no anchor yet and the operation does
// not create one.
var ErrNoAnchor = errors.New("bridge: no anchor")

const (
	extTag      = "ext"
	topicTag    = "bridged"
	audienceTag = "audience"

	// VisibilityPublic publishes comments in the clear. Anything else
	// ("connections", "circle:family", ...) encrypts to the instance key
	// and carries the label as an audience tag.
	VisibilityPublic = "public"
)

// Anchor is the public bridge record for an external item.
type Anchor struct {
	ID        string    `json:"id"`
	Pubkey    string    `json:"pubkey"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats is the cheap per-item bridge summary detail views attach.
type Stats struct {
	Exists       bool       `json:"exists"`
	AnchorID     string     `json:"anchorId,omitempty"`
	CommentCount int        `json:"commentCount"`
	LastActivity *time.Time `json:"lastActivity,omitempty"`
}

// ThreadNode is one event in a bridge thread with its replies.
type ThreadNode struct {
	ID        string        `json:"id"`
	Author    string        `json:"author"`
	Content   string        `json:"content"`
	Encrypted bool          `json:"encrypted"`
	Audience  string        `json:"audience,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	Replies   []*ThreadNode `json:"replies,omitempty"`
}

// Service is the content bridge.
type Service struct {
	relay Relay
	cfg   config.BridgeConfig

	secretKey string
	pubkey    string

	stats *cache.TTL[Stats]
}

// NewService creates the bridge service. The secret key must be a valid
// hex Nostr key when the bridge is enabled.
func NewService(relay Relay, cfg config.BridgeConfig) (*Service, error) {
	s := &Service{
		relay: relay,
		cfg:   cfg,
		stats: cache.NewTTL[Stats](cfg.StatsTTL),
	}
	if !cfg.Enabled {
		return s, nil
	}
	pubkey, err := nostr.GetPublicKey(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("bridge: bad secret key: %w", err)
	}
	s.secretKey = cfg.SecretKey
	s.pubkey = pubkey
	return s, nil
}

// Enabled reports whether the bridge is live.
func (s *Service) Enabled() bool { return s.cfg.Enabled }

// GetOrCreateBridge returns the item's anchor, creating and publishing
// one when none exists yet.
func (s *Service) GetOrCreateBridge(ctx context.Context, item *models.FeedItem) (*Anchor, error) {
	if !s.cfg.Enabled {
		return nil, ErrDisabled
	}
	if existing, err := s.lookupAnchor(ctx, item); err != nil {
		return nil, err
	} else if existing != nil {
		return anchorFromEvent(existing), nil
	}
	return s.createAnchor(ctx, item)
}

// GetBridgeStats returns the cached comment summary for an item. A
// missing anchor is a valid answer, cached like any other.
func (s *Service) GetBridgeStats(ctx context.Context, item *models.FeedItem) (Stats, error) {
	if !s.cfg.Enabled {
		return Stats{}, ErrDisabled
	}
	if cached, ok := s.stats.Get(item.ID); ok {
		metrics.BridgeStatsCacheHits.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.BridgeStatsCacheHits.WithLabelValues("miss").Inc()

	anchor, err := s.lookupAnchor(ctx, item)
	if err != nil {
		return Stats{}, err
	}
	if anchor == nil {
		stats := Stats{}
		s.stats.Set(item.ID, stats)
		return stats, nil
	}

	replies, err := s.queryReplies(ctx, anchor.ID)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Exists: true, AnchorID: anchor.ID, CommentCount: len(replies)}
	last := anchor.CreatedAt
	for _, r := range replies {
		if r.CreatedAt > last {
			last = r.CreatedAt
		}
	}
	ts := last.Time().UTC()
	stats.LastActivity = &ts

	s.stats.Set(item.ID, stats)
	return stats, nil
}

// Comment publishes a threaded reply under the item's anchor, creating
// the anchor lazily on first comment.
func (s *Service) Comment(ctx context.Context, item *models.FeedItem, text, visibility string) (*Anchor, string, error) {
	if !s.cfg.Enabled {
		return nil, "", ErrDisabled
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "", fmt.Errorf("bridge: empty comment")
	}

	anchor, err := s.GetOrCreateBridge(ctx, item)
	if err != nil {
		return nil, "", err
	}

	event := nostr.Event{
		PubKey:    s.pubkey,
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindTextNote,
		Content:   text,
		Tags: nostr.Tags{
			{"e", anchor.ID, "", "root"},
			{"p", anchor.Pubkey},
		},
	}
	if visibility != "" && visibility != VisibilityPublic {
		ciphertext, cerr := s.encryptToSelf(text)
		if cerr != nil {
			return nil, "", cerr
		}
		event.Kind = nostr.KindEncryptedDirectMessage
		event.Content = ciphertext
		event.Tags = append(event.Tags, nostr.Tag{audienceTag, visibility})
	}

	if err := s.publish(ctx, &event, "comment"); err != nil {
		return nil, "", err
	}
	s.stats.Delete(item.ID) // next stats read sees the new comment
	return anchor, event.ID, nil
}

// GetThread returns the anchor and its reply tree, oldest first at each
// level.
func (s *Service) GetThread(ctx context.Context, anchorID string) (*ThreadNode, error) {
	if !s.cfg.Enabled {
		return nil, ErrDisabled
	}
	qctx, cancel := s.queryContext(ctx)
	defer cancel()

	anchors, err := s.relay.Query(qctx, nostr.Filter{IDs: []string{anchorID}, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("bridge: anchor query: %w", err)
	}
	if len(anchors) == 0 {
		return nil, ErrNoAnchor
	}
	root := nodeFromEvent(anchors[0])

	replies, err := s.queryReplies(ctx, anchorID)
	if err != nil {
		return nil, err
	}

	nodes := map[string]*ThreadNode{anchorID: root}
	for _, ev := range replies {
		nodes[ev.ID] = nodeFromEvent(ev)
	}
	for _, ev := range replies {
		parentID := replyParent(ev, anchorID)
		parent, ok := nodes[parentID]
		if !ok {
			parent = root // orphaned reply hangs off the anchor
		}
		parent.Replies = append(parent.Replies, nodes[ev.ID])
	}
	sortThread(root)
	return root, nil
}

func (s *Service) createAnchor(ctx context.Context, item *models.FeedItem) (*Anchor, error) {
	_, localID, ok := models.SplitCompoundID(item.ID)
	if !ok {
		return nil, fmt.Errorf("bridge: malformed item id %q", item.ID)
	}

	// Anchor content format is part of the external interface; other
	// instances parse and display it as-is.
	label := item.Meta.GetString(models.MetaSourceName)
	if label == "" {
		label = item.Source
	}
	content := fmt.Sprintf("🔗 From %s:\n\n%q", label, item.Title)
	if item.Body != "" {
		content += "\n\n" + item.Body
	}
	if item.Link != "" {
		content += "\n\n" + item.Link
	}

	event := nostr.Event{
		PubKey:    s.pubkey,
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindTextNote,
		Content:   content,
		Tags: nostr.Tags{
			{"r", item.Link},
			{extTag, item.Source, localID},
			{"t", topicTag},
		},
	}
	if err := s.publish(ctx, &event, "anchor"); err != nil {
		return nil, err
	}
	s.stats.Delete(item.ID) // a cached "no bridge" answer is now wrong
	logging.Ctx(ctx).Info().
		Str("item", item.ID).
		Str("anchor", event.ID).
		Msg("bridge anchor created")
	return anchorFromEvent(&event), nil
}

// lookupAnchor finds the item's anchor, if any. Relays index the first
// tag value only, so the query narrows by source and the local id match
// happens here. Multiple anchors converge on the oldest.
func (s *Service) lookupAnchor(ctx context.Context, item *models.FeedItem) (*nostr.Event, error) {
	_, localID, ok := models.SplitCompoundID(item.ID)
	if !ok {
		return nil, fmt.Errorf("bridge: malformed item id %q", item.ID)
	}
	qctx, cancel := s.queryContext(ctx)
	defer cancel()

	events, err := s.relay.Query(qctx, nostr.Filter{
		Kinds: []int{nostr.KindTextNote},
		Tags:  nostr.TagMap{extTag: []string{item.Source}},
	})
	if err != nil {
		return nil, fmt.Errorf("bridge: anchor lookup: %w", err)
	}

	var oldest *nostr.Event
	for _, ev := range events {
		tag := ev.Tags.GetFirst([]string{extTag, item.Source, localID})
		if tag == nil {
			continue
		}
		if oldest == nil || ev.CreatedAt < oldest.CreatedAt {
			oldest = ev
		}
	}
	return oldest, nil
}

func (s *Service) queryReplies(ctx context.Context, anchorID string) ([]*nostr.Event, error) {
	qctx, cancel := s.queryContext(ctx)
	defer cancel()

	events, err := s.relay.Query(qctx, nostr.Filter{
		Kinds: []int{nostr.KindTextNote, nostr.KindEncryptedDirectMessage},
		Tags:  nostr.TagMap{"e": []string{anchorID}},
	})
	if err != nil {
		return nil, fmt.Errorf("bridge: reply query: %w", err)
	}
	return events, nil
}

// publish signs and sends an event, retrying transient relay failures
// with exponential backoff.
func (s *Service) publish(ctx context.Context, event *nostr.Event, kind string) error {
	if err := event.Sign(s.secretKey); err != nil {
		metrics.BridgePublishes.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("bridge: sign %s: %w", kind, err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = 10 * time.Second

	err := backoff.Retry(func() error {
		return s.relay.Publish(ctx, event)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		metrics.BridgePublishes.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("bridge: publish %s: %w", kind, err)
	}
	metrics.BridgePublishes.WithLabelValues(kind, "ok").Inc()
	return nil
}

func (s *Service) encryptToSelf(text string) (string, error) {
	shared, err := nip04.ComputeSharedSecret(s.pubkey, s.secretKey)
	if err != nil {
		return "", fmt.Errorf("bridge: shared secret: %w", err)
	}
	ciphertext, err := nip04.Encrypt(text, shared)
	if err != nil {
		return "", fmt.Errorf("bridge: encrypt: %w", err)
	}
	return ciphertext, nil
}

// SweepStats drops expired stats entries; the supervisor's janitor
// calls it periodically.
func (s *Service) SweepStats() int { return s.stats.Sweep() }

func (s *Service) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func anchorFromEvent(ev *nostr.Event) *Anchor {
	return &Anchor{
		ID:        ev.ID,
		Pubkey:    ev.PubKey,
		Content:   ev.Content,
		CreatedAt: ev.CreatedAt.Time().UTC(),
	}
}

func nodeFromEvent(ev *nostr.Event) *ThreadNode {
	node := &ThreadNode{
		ID:        ev.ID,
		Author:    ev.PubKey,
		Content:   ev.Content,
		Encrypted: ev.Kind == nostr.KindEncryptedDirectMessage,
		CreatedAt: ev.CreatedAt.Time().UTC(),
	}
	if tag := ev.Tags.GetFirst([]string{audienceTag}); tag != nil && len(*tag) > 1 {
		node.Audience = (*tag)[1]
	}
	return node
}

// replyParent finds the event a reply threads under: the "e" tag with a
// reply marker when present, else the root anchor.
func replyParent(ev *nostr.Event, anchorID string) string {
	for _, tag := range ev.Tags.GetAll([]string{"e"}) {
		if len(tag) >= 4 && tag[3] == "reply" {
			return tag[1]
		}
	}
	return anchorID
}

func sortThread(node *ThreadNode) {
	sort.SliceStable(node.Replies, func(a, b int) bool {
		return node.Replies[a].CreatedAt.Before(node.Replies[b].CreatedAt)
	})
	for _, child := range node.Replies {
		sortThread(child)
	}
}
