// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package source

import (
	"context"
	"errors"

	"github.com/boonware/boonscroll/internal/models"
)

// Sentinel errors adapters surface across the boundary. Adapter-native
// failures must never leak; they wrap one of these.
var (
	// ErrNotFound means the local id is valid but names nothing upstream.
	ErrNotFound = errors.New("source: item not found")

	// ErrUnavailable means the origin is not configured or persistently
	// failing; the pool marks the source degraded for the session.
	ErrUnavailable = errors.New("source: unavailable")

	// ErrUnresolved means a compound id matched no adapter.
	ErrUnresolved = errors.New("source: unresolved id")
)

// Prefix declares one compound-id prefix an adapter answers to. Transform,
// when set, maps the raw local id to the adapter's native id space (for
// example "hymn" -> "song/hymn/{value}").
type Prefix struct {
	Prefix    string
	Transform func(localID string) string
}

// FetchQuery carries everything an adapter needs for one page fetch: the
// requesting user, the merged source settings, the named query being
// served (nil for plain source fetches), a page-size hint, and the opaque
// continuation token from the previous page.
type FetchQuery struct {
	User     string
	Settings models.SourceSettings
	Query    *models.QuerySettings
	PageSize int
	Page     string
}

// Param reads an adapter parameter, preferring the named query's params
// over the source settings.
func (q FetchQuery) Param(key string) string {
	if q.Query != nil {
		if v, ok := q.Query.Params[key]; ok {
			return v
		}
	}
	if v, ok := q.Settings.Params[key]; ok {
		return v
	}
	return ""
}

// FetchResult is one page of normalized items.
type FetchResult struct {
	Items    []*models.FeedItem
	HasMore  bool
	NextPage string
}

// Adapter is the uniform contract every source implements.
//
// Normalization contract: every returned item must have
// ID == SourceType()+":"+localID, a canonical tier, and a timestamp, and
// must not leak adapter-native errors (wrap the sentinels above).
type Adapter interface {
	// SourceType returns the stable short identifier ("reddit", "immich").
	SourceType() string

	// Prefixes lists the compound-id prefixes this adapter resolves.
	// The bare SourceType always matches with identity transform and need
	// not be listed.
	Prefixes() []Prefix

	// DefaultTier is the tier items carry unless config overrides it.
	DefaultTier() models.Tier

	// Fetch returns one page of candidate items. Adapters may return
	// fewer than PageSize.
	Fetch(ctx context.Context, q FetchQuery) (FetchResult, error)

	// GetItem returns the list-view card for a local id.
	GetItem(ctx context.Context, localID string) (*models.FeedItem, error)

	// GetDetail returns the detail sections for a local id. Adapters
	// without a richer view return FallbackDetail of the list-view card.
	GetDetail(ctx context.Context, localID string, meta models.Meta) ([]models.DetailSection, error)
}

// Consumer is implemented by adapters whose origin models read state
// externally (for example FreshRSS). All others simply never implement it.
type Consumer interface {
	MarkConsumed(ctx context.Context, user string, localIDs []string) error
}

// Responder is implemented by adapters that handle POST /feed/respond
// interactions (task completion, habit rating, quick replies).
type Responder interface {
	// HandleResponse processes one interaction and returns the action
	// taken plus any payload for the client.
	HandleResponse(ctx context.Context, user, localID, response string, reqContext map[string]string) (map[string]interface{}, error)
}

// AsConsumer reports whether a (possibly guard-wrapped) adapter tracks
// external read state, returning the Consumer view when it does.
func AsConsumer(a Adapter) (Consumer, bool) {
	c, ok := a.(Consumer)
	if !ok {
		return nil, false
	}
	if g, wrapped := a.(interface{ IsConsumer() bool }); wrapped && !g.IsConsumer() {
		return nil, false
	}
	return c, true
}

// AsResponder reports whether a (possibly guard-wrapped) adapter handles
// interactions, returning the Responder view when it does.
func AsResponder(a Adapter) (Responder, bool) {
	r, ok := a.(Responder)
	if !ok {
		return nil, false
	}
	if g, wrapped := a.(interface{ IsResponder() bool }); wrapped && !g.IsResponder() {
		return nil, false
	}
	return r, true
}

// FallbackDetail synthesizes the single-section detail response for
// adapters that cannot provide a richer view.
func FallbackDetail(item *models.FeedItem) []models.DetailSection {
	sections := []models.DetailSection{}
	if item.Body != "" {
		sections = append(sections, models.BodySection(item.Body))
	}
	entries := []models.LabeledValue{
		{Label: "Source", Value: item.Source},
		{Label: "Published", Value: item.Timestamp.Format("2006-01-02 15:04")},
	}
	if item.Link != "" {
		entries = append(entries, models.LabeledValue{Label: "Link", Value: item.Link})
	}
	sections = append(sections, models.MetadataSection(entries...))
	return sections
}
