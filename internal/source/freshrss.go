// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
freshrss.go - FreshRSS source adapter

Talks to a FreshRSS instance through its Google Reader compatible API
(/api/greader.php). Auth uses the GoogleLogin token FreshRSS issues per
user. This is the one adapter that models read state externally: served
items are marked read upstream via MarkConsumed, so the reader and the
scroll stay in sync.

	sources:
	  freshrss:
	    params:
	      base_url: https://rss.example.net
	      auth_token: "alice/8e6845e0..."
*/

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/boonware/boonscroll/internal/models"
)

// FreshRSS is the wire-tier adapter over a FreshRSS instance.
//
// It remembers the instance coordinates seen on each user's last fetch so
// MarkConsumed can reach the right reader; that map is the only per-user
// state and is internally synchronized.
type FreshRSS struct {
	httpClient *http.Client

	credsMu   sync.RWMutex
	userCreds map[string]freshrssCreds
}

var (
	_ Adapter  = (*FreshRSS)(nil)
	_ Consumer = (*FreshRSS)(nil)
)

// NewFreshRSS creates the FreshRSS adapter. Instance URL and token are
// per-user source params, not constructor state, since each user points at
// their own reader.
func NewFreshRSS() *FreshRSS {
	return &FreshRSS{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

func (f *FreshRSS) SourceType() string       { return "freshrss" }
func (f *FreshRSS) Prefixes() []Prefix       { return []Prefix{{Prefix: "rss"}} }
func (f *FreshRSS) DefaultTier() models.Tier { return models.TierWire }

type greaderStream struct {
	Continuation string        `json:"continuation"`
	Items        []greaderItem `json:"items"`
}

type greaderItem struct {
	ID        string `json:"id"` // tag:google.com,2005:reader/item/<hex>
	Title     string `json:"title"`
	Published int64  `json:"published"`
	Author    string `json:"author"`
	Summary   struct {
		Content string `json:"content"`
	} `json:"summary"`
	Canonical []struct {
		Href string `json:"href"`
	} `json:"canonical"`
	Origin struct {
		Title string `json:"title"`
	} `json:"origin"`
	Enclosure []struct {
		Href string `json:"href"`
		Type string `json:"type"`
	} `json:"enclosure"`
}

// Fetch pages the unread reading list using the API's continuation token.
func (f *FreshRSS) Fetch(ctx context.Context, q FetchQuery) (FetchResult, error) {
	base, token, err := f.creds(q)
	if err != nil {
		return FetchResult{}, err
	}

	params := url.Values{}
	params.Set("output", "json")
	params.Set("n", fmt.Sprintf("%d", pageSizeOrDefault(q, 25)))
	params.Set("xt", "user/-/state/com.google/read") // unread only
	if q.Page != "" {
		params.Set("c", q.Page)
	}

	var stream greaderStream
	endpoint := base + "/api/greader.php/reader/api/0/stream/contents/reading-list?" + params.Encode()
	if err := f.getJSON(ctx, endpoint, token, &stream); err != nil {
		return FetchResult{}, fmt.Errorf("freshrss reading list: %w", err)
	}

	items := make([]*models.FeedItem, 0, len(stream.Items))
	for i := range stream.Items {
		items = append(items, f.itemFromEntry(&stream.Items[i]))
	}

	return FetchResult{
		Items:    items,
		HasMore:  stream.Continuation != "",
		NextPage: stream.Continuation,
	}, nil
}

// GetItem is not addressable without the per-user instance; the feed path
// always has the item in the pool, and detail synthesizes from meta.
func (f *FreshRSS) GetItem(_ context.Context, localID string) (*models.FeedItem, error) {
	return nil, fmt.Errorf("freshrss item %s: %w", localID, ErrNotFound)
}

// GetDetail synthesizes from the list-view data carried in meta: the
// article content was already fetched with the stream.
func (f *FreshRSS) GetDetail(_ context.Context, localID string, meta models.Meta) ([]models.DetailSection, error) {
	content := meta.GetString("content")
	if content == "" {
		return nil, fmt.Errorf("freshrss detail %s: %w", localID, ErrNotFound)
	}
	return []models.DetailSection{
		{Kind: models.SectionArticle, Title: meta.GetString("title"), HTML: content},
		models.MetadataSection(
			models.LabeledValue{Label: "Feed", Value: meta.GetString(models.MetaSourceName)},
		),
	}, nil
}

// MarkConsumed tags served items read upstream. The user's instance
// coordinates come from their scroll config; the pool passes them through
// the request context values set at fetch time is not available here, so
// the adapter keeps the last-seen creds per user.
func (f *FreshRSS) MarkConsumed(ctx context.Context, user string, localIDs []string) error {
	f.credsMu.RLock()
	c, ok := f.userCreds[user]
	f.credsMu.RUnlock()
	if !ok {
		return nil // never fetched for this user; nothing to sync
	}

	form := url.Values{}
	form.Set("a", "user/-/state/com.google/read")
	for _, id := range localIDs {
		form.Add("i", id)
	}

	endpoint := c.base + "/api/greader.php/reader/api/0/edit-tag"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "GoogleLogin auth="+c.token)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("freshrss edit-tag: %w", err)
	}
	defer drainClose(resp.Body)
	return checkStatus(resp, "freshrss edit-tag")
}

func (f *FreshRSS) itemFromEntry(entry *greaderItem) *models.FeedItem {
	// The long-form id is stable and survives the reader's own paging;
	// keep it whole as the local id.
	localID := entry.ID

	link := ""
	if len(entry.Canonical) > 0 {
		link = entry.Canonical[0].Href
	}
	image := ""
	for _, enc := range entry.Enclosure {
		if strings.HasPrefix(enc.Type, "image/") {
			image = enc.Href
			break
		}
	}

	return &models.FeedItem{
		ID:        models.CompoundID(f.SourceType(), localID),
		Source:    f.SourceType(),
		Tier:      f.DefaultTier(),
		Title:     entry.Title,
		Body:      snippet(stripTags(entry.Summary.Content)),
		Image:     image,
		Link:      link,
		Timestamp: time.Unix(entry.Published, 0).UTC(),
		Meta: models.Meta{
			models.MetaSourceName: models.MetaString(entry.Origin.Title),
			models.MetaAuthor:     models.MetaString(entry.Author),
			"title":               models.MetaString(entry.Title),
			"content":             models.MetaString(entry.Summary.Content),
		},
	}
}

type freshrssCreds struct {
	base  string
	token string
}

func (f *FreshRSS) creds(q FetchQuery) (string, string, error) {
	base := strings.TrimSuffix(q.Param("base_url"), "/")
	token := q.Param("auth_token")
	if base == "" || token == "" {
		return "", "", fmt.Errorf("freshrss: base_url and auth_token required: %w", ErrUnavailable)
	}
	f.credsMu.Lock()
	if f.userCreds == nil {
		f.userCreds = make(map[string]freshrssCreds)
	}
	f.userCreds[q.User] = freshrssCreds{base: base, token: token}
	f.credsMu.Unlock()
	return base, token, nil
}

func (f *FreshRSS) getJSON(ctx context.Context, endpoint, token string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "GoogleLogin auth="+token)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer drainClose(resp.Body)

	if err := checkStatus(resp, "freshrss"); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// stripTags removes HTML tags well enough for a card snippet; detail
// views render the original HTML.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
