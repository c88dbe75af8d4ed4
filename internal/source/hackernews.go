// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
hackernews.go - Hacker News source adapter

Uses the public Firebase API (https://github.com/HackerNews/API). A fetch
loads the top-story id list and pages through it by offset; each page then
resolves its slice of ids to items. Paging tokens are the decimal offset.
*/

package source

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/boonware/boonscroll/internal/models"
)

// HackerNewsConfig configures the shared Hacker News adapter.
type HackerNewsConfig struct {
	// BaseURL defaults to https://hacker-news.firebaseio.com/v0.
	BaseURL string
}

// HackerNews is the wire-tier adapter for Hacker News top stories.
type HackerNews struct {
	baseURL    string
	httpClient *http.Client
}

var _ Adapter = (*HackerNews)(nil)

// NewHackerNews creates the Hacker News adapter.
func NewHackerNews(cfg HackerNewsConfig) *HackerNews {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = "https://hacker-news.firebaseio.com/v0"
	}
	return &HackerNews{
		baseURL:    base,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (h *HackerNews) SourceType() string       { return "hackernews" }
func (h *HackerNews) Prefixes() []Prefix       { return []Prefix{{Prefix: "hn"}} }
func (h *HackerNews) DefaultTier() models.Tier { return models.TierWire }

type hnItem struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Text        string  `json:"text"`
	URL         string  `json:"url"`
	By          string  `json:"by"`
	Time        int64   `json:"time"`
	Score       int     `json:"score"`
	Descendants int     `json:"descendants"`
	Kids        []int64 `json:"kids"`
	Deleted     bool    `json:"deleted"`
	Dead        bool    `json:"dead"`
}

// Fetch pages through the current top-story list.
func (h *HackerNews) Fetch(ctx context.Context, q FetchQuery) (FetchResult, error) {
	var ids []int64
	if err := h.getJSON(ctx, "/topstories.json", &ids); err != nil {
		return FetchResult{}, fmt.Errorf("hackernews topstories: %w", err)
	}

	offset := 0
	if q.Page != "" {
		parsed, err := strconv.Atoi(q.Page)
		if err != nil || parsed < 0 {
			return FetchResult{}, fmt.Errorf("hackernews: bad page token %q", q.Page)
		}
		offset = parsed
	}
	if offset >= len(ids) {
		return FetchResult{HasMore: false}, nil
	}

	size := pageSizeOrDefault(q, 20)
	end := offset + size
	if end > len(ids) {
		end = len(ids)
	}

	page := ids[offset:end]
	items := make([]*models.FeedItem, len(page))

	// The Firebase API is one request per item; resolve the page slice
	// concurrently but bounded.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range page {
		g.Go(func() error {
			story, err := h.fetchItem(gctx, id)
			if err != nil {
				return err
			}
			if story.Type == "story" && !story.Deleted && !story.Dead {
				items[i] = h.itemFromStory(story)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return FetchResult{}, fmt.Errorf("hackernews page: %w", err)
	}

	compact := make([]*models.FeedItem, 0, len(items))
	for _, it := range items {
		if it != nil {
			compact = append(compact, it)
		}
	}

	return FetchResult{
		Items:    compact,
		HasMore:  end < len(ids),
		NextPage: strconv.Itoa(end),
	}, nil
}

// GetItem fetches a single story card.
func (h *HackerNews) GetItem(ctx context.Context, localID string) (*models.FeedItem, error) {
	id, err := strconv.ParseInt(localID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("hackernews id %q: %w", localID, ErrNotFound)
	}
	story, err := h.fetchItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if story.Type != "story" || story.Deleted {
		return nil, fmt.Errorf("hackernews %d: %w", id, ErrNotFound)
	}
	return h.itemFromStory(story), nil
}

// GetDetail returns the story text (or link embed) plus first-level
// comments.
func (h *HackerNews) GetDetail(ctx context.Context, localID string, _ models.Meta) ([]models.DetailSection, error) {
	id, err := strconv.ParseInt(localID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("hackernews id %q: %w", localID, ErrNotFound)
	}
	story, err := h.fetchItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if story.Type != "story" || story.Deleted {
		return nil, fmt.Errorf("hackernews %d: %w", id, ErrNotFound)
	}

	sections := []models.DetailSection{}
	if story.Text != "" {
		sections = append(sections, models.DetailSection{
			Kind: models.SectionArticle, Title: story.Title, HTML: story.Text,
		})
	} else if story.URL != "" {
		sections = append(sections, models.DetailSection{
			Kind: models.SectionEmbed, Provider: "link", URL: story.URL,
		})
	}

	comments, err := h.fetchComments(ctx, story.Kids, 20)
	if err != nil {
		return nil, err
	}
	sections = append(sections, models.DetailSection{Kind: models.SectionComments, Comments: comments})
	sections = append(sections, models.DetailSection{
		Kind: models.SectionStats,
		Entries: []models.LabeledValue{
			{Label: "Points", Value: strconv.Itoa(story.Score)},
			{Label: "Comments", Value: strconv.Itoa(story.Descendants)},
			{Label: "Author", Value: story.By},
		},
	})
	return sections, nil
}

func (h *HackerNews) itemFromStory(story *hnItem) *models.FeedItem {
	localID := strconv.FormatInt(story.ID, 10)
	link := story.URL
	if link == "" {
		link = "https://news.ycombinator.com/item?id=" + localID
	}
	return &models.FeedItem{
		ID:        models.CompoundID(h.SourceType(), localID),
		Source:    h.SourceType(),
		Tier:      h.DefaultTier(),
		Title:     story.Title,
		Body:      snippet(story.Text),
		Link:      link,
		Timestamp: time.Unix(story.Time, 0).UTC(),
		Priority:  scoreToPriority(story.Score),
		Meta: models.Meta{
			models.MetaAuthor: models.MetaString(story.By),
			"score":           models.MetaInt(int64(story.Score)),
			"comments":        models.MetaInt(int64(story.Descendants)),
		},
	}
}

func (h *HackerNews) fetchComments(ctx context.Context, kids []int64, limit int) ([]models.Comment, error) {
	if len(kids) > limit {
		kids = kids[:limit]
	}
	comments := make([]*models.Comment, len(kids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range kids {
		g.Go(func() error {
			c, err := h.fetchItem(gctx, id)
			if err != nil {
				return err
			}
			if c.Type == "comment" && !c.Deleted && !c.Dead {
				comments[i] = &models.Comment{Author: c.By, Body: c.Text, Depth: 0}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("hackernews comments: %w", err)
	}

	out := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (h *HackerNews) fetchItem(ctx context.Context, id int64) (*hnItem, error) {
	var item hnItem
	if err := h.getJSON(ctx, fmt.Sprintf("/item/%d.json", id), &item); err != nil {
		return nil, fmt.Errorf("hackernews item %d: %w", id, err)
	}
	if item.ID == 0 {
		return nil, fmt.Errorf("hackernews item %d: %w", id, ErrNotFound)
	}
	return &item, nil
}

func (h *HackerNews) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer drainClose(resp.Body)

	if err := checkStatus(resp, "hackernews"); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
