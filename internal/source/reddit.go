// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
reddit.go - Reddit source adapter

Fetches listings from Reddit's public JSON endpoints (no OAuth; read-only).
Configured subreddits come from the per-user source params:

	sources:
	  reddit:
	    enabled: true
	    params:
	      subreddits: worldnews,science,selfhosted

Paging uses Reddit's native "after" fullname token.
*/

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/boonware/boonscroll/internal/models"
)

const redditDefaultSubs = "popular"

// RedditConfig configures the shared Reddit adapter.
type RedditConfig struct {
	// BaseURL defaults to https://www.reddit.com; overridable for tests.
	BaseURL string
	// UserAgent is required by Reddit's API guidelines.
	UserAgent string
}

// Reddit is the wire-tier adapter for Reddit listings.
type Reddit struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

var _ Adapter = (*Reddit)(nil)

// NewReddit creates the Reddit adapter.
func NewReddit(cfg RedditConfig) *Reddit {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = "https://www.reddit.com"
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "boonscroll/1.0"
	}
	return &Reddit{
		baseURL:    base,
		userAgent:  ua,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *Reddit) SourceType() string       { return "reddit" }
func (r *Reddit) Prefixes() []Prefix       { return nil }
func (r *Reddit) DefaultTier() models.Tier { return models.TierWire }

// redditListing mirrors the slice of the listing payload we consume.
type redditListing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string     `json:"kind"`
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	SelfText   string  `json:"selftext"`
	Subreddit  string  `json:"subreddit"`
	Author     string  `json:"author"`
	Permalink  string  `json:"permalink"`
	URL        string  `json:"url"`
	Thumbnail  string  `json:"thumbnail"`
	CreatedUTC float64 `json:"created_utc"`
	Score      int     `json:"score"`
	Stickied   bool    `json:"stickied"`
}

// Fetch returns one page of the combined hot listing for the configured
// subreddits.
func (r *Reddit) Fetch(ctx context.Context, q FetchQuery) (FetchResult, error) {
	subs := q.Param("subreddits")
	if subs == "" {
		subs = redditDefaultSubs
	}
	multi := strings.Join(splitList(subs), "+")

	params := url.Values{}
	params.Set("raw_json", "1")
	params.Set("limit", fmt.Sprintf("%d", pageSizeOrDefault(q, 25)))
	if q.Page != "" {
		params.Set("after", q.Page)
	}

	var listing redditListing
	endpoint := fmt.Sprintf("/r/%s/hot.json?%s", url.PathEscape(multi), params.Encode())
	if err := r.getJSON(ctx, endpoint, &listing); err != nil {
		return FetchResult{}, fmt.Errorf("reddit listing: %w", err)
	}

	items := make([]*models.FeedItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" || child.Data.Stickied {
			continue
		}
		items = append(items, r.itemFromPost(&child.Data))
	}

	return FetchResult{
		Items:    items,
		HasMore:  listing.Data.After != "",
		NextPage: listing.Data.After,
	}, nil
}

// GetItem fetches a single post's list-view card.
func (r *Reddit) GetItem(ctx context.Context, localID string) (*models.FeedItem, error) {
	post, _, err := r.fetchThread(ctx, localID, 1)
	if err != nil {
		return nil, err
	}
	return r.itemFromPost(post), nil
}

// GetDetail returns the post body plus its top comments.
func (r *Reddit) GetDetail(ctx context.Context, localID string, _ models.Meta) ([]models.DetailSection, error) {
	post, comments, err := r.fetchThread(ctx, localID, 40)
	if err != nil {
		return nil, err
	}

	sections := []models.DetailSection{}
	if post.SelfText != "" {
		sections = append(sections, models.BodySection(post.SelfText))
	} else if post.URL != "" {
		sections = append(sections, models.DetailSection{
			Kind: models.SectionEmbed, Provider: "link", URL: post.URL,
		})
	}
	sections = append(sections, models.DetailSection{Kind: models.SectionComments, Comments: comments})
	sections = append(sections, models.DetailSection{
		Kind: models.SectionStats,
		Entries: []models.LabeledValue{
			{Label: "Score", Value: fmt.Sprintf("%d", post.Score)},
			{Label: "Subreddit", Value: "r/" + post.Subreddit},
			{Label: "Author", Value: "u/" + post.Author},
		},
	})
	return sections, nil
}

func (r *Reddit) itemFromPost(post *redditPost) *models.FeedItem {
	image := ""
	if strings.HasPrefix(post.Thumbnail, "http") {
		image = post.Thumbnail
	}
	return &models.FeedItem{
		ID:        models.CompoundID(r.SourceType(), post.ID),
		Source:    r.SourceType(),
		Tier:      r.DefaultTier(),
		Title:     post.Title,
		Body:      snippet(post.SelfText),
		Image:     image,
		Link:      r.baseURL + post.Permalink,
		Timestamp: time.Unix(int64(post.CreatedUTC), 0).UTC(),
		Priority:  scoreToPriority(post.Score),
		Meta: models.Meta{
			models.MetaSubreddit: models.MetaString(post.Subreddit),
			models.MetaAuthor:    models.MetaString(post.Author),
			"score":              models.MetaInt(int64(post.Score)),
		},
	}
}

// fetchThread loads /comments/{id}.json: element 0 is the post listing,
// element 1 the comment forest.
func (r *Reddit) fetchThread(ctx context.Context, localID string, limit int) (*redditPost, []models.Comment, error) {
	var thread []redditThreadNode
	endpoint := fmt.Sprintf("/comments/%s.json?raw_json=1&limit=%d", url.PathEscape(localID), limit)
	if err := r.getJSON(ctx, endpoint, &thread); err != nil {
		return nil, nil, fmt.Errorf("reddit thread %s: %w", localID, err)
	}
	if len(thread) == 0 || len(thread[0].Data.Children) == 0 {
		return nil, nil, fmt.Errorf("reddit thread %s: %w", localID, ErrNotFound)
	}

	post := thread[0].Data.Children[0].Data.post()
	var comments []models.Comment
	if len(thread) > 1 {
		comments = flattenRedditComments(thread[1].Data.Children, 0)
	}
	return post, comments, nil
}

// redditThreadNode is the recursive thread shape. Comment replies nest the
// same listing structure under data.replies.
type redditThreadNode struct {
	Data struct {
		Children []struct {
			Kind string           `json:"kind"`
			Data redditThreadData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditThreadData struct {
	redditPost
	Body    string          `json:"body"`
	Replies json.RawMessage `json:"replies"`
}

func (d *redditThreadData) post() *redditPost { return &d.redditPost }

const redditCommentDepthLimit = 3

func flattenRedditComments(children []struct {
	Kind string           `json:"kind"`
	Data redditThreadData `json:"data"`
}, depth int) []models.Comment {
	if depth >= redditCommentDepthLimit {
		return nil
	}
	var out []models.Comment
	for _, child := range children {
		if child.Kind != "t1" || child.Data.Body == "" {
			continue
		}
		out = append(out, models.Comment{
			Author: child.Data.Author,
			Body:   child.Data.Body,
			Score:  child.Data.Score,
			Depth:  depth,
		})
		// "replies" is "" when empty, a listing object otherwise.
		if len(child.Data.Replies) > 2 {
			var nested redditThreadNode
			if err := json.Unmarshal(child.Data.Replies, &nested); err == nil {
				out = append(out, flattenRedditComments(nested.Data.Children, depth+1)...)
			}
		}
	}
	return out
}

// scoreToPriority compresses an unbounded vote score into a small signed
// priority so one viral post cannot dominate tie-breaks forever.
func scoreToPriority(score int) int {
	switch {
	case score >= 10000:
		return 5
	case score >= 1000:
		return 4
	case score >= 100:
		return 3
	case score >= 10:
		return 2
	case score > 0:
		return 1
	default:
		return 0
	}
}

func (r *Reddit) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer drainClose(resp.Body)

	if err := checkStatus(resp, "reddit"); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
