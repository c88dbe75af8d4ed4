// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
youtube.go - YouTube channel adapter

Reads the public Atom feeds YouTube publishes per channel
(https://www.youtube.com/feeds/videos.xml?channel_id=...). No API key is
needed; the feed carries the latest ~15 uploads, so there is no deep
paging. Channels come from source params:

	sources:
	  youtube:
	    params:
	      channels: UCxxxx,UCyyyy
*/

package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/boonware/boonscroll/internal/models"
)

// YouTubeConfig configures the shared YouTube adapter.
type YouTubeConfig struct {
	// BaseURL defaults to https://www.youtube.com; overridable for tests.
	BaseURL string
}

// YouTube is the library-tier adapter for subscribed channel uploads.
type YouTube struct {
	baseURL    string
	httpClient *http.Client
}

var _ Adapter = (*YouTube)(nil)

// NewYouTube creates the YouTube adapter.
func NewYouTube(cfg YouTubeConfig) *YouTube {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = "https://www.youtube.com"
	}
	return &YouTube{
		baseURL:    base,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (y *YouTube) SourceType() string       { return "youtube" }
func (y *YouTube) Prefixes() []Prefix       { return []Prefix{{Prefix: "yt"}} }
func (y *YouTube) DefaultTier() models.Tier { return models.TierLibrary }

// ytFeed is the slice of the Atom document we consume.
type ytFeed struct {
	XMLName xml.Name  `xml:"feed"`
	Title   string    `xml:"title"`
	Entries []ytEntry `xml:"entry"`
}

type ytEntry struct {
	VideoID   string `xml:"videoId"`
	ChannelID string `xml:"channelId"`
	Title     string `xml:"title"`
	Published string `xml:"published"`
	Author    struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Group struct {
		Description string `xml:"description"`
		Thumbnail   struct {
			URL string `xml:"url,attr"`
		} `xml:"thumbnail"`
	} `xml:"group"`
}

// Fetch merges the Atom feeds of all configured channels, newest first.
// The feeds are shallow, so the whole merge is a single page.
func (y *YouTube) Fetch(ctx context.Context, q FetchQuery) (FetchResult, error) {
	channels := splitList(q.Param("channels"))
	if len(channels) == 0 {
		return FetchResult{}, fmt.Errorf("youtube: no channels configured: %w", ErrUnavailable)
	}
	if q.Page != "" {
		// Single-page source; any continuation means exhausted.
		return FetchResult{}, nil
	}

	var items []*models.FeedItem
	for _, channel := range channels {
		feed, err := y.fetchFeed(ctx, channel)
		if err != nil {
			return FetchResult{}, fmt.Errorf("youtube channel %s: %w", channel, err)
		}
		for i := range feed.Entries {
			items = append(items, y.itemFromEntry(&feed.Entries[i], feed.Title))
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Timestamp.After(items[j].Timestamp) })
	if size := pageSizeOrDefault(q, 25); len(items) > size {
		items = items[:size]
	}

	return FetchResult{Items: items}, nil
}

// GetItem rebuilds the card from the compound local id
// "{channelId}/{videoId}" stamped at fetch time, falling back to a bare
// video id card when the channel half is missing.
func (y *YouTube) GetItem(ctx context.Context, localID string) (*models.FeedItem, error) {
	channelID, videoID, found := strings.Cut(localID, "/")
	if !found {
		return nil, fmt.Errorf("youtube id %q: %w", localID, ErrNotFound)
	}
	feed, err := y.fetchFeed(ctx, channelID)
	if err != nil {
		return nil, err
	}
	for i := range feed.Entries {
		if feed.Entries[i].VideoID == videoID {
			return y.itemFromEntry(&feed.Entries[i], feed.Title), nil
		}
	}
	return nil, fmt.Errorf("youtube video %s: %w", videoID, ErrNotFound)
}

// GetDetail returns an embedded player plus the upload description.
func (y *YouTube) GetDetail(ctx context.Context, localID string, meta models.Meta) ([]models.DetailSection, error) {
	item, err := y.GetItem(ctx, localID)
	if err != nil {
		return nil, err
	}
	_, videoID, _ := strings.Cut(localID, "/")

	sections := []models.DetailSection{
		{
			Kind:        models.SectionEmbed,
			Provider:    "youtube",
			URL:         "https://www.youtube.com/embed/" + videoID,
			AspectRatio: 16.0 / 9.0,
		},
		{Kind: models.SectionPlayer, ContentID: item.ID},
	}
	if item.Body != "" {
		sections = append(sections, models.BodySection(item.Body))
	}
	return sections, nil
}

func (y *YouTube) itemFromEntry(entry *ytEntry, feedTitle string) *models.FeedItem {
	published, _ := time.Parse(time.RFC3339, entry.Published)
	channelName := entry.Author.Name
	if channelName == "" {
		channelName = feedTitle
	}
	localID := entry.ChannelID + "/" + entry.VideoID
	return &models.FeedItem{
		ID:        models.CompoundID(y.SourceType(), localID),
		Source:    y.SourceType(),
		Tier:      y.DefaultTier(),
		Title:     entry.Title,
		Body:      snippet(entry.Group.Description),
		Image:     entry.Group.Thumbnail.URL,
		Link:      "https://www.youtube.com/watch?v=" + entry.VideoID,
		Timestamp: published.UTC(),
		Meta: models.Meta{
			models.MetaChannelName: models.MetaString(channelName),
			models.MetaSourceName:  models.MetaString(channelName),
		},
	}
}

func (y *YouTube) fetchFeed(ctx context.Context, channelID string) (*ytFeed, error) {
	url := y.baseURL + "/feeds/videos.xml?channel_id=" + channelID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer drainClose(resp.Body)

	if err := checkStatus(resp, "youtube"); err != nil {
		return nil, err
	}

	var feed ytFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return &feed, nil
}
