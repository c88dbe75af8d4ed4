// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
immich.go - Immich photo library adapter

Surfaces "on this day" memories from a self-hosted Immich instance
(scrapbook tier). Uses the memory-lane endpoint keyed on today's
month/day, so the pool naturally rotates with the calendar.

	sources:
	  immich:
	    params:
	      base_url: https://photos.example.net
	      api_key: "..."
*/

package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/boonware/boonscroll/internal/models"
)

// Immich is the scrapbook-tier adapter for photo memories.
type Immich struct {
	httpClient *http.Client

	// now is swappable so tests pin "today".
	now func() time.Time
}

var _ Adapter = (*Immich)(nil)

// NewImmich creates the Immich adapter.
func NewImmich() *Immich {
	return &Immich{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

func (im *Immich) SourceType() string       { return "immich" }
func (im *Immich) Prefixes() []Prefix       { return []Prefix{{Prefix: "photo"}} }
func (im *Immich) DefaultTier() models.Tier { return models.TierScrapbook }

type immichMemory struct {
	Title  string        `json:"title"`
	Assets []immichAsset `json:"assets"`
}

type immichAsset struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	LocalDateTime string `json:"localDateTime"`
	ExifInfo      *struct {
		Description string `json:"description"`
		City        string `json:"city"`
		Country     string `json:"country"`
	} `json:"exifInfo"`
}

// Fetch returns today's memory-lane assets as one page.
func (im *Immich) Fetch(ctx context.Context, q FetchQuery) (FetchResult, error) {
	base, key, err := im.creds(q)
	if err != nil {
		return FetchResult{}, err
	}
	if q.Page != "" {
		return FetchResult{}, nil
	}

	today := im.now()
	endpoint := fmt.Sprintf("%s/api/assets/memory-lane?day=%d&month=%d", base, today.Day(), int(today.Month()))

	var memories []immichMemory
	if err := im.getJSON(ctx, endpoint, key, &memories); err != nil {
		return FetchResult{}, fmt.Errorf("immich memory lane: %w", err)
	}

	size := pageSizeOrDefault(q, 25)
	var items []*models.FeedItem
	for _, mem := range memories {
		for i := range mem.Assets {
			if len(items) >= size {
				break
			}
			items = append(items, im.itemFromAsset(base, &mem.Assets[i], mem.Title))
		}
	}
	return FetchResult{Items: items}, nil
}

// GetItem is served from pool state; memories are not individually
// addressable without the per-user instance.
func (im *Immich) GetItem(_ context.Context, localID string) (*models.FeedItem, error) {
	return nil, fmt.Errorf("immich asset %s: %w", localID, ErrNotFound)
}

// GetDetail renders the asset as a media section from list-view meta.
func (im *Immich) GetDetail(_ context.Context, localID string, meta models.Meta) ([]models.DetailSection, error) {
	imageURL := meta.GetString("imageUrl")
	if imageURL == "" {
		return nil, fmt.Errorf("immich detail %s: %w", localID, ErrNotFound)
	}
	sections := []models.DetailSection{
		{
			Kind:  models.SectionMedia,
			Media: []models.MediaItem{{URL: imageURL, Caption: meta.GetString("caption")}},
		},
	}
	if place := meta.GetString("place"); place != "" {
		sections = append(sections, models.MetadataSection(
			models.LabeledValue{Label: "Place", Value: place},
		))
	}
	return sections, nil
}

func (im *Immich) itemFromAsset(base string, asset *immichAsset, memoryTitle string) *models.FeedItem {
	taken, _ := time.Parse("2006-01-02T15:04:05.999Z", asset.LocalDateTime)
	if taken.IsZero() {
		taken, _ = time.Parse(time.RFC3339, asset.LocalDateTime)
	}

	years := im.now().Year() - taken.Year()
	title := memoryTitle
	if title == "" && years > 0 {
		title = fmt.Sprintf("%d years ago today", years)
	}

	caption := ""
	place := ""
	if asset.ExifInfo != nil {
		caption = asset.ExifInfo.Description
		if asset.ExifInfo.City != "" {
			place = asset.ExifInfo.City
			if asset.ExifInfo.Country != "" {
				place += ", " + asset.ExifInfo.Country
			}
		}
	}

	imageURL := fmt.Sprintf("%s/api/assets/%s/thumbnail?size=preview", base, asset.ID)
	return &models.FeedItem{
		ID:        models.CompoundID(im.SourceType(), asset.ID),
		Source:    im.SourceType(),
		Tier:      im.DefaultTier(),
		Title:     title,
		Body:      snippet(caption),
		Image:     imageURL,
		Timestamp: taken.UTC(),
		// Older memories float up: anniversaries beat last year's brunch.
		Priority: years,
		Meta: models.Meta{
			"imageUrl": models.MetaString(imageURL),
			"caption":  models.MetaString(caption),
			"place":    models.MetaString(place),
			"years":    models.MetaInt(int64(years)),
		},
	}
}

func (im *Immich) creds(q FetchQuery) (string, string, error) {
	base := strings.TrimSuffix(q.Param("base_url"), "/")
	key := q.Param("api_key")
	if base == "" || key == "" {
		return "", "", fmt.Errorf("immich: base_url and api_key required: %w", ErrUnavailable)
	}
	return base, key, nil
}

func (im *Immich) getJSON(ctx context.Context, endpoint, apiKey string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := im.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer drainClose(resp.Body)

	if err := checkStatus(resp, "immich"); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
