// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nbd-wtf/go-nostr"

	"github.com/boonware/boonscroll/internal/bridge"
	"github.com/boonware/boonscroll/internal/config"
	"github.com/boonware/boonscroll/internal/detail"
	"github.com/boonware/boonscroll/internal/feed"
	"github.com/boonware/boonscroll/internal/models"
	"github.com/boonware/boonscroll/internal/source"
)

// stubAdapter serves a small fixed compass source and accepts "done"
// interactions.
type stubAdapter struct {
	items []*models.FeedItem
}

func newStubAdapter() *stubAdapter {
	items := make([]*models.FeedItem, 0, 5)
	base := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		items = append(items, &models.FeedItem{
			ID:        fmt.Sprintf("today:%d", i),
			Source:    "today",
			Tier:      models.TierCompass,
			Title:     fmt.Sprintf("Item %d", i),
			Body:      "Something to do.",
			Timestamp: base.Add(-time.Duration(i) * time.Hour),
		})
	}
	return &stubAdapter{items: items}
}

func (s *stubAdapter) SourceType() string        { return "today" }
func (s *stubAdapter) Prefixes() []source.Prefix { return nil }
func (s *stubAdapter) DefaultTier() models.Tier  { return models.TierCompass }

func (s *stubAdapter) Fetch(_ context.Context, q source.FetchQuery) (source.FetchResult, error) {
	if q.Page != "" {
		return source.FetchResult{}, nil
	}
	out := make([]*models.FeedItem, len(s.items))
	for i, item := range s.items {
		clone := *item
		out[i] = &clone
	}
	return source.FetchResult{Items: out}, nil
}

func (s *stubAdapter) GetItem(_ context.Context, localID string) (*models.FeedItem, error) {
	for _, item := range s.items {
		if item.ID == "today:"+localID {
			clone := *item
			return &clone, nil
		}
	}
	return nil, source.ErrNotFound
}

func (s *stubAdapter) GetDetail(ctx context.Context, localID string, _ models.Meta) ([]models.DetailSection, error) {
	item, err := s.GetItem(ctx, localID)
	if err != nil {
		return nil, err
	}
	return source.FallbackDetail(item), nil
}

func (s *stubAdapter) HandleResponse(_ context.Context, _, localID, response string, _ map[string]string) (map[string]interface{}, error) {
	if response != "done" {
		return nil, fmt.Errorf("unsupported response %q", response)
	}
	return map[string]interface{}{"action": "done", "item": localID}, nil
}

// newTestServer wires the whole HTTP surface over the stub source.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	registry := source.NewRegistry(source.GuardConfig{FetchTimeout: time.Second})
	registry.MustRegister(newStubAdapter())
	resolver, err := source.NewResolver(registry, nil, "")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	defaults := config.DefaultConfig().Scroll
	defaults.Sources = map[string]models.SourceSettings{
		"today": {Enabled: true},
	}
	loader := config.NewScrollLoader(defaults, t.TempDir())

	fetchCfg := config.FetchConfig{
		Timeout:          time.Second,
		PageSize:         5,
		FilteredPageSize: 10,
		RefillMultiple:   2,
		MaxBatch:         50,
	}
	pools := feed.NewPoolManager(registry, fetchCfg)
	feedSvc := feed.NewService(loader, pools, registry, fetchCfg)

	bridgeSvc, err := bridge.NewService(bridge.NewMemoryRelay(), config.BridgeConfig{
		Enabled:      true,
		SecretKey:    nostr.GeneratePrivateKey(),
		StatsTTL:     time.Minute,
		QueryTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("bridge.NewService: %v", err)
	}

	assembler := detail.NewAssembler(resolver, bridgeSvc, false)
	handlers := NewHandlers(feedSvc, assembler, bridgeSvc, resolver, loader, registry)
	return NewRouter(handlers, config.APIConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		CORSOrigins:       []string{"*"},
	}).Setup()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	decoded := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("%s %s: bad JSON body %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func errorCode(body map[string]interface{}) string {
	envelope, _ := body["error"].(map[string]interface{})
	code, _ := envelope["code"].(string)
	return code
}

func TestScrollEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/api/v1/feed/scroll", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	items, _ := body["items"].([]interface{})
	if len(items) == 0 {
		t.Fatal("empty first batch")
	}
	if cursor, _ := body["cursor"].(string); cursor == "" {
		t.Error("missing cursor")
	}
	colors, _ := body["colors"].(map[string]interface{})
	if colors["compass"] != "#4fd98e" {
		t.Errorf("colors = %v", colors)
	}
}

func TestScrollEndpointBadLimit(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/api/v1/feed/scroll?limit=abc", "")
	if rec.Code != http.StatusBadRequest || errorCode(body) != ErrCodeBadRequest {
		t.Fatalf("status %d body %v", rec.Code, body)
	}
}

func TestDetailEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/api/v1/feed/detail/today:2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	item, _ := body["item"].(map[string]interface{})
	if item["id"] != "today:2" {
		t.Errorf("item = %v", item)
	}
	sections, _ := body["sections"].([]interface{})
	if len(sections) == 0 {
		t.Error("no sections")
	}

	rec, body = doJSON(t, h, http.MethodGet, "/api/v1/feed/detail/today:999", "")
	if rec.Code != http.StatusNotFound || errorCode(body) != ErrCodeNotFound {
		t.Errorf("missing item: status %d body %v", rec.Code, body)
	}
	rec, body = doJSON(t, h, http.MethodGet, "/api/v1/feed/detail/nosuch:1", "")
	if rec.Code != http.StatusBadRequest || errorCode(body) != ErrCodeBadRequest {
		t.Errorf("unknown source: status %d body %v", rec.Code, body)
	}
}

func TestRespondEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodPost, "/api/v1/feed/respond",
		`{"itemId":"today:3","response":"done"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if body["success"] != true || body["action"] != "done" {
		t.Errorf("body = %v", body)
	}

	rec, body = doJSON(t, h, http.MethodPost, "/api/v1/feed/respond", `{"response":"done"}`)
	if rec.Code != http.StatusBadRequest || errorCode(body) != ErrCodeBadRequest {
		t.Errorf("missing itemId: status %d body %v", rec.Code, body)
	}
	rec, body = doJSON(t, h, http.MethodPost, "/api/v1/feed/respond", `{not json`)
	if rec.Code != http.StatusBadRequest || errorCode(body) != ErrCodeBadRequest {
		t.Errorf("malformed body: status %d body %v", rec.Code, body)
	}
}

func TestRespondBridgeChannel(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodPost, "/api/v1/feed/respond",
		`{"itemId":"today:1","response":"Great reminder.","context":{"channel":"bridge"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if body["action"] != "commented" || body["visibility"] != "public" {
		t.Errorf("body = %v", body)
	}
	anchorID, _ := body["anchorId"].(string)
	if anchorID == "" {
		t.Fatal("missing anchorId")
	}

	// The published thread is readable back.
	rec, thread := doJSON(t, h, http.MethodGet, "/api/v1/feed/bridge/"+anchorID+"/thread", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("thread status %d: %s", rec.Code, rec.Body.String())
	}
	replies, _ := thread["replies"].([]interface{})
	if thread["id"] != anchorID || len(replies) != 1 {
		t.Errorf("thread = %v", thread)
	}
}

func TestThreadEndpointUnknownAnchor(t *testing.T) {
	h := newTestServer(t)
	missing := strings.Repeat("f", 64)

	rec, body := doJSON(t, h, http.MethodGet, "/api/v1/feed/bridge/"+missing+"/thread", "")
	if rec.Code != http.StatusNotFound || errorCode(body) != ErrCodeNotFound {
		t.Errorf("status %d body %v", rec.Code, body)
	}
}

func TestConfigEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/api/v1/feed/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if body["batch_size"] != float64(10) {
		t.Errorf("batch_size = %v, want default 10", body["batch_size"])
	}

	rec, body = doJSON(t, h, http.MethodPut, "/api/v1/feed/config",
		`{"algorithm":{"batchSize":6,"wireDecayBatches":5}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status %d: %s", rec.Code, rec.Body.String())
	}
	if body["batch_size"] != float64(6) {
		t.Errorf("batch_size = %v after overlay, want 6", body["batch_size"])
	}

	rec, body = doJSON(t, h, http.MethodPut, "/api/v1/feed/config",
		`{"algorithm":{"batchSize":6,"wireDecayBatches":0}}`)
	if rec.Code != http.StatusBadRequest || errorCode(body) != ErrCodeBadRequest {
		t.Errorf("invalid overlay: status %d body %v", rec.Code, body)
	}
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/api/v1/health/live", "")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("live: status %d body %v", rec.Code, body)
	}

	rec, body = doJSON(t, h, http.MethodGet, "/api/v1/health/ready", "")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("ready: status %d body %v", rec.Code, body)
	}
	checks, _ := body["checks"].(map[string]interface{})
	if checks["sources"] != "ok" || checks["bridge"] != "enabled" {
		t.Errorf("checks = %v", checks)
	}
}
