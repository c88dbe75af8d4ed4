// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
handlers.go - feed endpoint handlers

The engine is personal: requests carry the profile name in the
X-Scroll-User header (default "default"), there is no auth layer. The
respond endpoint dispatches on the request context: channel "bridge"
goes to the comment bridge, everything else to the owning adapter's
interaction handler.
*/

package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/boonware/boonscroll/internal/bridge"
	"github.com/boonware/boonscroll/internal/config"
	"github.com/boonware/boonscroll/internal/detail"
	"github.com/boonware/boonscroll/internal/feed"
	"github.com/boonware/boonscroll/internal/models"
	"github.com/boonware/boonscroll/internal/source"
)

const defaultUser = "default"

// Handlers bundles the services behind the feed routes.
type Handlers struct {
	feed     *feed.Service
	detail   *detail.Assembler
	bridge   *bridge.Service
	resolver *source.Resolver
	scroll   *config.ScrollLoader
	registry *source.Registry
}

// NewHandlers creates the handler set.
func NewHandlers(feedSvc *feed.Service, detailSvc *detail.Assembler, bridgeSvc *bridge.Service, resolver *source.Resolver, scroll *config.ScrollLoader, registry *source.Registry) *Handlers {
	return &Handlers{
		feed:     feedSvc,
		detail:   detailSvc,
		bridge:   bridgeSvc,
		resolver: resolver,
		scroll:   scroll,
		registry: registry,
	}
}

func requestUser(r *http.Request) string {
	if user := strings.TrimSpace(r.Header.Get("X-Scroll-User")); user != "" {
		return user
	}
	return defaultUser
}

// Scroll serves GET /feed/scroll.
func (h *Handlers) Scroll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := feed.BatchOptions{
		Cursor:  q.Get("cursor"),
		Filter:  q.Get("filter"),
		Focus:   q.Get("focus"),
		NoCache: q.Get("nocache") == "1",
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "limit must be a non-negative integer")
			return
		}
		opts.Limit = limit
	}
	if raw := q.Get("source"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				opts.Sources = append(opts.Sources, trimmed)
			}
		}
	}

	batch, err := h.feed.GetNextBatch(r.Context(), requestUser(r), opts)
	if err != nil {
		writeMappedError(w, r, err)
		return
	}
	if batch.Items == nil {
		batch.Items = []*models.FeedItem{}
	}
	writeJSON(w, r, http.StatusOK, batch)
}

// detailResponse is the GET /feed/detail/{itemId} body.
type detailResponse struct {
	Item     *models.FeedItem       `json:"item"`
	Sections []models.DetailSection `json:"sections"`
}

// Detail serves GET /feed/detail/{itemId}. The optional meta query
// param carries the list card's meta for adapters that synthesize
// detail from it.
func (h *Handlers) Detail(w http.ResponseWriter, r *http.Request) {
	itemID, err := url.PathUnescape(chi.URLParam(r, "itemId"))
	if err != nil || itemID == "" {
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "missing item id")
		return
	}

	var meta models.Meta
	if raw := r.URL.Query().Get("meta"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "meta must be a JSON object")
			return
		}
	}

	item, sections, err := h.detail.GetDetail(r.Context(), itemID, meta)
	if err != nil {
		writeMappedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, detailResponse{Item: item, Sections: sections})
}

// respondRequest is the POST /feed/respond body.
type respondRequest struct {
	ItemID   string            `json:"itemId"`
	Response string            `json:"response"`
	Context  map[string]string `json:"context"`
}

// Respond serves POST /feed/respond.
func (h *Handlers) Respond(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "malformed request body")
		return
	}
	if req.ItemID == "" {
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "itemId is required")
		return
	}

	if req.Context["channel"] == "bridge" {
		h.bridgeComment(w, r, req)
		return
	}

	result, err := h.feed.HandleResponse(r.Context(), requestUser(r), req.ItemID, req.Response, req.Context)
	if err != nil {
		writeMappedError(w, r, err)
		return
	}
	result["success"] = true
	writeJSON(w, r, http.StatusOK, result)
}

// bridgeComment publishes the response text as a bridge comment on the
// item, creating the anchor on first comment.
func (h *Handlers) bridgeComment(w http.ResponseWriter, r *http.Request, req respondRequest) {
	resolved, err := h.resolver.Resolve(req.ItemID)
	if err != nil {
		writeMappedError(w, r, err)
		return
	}
	item, err := resolved.Adapter.GetItem(r.Context(), resolved.LocalID)
	if err != nil {
		writeMappedError(w, r, err)
		return
	}

	visibility := req.Context["visibility"]
	if visibility == "" {
		visibility = bridge.VisibilityPublic
	}
	anchor, commentID, err := h.bridge.Comment(r.Context(), item, req.Response, visibility)
	if err != nil {
		writeMappedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success":    true,
		"action":     "commented",
		"itemId":     req.ItemID,
		"anchorId":   anchor.ID,
		"commentId":  commentID,
		"visibility": visibility,
	})
}

// Thread serves GET /feed/bridge/{anchorId}/thread.
func (h *Handlers) Thread(w http.ResponseWriter, r *http.Request) {
	anchorID := chi.URLParam(r, "anchorId")
	if anchorID == "" {
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "missing anchor id")
		return
	}
	thread, err := h.bridge.GetThread(r.Context(), anchorID)
	if err != nil {
		writeMappedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, thread)
}

// GetConfig serves GET /feed/config: the caller's merged scroll config.
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scroll.Load(requestUser(r))
	if err != nil {
		writeMappedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sc)
}

// PutConfig serves PUT /feed/config: replaces the caller's overlay.
func (h *Handlers) PutConfig(w http.ResponseWriter, r *http.Request) {
	var fc config.ScrollFileConfig
	if err := json.NewDecoder(r.Body).Decode(&fc); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "malformed scroll config")
		return
	}
	user := requestUser(r)
	if err := h.scroll.SaveOverlay(user, &fc); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	sc, err := h.scroll.Load(user)
	if err != nil {
		writeMappedError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sc)
}
