// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package models

// SectionKind discriminates detail section variants.
type SectionKind string

const (
	SectionArticle  SectionKind = "article"
	SectionComments SectionKind = "comments"
	SectionEmbed    SectionKind = "embed"
	SectionBody     SectionKind = "body"
	SectionStats    SectionKind = "stats"
	SectionMetadata SectionKind = "metadata"
	SectionMedia    SectionKind = "media"
	SectionActions  SectionKind = "actions"
	SectionPlayer   SectionKind = "player"
)

// DetailSection is one tagged block of a detail view. Exactly the fields
// matching Kind are populated; everything else stays zero. This replaces
// the capability polymorphism of the source system with flat variants.
type DetailSection struct {
	Kind SectionKind `json:"kind"`

	// article
	Title     string `json:"title,omitempty"`
	HTML      string `json:"html,omitempty"`
	WordCount int    `json:"wordCount,omitempty"`

	// comments
	Comments []Comment `json:"comments,omitempty"`

	// embed
	Provider    string  `json:"provider,omitempty"`
	URL         string  `json:"url,omitempty"`
	AspectRatio float64 `json:"aspectRatio,omitempty"`

	// body
	Text string `json:"text,omitempty"`

	// stats / metadata
	Entries []LabeledValue `json:"entries,omitempty"`

	// media
	Media []MediaItem `json:"media,omitempty"`

	// actions
	Actions []Interaction `json:"actions,omitempty"`

	// player
	ContentID string `json:"contentId,omitempty"`
}

// Comment is one entry in a comments section, flattened with its depth.
type Comment struct {
	Author string `json:"author"`
	Body   string `json:"body"`
	Score  int    `json:"score"`
	Depth  int    `json:"depth"`
}

// LabeledValue is one row of a stats or metadata section.
type LabeledValue struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// MediaItem is one entry of a media section.
type MediaItem struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// BodySection builds a plain-text body section.
func BodySection(text string) DetailSection {
	return DetailSection{Kind: SectionBody, Text: text}
}

// MetadataSection builds a metadata section from label/value pairs.
func MetadataSection(entries ...LabeledValue) DetailSection {
	return DetailSection{Kind: SectionMetadata, Entries: entries}
}
