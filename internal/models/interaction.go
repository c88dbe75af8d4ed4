// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package models

// InteractionKind discriminates the interaction variants a card may carry.
type InteractionKind string

const (
	InteractionButtons    InteractionKind = "buttons"
	InteractionTextInput  InteractionKind = "textInput"
	InteractionRating     InteractionKind = "rating"
	InteractionQuickReply InteractionKind = "quickReply"
)

// Interaction is a union-typed action descriptor attached to a card. The
// client renders the variant named by Kind and echoes Endpoint + Context
// back on POST /feed/respond.
type Interaction struct {
	Kind InteractionKind `json:"kind"`

	// Buttons is set when Kind == buttons.
	Buttons []InteractionButton `json:"buttons,omitempty"`

	// TextInput is set when Kind == textInput.
	TextInput *TextInputSpec `json:"textInput,omitempty"`

	// Rating is set when Kind == rating.
	Rating *RatingSpec `json:"rating,omitempty"`

	// Endpoint is the respond route the client posts to.
	Endpoint string `json:"endpoint"`

	// Context is opaque to the client and echoed verbatim on response.
	Context map[string]string `json:"context,omitempty"`
}

// InteractionButton is one tappable choice in a buttons interaction.
type InteractionButton struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Style string `json:"style,omitempty"`
}

// TextInputSpec describes a free-text interaction.
type TextInputSpec struct {
	Placeholder string `json:"placeholder,omitempty"`
	MaxLength   int    `json:"maxLength,omitempty"`
}

// RatingSpec describes a scale interaction (1..Scale).
type RatingSpec struct {
	Scale int `json:"scale"`
}
