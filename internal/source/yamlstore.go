// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package source

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlStore caches one YAML document with an mtime check, the same
// pull-on-read reload the scroll config loader uses. The personal-data
// adapters (journal, tasks, habits, scripture, collection) all read their
// backing files through it.
type yamlStore[T any] struct {
	path string

	mu      sync.Mutex
	loaded  *T
	modTime time.Time
}

func newYAMLStore[T any](path string) *yamlStore[T] {
	return &yamlStore[T]{path: path}
}

// load returns the parsed document, re-reading the file when its mtime
// changed since the last parse.
func (s *yamlStore[T]) load() (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, ErrUnavailable)
	}
	if s.loaded != nil && info.ModTime().Equal(s.modTime) {
		return s.loaded, nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, ErrUnavailable)
	}
	doc := new(T)
	if err := yaml.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	s.loaded = doc
	s.modTime = info.ModTime()
	return doc, nil
}

// save writes the document back and refreshes the cache. Used by the
// adapters whose interactions mutate state (tasks, habits).
func (s *yamlStore[T]) save(doc *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	info, err := os.Stat(s.path)
	if err == nil {
		s.modTime = info.ModTime()
	}
	s.loaded = doc
	return nil
}
