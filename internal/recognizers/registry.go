// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"pii-redact/internal/entity"
)

// Registry owns the ordered list of recognizer records. Built-ins are
// loaded at construction; Configure appends user-registered patterns at
// runtime. User patterns coexist with built-ins and participate in
// overlap resolution on equal footing.
type Registry struct {
	mu          sync.RWMutex
	recognizers []*Recognizer
}

// NewRegistry creates a registry loaded with all built-in recognizers.
func NewRegistry() *Registry {
	r := &Registry{}
	r.recognizers = append(r.recognizers, generalRecognizers()...)
	r.recognizers = append(r.recognizers, secretsRecognizers()...)
	r.recognizers = append(r.recognizers, financialRecognizers()...)
	r.recognizers = append(r.recognizers, medicalRecognizers()...)
	return r
}

// AddPattern registers a runtime pattern under its own entity type.
// The score must lie in [0, 1].
func (r *Registry) AddPattern(name, pattern string, score float64) error {
	if score < 0 || score > 1 {
		return fmt.Errorf("score must be between 0.0 and 1.0, got %v", score)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", name, err)
	}
	rec := NewRecognizer(name+"Recognizer", name, []Pattern{
		{Name: name, Regex: re, Score: score},
	}, nil)

	r.mu.Lock()
	r.recognizers = append(r.recognizers, rec)
	r.mu.Unlock()
	return nil
}

// Analyze runs every recognizer over text. When restrict is non-empty,
// only recognizers whose entity type appears in it run. disabled entity
// types never run.
func (r *Registry) Analyze(text string, restrict map[string]bool, disabled map[string]bool) []entity.Span {
	r.mu.RLock()
	recs := make([]*Recognizer, len(r.recognizers))
	copy(recs, r.recognizers)
	r.mu.RUnlock()

	var spans []entity.Span
	for _, rec := range recs {
		if disabled[rec.EntityType] {
			continue
		}
		if len(restrict) > 0 && !restrict[rec.EntityType] {
			continue
		}
		spans = append(spans, rec.Analyze(text)...)
	}
	return spans
}

// SupportedEntities returns the sorted, de-duplicated set of entity
// types the registry can produce.
func (r *Registry) SupportedEntities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, rec := range r.recognizers {
		seen[rec.EntityType] = true
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
