// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package engine orchestrates the detection layers and produces the
// reversible placeholder output. Within one Redact call the sequence is
// strict: pattern, neural, merge, validate, generative, merge, validate,
// substitute, record. Each call is stateless except for session creation
// and lazy TTL pruning.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"pii-redact/internal/entity"
	"pii-redact/internal/neural"
	"pii-redact/internal/observability"
	"pii-redact/internal/recognizers"
	"pii-redact/internal/reviewer"
	"pii-redact/internal/session"
)

// DefaultScoreThreshold is the confidence floor applied to candidates
// before overlap resolution.
const DefaultScoreThreshold = 0.4

// reviewerScore is the fixed confidence assigned to accepted generative
// proposals.
const reviewerScore = 0.7

// ErrSessionMissing is returned when an unredact references an unknown
// or expired session id.
var ErrSessionMissing = errors.New("session not found or expired")

// Engine is the detection-and-redaction core. It is safe for concurrent
// use; the session store is the only shared mutable resource.
type Engine struct {
	registry *recognizers.Registry
	neural   *neural.Client   // nil disables the L2 layer
	reviewer *reviewer.Client // nil disables the L3 layer
	sessions session.Store
	observer *observability.StandardObserver

	mu        sync.RWMutex
	threshold float64
	disabled  map[string]bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithNeural attaches the zero-shot tagger layer.
func WithNeural(c *neural.Client) Option {
	return func(e *Engine) { e.neural = c }
}

// WithReviewer attaches the generative reviewer layer.
func WithReviewer(c *reviewer.Client) Option {
	return func(e *Engine) { e.reviewer = c }
}

// WithSessions replaces the default in-memory store.
func WithSessions(s session.Store) Option {
	return func(e *Engine) { e.sessions = s }
}

// WithObserver attaches observability.
func WithObserver(o *observability.StandardObserver) Option {
	return func(e *Engine) { e.observer = o }
}

// WithScoreThreshold sets the initial confidence floor.
func WithScoreThreshold(t float64) Option {
	return func(e *Engine) { e.threshold = t }
}

// New creates an engine with the built-in recognizer registry.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry:  recognizers.NewRegistry(),
		threshold: DefaultScoreThreshold,
		disabled:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sessions == nil {
		e.sessions = session.NewMemoryStore(session.DefaultTTL)
	}
	if e.observer == nil {
		e.observer = observability.NewStandardObserver(observability.ObservabilityMetrics, os.Stderr)
	}
	return e
}

// Sessions exposes the session store to the document projector, which
// accumulates per-unit mappings into a single session.
func (e *Engine) Sessions() session.Store { return e.sessions }

// Registry exposes the recognizer registry for configuration.
func (e *Engine) Registry() *recognizers.Registry { return e.registry }

// SetScoreThreshold updates the confidence floor. 0.0 admits all
// candidates; 1.0 rejects all.
func (e *Engine) SetScoreThreshold(t float64) error {
	if t < 0 || t > 1 {
		return fmt.Errorf("score_threshold must be between 0.0 and 1.0, got %v", t)
	}
	e.mu.Lock()
	e.threshold = t
	e.mu.Unlock()
	return nil
}

// ScoreThreshold returns the current confidence floor.
func (e *Engine) ScoreThreshold() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.threshold
}

// DisableEntities removes entity types from detection until re-enabled.
func (e *Engine) DisableEntities(types []string) {
	e.mu.Lock()
	for _, t := range types {
		e.disabled[t] = true
	}
	e.mu.Unlock()
}

// ActiveEntities returns the supported entity types minus disabled ones.
func (e *Engine) ActiveEntities() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []string
	for _, t := range e.registry.SupportedEntities() {
		if !e.disabled[t] {
			out = append(out, t)
		}
	}
	return out
}

// ReviewerAvailable probes the generative endpoint, if one is attached.
func (e *Engine) ReviewerAvailable(ctx context.Context) bool {
	return e.reviewer != nil && e.reviewer.Available(ctx)
}

// EntityRef locates one accepted entity in the input text. Offsets refer
// to the input, not the redacted output; the document layer depends on
// that.
type EntityRef struct {
	Type          string `json:"type"`
	OriginalStart int    `json:"original_start"`
	OriginalEnd   int    `json:"original_end"`
	Placeholder   string `json:"placeholder"`
}

// RedactResult is the outcome of one Redact call.
type RedactResult struct {
	RedactedText  string      `json:"redacted_text"`
	SessionID     string      `json:"session_id"`
	EntitiesFound int         `json:"entities_found"`
	Entities      []EntityRef `json:"entities"`
}

// UnredactResult is the outcome of one Unredact call.
type UnredactResult struct {
	OriginalText     string `json:"original_text"`
	EntitiesRestored int    `json:"entities_restored"`
}

// AnalyzeEntity is one reported entity from Analyze, with the original
// value partially masked.
type AnalyzeEntity struct {
	Type  string  `json:"type"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// AnalyzeResult is the outcome of one Analyze call.
type AnalyzeResult struct {
	Entities []AnalyzeEntity `json:"entities"`
}

// Redact detects entities in text and replaces each with an indexed
// placeholder, recording the reverse mapping in a fresh session. A
// session is created even when nothing is found; callers depend on
// receiving an id.
func (e *Engine) Redact(ctx context.Context, text string, entityTypes []string) (*RedactResult, error) {
	finish := e.observer.StartTiming("engine", "redact", "")

	e.sessions.PruneExpired(time.Now())

	spans, err := e.detect(ctx, text, entityTypes, true)
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	sortByStart(spans)

	// Assign placeholders left-to-right with dense 1-based counters per
	// entity type, then substitute right-to-left so earlier offsets stay
	// valid while the text changes length.
	counters := make(map[string]int)
	entities := make([]EntityRef, len(spans))
	for i, s := range spans {
		counters[s.EntityType]++
		entities[i] = EntityRef{
			Type:          s.EntityType,
			OriginalStart: s.Start,
			OriginalEnd:   s.End,
			Placeholder:   entity.Placeholder(s.EntityType, counters[s.EntityType]),
		}
	}

	sessionID := e.sessions.Create()
	redacted := text
	for i := len(entities) - 1; i >= 0; i-- {
		ref := entities[i]
		original := text[ref.OriginalStart:ref.OriginalEnd]
		redacted = redacted[:ref.OriginalStart] + ref.Placeholder + redacted[ref.OriginalEnd:]
		e.sessions.Add(sessionID, ref.Placeholder, original)
	}

	finish(true, map[string]interface{}{"entities_found": len(entities)})
	return &RedactResult{
		RedactedText:  redacted,
		SessionID:     sessionID,
		EntitiesFound: len(entities),
		Entities:      entities,
	}, nil
}

// Unredact restores placeholders using the mappings of a prior session.
func (e *Engine) Unredact(redactedText, sessionID string) (*UnredactResult, error) {
	mappings, ok := e.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionMissing, sessionID)
	}

	restored, count := applyMappings(redactedText, mappings)
	return &UnredactResult{
		OriginalText:     restored,
		EntitiesRestored: count,
	}, nil
}

// applyMappings substitutes each placeholder that occurs at least once
// and counts the distinct placeholders that did.
func applyMappings(text string, mappings map[string]string) (string, int) {
	count := 0
	for placeholder, original := range mappings {
		if strings.Contains(text, placeholder) {
			text = strings.ReplaceAll(text, placeholder, original)
			count++
		}
	}
	return text, count
}

// Analyze reports detected entities without mutating text or creating a
// session. Scores are rounded to two decimals and originals partially
// masked.
func (e *Engine) Analyze(ctx context.Context, text string, entityTypes []string) (*AnalyzeResult, error) {
	spans, err := e.detect(ctx, text, entityTypes, false)
	if err != nil {
		return nil, err
	}
	sortByStart(spans)

	entities := make([]AnalyzeEntity, len(spans))
	for i, s := range spans {
		entities[i] = AnalyzeEntity{
			Type:  s.EntityType,
			Start: s.Start,
			End:   s.End,
			Score: math.Round(s.Score*100) / 100,
			Text:  entity.PartialMask(s.Text(text)),
		}
	}
	return &AnalyzeResult{Entities: entities}, nil
}

// detect runs the layered pipeline: pattern and neural candidates,
// threshold, overlap resolution, validation, then (for redaction) the
// generative pass followed by a second merge and validation. The only
// cancellation points are between layers; a cancelled call returns an
// error before any session is created.
func (e *Engine) detect(ctx context.Context, text string, entityTypes []string, withReviewer bool) ([]entity.Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	restrict := make(map[string]bool, len(entityTypes))
	for _, t := range entityTypes {
		restrict[t] = true
	}
	e.mu.RLock()
	threshold := e.threshold
	disabled := make(map[string]bool, len(e.disabled))
	for t := range e.disabled {
		disabled[t] = true
	}
	e.mu.RUnlock()

	candidates := e.registry.Analyze(text, restrict, disabled)

	if e.neural != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		neuralSpans, err := e.neural.Classify(ctx, text)
		if err != nil {
			// Contract violations only; unavailability already came back
			// as an empty result. Proceed without the layer either way.
			e.observer.LogError("engine", "neural_layer", err)
		}
		for _, s := range neuralSpans {
			if disabled[s.EntityType] {
				continue
			}
			if len(restrict) > 0 && !restrict[s.EntityType] {
				continue
			}
			candidates = append(candidates, s)
		}
	}

	kept := validateSpans(text, removeOverlaps(aboveThreshold(candidates, threshold)))

	if withReviewer && e.reviewer != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		alreadyFound := make([]string, len(kept))
		for i, s := range kept {
			alreadyFound[i] = s.Text(text)
		}
		for _, p := range e.reviewer.Review(ctx, text, alreadyFound) {
			proposal := entity.Span{
				Start:      p.Start,
				End:        p.End,
				EntityType: p.EntityType,
				Score:      reviewerScore,
				Source:     entity.SourceGenerative,
			}
			if overlapsAny(proposal, kept) {
				continue
			}
			kept = append(kept, proposal)
		}
		kept = validateSpans(text, removeOverlaps(kept))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return kept, nil
}

func aboveThreshold(spans []entity.Span, threshold float64) []entity.Span {
	// A threshold of 1.0 rejects every candidate.
	if threshold >= 1.0 {
		return nil
	}
	out := spans[:0]
	for _, s := range spans {
		if s.Score >= threshold {
			out = append(out, s)
		}
	}
	return out
}

func overlapsAny(s entity.Span, existing []entity.Span) bool {
	for _, k := range existing {
		if s.Overlaps(k) {
			return true
		}
	}
	return false
}

