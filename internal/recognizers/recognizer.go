// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package recognizers implements the deterministic pattern layer of the
// detection pipeline. A Recognizer is a data record: a fixed entity type,
// compiled regex patterns with base scores, context keywords that boost
// the score when they appear near a match, and an optional deny-list of
// terms matched case-insensitively on whole tokens.
package recognizers

import (
	"regexp"
	"strings"

	"pii-redact/internal/entity"
)

// contextWindow is the number of characters inspected on each side of a
// match when looking for context keywords.
const contextWindow = 30

// contextBoost is added to the base score when at least one context
// keyword appears inside the window. Scores are capped at 1.0.
const contextBoost = 0.35

// denyListScore is the base score for deny-list term matches.
const denyListScore = 0.7

// Pattern is one compiled regex with its base score. Filter, when set,
// must return true for a match to be emitted (e.g. Luhn for card numbers).
type Pattern struct {
	Name   string
	Regex  *regexp.Regexp
	Score  float64
	Filter func(match string) bool
}

// Recognizer produces candidate spans for exactly one entity type.
type Recognizer struct {
	Name            string
	EntityType      string
	Patterns        []Pattern
	ContextKeywords []string
	denyRegex       *regexp.Regexp
}

// NewRecognizer builds a pattern recognizer record.
func NewRecognizer(name, entityType string, patterns []Pattern, contextKeywords []string) *Recognizer {
	return &Recognizer{
		Name:            name,
		EntityType:      entityType,
		Patterns:        patterns,
		ContextKeywords: contextKeywords,
	}
}

// NewDenyListRecognizer builds a recognizer that flags any whole-token,
// case-insensitive occurrence of the given terms.
func NewDenyListRecognizer(name, entityType string, terms, contextKeywords []string) *Recognizer {
	escaped := make([]string, len(terms))
	for i, t := range terms {
		escaped[i] = regexp.QuoteMeta(t)
	}
	return &Recognizer{
		Name:            name,
		EntityType:      entityType,
		ContextKeywords: contextKeywords,
		denyRegex:       regexp.MustCompile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)\b`),
	}
}

// Analyze scans text and returns candidate spans. Scores are
// base + context boost, capped at 1.0.
func (r *Recognizer) Analyze(text string) []entity.Span {
	var spans []entity.Span

	for _, p := range r.Patterns {
		for _, loc := range p.Regex.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			if p.Filter != nil && !p.Filter(match) {
				continue
			}
			spans = append(spans, entity.Span{
				Start:      loc[0],
				End:        loc[1],
				EntityType: r.EntityType,
				Score:      r.score(text, loc[0], loc[1], p.Score),
				Source:     entity.SourcePattern,
			})
		}
	}

	if r.denyRegex != nil {
		for _, loc := range r.denyRegex.FindAllStringIndex(text, -1) {
			spans = append(spans, entity.Span{
				Start:      loc[0],
				End:        loc[1],
				EntityType: r.EntityType,
				Score:      r.score(text, loc[0], loc[1], denyListScore),
				Source:     entity.SourcePattern,
			})
		}
	}

	return spans
}

// score applies the context-keyword boost to a base score. The
// neighborhood is contextWindow characters on each side of the match.
func (r *Recognizer) score(text string, start, end int, base float64) float64 {
	score := base
	if len(r.ContextKeywords) > 0 && r.hasContextKeyword(text, start, end) {
		score += contextBoost
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func (r *Recognizer) hasContextKeyword(text string, start, end int) bool {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindow
	if hi > len(text) {
		hi = len(text)
	}
	window := strings.ToLower(text[lo:start] + " " + text[end:hi])
	for _, kw := range r.ContextKeywords {
		if strings.Contains(window, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
