// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"sort"

	"pii-redact/internal/entity"
)

// removeOverlaps resolves overlapping candidate spans. Candidates are
// ranked by score, then by length, then by earlier start; sources carry
// no intrinsic priority. When two spans coincide exactly, the higher
// score wins, then alphabetical entity-type order. The ranked list is
// walked greedily: a span is kept only if it does not overlap any span
// already kept.
func removeOverlaps(spans []entity.Span) []entity.Span {
	if len(spans) == 0 {
		return spans
	}

	ranked := make([]entity.Span, len(spans))
	copy(ranked, spans)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Length() != b.Length() {
			return a.Length() > b.Length()
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.EntityType < b.EntityType
	})

	var kept []entity.Span
	for _, candidate := range ranked {
		overlaps := false
		for _, k := range kept {
			if candidate.Overlaps(k) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// sortByStart orders spans left-to-right for placeholder assignment.
func sortByStart(spans []entity.Span) {
	sort.Slice(spans, func(i, j int) bool {
		return spans[i].Start < spans[j].Start
	})
}
