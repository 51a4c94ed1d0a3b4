// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package projector

import (
	"context"
	"regexp"
	"strings"

	"pii-redact/internal/engine"
	"pii-redact/internal/observability"
	"pii-redact/internal/session"
)

// DocxHandler projects redaction into Word documents. Each paragraph —
// body and table-cell paragraphs alike — is one engine call. Run
// formatting survives because only the text content of w:t nodes is
// rewritten; a placeholder that replaces a span inherits the formatting
// of the first run it touches.
type DocxHandler struct {
	observer *observability.StandardObserver
}

var (
	// paragraphPattern matches one w:p element. Word never nests w:p, so
	// non-greedy matching is safe for body and table-cell paragraphs.
	paragraphPattern = regexp.MustCompile(`(?s)<w:p(?:>|\s[^>]*[^/]>).*?</w:p>`)

	// runTextPattern captures the content of one w:t node.
	runTextPattern = regexp.MustCompile(`(?s)<w:t(?:>|\s[^>]*[^/]>)(.*?)</w:t>`)
)

// Redact implements Handler.
func (h *DocxHandler) Redact(ctx context.Context, eng *engine.Engine, inputPath, outputPath string, entityTypes []string, usePlaceholders bool) (*RedactOutcome, error) {
	finish := h.observer.StartTiming("docx_projector", "redact", inputPath)

	zc, err := readZip(inputPath)
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	// One session for the whole document; per-paragraph call mappings
	// are copied into it.
	sessionID := eng.Sessions().Create()
	totalFound := 0

	for _, name := range zc.order {
		if !isDocxTextPart(name) {
			continue
		}
		modified, found := h.redactPart(ctx, eng, string(zc.files[name]), entityTypes, sessionID, name)
		if found > 0 {
			zc.files[name] = []byte(modified)
			totalFound += found
		}
	}

	if err := writeZip(zc, outputPath); err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	finish(true, map[string]interface{}{"entities_found": totalFound})
	return &RedactOutcome{SessionID: sessionID, EntitiesFound: totalFound}, nil
}

// redactPart processes every paragraph of one XML part. Paragraphs are
// spliced back right-to-left so earlier byte offsets stay valid.
func (h *DocxHandler) redactPart(ctx context.Context, eng *engine.Engine, xml string, entityTypes []string, sessionID, partName string) (string, int) {
	paragraphs := paragraphPattern.FindAllStringIndex(xml, -1)
	found := 0

	for i := len(paragraphs) - 1; i >= 0; i-- {
		loc := paragraphs[i]
		para := xml[loc[0]:loc[1]]

		redacted, n, err := h.redactParagraph(ctx, eng, para, entityTypes, sessionID)
		if err != nil {
			// A failing paragraph is recoverable: log and leave the
			// paragraph unchanged.
			h.observer.LogError("docx_projector", "redact_paragraph "+partName, err)
			continue
		}
		if n > 0 {
			xml = xml[:loc[0]] + redacted + xml[loc[1]:]
			found += n
		}
	}
	return xml, found
}

// redactParagraph runs the engine over one paragraph's concatenated run
// text and splices placeholders into the affected runs.
func (h *DocxHandler) redactParagraph(ctx context.Context, eng *engine.Engine, paraXML string, entityTypes []string, sessionID string) (string, int, error) {
	runs := findTextSpans(paraXML, runTextPattern)
	if len(runs) == 0 {
		return paraXML, 0, nil
	}

	// Run-index table: paragraph offsets covered by each run.
	type runRange struct{ start, end int }
	ranges := make([]runRange, len(runs))
	var sb strings.Builder
	for i, r := range runs {
		ranges[i] = runRange{start: sb.Len(), end: sb.Len() + len(r.text)}
		sb.WriteString(r.text)
	}
	paraText := sb.String()
	if strings.TrimSpace(paraText) == "" {
		return paraXML, 0, nil
	}

	result, err := eng.Redact(ctx, paraText, entityTypes)
	if err != nil {
		return paraXML, 0, err
	}
	if result.EntitiesFound == 0 {
		return paraXML, 0, nil
	}
	session.Merge(eng.Sessions(), sessionID, result.SessionID)

	// Working copy of each run's text. Entities are processed
	// right-to-left: placeholders change text length, so later edits
	// must not invalidate earlier offsets.
	newTexts := make([]string, len(runs))
	for i, r := range runs {
		newTexts[i] = r.text
	}

	locate := func(offset int) int {
		for i, rr := range ranges {
			if rr.start <= offset && offset < rr.end {
				return i
			}
		}
		return -1
	}

	surgical := true
	for i := len(result.Entities) - 1; i >= 0; i-- {
		ref := result.Entities[i]
		first := locate(ref.OriginalStart)
		last := locate(ref.OriginalEnd - 1)
		if first < 0 || last < 0 {
			surgical = false
			break
		}

		localStart := ref.OriginalStart - ranges[first].start
		localEnd := ref.OriginalEnd - ranges[last].start

		if first == last {
			// Span inside a single run: splice the placeholder between
			// the local bounds; all other runs untouched.
			newTexts[first] = newTexts[first][:localStart] + ref.Placeholder + newTexts[first][localEnd:]
			continue
		}

		// Span covers multiple runs: prefix + placeholder into the first
		// affected run, clear the interior, keep the suffix in the last.
		// The placeholder inherits the first run's formatting.
		newTexts[first] = newTexts[first][:localStart] + ref.Placeholder
		for j := first + 1; j < last; j++ {
			newTexts[j] = ""
		}
		newTexts[last] = newTexts[last][localEnd:]
	}

	if !surgical {
		// Unusual DOCX with spans that do not land on run content:
		// abandon surgical replacement, write the whole redacted
		// paragraph into the first run and clear the rest.
		newTexts[0] = result.RedactedText
		for j := 1; j < len(runs); j++ {
			newTexts[j] = ""
		}
	}

	edits := make(map[int]string, len(runs))
	for i, r := range runs {
		if newTexts[i] != r.text {
			edits[i] = newTexts[i]
		}
	}
	return spliceTextSpans(paraXML, runs, edits), result.EntitiesFound, nil
}

// Unredact implements Handler. Placeholders are replaced inside each
// run's text directly; a placeholder straddling run boundaries falls
// back to paragraph-level replacement.
func (h *DocxHandler) Unredact(inputPath, outputPath string, mappings map[string]string) (*UnredactOutcome, error) {
	finish := h.observer.StartTiming("docx_projector", "unredact", inputPath)

	zc, err := readZip(inputPath)
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	restored := make(map[string]bool)
	for _, name := range zc.order {
		if !isDocxTextPart(name) {
			continue
		}
		zc.files[name] = []byte(h.unredactPart(string(zc.files[name]), mappings, restored))
	}

	if err := writeZip(zc, outputPath); err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	finish(true, map[string]interface{}{"entities_restored": len(restored)})
	return &UnredactOutcome{EntitiesRestored: len(restored)}, nil
}

func (h *DocxHandler) unredactPart(xml string, mappings map[string]string, restored map[string]bool) string {
	paragraphs := paragraphPattern.FindAllStringIndex(xml, -1)

	for i := len(paragraphs) - 1; i >= 0; i-- {
		loc := paragraphs[i]
		para := xml[loc[0]:loc[1]]
		runs := findTextSpans(para, runTextPattern)
		if len(runs) == 0 {
			continue
		}

		// Per-run replacement first.
		edits := make(map[int]string)
		for j, r := range runs {
			newText := applyMappings(r.text, mappings, restored)
			if newText != r.text {
				edits[j] = newText
			}
		}

		// Placeholders that straddle runs (run boundaries moved after
		// redaction) survive per-run replacement; fall back to
		// paragraph-level replacement when the joined text still holds
		// one.
		var joined strings.Builder
		for j, r := range runs {
			if e, ok := edits[j]; ok {
				joined.WriteString(e)
			} else {
				joined.WriteString(r.text)
			}
		}
		if paraText := joined.String(); containsAnyPlaceholder(paraText, mappings) {
			edits = map[int]string{0: applyMappings(paraText, mappings, restored)}
			for j := 1; j < len(runs); j++ {
				edits[j] = ""
			}
		}

		if len(edits) > 0 {
			xml = xml[:loc[0]] + spliceTextSpans(para, runs, edits) + xml[loc[1]:]
		}
	}
	return xml
}

func containsAnyPlaceholder(text string, mappings map[string]string) bool {
	for placeholder := range mappings {
		if strings.Contains(text, placeholder) {
			return true
		}
	}
	return false
}
