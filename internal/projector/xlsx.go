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

// XlsxHandler projects redaction into Excel workbooks. Cell string
// values live in xl/sharedStrings.xml and in inline strings inside the
// worksheet parts; each string value is one engine call. Formatting,
// formulas in non-text cells, merged ranges and sheet order are
// untouched because only t-node content is rewritten.
type XlsxHandler struct {
	observer *observability.StandardObserver
}

var (
	// sharedStringPattern captures the content of one t node in the
	// shared string table or in a worksheet inline string.
	sharedStringPattern = regexp.MustCompile(`(?s)<t(?:>|\s[^>]*[^/]>)(.*?)</t>`)

	// inlineStringPattern captures an inline string cell container; its
	// t nodes are redacted like shared strings.
	inlineStringPattern = regexp.MustCompile(`(?s)<is>.*?</is>`)
)

// Redact implements Handler.
func (h *XlsxHandler) Redact(ctx context.Context, eng *engine.Engine, inputPath, outputPath string, entityTypes []string, usePlaceholders bool) (*RedactOutcome, error) {
	finish := h.observer.StartTiming("xlsx_projector", "redact", inputPath)

	zc, err := readZip(inputPath)
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	sessionID := eng.Sessions().Create()
	totalFound := 0

	for _, name := range zc.order {
		if !isXlsxTextPart(name) {
			continue
		}
		xml := string(zc.files[name])
		if name != "xl/sharedStrings.xml" && !inlineStringPattern.MatchString(xml) {
			// Worksheets without inline strings hold only numbers and
			// shared-string references; nothing to redact here.
			continue
		}
		modified, found := h.redactStrings(ctx, eng, xml, entityTypes, sessionID, name)
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

// redactStrings runs the engine over every t-node value in one part.
func (h *XlsxHandler) redactStrings(ctx context.Context, eng *engine.Engine, xml string, entityTypes []string, sessionID, partName string) (string, int) {
	cells := findTextSpans(xml, sharedStringPattern)
	found := 0
	edits := make(map[int]string)

	for i, cell := range cells {
		if strings.TrimSpace(cell.text) == "" {
			continue
		}
		result, err := eng.Redact(ctx, cell.text, entityTypes)
		if err != nil {
			// A failing cell is recoverable: log and leave it unchanged.
			h.observer.LogError("xlsx_projector", "redact_cell "+partName, err)
			continue
		}
		if result.EntitiesFound == 0 {
			continue
		}
		session.Merge(eng.Sessions(), sessionID, result.SessionID)
		edits[i] = result.RedactedText
		found += result.EntitiesFound
	}

	return spliceTextSpans(xml, cells, edits), found
}

// Unredact implements Handler: per cell, every placeholder that occurs
// is string-replaced with its original.
func (h *XlsxHandler) Unredact(inputPath, outputPath string, mappings map[string]string) (*UnredactOutcome, error) {
	finish := h.observer.StartTiming("xlsx_projector", "unredact", inputPath)

	zc, err := readZip(inputPath)
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	restored := make(map[string]bool)
	for _, name := range zc.order {
		if !isXlsxTextPart(name) {
			continue
		}
		xml := string(zc.files[name])
		cells := findTextSpans(xml, sharedStringPattern)
		edits := make(map[int]string)
		for i, cell := range cells {
			newText := applyMappings(cell.text, mappings, restored)
			if newText != cell.text {
				edits[i] = newText
			}
		}
		if len(edits) > 0 {
			zc.files[name] = []byte(spliceTextSpans(xml, cells, edits))
		}
	}

	if err := writeZip(zc, outputPath); err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	finish(true, map[string]interface{}{"entities_restored": len(restored)})
	return &UnredactOutcome{EntitiesRestored: len(restored)}, nil
}
