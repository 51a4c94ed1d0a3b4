// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package projector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	ledongpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"pii-redact/internal/engine"
	"pii-redact/internal/observability"
	"pii-redact/internal/session"
)

// PDFHandler projects redaction into PDF files. Page text and glyph
// geometry come from ledongthuc/pdf; redaction boxes and placeholder
// overlays are applied with pdfcpu watermarks.
//
// Placeholder mode inserts searchable placeholder text and returns a
// session id, so the document stays reversible. Black-box mode covers
// the originals with solid boxes and returns no session; unredaction is
// not possible. Reversibility survives only while the placeholder text
// remains searchable — downstream flattening of the PDF breaks it.
type PDFHandler struct {
	observer *observability.StandardObserver
}

// glyphRef ties one extracted text chunk to its page offset and
// geometry. The extractor does not expose glyph color; overlays fall
// back to black text.
type glyphRef struct {
	offset   int // byte offset in the reconstructed page text
	text     string
	x, y, w  float64
	font     string
	fontSize float64
}

// redaction is one pending box on one page.
type redaction struct {
	page     int
	x, y     float64
	text     string // overlay text; "" means black-box
	font     string
	fontSize float64
	boxWidth int // character count the box must cover
}

// Redact implements Handler.
func (h *PDFHandler) Redact(ctx context.Context, eng *engine.Engine, inputPath, outputPath string, entityTypes []string, usePlaceholders bool) (*RedactOutcome, error) {
	finish := h.observer.StartTiming("pdf_projector", "redact", inputPath)

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		finish(false, map[string]interface{}{"error": "file not found"})
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
	}
	if err := api.ValidateFile(inputPath, model.NewDefaultConfiguration()); err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptedDocument, inputPath, err)
	}

	f, reader, err := ledongpdf.Open(inputPath)
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptedDocument, inputPath, err)
	}
	defer f.Close()

	sessionID := ""
	if usePlaceholders {
		sessionID = eng.Sessions().Create()
	}
	totalFound := 0
	var pending []redaction

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		pageText, glyphs, err := extractPageText(reader, pageNum)
		if err != nil {
			// A failing page is recoverable: log and continue.
			h.observer.LogError("pdf_projector", "extract_page "+strconv.Itoa(pageNum), err)
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}

		result, err := eng.Redact(ctx, pageText, entityTypes)
		if err != nil {
			finish(false, map[string]interface{}{"error": err.Error()})
			return nil, err
		}
		if result.EntitiesFound == 0 {
			continue
		}
		totalFound += result.EntitiesFound
		if usePlaceholders {
			session.Merge(eng.Sessions(), sessionID, result.SessionID)
		}

		mappings, ok := eng.Sessions().Get(result.SessionID)
		if !ok {
			continue
		}

		// For each placeholder/original pair, locate every occurrence of
		// the original on the page and queue a box per rectangle.
		for placeholder, original := range mappings {
			for _, offset := range allOccurrences(pageText, original) {
				for _, r := range rectsFor(glyphs, offset, offset+len(original)) {
					box := redaction{
						page:     pageNum,
						x:        r.x,
						y:        r.y,
						font:     r.font,
						fontSize: r.fontSize,
						boxWidth: len(original),
					}
					if usePlaceholders {
						box.text = placeholder
					}
					pending = append(pending, box)
				}
			}
		}
	}

	if err := h.applyRedactions(inputPath, outputPath, pending); err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	finish(true, map[string]interface{}{
		"entities_found": totalFound,
		"placeholders":   usePlaceholders,
		"boxes":          len(pending),
	})
	return &RedactOutcome{SessionID: sessionID, EntitiesFound: totalFound}, nil
}

// Unredact implements Handler. Placeholders are searchable text after a
// placeholder-mode redaction; each occurrence is covered with the
// original value.
func (h *PDFHandler) Unredact(inputPath, outputPath string, mappings map[string]string) (*UnredactOutcome, error) {
	finish := h.observer.StartTiming("pdf_projector", "unredact", inputPath)

	f, reader, err := ledongpdf.Open(inputPath)
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptedDocument, inputPath, err)
	}
	defer f.Close()

	restored := make(map[string]bool)
	var pending []redaction

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		pageText, glyphs, err := extractPageText(reader, pageNum)
		if err != nil {
			h.observer.LogError("pdf_projector", "extract_page "+strconv.Itoa(pageNum), err)
			continue
		}
		for placeholder, original := range mappings {
			for _, offset := range allOccurrences(pageText, placeholder) {
				for _, r := range rectsFor(glyphs, offset, offset+len(placeholder)) {
					pending = append(pending, redaction{
						page:     pageNum,
						x:        r.x,
						y:        r.y,
						text:     original,
						font:     r.font,
						fontSize: r.fontSize,
						boxWidth: len(placeholder),
					})
					restored[placeholder] = true
				}
			}
		}
	}

	if err := h.applyRedactions(inputPath, outputPath, pending); err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	finish(true, map[string]interface{}{"entities_restored": len(restored)})
	return &UnredactOutcome{EntitiesRestored: len(restored)}, nil
}

// applyRedactions stamps each pending box onto its page. The chain of
// watermark passes runs over temporary files; the final result is moved
// into place atomically, so a failed pass never leaves a partial output.
func (h *PDFHandler) applyRedactions(inputPath, outputPath string, pending []redaction) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".redact-*.pdf")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	conf := model.NewDefaultConfiguration()
	for _, box := range pending {
		wm, err := api.TextWatermark(overlayText(box), watermarkDesc(box), true, false, types.POINTS)
		if err != nil {
			h.observer.LogError("pdf_projector", "build_watermark", err)
			continue
		}
		// In-place update of the working copy; earlier successful boxes
		// stay committed when a later one fails.
		if err := api.AddWatermarksFile(tmpPath, "", []string{strconv.Itoa(box.page)}, wm, conf); err != nil {
			h.observer.LogError("pdf_projector", "apply_watermark", err)
			continue
		}
	}

	final, err := os.ReadFile(tmpPath)
	if err != nil {
		return fmt.Errorf("read redacted temp: %w", err)
	}
	return writeFileAtomic(outputPath, final)
}

// overlayText is the text stamped inside the box. Black-box mode covers
// the area with filler the same color as the background, leaving a
// solid box and no replacement text.
func overlayText(box redaction) string {
	if box.text != "" {
		return box.text
	}
	n := box.boxWidth
	if n < 1 {
		n = 1
	}
	return strings.Repeat("X", n)
}

// watermarkDesc builds the pdfcpu watermark descriptor for one box. The
// overlay uses the extracted span's font size and a core font mapped
// from its font name; serif fonts fall back to Times-Roman, monospace
// to Courier, everything else to Helvetica.
func watermarkDesc(box redaction) string {
	fill, background := "#000000", "#ffffff"
	if box.text == "" {
		// Solid black box, filler hidden black-on-black.
		fill, background = "#000000", "#000000"
	}
	size := box.fontSize
	if size <= 0 {
		size = 10
	}
	return fmt.Sprintf(
		"fontname:%s, points:%.1f, scalefactor:1 abs, position:bl, offset:%.1f %.1f, rotation:0, fillcolor:%s, backgroundcolor:%s, opacity:1",
		coreFont(box.font), size, box.x, box.y, fill, background,
	)
}

// coreFont maps an embedded font name onto one of the base-14 fonts
// that are always renderable.
func coreFont(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "courier"), strings.Contains(lower, "mono"):
		return "Courier"
	case strings.Contains(lower, "times"), strings.Contains(lower, "serif"),
		strings.Contains(lower, "georgia"), strings.Contains(lower, "garamond"):
		return "Times-Roman"
	default:
		return "Helvetica"
	}
}

// extractPageText reconstructs one page's text in reading order and
// returns the glyph table keyed by byte offsets into that text. Rows
// are ordered top to bottom, elements left to right; a space is
// inserted where the horizontal gap exceeds 20% of the font size.
func extractPageText(reader *ledongpdf.Reader, pageNum int) (string, []glyphRef, error) {
	p := reader.Page(pageNum)
	if p.V.IsNull() {
		return "", nil, fmt.Errorf("null page %d", pageNum)
	}

	rows, err := p.GetTextByRow()
	if err != nil {
		return "", nil, fmt.Errorf("row extraction page %d: %w", pageNum, err)
	}

	sorted := make([]*ledongpdf.Row, 0, len(rows))
	for _, row := range rows {
		if row != nil && len(row.Content) > 0 {
			sorted = append(sorted, row)
		}
	}
	// PDF Y grows upward: higher Y means higher on the page.
	sort.Slice(sorted, func(i, j int) bool {
		return averageY(sorted[i].Content) > averageY(sorted[j].Content)
	})

	var sb strings.Builder
	var glyphs []glyphRef

	for _, row := range sorted {
		content := make([]ledongpdf.Text, len(row.Content))
		copy(content, row.Content)
		sort.Slice(content, func(i, j int) bool { return content[i].X < content[j].X })

		for i, el := range content {
			glyphs = append(glyphs, glyphRef{
				offset:   sb.Len(),
				text:     el.S,
				x:        el.X,
				y:        el.Y,
				w:        el.W,
				font:     el.Font,
				fontSize: el.FontSize,
			})
			sb.WriteString(el.S)

			if i < len(content)-1 {
				gap := content[i+1].X - (el.X + el.W)
				fontSize := el.FontSize
				if fontSize <= 0 {
					fontSize = 12
				}
				if gap > fontSize*0.2 {
					sb.WriteString(" ")
				}
			}
		}
		sb.WriteString("\n")
	}

	return sb.String(), glyphs, nil
}

func averageY(content []ledongpdf.Text) float64 {
	if len(content) == 0 {
		return 0
	}
	var total float64
	for _, el := range content {
		total += el.Y
	}
	return total / float64(len(content))
}

// rect is the anchor and typography of one covered region.
type rect struct {
	x, y     float64
	font     string
	fontSize float64
}

// rectsFor returns one rect per line the byte range [start,end) covers.
// Glyph chunks on the same baseline merge into a single rect anchored at
// the leftmost covered chunk.
func rectsFor(glyphs []glyphRef, start, end int) []rect {
	var covered []glyphRef
	for _, g := range glyphs {
		gEnd := g.offset + len(g.text)
		if g.offset < end && start < gEnd {
			covered = append(covered, g)
		}
	}
	if len(covered) == 0 {
		return nil
	}

	var rects []rect
	current := rect{x: covered[0].x, y: covered[0].y, font: covered[0].font, fontSize: covered[0].fontSize}
	for _, g := range covered[1:] {
		if g.y != current.y {
			rects = append(rects, current)
			current = rect{x: g.x, y: g.y, font: g.font, fontSize: g.fontSize}
			continue
		}
		if g.x < current.x {
			current.x = g.x
		}
	}
	return append(rects, current)
}

// allOccurrences returns the byte offset of every occurrence of needle.
func allOccurrences(haystack, needle string) []int {
	if needle == "" {
		return nil
	}
	var offsets []int
	from := 0
	for {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			return offsets
		}
		offsets = append(offsets, from+i)
		from += i + len(needle)
	}
}
