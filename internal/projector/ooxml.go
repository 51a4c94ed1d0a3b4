// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package projector

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// zipContents holds an Office document's parts in original order.
// Only modified parts are rewritten; everything else is copied through
// byte-for-byte, which is what preserves formatting, styles and
// relationships.
type zipContents struct {
	order []string
	files map[string][]byte
}

// readZip loads all parts of an Office document.
func readZip(path string) (*zipContents, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptedDocument, path, err)
	}
	defer reader.Close()

	zc := &zipContents{files: make(map[string][]byte)}
	for _, file := range reader.File {
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptedDocument, file.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptedDocument, file.Name, err)
		}
		zc.order = append(zc.order, file.Name)
		zc.files[file.Name] = content
	}
	return zc, nil
}

// writeZip repackages the parts into a new document at path, atomically.
func writeZip(zc *zipContents, path string) error {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range zc.order {
		fw, err := w.Create(name)
		if err != nil {
			return fmt.Errorf("create zip entry %s: %w", name, err)
		}
		if _, err := fw.Write(zc.files[name]); err != nil {
			return fmt.Errorf("write zip entry %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

// isDocxTextPart reports whether a part holds Word paragraph text:
// the main document, headers, footers, footnotes, endnotes, comments.
func isDocxTextPart(name string) bool {
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	return strings.Contains(name, "document") || strings.Contains(name, "header") ||
		strings.Contains(name, "footer") || strings.Contains(name, "footnote") ||
		strings.Contains(name, "endnote") || strings.Contains(name, "comment")
}

// isXlsxTextPart reports whether a part holds worksheet string content.
func isXlsxTextPart(name string) bool {
	if name == "xl/sharedStrings.xml" {
		return true
	}
	return strings.HasPrefix(name, "xl/worksheets/") && strings.HasSuffix(name, ".xml")
}

var (
	xmlEscaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	xmlUnescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")
)

func escapeXMLText(s string) string   { return xmlEscaper.Replace(s) }
func unescapeXMLText(s string) string { return xmlUnescaper.Replace(s) }

// textSpan is one text node's content range inside raw XML bytes.
type textSpan struct {
	contentStart int    // byte offset just after the opening tag
	contentEnd   int    // byte offset of the closing tag
	text         string // decoded text content
}

// findTextSpans locates the content of every element matched by pattern.
// The pattern's first capture group must be the element content.
func findTextSpans(xml string, pattern *regexp.Regexp) []textSpan {
	var spans []textSpan
	for _, m := range pattern.FindAllStringSubmatchIndex(xml, -1) {
		spans = append(spans, textSpan{
			contentStart: m[2],
			contentEnd:   m[3],
			text:         unescapeXMLText(xml[m[2]:m[3]]),
		})
	}
	return spans
}

// spliceTextSpans rewrites the content of selected text nodes. edits maps
// the span index to the new decoded text. Splices are applied
// right-to-left so earlier byte offsets stay valid.
func spliceTextSpans(xml string, spans []textSpan, edits map[int]string) string {
	for i := len(spans) - 1; i >= 0; i-- {
		newText, ok := edits[i]
		if !ok {
			continue
		}
		xml = xml[:spans[i].contentStart] + escapeXMLText(newText) + xml[spans[i].contentEnd:]
	}
	return xml
}
