// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package projector

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pii-redact/internal/engine"
	"pii-redact/internal/observability"
)

func quietObserver() *observability.StandardObserver {
	return observability.NewStandardObserver(observability.ObservabilityOff, nil)
}

func newTestEngine() *engine.Engine {
	return engine.New(engine.WithObserver(quietObserver()))
}

// writeTestZip creates an Office-shaped zip at path.
func writeTestZip(t *testing.T, path string, parts map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range parts {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0600))
}

// readZipPart returns one part of a zip file as a string.
func readZipPart(t *testing.T, path, name string) string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatalf("part %s not found in %s", name, path)
	return ""
}

const docxHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const docxFooter = `</w:body></w:document>`

func TestDocxRunFormattingPreserved(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "letter.docx")
	output := filepath.Join(dir, "letter_redacted.docx")

	documentXML := docxHeader +
		`<w:p>` +
		`<w:r><w:t xml:space="preserve">Contact </w:t></w:r>` +
		`<w:r><w:rPr><w:b/></w:rPr><w:t>John Smith</w:t></w:r>` +
		`<w:r><w:t xml:space="preserve"> at </w:t></w:r>` +
		`<w:r><w:rPr><w:i/></w:rPr><w:t>john@example.com</w:t></w:r>` +
		`<w:r><w:t xml:space="preserve"> today.</w:t></w:r>` +
		`</w:p>` + docxFooter

	writeTestZip(t, input, map[string]string{
		"[Content_Types].xml": `<?xml version="1.0"?><Types/>`,
		"word/document.xml":   documentXML,
	})

	eng := newTestEngine()
	handler := &DocxHandler{observer: quietObserver()}
	outcome, err := handler.Redact(context.Background(), eng, input, output, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.EntitiesFound)

	redacted := readZipPart(t, output, "word/document.xml")

	// PII substrings are gone.
	assert.NotContains(t, redacted, "John Smith")
	assert.NotContains(t, redacted, "john@example.com")

	// Placeholders landed inside the runs that carried the originals, so
	// bold and italic formatting survive.
	assert.Contains(t, redacted, `<w:rPr><w:b/></w:rPr><w:t>[PERSON_1]</w:t>`)
	assert.Contains(t, redacted, `<w:rPr><w:i/></w:rPr><w:t>[EMAIL_ADDRESS_1]</w:t>`)

	// Untouched runs are byte-identical.
	assert.Contains(t, redacted, `<w:t xml:space="preserve">Contact </w:t>`)
	assert.Contains(t, redacted, `<w:t xml:space="preserve"> today.</w:t>`)
}

func TestDocxSpanAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "split.docx")
	output := filepath.Join(dir, "split_redacted.docx")

	// The email is split across two runs: prefix+placeholder go into the
	// first affected run, the last run keeps the suffix.
	documentXML := docxHeader +
		`<w:p>` +
		`<w:r><w:t xml:space="preserve">reach me: john@exa</w:t></w:r>` +
		`<w:r><w:t xml:space="preserve">mple.com ok</w:t></w:r>` +
		`</w:p>` + docxFooter

	writeTestZip(t, input, map[string]string{
		"word/document.xml": documentXML,
	})

	eng := newTestEngine()
	handler := &DocxHandler{observer: quietObserver()}
	outcome, err := handler.Redact(context.Background(), eng, input, output, nil, true)
	require.NoError(t, err)
	require.Equal(t, 1, outcome.EntitiesFound)

	redacted := readZipPart(t, output, "word/document.xml")
	assert.Contains(t, redacted, `reach me: [EMAIL_ADDRESS_1]`)
	assert.Contains(t, redacted, `<w:t xml:space="preserve"> ok</w:t>`)
	assert.NotContains(t, redacted, "john@exa")
	assert.NotContains(t, redacted, "mple.com ")
}

func TestDocxTableCellParagraphs(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "table.docx")
	output := filepath.Join(dir, "table_redacted.docx")

	documentXML := docxHeader +
		`<w:tbl><w:tr><w:tc>` +
		`<w:p><w:r><w:t>billing: c@d.com</w:t></w:r></w:p>` +
		`</w:tc></w:tr></w:tbl>` + docxFooter

	writeTestZip(t, input, map[string]string{
		"word/document.xml": documentXML,
	})

	eng := newTestEngine()
	handler := &DocxHandler{observer: quietObserver()}
	outcome, err := handler.Redact(context.Background(), eng, input, output, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.EntitiesFound)

	redacted := readZipPart(t, output, "word/document.xml")
	assert.Contains(t, redacted, "[EMAIL_ADDRESS_1]")
	assert.NotContains(t, redacted, "c@d.com")
}

func TestDocxRoundTrip(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "memo.docx")
	redactedPath := filepath.Join(dir, "memo_redacted.docx")
	restoredPath := filepath.Join(dir, "memo_unredacted.docx")

	documentXML := docxHeader +
		`<w:p><w:r><w:t>Send to john@example.com and 192.168.1.50</w:t></w:r></w:p>` +
		docxFooter

	writeTestZip(t, input, map[string]string{
		"word/document.xml": documentXML,
	})

	eng := newTestEngine()
	handler := &DocxHandler{observer: quietObserver()}
	outcome, err := handler.Redact(context.Background(), eng, input, redactedPath, nil, true)
	require.NoError(t, err)
	require.NotZero(t, outcome.EntitiesFound)

	mappings, ok := eng.Sessions().Get(outcome.SessionID)
	require.True(t, ok)
	require.Len(t, mappings, outcome.EntitiesFound)

	restored, err := handler.Unredact(redactedPath, restoredPath, mappings)
	require.NoError(t, err)
	assert.Equal(t, outcome.EntitiesFound, restored.EntitiesRestored)

	finalXML := readZipPart(t, restoredPath, "word/document.xml")
	assert.Contains(t, finalXML, "Send to john@example.com and 192.168.1.50")
}

func TestDocxUnredactPlaceholderAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "moved.docx")
	output := filepath.Join(dir, "moved_unredacted.docx")

	// A placeholder that straddles two runs (boundaries moved after
	// redaction) triggers the paragraph-level fallback.
	documentXML := docxHeader +
		`<w:p>` +
		`<w:r><w:t>mail [EMAIL_AD</w:t></w:r>` +
		`<w:r><w:t>DRESS_1] now</w:t></w:r>` +
		`</w:p>` + docxFooter

	writeTestZip(t, input, map[string]string{
		"word/document.xml": documentXML,
	})

	handler := &DocxHandler{observer: quietObserver()}
	outcome, err := handler.Unredact(input, output, map[string]string{
		"[EMAIL_ADDRESS_1]": "john@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.EntitiesRestored)

	finalXML := readZipPart(t, output, "word/document.xml")
	assert.Contains(t, finalXML, "mail john@example.com now")
	assert.False(t, strings.Contains(finalXML, "[EMAIL_AD"), "placeholder fragments must be gone")
}

func TestDocxCorruptedInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "broken.docx")
	require.NoError(t, os.WriteFile(input, []byte("this is not a zip"), 0600))

	handler := &DocxHandler{observer: quietObserver()}
	_, err := handler.Redact(context.Background(), newTestEngine(), input, filepath.Join(dir, "out.docx"), nil, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptedDocument)
}
