// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package projector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sheetWithRefs = `<?xml version="1.0"?>` +
	`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">` +
	`<sheetData><row r="1">` +
	`<c r="A1" t="s"><v>0</v></c>` +
	`<c r="B1"><v>42</v></c>` +
	`<c r="C1" t="s"><v>1</v></c>` +
	`<c r="D1"><f>SUM(B1:B1)</f><v>42</v></c>` +
	`</row></sheetData></worksheet>`

func TestXlsxSharedStringsRedaction(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "contacts.xlsx")
	output := filepath.Join(dir, "contacts_redacted.xlsx")

	sharedStrings := `<?xml version="1.0"?>` +
		`<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="2" uniqueCount="2">` +
		`<si><t>mail john@example.com asap</t></si>` +
		`<si><t>plain label</t></si>` +
		`</sst>`

	writeTestZip(t, input, map[string]string{
		"xl/workbook.xml":          `<?xml version="1.0"?><workbook/>`,
		"xl/sharedStrings.xml":     sharedStrings,
		"xl/worksheets/sheet1.xml": sheetWithRefs,
	})

	eng := newTestEngine()
	handler := &XlsxHandler{observer: quietObserver()}
	outcome, err := handler.Redact(context.Background(), eng, input, output, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.EntitiesFound)

	redacted := readZipPart(t, output, "xl/sharedStrings.xml")
	assert.Contains(t, redacted, "mail [EMAIL_ADDRESS_1] asap")
	assert.NotContains(t, redacted, "john@example.com")
	assert.Contains(t, redacted, "<si><t>plain label</t></si>")

	// Formulas and numeric cells are untouched.
	sheet := readZipPart(t, output, "xl/worksheets/sheet1.xml")
	assert.Equal(t, sheetWithRefs, sheet)
}

func TestXlsxInlineStringRedaction(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "inline.xlsx")
	output := filepath.Join(dir, "inline_redacted.xlsx")

	sheet := `<?xml version="1.0"?>` +
		`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">` +
		`<sheetData><row r="1">` +
		`<c r="A1" t="inlineStr"><is><t>ssn 123-45-6789</t></is></c>` +
		`</row></sheetData></worksheet>`

	writeTestZip(t, input, map[string]string{
		"xl/worksheets/sheet1.xml": sheet,
	})

	eng := newTestEngine()
	handler := &XlsxHandler{observer: quietObserver()}
	outcome, err := handler.Redact(context.Background(), eng, input, output, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.EntitiesFound)

	redacted := readZipPart(t, output, "xl/worksheets/sheet1.xml")
	assert.Contains(t, redacted, "ssn [US_SSN_1]")
	assert.NotContains(t, redacted, "123-45-6789")
}

func TestXlsxRoundTrip(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "payroll.xlsx")
	redactedPath := filepath.Join(dir, "payroll_redacted.xlsx")
	restoredPath := filepath.Join(dir, "payroll_unredacted.xlsx")

	sharedStrings := `<?xml version="1.0"?>` +
		`<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="1" uniqueCount="1">` +
		`<si><t>pay 4111 1111 1111 1111 monthly</t></si>` +
		`</sst>`

	writeTestZip(t, input, map[string]string{
		"xl/sharedStrings.xml": sharedStrings,
	})

	eng := newTestEngine()
	handler := &XlsxHandler{observer: quietObserver()}
	outcome, err := handler.Redact(context.Background(), eng, input, redactedPath, nil, true)
	require.NoError(t, err)
	require.Equal(t, 1, outcome.EntitiesFound)

	mappings, ok := eng.Sessions().Get(outcome.SessionID)
	require.True(t, ok)

	restored, err := handler.Unredact(redactedPath, restoredPath, mappings)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.EntitiesRestored)

	finalXML := readZipPart(t, restoredPath, "xl/sharedStrings.xml")
	assert.Contains(t, finalXML, "pay 4111 1111 1111 1111 monthly")
}
