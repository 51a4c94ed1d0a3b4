// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package projector

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"pii-redact/internal/engine"
	"pii-redact/internal/observability"
)

// DocHandler handles legacy .doc files by converting them to .docx with
// LibreOffice and delegating to the DOCX handler. Output of DOC input is
// always DOCX.
type DocHandler struct {
	observer *observability.StandardObserver
}

// Redact implements Handler.
func (h *DocHandler) Redact(ctx context.Context, eng *engine.Engine, inputPath, outputPath string, entityTypes []string, usePlaceholders bool) (*RedactOutcome, error) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
	}
	docxPath, cleanup, err := convertToDocx(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	docx := &DocxHandler{observer: h.observer}
	return docx.Redact(ctx, eng, docxPath, outputPath, entityTypes, usePlaceholders)
}

// Unredact implements Handler. The input of an unredact is a .docx
// produced by a previous redact, so it delegates directly.
func (h *DocHandler) Unredact(inputPath, outputPath string, mappings map[string]string) (*UnredactOutcome, error) {
	docx := &DocxHandler{observer: h.observer}
	return docx.Unredact(inputPath, outputPath, mappings)
}

// convertToDocx converts a .doc file with LibreOffice. The returned
// cleanup removes the conversion directory.
func convertToDocx(ctx context.Context, docPath string) (string, func(), error) {
	if _, err := exec.LookPath("libreoffice"); err != nil {
		return "", nil, ErrConverterUnavailable
	}

	tmpDir, err := os.MkdirTemp("", "doc-convert-")
	if err != nil {
		return "", nil, fmt.Errorf("create conversion dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	cmd := exec.CommandContext(ctx, "libreoffice", "--headless", "--convert-to", "docx", "--outdir", tmpDir, docPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("libreoffice conversion failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	base := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	converted := filepath.Join(tmpDir, base+".docx")
	if _, err := os.Stat(converted); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("libreoffice produced no output for %s", docPath)
	}
	return converted, cleanup, nil
}
