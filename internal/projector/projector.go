// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package projector maps engine output back into structured document
// files without collapsing formatting. It never re-runs detection on
// reassembled text; all substitution works from the engine's entity
// offsets or the session's placeholder mappings.
package projector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pii-redact/internal/engine"
	"pii-redact/internal/observability"
)

// RedactOutcome is the result of projecting a redaction into a file.
// SessionID is empty in black-box PDF mode, where unredaction is not
// possible.
type RedactOutcome struct {
	SessionID     string
	EntitiesFound int
}

// UnredactOutcome is the result of restoring a file from placeholders.
type UnredactOutcome struct {
	EntitiesRestored int
}

// Handler projects redaction into one document format.
type Handler interface {
	// Redact detects and replaces entities in the file at inputPath,
	// writing the result to outputPath. usePlaceholders selects
	// reversible placeholder output; black-box output (PDF only)
	// returns no session.
	Redact(ctx context.Context, eng *engine.Engine, inputPath, outputPath string, entityTypes []string, usePlaceholders bool) (*RedactOutcome, error)

	// Unredact replaces placeholders in the file using mappings.
	Unredact(inputPath, outputPath string, mappings map[string]string) (*UnredactOutcome, error)
}

// ForExtension returns the handler for a file extension, or
// ErrUnknownFormat.
func ForExtension(ext string, observer *observability.StandardObserver) (Handler, error) {
	switch strings.ToLower(ext) {
	case ".txt", ".csv", ".log", ".md":
		return &PlainTextHandler{observer: observer}, nil
	case ".docx":
		return &DocxHandler{observer: observer}, nil
	case ".xlsx":
		return &XlsxHandler{observer: observer}, nil
	case ".pdf":
		return &PDFHandler{observer: observer}, nil
	case ".doc":
		return &DocHandler{observer: observer}, nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: .txt, .csv, .log, .md, .docx, .xlsx, .pdf, .doc)", ErrUnknownFormat, ext)
	}
}

// OutputPath derives the conventional output name: <base>_redacted<ext>
// or <base>_unredacted<ext>. DOC inputs always produce DOCX output.
func OutputPath(inputPath, suffix string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(inputPath, ext)
	if strings.EqualFold(ext, ".doc") {
		ext = ".docx"
	}
	return base + suffix + ext
}

// writeFileAtomic writes data to path via a temporary file in the same
// directory followed by a rename, so partial writes never surface.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".redact-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// applyMappings substitutes every placeholder that occurs in text and
// reports which ones did.
func applyMappings(text string, mappings map[string]string, restored map[string]bool) string {
	for placeholder, original := range mappings {
		if strings.Contains(text, placeholder) {
			text = strings.ReplaceAll(text, placeholder, original)
			restored[placeholder] = true
		}
	}
	return text
}
