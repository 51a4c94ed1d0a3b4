// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package projector

import (
	"context"
	"fmt"
	"os"

	"pii-redact/internal/engine"
	"pii-redact/internal/observability"
)

// PlainTextHandler projects redaction into .txt/.csv/.log/.md files.
// The whole file is one engine call.
type PlainTextHandler struct {
	observer *observability.StandardObserver
}

// Redact implements Handler.
func (h *PlainTextHandler) Redact(ctx context.Context, eng *engine.Engine, inputPath, outputPath string, entityTypes []string, usePlaceholders bool) (*RedactOutcome, error) {
	content, err := os.ReadFile(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return nil, fmt.Errorf("read %s: %w", inputPath, err)
	}

	result, err := eng.Redact(ctx, string(content), entityTypes)
	if err != nil {
		return nil, err
	}

	if err := writeFileAtomic(outputPath, []byte(result.RedactedText)); err != nil {
		return nil, err
	}
	return &RedactOutcome{
		SessionID:     result.SessionID,
		EntitiesFound: result.EntitiesFound,
	}, nil
}

// Unredact implements Handler.
func (h *PlainTextHandler) Unredact(inputPath, outputPath string, mappings map[string]string) (*UnredactOutcome, error) {
	content, err := os.ReadFile(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return nil, fmt.Errorf("read %s: %w", inputPath, err)
	}

	restored := make(map[string]bool)
	text := applyMappings(string(content), mappings, restored)

	if err := writeFileAtomic(outputPath, []byte(text)); err != nil {
		return nil, err
	}
	return &UnredactOutcome{EntitiesRestored: len(restored)}, nil
}
