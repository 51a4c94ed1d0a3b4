// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package tools exposes the function-level entry points equivalent to
// the external dispatch surface. Every operation takes JSON-compatible
// parameters and returns a JSON string; failures come back as
// {"error": ...} values rather than transport-level faults.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pii-redact/internal/engine"
	"pii-redact/internal/observability"
	"pii-redact/internal/projector"
)

// errorResponse is the error-as-value shape shared by all tools.
type errorResponse struct {
	Error string `json:"error"`
}

func marshal(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"error":"internal marshaling failure"}`
	}
	return string(data)
}

func errorJSON(format string, args ...interface{}) string {
	return marshal(errorResponse{Error: fmt.Sprintf(format, args...)})
}

// Redact replaces detected entities in text with indexed placeholders.
func Redact(ctx context.Context, eng *engine.Engine, text string, entityTypes []string) string {
	result, err := eng.Redact(ctx, text, entityTypes)
	if err != nil {
		return errorJSON("redaction failed: %v", err)
	}
	return marshal(result)
}

// Unredact restores text from a previous redact call's session.
func Unredact(eng *engine.Engine, redactedText, sessionID string) string {
	result, err := eng.Unredact(redactedText, sessionID)
	if err != nil {
		return errorJSON("session '%s' not found or expired", sessionID)
	}
	return marshal(result)
}

// Analyze reports detected entities with partial masking, without
// modifying text or creating a session.
func Analyze(ctx context.Context, eng *engine.Engine, text string, entityTypes []string) string {
	result, err := eng.Analyze(ctx, text, entityTypes)
	if err != nil {
		return errorJSON("analysis failed: %v", err)
	}
	return marshal(result)
}

// ConfigureRequest carries runtime engine configuration.
type ConfigureRequest struct {
	CustomPatterns   []CustomPattern `json:"custom_patterns,omitempty"`
	DisabledEntities []string        `json:"disabled_entities,omitempty"`
	ScoreThreshold   *float64        `json:"score_threshold,omitempty"`
}

// CustomPattern is one user-registered recognizer pattern.
type CustomPattern struct {
	Name    string  `json:"name"`
	Pattern string  `json:"pattern"`
	Score   float64 `json:"score"`
}

type configureResponse struct {
	Status         string   `json:"status"`
	ActiveEntities []string `json:"active_entities"`
	ScoreThreshold float64  `json:"score_threshold"`
	LLMAvailable   bool     `json:"llm_available"`
}

// Configure adds custom patterns, disables entity types and adjusts the
// score threshold. It never fails except on malformed input.
func Configure(ctx context.Context, eng *engine.Engine, req ConfigureRequest) string {
	for _, p := range req.CustomPatterns {
		score := p.Score
		if score == 0 {
			score = 0.8
		}
		if err := eng.Registry().AddPattern(p.Name, p.Pattern, score); err != nil {
			return errorJSON("invalid custom pattern: %v", err)
		}
	}
	if len(req.DisabledEntities) > 0 {
		eng.DisableEntities(req.DisabledEntities)
	}
	if req.ScoreThreshold != nil {
		if err := eng.SetScoreThreshold(*req.ScoreThreshold); err != nil {
			return errorJSON("invalid score threshold: %v", err)
		}
	}

	return marshal(configureResponse{
		Status:         "ok",
		ActiveEntities: eng.ActiveEntities(),
		ScoreThreshold: eng.ScoreThreshold(),
		LLMAvailable:   eng.ReviewerAvailable(ctx),
	})
}

type redactFileResponse struct {
	RedactedFilePath string `json:"redacted_file_path"`
	EntitiesFound    int    `json:"entities_found"`
	SessionID        string `json:"session_id,omitempty"`
}

// RedactFile redacts a document file, writing `<base>_redacted<ext>`.
// usePlaceholders=false selects black-box mode for PDFs; the session id
// is then absent and unredaction impossible.
func RedactFile(ctx context.Context, eng *engine.Engine, observer *observability.StandardObserver, filePath string, entityTypes []string, usePlaceholders bool) string {
	if info, err := os.Stat(filePath); err != nil || info.IsDir() {
		return errorJSON("file not found: %s", filePath)
	}

	handler, err := projector.ForExtension(filepath.Ext(filePath), observer)
	if err != nil {
		return errorJSON("%v", err)
	}

	outputPath := projector.OutputPath(filePath, "_redacted")
	outcome, err := handler.Redact(ctx, eng, filePath, outputPath, entityTypes, usePlaceholders)
	if err != nil {
		return errorJSON("redaction failed: %v", err)
	}

	return marshal(redactFileResponse{
		RedactedFilePath: outputPath,
		EntitiesFound:    outcome.EntitiesFound,
		SessionID:        outcome.SessionID,
	})
}

type unredactFileResponse struct {
	UnredactedFilePath string `json:"unredacted_file_path"`
	EntitiesRestored   int    `json:"entities_restored"`
}

// UnredactFile restores a previously redacted file, writing
// `<base>_unredacted<ext>`.
func UnredactFile(eng *engine.Engine, observer *observability.StandardObserver, filePath, sessionID string) string {
	if info, err := os.Stat(filePath); err != nil || info.IsDir() {
		return errorJSON("file not found: %s", filePath)
	}

	mappings, ok := eng.Sessions().Get(sessionID)
	if !ok {
		return errorJSON("session '%s' not found or expired", sessionID)
	}

	handler, err := projector.ForExtension(filepath.Ext(filePath), observer)
	if err != nil {
		return errorJSON("%v", err)
	}

	outputPath := projector.OutputPath(filePath, "_unredacted")
	outcome, err := handler.Unredact(filePath, outputPath, mappings)
	if err != nil {
		return errorJSON("unredaction failed: %v", err)
	}

	return marshal(unredactFileResponse{
		UnredactedFilePath: outputPath,
		EntitiesRestored:   outcome.EntitiesRestored,
	})
}
