// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package web serves the tool surface over plain HTTP JSON. It is a
// thin layer; the core stays in internal/engine and internal/tools.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pii-redact/internal/engine"
	"pii-redact/internal/observability"
	"pii-redact/internal/tools"
	"pii-redact/internal/version"
)

// Server exposes the redaction tools over HTTP.
type Server struct {
	engine   *engine.Engine
	observer *observability.StandardObserver
	server   *http.Server
}

// NewServer creates a web server bound to the given port.
func NewServer(port string, eng *engine.Engine, observer *observability.StandardObserver) *Server {
	s := &Server{engine: eng, observer: observer}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/redact", s.handleRedact)
	mux.HandleFunc("/unredact", s.handleUnredact)
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/configure", s.handleConfigure)
	mux.HandleFunc("/redact_file", s.handleRedactFile)
	mux.HandleFunc("/unredact_file", s.handleUnredactFile)

	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Start blocks serving requests until Stop is called.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": version.String(),
	})
}

type textRequest struct {
	Text        string   `json:"text"`
	EntityTypes []string `json:"entity_types,omitempty"`
}

type unredactRequest struct {
	RedactedText string `json:"redacted_text"`
	SessionID    string `json:"session_id"`
}

type fileRequest struct {
	FilePath        string   `json:"file_path"`
	EntityTypes     []string `json:"entity_types,omitempty"`
	UsePlaceholders *bool    `json:"use_placeholders,omitempty"`
	SessionID       string   `json:"session_id,omitempty"`
}

func (s *Server) handleRedact(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, tools.Redact(r.Context(), s.engine, req.Text, req.EntityTypes))
}

func (s *Server) handleUnredact(w http.ResponseWriter, r *http.Request) {
	var req unredactRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, tools.Unredact(s.engine, req.RedactedText, req.SessionID))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, tools.Analyze(r.Context(), s.engine, req.Text, req.EntityTypes))
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var req tools.ConfigureRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, tools.Configure(r.Context(), s.engine, req))
}

func (s *Server) handleRedactFile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if !decode(w, r, &req) {
		return
	}
	usePlaceholders := true
	if req.UsePlaceholders != nil {
		usePlaceholders = *req.UsePlaceholders
	}
	writeJSON(w, tools.RedactFile(r.Context(), s.engine, s.observer, req.FilePath, req.EntityTypes, usePlaceholders))
}

func (s *Server) handleUnredactFile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, tools.UnredactFile(s.engine, s.observer, req.FilePath, req.SessionID))
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintln(w, body)
}
