// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package reviewer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Temperature != 0 {
			t.Errorf("temperature must be pinned to 0, got %v", req.Temperature)
		}
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	})
	return httptest.NewServer(mux)
}

func TestReviewLocatesProposals(t *testing.T) {
	ts := chatServer(t, `[{"text":"badge 7741","entity_type":"USERNAME"}]`)
	defer ts.Close()

	client := New(ts.URL, "test-model", time.Second, nil)
	proposals := client.Review(context.Background(), "issued to badge 7741 today", []string{"other"})

	if len(proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(proposals))
	}
	p := proposals[0]
	if p.Start != 10 || p.End != 20 {
		t.Errorf("unexpected offsets [%d,%d)", p.Start, p.End)
	}
	if p.EntityType != "USERNAME" {
		t.Errorf("unexpected type %q", p.EntityType)
	}
}

func TestReviewStripsMarkdownFence(t *testing.T) {
	ts := chatServer(t, "Here you go:\n```json\n[{\"text\":\"acct-9\",\"entity_type\":\"USERNAME\"}]\n```")
	defer ts.Close()

	client := New(ts.URL, "test-model", time.Second, nil)
	proposals := client.Review(context.Background(), "ref acct-9 closed", nil)

	if len(proposals) != 1 {
		t.Fatalf("expected fenced JSON to parse, got %d proposals", len(proposals))
	}
}

func TestReviewDropsUnlocatableText(t *testing.T) {
	ts := chatServer(t, `[{"text":"not in the input","entity_type":"PERSON"}]`)
	defer ts.Close()

	client := New(ts.URL, "test-model", time.Second, nil)
	proposals := client.Review(context.Background(), "nothing to see", nil)

	if len(proposals) != 0 {
		t.Errorf("hallucinated text must be dropped, got %d proposals", len(proposals))
	}
}

func TestReviewEmptyArray(t *testing.T) {
	ts := chatServer(t, `[]`)
	defer ts.Close()

	client := New(ts.URL, "test-model", time.Second, nil)
	if proposals := client.Review(context.Background(), "clean text", nil); len(proposals) != 0 {
		t.Errorf("expected no proposals, got %d", len(proposals))
	}
}

func TestReviewUnreachableEndpointFailsOpen(t *testing.T) {
	client := New("http://127.0.0.1:1", "test-model", 100*time.Millisecond, nil)
	if proposals := client.Review(context.Background(), "anything", nil); proposals != nil {
		t.Errorf("unreachable reviewer must yield no proposals, got %v", proposals)
	}
}

func TestReviewGarbageResponseFailsOpen(t *testing.T) {
	ts := chatServer(t, "I could not find any PII, sorry!")
	defer ts.Close()

	client := New(ts.URL, "test-model", time.Second, nil)
	if proposals := client.Review(context.Background(), "anything", nil); len(proposals) != 0 {
		t.Errorf("prose response must yield no proposals, got %d", len(proposals))
	}
}

func TestAvailable(t *testing.T) {
	ts := chatServer(t, `[]`)
	defer ts.Close()

	if !New(ts.URL, "test-model", time.Second, nil).Available(context.Background()) {
		t.Error("expected endpoint to be reported available")
	}
	if New("http://127.0.0.1:1", "test-model", time.Second, nil).Available(context.Background()) {
		t.Error("expected unreachable endpoint to be unavailable")
	}
}
