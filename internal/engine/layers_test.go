// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pii-redact/internal/neural"
	"pii-redact/internal/observability"
	"pii-redact/internal/reviewer"
)

func quietObserver() *observability.StandardObserver {
	return observability.NewStandardObserver(observability.ObservabilityOff, nil)
}

// fakeTagger serves the zero-shot sidecar contract: it tags every
// occurrence of the given substrings with a label.
func fakeTagger(t *testing.T, labels map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type span struct {
			Start int     `json:"start"`
			End   int     `json:"end"`
			Label string  `json:"label"`
			Score float64 `json:"score"`
		}
		var spans []span
		for value, label := range labels {
			if i := strings.Index(req.Text, value); i >= 0 {
				spans = append(spans, span{Start: i, End: i + len(value), Label: label, Score: 0.92})
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"spans": spans})
	}))
}

func TestNeuralLayerContributesSpans(t *testing.T) {
	// "Xanthippe Vlahos" is not on the pattern layer's wordlist; only
	// the tagger knows it is a person.
	ts := fakeTagger(t, map[string]string{"Xanthippe Vlahos": "person"})
	defer ts.Close()

	eng := newTestEngine(WithNeural(neural.New(ts.URL, time.Second, quietObserver())))

	result, err := eng.Redact(context.Background(), "Report filed by Xanthippe Vlahos yesterday", nil)
	require.NoError(t, err)
	assert.Equal(t, "Report filed by [PERSON_1] yesterday", result.RedactedText)
}

func TestNeuralLayerFailureIsOpen(t *testing.T) {
	// Endpoint that is not listening: the layer must contribute nothing
	// and the redaction must still succeed.
	eng := newTestEngine(WithNeural(neural.New("http://127.0.0.1:1", time.Second, quietObserver())))

	result, err := eng.Redact(context.Background(), "Contact john@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "Contact [EMAIL_ADDRESS_1]", result.RedactedText)
}

func TestNeuralSpansLoseOverlapToStrongerPatterns(t *testing.T) {
	// The tagger reports the email as a username with a lower score;
	// overlap resolution must keep the pattern span.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		i := strings.Index(req.Text, "john@example.com")
		fmt.Fprintf(w, `{"spans":[{"start":%d,"end":%d,"label":"username","score":0.5}]}`, i, i+16)
	}))
	defer ts.Close()

	eng := newTestEngine(WithNeural(neural.New(ts.URL, time.Second, quietObserver())))

	result, err := eng.Redact(context.Background(), "mail john@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "mail [EMAIL_ADDRESS_1]", result.RedactedText)
}

// fakeReviewer serves the OpenAI-compatible chat contract, returning a
// fixed JSON array of proposals.
func fakeReviewer(t *testing.T, proposals string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": proposals}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	return httptest.NewServer(mux)
}

func TestReviewerAddsMissedSpans(t *testing.T) {
	ts := fakeReviewer(t, `[{"text":"employee #4471","entity_type":"USERNAME"}]`)
	defer ts.Close()

	eng := newTestEngine(WithReviewer(reviewer.New(ts.URL, "test-model", time.Second, quietObserver())))

	result, err := eng.Redact(context.Background(), "Ticket raised by employee #4471 about john@example.com", nil)
	require.NoError(t, err)

	assert.Contains(t, result.RedactedText, "[USERNAME_1]")
	assert.Contains(t, result.RedactedText, "[EMAIL_ADDRESS_1]")
	assert.NotContains(t, result.RedactedText, "employee #4471")
}

func TestReviewerOverlappingProposalsDropped(t *testing.T) {
	// The reviewer re-reports the email the pattern layer already found.
	ts := fakeReviewer(t, `[{"text":"john@example.com","entity_type":"USERNAME"}]`)
	defer ts.Close()

	eng := newTestEngine(WithReviewer(reviewer.New(ts.URL, "test-model", time.Second, quietObserver())))

	result, err := eng.Redact(context.Background(), "mail john@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "mail [EMAIL_ADDRESS_1]", result.RedactedText)
}

func TestReviewerFailureIsOpen(t *testing.T) {
	eng := newTestEngine(WithReviewer(reviewer.New("http://127.0.0.1:1", "test-model", time.Second, quietObserver())))

	result, err := eng.Redact(context.Background(), "mail john@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "mail [EMAIL_ADDRESS_1]", result.RedactedText)
}

func TestAnalyzeSkipsReviewer(t *testing.T) {
	called := false
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		called = true
		fmt.Fprint(w, `{"choices":[{"message":{"content":"[]"}}]}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	eng := newTestEngine(WithReviewer(reviewer.New(ts.URL, "test-model", time.Second, quietObserver())))

	_, err := eng.Analyze(context.Background(), "mail john@example.com", nil)
	require.NoError(t, err)
	assert.False(t, called, "analyze must not invoke the generative layer")
}
