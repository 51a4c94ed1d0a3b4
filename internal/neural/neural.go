// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package neural calls the zero-shot tagger sidecar over HTTP. The
// sidecar hosts a multi-label NER model; the engine owns the fixed
// mapping from model labels to canonical entity types. If the sidecar
// is unreachable or errors, the layer contributes no spans so the rest
// of the detection pipeline can still run.
package neural

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pii-redact/internal/entity"
	"pii-redact/internal/observability"
)

// labelMapping maps the tagger's labels to canonical entity types.
// Only semantic types that benefit from context are requested;
// structured formats (card numbers, SSNs, IBANs, IPs, postal codes)
// are deliberately excluded because the pattern layer is more precise
// and deterministic for them.
var labelMapping = map[string]string{
	"person":              entity.TypePerson,
	"organization":        entity.TypeOrganization,
	"address":             entity.TypeLocation,
	"email":               entity.TypeEmailAddress,
	"phone number":        entity.TypePhoneNumber,
	"mobile phone number": entity.TypePhoneNumber,
	"date of birth":       entity.TypeDateTime,
	"medication":          entity.TypeDrugName,
	"medical condition":   entity.TypeMedicalCondition,
	"username":            entity.TypeUsername,
}

// labelOrder is the request order of labels sent to the tagger.
var labelOrder = []string{
	"person", "organization", "address", "email", "phone number",
	"mobile phone number", "date of birth", "medication",
	"medical condition", "username",
}

// Client calls the tagger sidecar's /classify endpoint.
type Client struct {
	url      string
	http     *http.Client
	observer *observability.StandardObserver
}

// New creates a tagger Client pointing at the given base URL
// (e.g. "http://tagger:8001"). A nil observer disables logging.
func New(baseURL string, timeout time.Duration, observer *observability.StandardObserver) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if observer == nil {
		observer = observability.NewStandardObserver(observability.ObservabilityOff, nil)
	}
	return &Client{
		url:      baseURL + "/classify",
		http:     &http.Client{Timeout: timeout},
		observer: observer,
	}
}

type classifyRequest struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

type classifyResponse struct {
	Spans []taggedSpan `json:"spans"`
}

type taggedSpan struct {
	Start int     `json:"start"`
	End   int     `json:"end"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify sends text to the tagger and returns spans mapped to
// canonical entity types. Every failure path returns (nil, nil) after
// logging: the neural layer never fails a redaction.
func (c *Client) Classify(ctx context.Context, text string) ([]entity.Span, error) {
	body, err := json.Marshal(classifyRequest{Text: text, Labels: labelOrder})
	if err != nil {
		return nil, fmt.Errorf("neural: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("neural: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.observer.LogError("neural", "classify", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.observer.LogError("neural", "classify", fmt.Errorf("unexpected status %d", resp.StatusCode))
		return nil, nil
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.observer.LogError("neural", "decode", err)
		return nil, nil
	}

	spans := make([]entity.Span, 0, len(result.Spans))
	for _, s := range result.Spans {
		entityType, ok := labelMapping[s.Label]
		if !ok {
			continue
		}
		if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
			continue
		}
		score := s.Score
		if score <= 0 || score > 1 {
			score = 1.0
		}
		spans = append(spans, entity.Span{
			Start:      s.Start,
			End:        s.End,
			EntityType: entityType,
			Score:      score,
			Source:     entity.SourceNeural,
		})
	}
	return spans, nil
}
