// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package reviewer implements the optional generative second pass. It
// asks a local OpenAI-compatible model (e.g. Ollama) for PII the earlier
// layers missed. The model returns verbatim substrings rather than byte
// offsets, because small models get offsets wrong; this package locates
// each proposal in the original text itself.
//
// Every reviewer error yields an empty result; redaction continues.
package reviewer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"pii-redact/internal/observability"
)

const systemPrompt = `You are a PII (Personally Identifiable Information) detection expert. Your job is to find sensitive entities in text that automated tools may have missed.

You look for ALL types of PII: names, ages, dates of birth, addresses, postal codes, phone numbers, email addresses, government IDs, financial data, medical data, usernames, and any identifier that could link back to a specific individual. You support all languages.

Respond ONLY with a JSON array. Each element must have:
- "text": the exact substring from the input
- "entity_type": one of PERSON, LOCATION, ORGANIZATION, PHONE_NUMBER, EMAIL_ADDRESS, DATE_TIME, US_SSN, INSURANCE_ID, MEDICAL_CONDITION, DRUG_NAME, CREDIT_CARD, IBAN, IP_ADDRESS, USERNAME, or a descriptive ALL_CAPS type.

If no additional PII is found, respond with: []`

// Proposal is one candidate the reviewer located verbatim in the input.
type Proposal struct {
	Text       string
	EntityType string
	Start      int
	End        int
}

// Client calls the generative reviewer endpoint.
type Client struct {
	url      string
	model    string
	timeout  time.Duration
	http     *http.Client
	observer *observability.StandardObserver
}

// New creates a reviewer Client. baseURL is an OpenAI-compatible server,
// e.g. "http://localhost:11434". timeout bounds each review call; the
// reviewer is inherently unbounded in latency, so the timeout is
// mandatory (a non-positive value gets a 60s default).
func New(baseURL, model string, timeout time.Duration, observer *observability.StandardObserver) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if observer == nil {
		observer = observability.NewStandardObserver(observability.ObservabilityOff, nil)
	}
	return &Client{
		url:      strings.TrimRight(baseURL, "/") + "/v1/chat/completions",
		model:    model,
		timeout:  timeout,
		http:     &http.Client{Timeout: timeout + 5*time.Second},
		observer: observer,
	}
}

// Available probes the endpoint. Used by configure to report
// llm_available without running a review.
func (c *Client) Available(ctx context.Context) bool {
	base := strings.TrimSuffix(c.url, "/v1/chat/completions")
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/v1/models", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Review asks the model for PII not covered by alreadyFound and returns
// located proposals. Temperature is pinned to zero for determinism.
func (c *Client) Review(ctx context.Context, text string, alreadyFound []string) []Proposal {
	quoted := make([]string, len(alreadyFound))
	for i, v := range alreadyFound {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	already := "none"
	if len(quoted) > 0 {
		already = strings.Join(quoted, ", ")
	}
	userPrompt := fmt.Sprintf(
		"The following entities were already detected: [%s]\n\nFind any ADDITIONAL PII in this text that was missed:\n\n%s",
		already, text,
	)

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0,
	})
	if err != nil {
		c.observer.LogError("reviewer", "marshal", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		c.observer.LogError("reviewer", "request", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.observer.LogError("reviewer", "review", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.observer.LogError("reviewer", "review", fmt.Errorf("unexpected status %d", resp.StatusCode))
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observer.LogError("reviewer", "read", err)
		return nil
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.observer.LogError("reviewer", "decode", err)
		return nil
	}
	if len(parsed.Choices) == 0 {
		return nil
	}

	return c.parseProposals(parsed.Choices[0].Message.Content, text)
}

// jsonArrayPattern digs a JSON array out of a response that may wrap it
// in markdown fences or prose.
var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

type rawProposal struct {
	Text       string `json:"text"`
	EntityType string `json:"entity_type"`
}

// parseProposals extracts the JSON array from the model output and
// locates each proposed substring in the original text. Proposals whose
// text does not appear verbatim are dropped.
func (c *Client) parseProposals(content, originalText string) []Proposal {
	match := jsonArrayPattern.FindString(content)
	if match == "" {
		return nil
	}

	var raw []rawProposal
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		c.observer.LogError("reviewer", "parse_proposals", err)
		return nil
	}

	var out []Proposal
	for _, p := range raw {
		if p.Text == "" {
			continue
		}
		entityType := p.EntityType
		if entityType == "" {
			entityType = "UNKNOWN"
		}
		start := strings.Index(originalText, p.Text)
		if start == -1 {
			continue
		}
		out = append(out, Proposal{
			Text:       p.Text,
			EntityType: entityType,
			Start:      start,
			End:        start + len(p.Text),
		})
	}
	return out
}
