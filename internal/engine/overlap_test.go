// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"testing"

	"pii-redact/internal/entity"
)

func TestRemoveOverlapsKeepsHigherScore(t *testing.T) {
	spans := []entity.Span{
		{Start: 0, End: 10, EntityType: "URL", Score: 0.6},
		{Start: 0, End: 20, EntityType: "CONNECTION_STRING", Score: 0.9},
	}
	kept := removeOverlaps(spans)
	if len(kept) != 1 {
		t.Fatalf("expected 1 span, got %d", len(kept))
	}
	if kept[0].EntityType != "CONNECTION_STRING" {
		t.Errorf("expected higher score to win, got %s", kept[0].EntityType)
	}
}

func TestRemoveOverlapsTieBreakLongerSpan(t *testing.T) {
	spans := []entity.Span{
		{Start: 0, End: 5, EntityType: "A", Score: 0.8},
		{Start: 0, End: 10, EntityType: "B", Score: 0.8},
	}
	kept := removeOverlaps(spans)
	if len(kept) != 1 || kept[0].EntityType != "B" {
		t.Errorf("expected the longer span to win the tie, got %+v", kept)
	}
}

func TestRemoveOverlapsExactCoincidence(t *testing.T) {
	// Identical span, identical score: alphabetical entity-type order
	// decides deterministically.
	spans := []entity.Span{
		{Start: 3, End: 9, EntityType: "PHONE_NUMBER", Score: 0.5},
		{Start: 3, End: 9, EntityType: "NPI_NUMBER", Score: 0.5},
	}
	kept := removeOverlaps(spans)
	if len(kept) != 1 || kept[0].EntityType != "NPI_NUMBER" {
		t.Errorf("expected NPI_NUMBER by alphabetical tie-break, got %+v", kept)
	}
}

func TestRemoveOverlapsKeepsDisjoint(t *testing.T) {
	spans := []entity.Span{
		{Start: 0, End: 5, Score: 0.9},
		{Start: 5, End: 10, Score: 0.8},
		{Start: 20, End: 30, Score: 0.7},
	}
	if kept := removeOverlaps(spans); len(kept) != 3 {
		t.Errorf("adjacent and disjoint spans must all survive, got %d", len(kept))
	}
}

func TestValidSpanTable(t *testing.T) {
	tests := []struct {
		entityType string
		value      string
		want       bool
	}{
		{"SWIFT_CODE", "document", false},
		{"SWIFT_CODE", "DEUTDEFF", true},
		{"SWIFT_CODE", "DEUTDEFF500", true},
		{"IBAN", "DE89 3704 0044 0532 0130 00", true},
		{"IBAN", "XX12", false},
		{"CREDIT_CARD", "4111 1111 1111 1111", true},
		{"CREDIT_CARD", "1234", false},
		{"US_SSN", "123-45-6789", true},
		{"US_SSN", "123456789", true},
		{"US_SSN", "12-345-6789", false},
		{"EMAIL_ADDRESS", "notanemail", false},
		{"EMAIL_ADDRESS", "a@b.com", true},
		{"EMAIL_ADDRESS", "a@b", false},
		{"IP_ADDRESS", "localhost", false},
		{"IP_ADDRESS", "192.168.1.1", true},
		{"PHONE_NUMBER", "555-1234", true},
		{"PHONE_NUMBER", "12345", false},
		{"PERSON", "anything at all", true}, // no syntactic check
	}
	for _, tt := range tests {
		if got := validSpan(tt.entityType, tt.value); got != tt.want {
			t.Errorf("validSpan(%s, %q) = %v, want %v", tt.entityType, tt.value, got, tt.want)
		}
	}
}
