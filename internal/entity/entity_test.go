// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package entity

import "testing"

func TestPlaceholderFormat(t *testing.T) {
	if got := Placeholder("EMAIL_ADDRESS", 1); got != "[EMAIL_ADDRESS_1]" {
		t.Errorf("expected [EMAIL_ADDRESS_1], got %q", got)
	}
	if got := Placeholder("PERSON", 2); got != "[PERSON_2]" {
		t.Errorf("expected [PERSON_2], got %q", got)
	}
}

func TestContainsPlaceholder(t *testing.T) {
	if !ContainsPlaceholder("Contact [EMAIL_ADDRESS_1] for info") {
		t.Error("expected placeholder to be detected")
	}
	if ContainsPlaceholder("Contact john for info") {
		t.Error("expected no placeholder in plain text")
	}
	if ContainsPlaceholder("[not_a_placeholder]") {
		t.Error("lowercase token must not match the placeholder syntax")
	}
}

func TestSpanOverlaps(t *testing.T) {
	a := Span{Start: 0, End: 10}
	tests := []struct {
		b    Span
		want bool
	}{
		{Span{Start: 5, End: 15}, true},
		{Span{Start: 10, End: 20}, false}, // adjacent, not overlapping
		{Span{Start: 0, End: 10}, true},
		{Span{Start: 9, End: 10}, true},
	}
	for _, tt := range tests {
		if got := a.Overlaps(tt.b); got != tt.want {
			t.Errorf("Overlaps(%+v) = %v, want %v", tt.b, got, tt.want)
		}
	}
}

func TestPartialMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abcd", "****"},
		{"ab", "**"},
		{"", ""},
		{"abcde", "a***e"},
		{"john@example.com", "john********.com"},
	}
	for _, tt := range tests {
		if got := PartialMask(tt.in); got != tt.want {
			t.Errorf("PartialMask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
