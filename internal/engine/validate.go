// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"regexp"
	"strings"

	"pii-redact/internal/entity"
)

// Per-type syntactic checks applied before and after the generative
// merge. Types without an entry pass on score alone.
var (
	swiftShape = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2,5}$`)
	ibanShape  = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z0-9]{4,}$`)
	ssnShape   = regexp.MustCompile(`^\d{3}-?\d{2}-?\d{4}$`)
	ipShape    = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)
)

// validateSpans drops spans whose substring fails the syntactic check
// for their type.
func validateSpans(text string, spans []entity.Span) []entity.Span {
	out := spans[:0]
	for _, s := range spans {
		if validSpan(s.EntityType, s.Text(text)) {
			out = append(out, s)
		}
	}
	return out
}

func validSpan(entityType, value string) bool {
	switch entityType {
	case entity.TypeSwiftCode:
		return swiftShape.MatchString(value)
	case entity.TypeIBAN:
		return ibanShape.MatchString(strings.ReplaceAll(value, " ", ""))
	case entity.TypeCreditCard:
		n := countDigits(value)
		return n >= 13 && n <= 19
	case entity.TypeUSSSN:
		return ssnShape.MatchString(value)
	case entity.TypeEmailAddress:
		return validEmail(value)
	case entity.TypeIPAddress:
		return ipShape.MatchString(value)
	case entity.TypePhoneNumber:
		return countDigits(value) >= 7
	default:
		return true
	}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// validEmail requires an '@' and a dot inside the domain label.
func validEmail(value string) bool {
	at := strings.Index(value, "@")
	if at <= 0 || at == len(value)-1 {
		return false
	}
	domain := value[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
