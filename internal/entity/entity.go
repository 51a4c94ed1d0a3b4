// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package entity

import (
	"fmt"
	"regexp"
	"strings"
)

// Canonical entity type tags. User-registered recognizers may add
// further uppercase tags at runtime; these are the built-in set.
const (
	TypePerson           = "PERSON"
	TypeOrganization     = "ORGANIZATION"
	TypeEmailAddress     = "EMAIL_ADDRESS"
	TypePhoneNumber      = "PHONE_NUMBER"
	TypeUSSSN            = "US_SSN"
	TypeCreditCard       = "CREDIT_CARD"
	TypeIBAN             = "IBAN"
	TypeSwiftCode        = "SWIFT_CODE"
	TypePostalCode       = "POSTAL_CODE"
	TypeIPAddress        = "IP_ADDRESS"
	TypeURL              = "URL"
	TypeAPIKey           = "API_KEY"
	TypeAWSAccessKey     = "AWS_ACCESS_KEY"
	TypeConnectionString = "CONNECTION_STRING"
	TypeSSHPrivateKey    = "SSH_PRIVATE_KEY"
	TypeNPINumber        = "NPI_NUMBER"
	TypeDEANumber        = "DEA_NUMBER"
	TypeInsuranceID      = "INSURANCE_ID"
	TypeDrugName         = "DRUG_NAME"
	TypeMedicalCondition = "MEDICAL_CONDITION"
	TypeICD10Code        = "ICD10_CODE"
	TypeMedicalRecord    = "MEDICAL_RECORD_NUMBER"
	TypeLocation         = "LOCATION"
	TypeDateTime         = "DATE_TIME"
	TypeUsername         = "USERNAME"
	TypeUSBankRouting    = "US_BANK_ROUTING"
)

// Detection sources for a span.
const (
	SourcePattern    = "pattern"
	SourceNeural     = "neural"
	SourceGenerative = "generative"
)

// Span is a detected region of input text. All layers (pattern, neural,
// generative) emit this record; overlap resolution and validation
// operate on it uniformly.
type Span struct {
	Start      int
	End        int
	EntityType string
	Score      float64
	Source     string
}

// Length returns the number of bytes the span covers.
func (s Span) Length() int {
	return s.End - s.Start
}

// Overlaps reports whether two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Text returns the substring of input that the span covers.
func (s Span) Text(input string) string {
	return input[s.Start:s.End]
}

// Placeholder returns the indexed placeholder token for an entity type,
// e.g. Placeholder("PERSON", 2) == "[PERSON_2]". n is 1-based and
// scoped to one redaction call and one entity type.
func Placeholder(entityType string, n int) string {
	return fmt.Sprintf("[%s_%d]", entityType, n)
}

// placeholderPattern matches the fixed placeholder syntax [<TYPE>_<N>].
var placeholderPattern = regexp.MustCompile(`\[([A-Z0-9_]+_[1-9][0-9]*)\]`)

// ContainsPlaceholder reports whether text contains at least one token
// of the placeholder syntax.
func ContainsPlaceholder(text string) bool {
	return placeholderPattern.MatchString(text)
}

// PartialMask hides the middle of a value for analyze output: the first
// and last max(1, len/4) characters stay visible, the rest becomes '*'.
// Values of length <= 4 are masked entirely.
func PartialMask(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	visible := len(value) / 4
	if visible < 1 {
		visible = 1
	}
	return value[:visible] + strings.Repeat("*", len(value)-2*visible) + value[len(value)-visible:]
}
