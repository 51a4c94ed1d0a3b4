// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"pii-redact/internal/entity"
)

// financialRecognizers covers bank and payment identifiers.
func financialRecognizers() []*Recognizer {
	iban := NewRecognizer("IbanRecognizer", entity.TypeIBAN, []Pattern{
		{Name: "iban", Regex: regexp.MustCompile(`\b[A-Z]{2}\d{2}\s?[\dA-Z]{4}\s?(?:[\dA-Z]{4}\s?){2,7}[\dA-Z]{1,4}\b`), Score: 0.8},
	}, []string{"iban", "account", "bank", "transfer"})

	swift := NewRecognizer("SwiftCodeRecognizer", entity.TypeSwiftCode, []Pattern{
		// 8-character BIC: bank + country + location.
		{Name: "swift_8", Regex: regexp.MustCompile(`\b[A-Z]{6}[A-Z0-9]{2}\b`), Score: 0.5},
		// 11-character BIC with branch code.
		{Name: "swift_11", Regex: regexp.MustCompile(`\b[A-Z]{6}[A-Z0-9]{2}[A-Z0-9]{3}\b`), Score: 0.7},
	}, []string{"swift", "bic", "bank", "wire", "transfer"})

	creditCard := NewRecognizer("CreditCardRecognizer", entity.TypeCreditCard, []Pattern{
		{
			Name:   "credit_card",
			Regex:  regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`),
			Score:  0.85,
			Filter: luhnValid,
		},
	}, []string{"card", "credit", "debit", "visa", "mastercard", "amex", "payment", "cvv", "expiry"})

	routing := NewRecognizer("UsBankRoutingRecognizer", entity.TypeUSBankRouting, []Pattern{
		{Name: "us_routing", Regex: regexp.MustCompile(`\b\d{9}\b`), Score: 0.3},
	}, []string{"routing", "aba", "bank", "transit"})

	postal := NewRecognizer("PostalCodeRecognizer", entity.TypePostalCode, []Pattern{
		{Name: "us_zip", Regex: regexp.MustCompile(`\b\d{5}-\d{4}\b`), Score: 0.3},
		{Name: "uk_postcode", Regex: regexp.MustCompile(`\b[A-Z]{1,2}\d[A-Z0-9]?\s?\d[A-Z]{2}\b`), Score: 0.5},
		{Name: "generic_5digit", Regex: regexp.MustCompile(`\b\d{5}\b`), Score: 0.2},
	}, []string{"zip", "postal", "postcode", "address", "mail"})

	return []*Recognizer{iban, swift, creditCard, routing, postal}
}

// luhnValid reports whether the digits of a candidate card number pass
// the Luhn checksum. Separators are stripped first; the base score for
// CREDIT_CARD requires Luhn validity, so failures are never emitted.
func luhnValid(candidate string) bool {
	var digits []int
	for _, r := range candidate {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
