// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"pii-redact/internal/entity"
)

// generalRecognizers covers the built-in general-purpose entity types.
func generalRecognizers() []*Recognizer {
	email := NewRecognizer("EmailRecognizer", entity.TypeEmailAddress, []Pattern{
		{Name: "email", Regex: regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), Score: 0.85},
	}, []string{"email", "e-mail", "contact", "mailto", "from", "to", "cc", "bcc"})

	phone := NewRecognizer("PhoneRecognizer", entity.TypePhoneNumber, []Pattern{
		{Name: "intl_phone", Regex: regexp.MustCompile(`\+\d{1,3}[-.\s]?\(?\d{1,4}\)?(?:[-.\s]?\d{2,4}){2,4}`), Score: 0.7},
		{Name: "us_phone", Regex: regexp.MustCompile(`\b\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}\b`), Score: 0.6},
	}, []string{"phone", "tel", "call", "mobile", "cell", "fax", "number"})

	ssn := NewRecognizer("UsSsnRecognizer", entity.TypeUSSSN, []Pattern{
		{Name: "ssn_dashes", Regex: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), Score: 0.85},
		{Name: "ssn_plain", Regex: regexp.MustCompile(`\b\d{9}\b`), Score: 0.3},
	}, []string{"ssn", "social security", "social", "security number"})

	ip := NewRecognizer("IpAddressRecognizer", entity.TypeIPAddress, []Pattern{
		{Name: "ipv4", Regex: regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}\b`), Score: 0.6},
	}, []string{"ip", "address", "host", "server", "gateway"})

	url := NewRecognizer("UrlRecognizer", entity.TypeURL, []Pattern{
		{Name: "url", Regex: regexp.MustCompile(`\bhttps?://[^\s<>"]+`), Score: 0.6},
	}, []string{"url", "link", "website", "site", "visit"})

	dateTime := NewRecognizer("DateTimeRecognizer", entity.TypeDateTime, []Pattern{
		{Name: "iso_date", Regex: regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`), Score: 0.6},
		{Name: "slash_date", Regex: regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`), Score: 0.6},
		{Name: "written_date", Regex: regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`), Score: 0.6},
	}, []string{"date", "born", "birth", "dob", "on", "expires"})

	return append([]*Recognizer{email, phone, ssn, ip, url, dateTime}, nameRecognizers()...)
}
