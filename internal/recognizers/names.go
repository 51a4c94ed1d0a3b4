// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"
	"strings"

	"pii-redact/internal/entity"
)

// commonFirstNames seeds the lightweight person NER. A capitalized pair
// whose first token is on this list is treated as a full name. The
// neural layer handles names outside the list.
var commonFirstNames = []string{
	"James", "John", "Robert", "Michael", "William", "David", "Richard",
	"Joseph", "Thomas", "Charles", "Christopher", "Daniel", "Matthew",
	"Anthony", "Mark", "Donald", "Steven", "Paul", "Andrew", "Joshua",
	"Kenneth", "Kevin", "Brian", "George", "Edward", "Ronald", "Timothy",
	"Mary", "Patricia", "Jennifer", "Linda", "Elizabeth", "Barbara",
	"Susan", "Jessica", "Sarah", "Karen", "Nancy", "Lisa", "Margaret",
	"Betty", "Sandra", "Ashley", "Dorothy", "Kimberly", "Emily", "Donna",
	"Michelle", "Carol", "Amanda", "Melissa", "Deborah", "Stephanie",
	"Rebecca", "Laura", "Helen", "Anna", "Jane", "Maria", "Emma",
}

// nameRecognizers implements the lightweight NER for PERSON, LOCATION
// and ORGANIZATION. These are deliberately conservative; the neural
// layer is the primary source for free-form names.
func nameRecognizers() []*Recognizer {
	person := NewRecognizer("PersonRecognizer", entity.TypePerson, []Pattern{
		{Name: "honorific_name", Regex: regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\b`), Score: 0.7},
		{
			Name:   "first_last",
			Regex:  regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`),
			Score:  0.6,
			Filter: firstTokenIsCommonName,
		},
	}, []string{"name", "contact", "patient", "employee", "customer", "dear", "attn", "regards"})

	location := NewRecognizer("LocationRecognizer", entity.TypeLocation, []Pattern{
		{Name: "street_address", Regex: regexp.MustCompile(`\b\d+\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Street|St\.?|Avenue|Ave\.?|Road|Rd\.?|Boulevard|Blvd\.?|Lane|Ln\.?|Drive|Dr\.?|Court|Ct\.?|Way)\b`), Score: 0.6},
	}, []string{"address", "located", "residence", "ship", "deliver", "live", "lives"})

	organization := NewRecognizer("OrganizationRecognizer", entity.TypeOrganization, []Pattern{
		{Name: "org_suffix", Regex: regexp.MustCompile(`\b[A-Z][A-Za-z&]+(?:\s+[A-Z][A-Za-z&]+)*,?\s+(?:Inc\.?|LLC|Ltd\.?|Corp\.?|Corporation|GmbH|PLC)\b`), Score: 0.6},
	}, []string{"company", "employer", "organization", "firm", "vendor", "client"})

	return []*Recognizer{person, location, organization}
}

// firstTokenIsCommonName gates the bare capitalized-pair person pattern
// on the first-name wordlist to keep false positives down.
func firstTokenIsCommonName(match string) bool {
	first, _, ok := strings.Cut(match, " ")
	if !ok {
		return false
	}
	for _, n := range commonFirstNames {
		if first == n {
			return true
		}
	}
	return false
}
