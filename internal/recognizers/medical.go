// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"pii-redact/internal/entity"
)

// commonDrugs is the deny-list of frequently prescribed medications.
// Deny-list entries match case-insensitively on whole tokens.
var commonDrugs = []string{
	"Metformin", "Lisinopril", "Amlodipine", "Metoprolol", "Atorvastatin",
	"Omeprazole", "Losartan", "Albuterol", "Gabapentin", "Hydrochlorothiazide",
	"Sertraline", "Simvastatin", "Montelukast", "Escitalopram", "Rosuvastatin",
	"Bupropion", "Furosemide", "Pantoprazole", "Duloxetine", "Prednisone",
	"Amoxicillin", "Azithromycin", "Ibuprofen", "Acetaminophen", "Aspirin",
	"Warfarin", "Clopidogrel", "Insulin", "Levothyroxine", "Fluoxetine",
}

// medicalRecognizers covers healthcare identifiers and medication names.
func medicalRecognizers() []*Recognizer {
	icd10 := NewRecognizer("Icd10Recognizer", entity.TypeICD10Code, []Pattern{
		{Name: "icd10", Regex: regexp.MustCompile(`\b[A-TV-Z]\d{2}(?:\.\d{1,4})?\b`), Score: 0.6},
	}, []string{"diagnosis", "icd", "code", "dx", "condition"})

	mrn := NewRecognizer("MrnRecognizer", entity.TypeMedicalRecord, []Pattern{
		{Name: "mrn_dashes", Regex: regexp.MustCompile(`\b\d{3}-\d{3}-\d{3}\b`), Score: 0.4},
		{Name: "mrn_plain", Regex: regexp.MustCompile(`\b\d{7,10}\b`), Score: 0.2},
	}, []string{"mrn", "medical record", "patient id", "chart"})

	drugs := NewDenyListRecognizer("DrugNameRecognizer", entity.TypeDrugName, commonDrugs,
		[]string{"taking", "prescribed", "medication", "drug", "dose", "mg", "daily"})

	npi := NewRecognizer("NpiRecognizer", entity.TypeNPINumber, []Pattern{
		{Name: "npi", Regex: regexp.MustCompile(`\b\d{10}\b`), Score: 0.3},
	}, []string{"npi", "provider", "national provider", "prescriber"})

	dea := NewRecognizer("DeaRecognizer", entity.TypeDEANumber, []Pattern{
		{Name: "dea", Regex: regexp.MustCompile(`\b[A-Z]{2}\d{7}\b`), Score: 0.6},
	}, []string{"dea", "prescriber", "controlled substance", "schedule"})

	insurance := NewRecognizer("InsuranceIdRecognizer", entity.TypeInsuranceID, []Pattern{
		{Name: "policy_number", Regex: regexp.MustCompile(`\bPOL-?\d{4}-?\d{5,10}\b`), Score: 0.7},
		{Name: "claim_number", Regex: regexp.MustCompile(`\bCLM-?\d{4}-?\d{5,10}\b`), Score: 0.7},
		{Name: "insurance_alphanum", Regex: regexp.MustCompile(`\b[A-Z]{2,4}-?\d{6,12}\b`), Score: 0.4},
	}, []string{
		"insurance", "policy", "claim", "member", "subscriber",
		"group", "coverage", "id", "number",
	})

	return []*Recognizer{icd10, mrn, drugs, npi, dea, insurance}
}
