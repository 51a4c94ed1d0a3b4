// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"pii-redact/internal/entity"
)

// secretsRecognizers covers credentials: provider API keys, AWS access
// key ids, database connection URIs, and PEM private key headers.
func secretsRecognizers() []*Recognizer {
	apiKeyContext := []string{"key", "token", "api", "secret", "bearer", "authorization"}

	apiKey := NewRecognizer("ApiKeyRecognizer", entity.TypeAPIKey, []Pattern{
		{Name: "openai_key", Regex: regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9_-]{20,}\b`), Score: 0.9},
		{Name: "github_token", Regex: regexp.MustCompile(`\bghp_[A-Za-z0-9]{36}\b`), Score: 0.9},
		{Name: "gitlab_token", Regex: regexp.MustCompile(`\bglpat-[A-Za-z0-9\-_]{20,}\b`), Score: 0.9},
		{Name: "stripe_key", Regex: regexp.MustCompile(`\b[sp]k_(?:live|test)_[A-Za-z0-9]{20,}\b`), Score: 0.9},
		{Name: "google_api_key", Regex: regexp.MustCompile(`\bAIzaSy[A-Za-z0-9_-]{33}\b`), Score: 0.9},
		{Name: "slack_token", Regex: regexp.MustCompile(`\bxox[bpoas]-[A-Za-z0-9-]{10,}\b`), Score: 0.9},
		{Name: "jwt", Regex: regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\b`), Score: 0.9},
	}, apiKeyContext)

	awsKey := NewRecognizer("AwsAccessKeyRecognizer", entity.TypeAWSAccessKey, []Pattern{
		{Name: "aws_access_key", Regex: regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), Score: 0.9},
	}, []string{"aws", "key", "access"})

	connString := NewRecognizer("ConnectionStringRecognizer", entity.TypeConnectionString, []Pattern{
		{Name: "postgres_uri", Regex: regexp.MustCompile(`\bpostgresql?://[^\s]+`), Score: 0.9},
		{Name: "mysql_uri", Regex: regexp.MustCompile(`\bmysql://[^\s]+`), Score: 0.9},
		{Name: "mongodb_uri", Regex: regexp.MustCompile(`\bmongodb(?:\+srv)?://[^\s]+`), Score: 0.9},
		{Name: "redis_uri", Regex: regexp.MustCompile(`\brediss?://[^\s]+`), Score: 0.9},
	}, []string{"database", "db", "connection", "uri", "url"})

	sshKey := NewRecognizer("SshPrivateKeyRecognizer", entity.TypeSSHPrivateKey, []Pattern{
		{Name: "pem_private_key", Regex: regexp.MustCompile(`-----BEGIN (?:RSA|EC|DSA|OPENSSH) PRIVATE KEY-----`), Score: 0.95},
	}, []string{"ssh", "private", "key", "pem"})

	return []*Recognizer{apiKey, awsKey, connString, sshKey}
}
