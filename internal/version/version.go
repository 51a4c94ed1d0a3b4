// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package version

import "fmt"

// Set at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String returns the full version line printed by --version.
func String() string {
	return fmt.Sprintf("pii-redact %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
