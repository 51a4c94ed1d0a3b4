// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package projector

import "errors"

// Error kinds surfaced to callers. Per-unit (paragraph/cell/page)
// failures are logged and skipped instead; only document-level problems
// become errors.
var (
	// ErrUnknownFormat means the file extension is not supported.
	ErrUnknownFormat = errors.New("unsupported file extension")

	// ErrFileNotFound means the input path does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrConverterUnavailable means a .doc input was given without a
	// LibreOffice installation to convert it.
	ErrConverterUnavailable = errors.New("LibreOffice is required for .doc file support; install it from https://www.libreoffice.org/download/")

	// ErrCorruptedDocument means the document opener rejected the file.
	ErrCorruptedDocument = errors.New("document could not be opened")
)
