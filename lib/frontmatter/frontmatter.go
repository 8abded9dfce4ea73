// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package frontmatter encodes and decodes markdown files with a fenced
// yaml frontmatter block:
//
//	---
//	id: task-4f1c
//	status: pending
//	---
//
//	## Original Content
//	...
//
// Task records are stored in this form so they stay readable and
// editable in any markdown tool. Decode is strict: a record without a
// well-formed frontmatter block is how the pipeline detects corruption,
// so leniency here would mask real damage.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingFrontmatter is returned by Decode when the data does not
// begin with a frontmatter fence or the closing fence is absent.
var ErrMissingFrontmatter = errors.New("missing frontmatter block")

var fence = []byte("---\n")

// Encode renders fields as yaml between fences, followed by a blank
// line and the body. The output always ends with a newline.
func Encode(fields any, body string) ([]byte, error) {
	metadata, err := yaml.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var buffer bytes.Buffer
	buffer.Write(fence)
	buffer.Write(metadata)
	buffer.Write(fence)
	buffer.WriteByte('\n')
	buffer.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buffer.WriteByte('\n')
	}
	return buffer.Bytes(), nil
}

// Decode splits data into its frontmatter block and body, unmarshaling
// the block into fields. The body is returned with the single blank
// separator line removed. Returns ErrMissingFrontmatter (wrapped) when
// the fences are absent, and the yaml error when the block does not
// parse.
func Decode(data []byte, fields any) (string, error) {
	if !bytes.HasPrefix(data, fence) {
		return "", fmt.Errorf("decoding record: %w", ErrMissingFrontmatter)
	}
	rest := data[len(fence):]

	var block, remainder []byte
	switch end := bytes.Index(rest, []byte("\n---\n")); {
	case bytes.HasPrefix(rest, fence):
		// Empty frontmatter block.
		remainder = rest[len(fence):]
	case end >= 0:
		block = rest[:end+1]
		remainder = rest[end+len("\n---\n"):]
	case bytes.HasSuffix(rest, []byte("\n---")):
		// Closing fence at end of file without a trailing newline.
		block = rest[:len(rest)-len("---")]
	default:
		return "", fmt.Errorf("decoding record: %w", ErrMissingFrontmatter)
	}

	if err := yaml.Unmarshal(block, fields); err != nil {
		return "", fmt.Errorf("parsing frontmatter: %w", err)
	}
	return strings.TrimPrefix(string(remainder), "\n"), nil
}
