// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package filehash computes content digests for inbox files. Task
// records carry the digest of their source file so that cleanup can
// prove a source was fully ingested before deleting it, even when the
// file was renamed or its timestamps churned.
package filehash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

// prefix identifies the digest algorithm in the formatted form, so a
// record field reads as "blake3:9f86d0..." and stays self-describing.
const prefix = "blake3:"

// HashFile computes the BLAKE3 digest of the file at path. The file is
// streamed through the hash function in chunks (via io.Copy) to keep
// memory usage constant regardless of file size.
func HashFile(path string) ([32]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return [32]byte{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return [32]byte{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// FormatDigest returns the canonical string form of a digest,
// "blake3:" followed by 64 hex characters. This is the form stored in
// task records.
func FormatDigest(digest [32]byte) string {
	return prefix + hex.EncodeToString(digest[:])
}

// ParseDigest parses the canonical string form back into a 32-byte
// digest. Returns an error for an unknown algorithm prefix or a
// malformed hex payload.
func ParseDigest(formatted string) ([32]byte, error) {
	var digest [32]byte
	hexString, ok := strings.CutPrefix(formatted, prefix)
	if !ok {
		return digest, fmt.Errorf("digest %q does not carry the %q prefix", formatted, prefix)
	}
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}

// FileMatches reports whether the file at path hashes to the formatted
// digest. Used by cleanup to verify a source file against its task
// record before deletion.
func FileMatches(path, formatted string) (bool, error) {
	want, err := ParseDigest(formatted)
	if err != nil {
		return false, err
	}
	got, err := HashFile(path)
	if err != nil {
		return false, err
	}
	return got == want, nil
}
