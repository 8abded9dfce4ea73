// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

// Package content turns a dropped inbox file into the text that seeds a
// task record. Plain text and markdown pass through unchanged, PDF text
// is extracted, and images yield a descriptive marker line (the pipeline
// does not run OCR). Extraction failures on parsed formats produce
// marker text rather than errors: the file itself was readable, so the
// task is still created and the marker tells the operator what happened.
package content

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ledongthuc/pdf"
)

// Extraction is the textual form of a source file plus its declared
// media type.
type Extraction struct {
	Text string
	MIME string
}

var mimeByExtension = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// MIMEType maps a file extension (with or without the leading dot,
// any case) to its media type. Unknown extensions report
// application/octet-stream.
func MIMEType(extension string) string {
	ext := strings.ToLower(extension)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if mime, ok := mimeByExtension[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Extract reads path and produces its textual content. I/O errors on
// text files are returned as errors so callers can retry; parse
// failures on PDFs and images are folded into the text itself.
func Extract(path string) (Extraction, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extraction := Extraction{MIME: MIMEType(ext)}

	switch ext {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return Extraction{}, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
		}
		extraction.Text = string(data)
	case ".pdf":
		text, err := extractPDFText(path)
		if err != nil {
			extraction.Text = fmt.Sprintf("Error reading PDF: %v", err)
		} else {
			extraction.Text = text
		}
	case ".png", ".jpg", ".jpeg":
		extraction.Text = describeImage(path)
	default:
		extraction.Text = "[Unsupported file type]"
	}
	return extraction, nil
}

// extractPDFText pulls the plain text out of every page. The parser
// panics on some malformed documents, so a recover converts that into
// an ordinary error.
func extractPDFText(path string) (text string, err error) {
	defer func() {
		if panicValue := recover(); panicValue != nil {
			err = fmt.Errorf("malformed document: %v", panicValue)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buffer bytes.Buffer
	if _, err := buffer.ReadFrom(plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buffer.String()), nil
}

// describeImage renders a one-line marker with the image's format and
// pixel dimensions.
func describeImage(path string) string {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Sprintf("[Image error: %v]", err)
	}
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Sprintf("[Image error: %v]", err)
	}
	bounds := img.Bounds()
	return fmt.Sprintf("[Image file: %s %dx%d]", format, bounds.Dx(), bounds.Dy())
}
