// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const defaultMimeType = "application/pdf"

// Document is an uploaded file awaiting analysis.
type Document struct {
	Name     string
	MimeType string
	Data     []byte
}

// Size returns the document size in bytes.
func (d Document) Size() int64 { return int64(len(d.Data)) }

// ErrEmptyFile is returned by DecodeFileData for blank input.
var ErrEmptyFile = errors.New("empty file data")

// DecodeFileData decodes raw base64 or a "data:<mime>;base64,<payload>"
// URL. The returned mime type is empty unless the data URL names one.
func DecodeFileData(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", ErrEmptyFile
	}

	var mime string
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", fmt.Errorf("malformed data URL: missing payload")
		}
		if !strings.HasSuffix(header, ";base64") {
			return nil, "", fmt.Errorf("unsupported data URL encoding %q", header)
		}
		mime = strings.TrimSuffix(header, ";base64")
		s = payload
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Some callers strip padding.
		if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
			return raw, mime, nil
		}
		return nil, "", fmt.Errorf("decoding file data: %w", err)
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyFile
	}
	return data, mime, nil
}
