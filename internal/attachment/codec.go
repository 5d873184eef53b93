// Package attachment classifies the dual-use message field. A message string
// carries either prose or a base64-encoded image; there is no separate
// attachment field or content-type marker on the wire, so the kind must be
// recomputed from the payload bytes on every read.
package attachment

import (
	"bytes"
	"encoding/base64"
	"io"

	util "github.com/mfrelance/workflow-service/pkg/util"
)

// Kind is the derived classification of a message payload.
type Kind string

const (
	KindText Kind = "text"
	KindPNG  Kind = "png"
	KindJPEG Kind = "jpeg"
	KindGIF  Kind = "gif"
)

var (
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	gif87a    = []byte("GIF87a")
	gif89a    = []byte("GIF89a")
)

// Classify derives the payload kind. Strict base64 decoding is attempted
// first; anything that fails to decode is text. Decoded bytes are matched
// against the PNG, JPEG and GIF signatures; valid base64 without a match is
// still treated as plain text, not as decoded bytes.
func Classify(payload string) Kind {
	decoded, err := base64.StdEncoding.Strict().DecodeString(payload)
	if err != nil {
		return KindText
	}
	switch {
	case bytes.HasPrefix(decoded, pngMagic):
		return KindPNG
	case bytes.HasPrefix(decoded, jpegMagic):
		return KindJPEG
	case bytes.HasPrefix(decoded, gif87a), bytes.HasPrefix(decoded, gif89a):
		return KindGIF
	}
	return KindText
}

// IsImage reports whether the kind is one of the embedded image formats.
func (k Kind) IsImage() bool {
	return k == KindPNG || k == KindJPEG || k == KindGIF
}

// EncodeUpload reads an uploaded file fully into memory and returns its
// base64 encoding. Reads past maxBytes fail fast with PAYLOAD_TOO_LARGE
// instead of succeeding with a truncated encode.
func EncodeUpload(r io.Reader, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		return "", util.NewValidationError("upload limit not configured", nil)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", util.NewValidationError("failed to read upload", nil)
	}
	if int64(len(data)) > maxBytes {
		return "", util.NewPayloadTooLarge(maxBytes)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
