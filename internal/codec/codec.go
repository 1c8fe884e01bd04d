// internal/codec/codec.go
// Package codec serializes typed records to and from the UTF-8 text blobs
// held in the key-value store. Decoding failures are reported as
// ErrMalformed so callers can isolate corrupt slots instead of crashing.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned when a stored blob fails to decode. The
// collection store absorbs it (treating the slot as empty) after logging;
// it is never propagated as a fatal error.
var ErrMalformed = errors.New("malformed record")

// Encode serializes a value to the store's text encoding.
func Encode[T any](v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}
	return string(b), nil
}

// Decode parses a stored blob into a value of type T. A blob that is not
// valid JSON for T yields ErrMalformed.
func Decode[T any](raw string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

// EncodeList serializes a collection. A nil slice encodes as an empty
// sequence so readers never see null.
func EncodeList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	return Encode(items)
}

// DecodeList parses a stored collection blob.
func DecodeList[T any](raw string) ([]T, error) {
	return Decode[[]T](raw)
}
