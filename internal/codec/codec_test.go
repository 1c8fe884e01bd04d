// Package codec provides tests for record encoding and decoding.
package codec

import (
	"errors"
	"testing"

	"github.com/cliphaven/cliphaven-go/internal/model"
)

// TestEncodeDecodeRoundTrip tests that a record survives the text encoding.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := model.Identity{
		Email:     "ann@example.com",
		Name:      "Ann",
		IsPremium: true,
	}

	raw, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	out, err := Decode[model.Identity](raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if out.Email != in.Email || out.Name != in.Name || out.IsPremium != in.IsPremium {
		t.Errorf("Decode() = %+v, want %+v", out, in)
	}
}

// TestDecodeMalformed tests that garbage blobs yield ErrMalformed.
func TestDecodeMalformed(t *testing.T) {
	_, err := Decode[model.Identity]("{not json")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Decode() error = %v, want ErrMalformed", err)
	}

	// Valid JSON of the wrong shape is also malformed.
	_, err = DecodeList[model.Identity](`{"email":"x"}`)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("DecodeList() error = %v, want ErrMalformed", err)
	}
}

// TestEncodeListNil tests that a nil collection encodes as an empty sequence.
func TestEncodeListNil(t *testing.T) {
	raw, err := EncodeList[model.Identity](nil)
	if err != nil {
		t.Fatalf("EncodeList() error = %v", err)
	}
	if raw != "[]" {
		t.Errorf("EncodeList(nil) = %q, want %q", raw, "[]")
	}

	items, err := DecodeList[model.Identity](raw)
	if err != nil {
		t.Fatalf("DecodeList() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("DecodeList() returned %d items, want 0", len(items))
	}
}
