package qr

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestEncodeBase64(t *testing.T) {
	encoded, err := EncodeBase64("00020126580014br.gov.bcb.pix")
	if err != nil {
		t.Fatalf("EncodeBase64: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("output is not valid base64: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("empty image")
	}
}

func TestEncodeBase64Empty(t *testing.T) {
	if _, err := EncodeBase64(""); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}
