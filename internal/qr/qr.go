// Package qr renders PIX copy-paste payloads as QR images for providers
// that return only the text form of the charge.
package qr

import (
	"bytes"
	"encoding/base64"
	"errors"

	"github.com/yeqown/go-qrcode"
)

var ErrEmptyPayload = errors.New("qr payload is empty")

// EncodeBase64 renders the payload as a JPEG QR image and returns it
// base64-encoded, ready to embed in a JSON response.
func EncodeBase64(payload string) (string, error) {
	if payload == "" {
		return "", ErrEmptyPayload
	}
	qrc, err := qrcode.New(payload)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := qrc.SaveTo(&buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
