// Package qr renders exit-pass payloads as QR images for the approval email.
// The JSON payload itself is stored on the request; the image is derived on
// demand and never persisted.
package qr

import qrcode "github.com/skip2/go-qrcode"

type Encoder interface {
	EncodePNG(payload string) ([]byte, error)
}

type encoder struct {
	size int
}

func NewEncoder() Encoder {
	return &encoder{size: 256}
}

func (e *encoder) EncodePNG(payload string) ([]byte, error) {
	return qrcode.Encode(payload, qrcode.Medium, e.size)
}
