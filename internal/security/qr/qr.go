// Package qr renderiza URIs de enrolamiento como imágenes PNG.
package qr

import (
	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize es el lado en píxeles del PNG generado.
const DefaultSize = 256

// PNG codifica la URI como QR y devuelve los bytes del PNG.
func PNG(uri string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(uri, qrcode.Medium, size)
}
