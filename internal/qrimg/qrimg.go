// Package qrimg renders session tokens as QR code images.
package qrimg

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

const defaultSize = 300

// PNG encodes the token string into a PNG QR code of size pixels.
func PNG(token string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultSize
	}
	return qrcode.Encode(token, qrcode.Medium, size)
}

// DataURL returns the QR code as a data URL, ready to drop into an <img> tag.
func DataURL(token string, size int) (string, error) {
	png, err := PNG(token, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
