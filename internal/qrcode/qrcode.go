// Package qrcode validates the 17 character item codes printed on labels.
package qrcode

import (
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
)

const Length = 17

// Normalize trims and upper-cases code and checks it is exactly 17 ASCII
// letters or digits.
func Normalize(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != Length {
		return "", apperr.InvalidRequest("QR code must have exactly %d characters, got %d", Length, len(c))
	}
	for i := 0; i < len(c); i++ {
		ch := c[i]
		if (ch < 'A' || ch > 'Z') && (ch < '0' || ch > '9') {
			return "", apperr.InvalidRequest("QR code must be alphanumeric, found %q at position %d", ch, i+1)
		}
	}
	return c, nil
}

func Valid(code string) bool {
	_, err := Normalize(code)
	return err == nil
}
