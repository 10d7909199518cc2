package common

import (
	"encoding/hex"
	"io"
)

// RandomHex reads n bytes from r and returns them as 2n lowercase hex characters.
func RandomHex(r io.Reader, n int) (string, error) {
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
