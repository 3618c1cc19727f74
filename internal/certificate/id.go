package certificate

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// NewID returns 16 uppercase hex characters from 8 random bytes.
func NewID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b[:])), nil
}

func blobKey(id string) string {
	return "certificates/" + id + ".pdf"
}
