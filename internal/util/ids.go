package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idLength = 21

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-"

// NewID returns a fresh opaque node id.
func NewID() (string, error) {
	return gonanoid.Generate(idAlphabet, idLength)
}

// IsID reports whether s looks like an id produced by NewID. Ceremony
// category ids carry a "-c<n>" suffix and are accepted too.
func IsID(s string) bool {
	if len(s) < idLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIDChar(s[i]) {
			return false
		}
	}
	return true
}

func isIDChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_' || c == '-'
}
