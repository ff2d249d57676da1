package utils

import (
	"crypto/rand"
	"math/big"
)

// SlugAlphabet is the URL-safe alphabet generated slugs are drawn from.
const SlugAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

var alphabetSize = big.NewInt(int64(len(SlugAlphabet)))

// GenerateSlug returns a random slug of the given length.
func GenerateSlug(length int) string {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			// crypto/rand does not fail on supported platforms.
			panic(err)
		}
		b[i] = SlugAlphabet[n.Int64()]
	}
	return string(b)
}

// IsSlugChar reports whether r belongs to SlugAlphabet.
func IsSlugChar(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}

// ValidSlug reports whether s is non-empty, at most maxLen long and made
// only of SlugAlphabet characters.
func ValidSlug(s string, maxLen int) bool {
	if s == "" || len(s) > maxLen {
		return false
	}
	for _, r := range s {
		if !IsSlugChar(r) {
			return false
		}
	}
	return true
}
