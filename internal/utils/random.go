package utils

import (
	"crypto/rand"
	"errors"
)

const alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// RefreshTokenLength is the number of characters in an opaque refresh token.
const RefreshTokenLength = 21

// RandomString returns n characters drawn uniformly from [0-9A-Za-z].
func RandomString(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("length must be positive")
	}

	// Bytes at or above maxByte are rejected so every character is equally likely.
	const maxByte = 256 - (256 % len(alphanumeric))

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			out = append(out, alphanumeric[int(b)%len(alphanumeric)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// NewRefreshToken returns a fresh opaque refresh token value.
func NewRefreshToken() (string, error) {
	return RandomString(RefreshTokenLength)
}
