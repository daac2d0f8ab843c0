package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	withSymbols  = alphanumeric + "!@#$%^&*()[]{};':\",./<>?`"
)

// MakeToken returns a random string of the given length drawn from a fixed
// alphabet. Session tokens use the alphanumeric set; generated passwords
// additionally draw from symbols. The randomness source is crypto/rand.
func MakeToken(length int, useSymbols bool) (string, error) {
	charset := alphanumeric
	if useSymbols {
		charset = withSymbols
	}

	out := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}
