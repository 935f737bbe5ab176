package order

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

var keySpace = big.NewInt(10000)

// newDeliveryKey returns four uniformly random digits.
var newDeliveryKey = func() (string, error) {
	n, err := rand.Int(rand.Reader, keySpace)
	if err != nil {
		return "", fmt.Errorf("generate delivery key: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

func validKeyFormat(code string) bool {
	if len(code) != 4 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func deliveryKeyMatches(stored, supplied string) bool {
	if !validKeyFormat(supplied) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
