package user

import (
	"crypto/rand"
	"math/big"
)

const GeneratedPasswordLength = 12

var (
	lowerChars   = "abcdefghijkmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars   = "23456789"
	symbolChars  = "!#$%&*+-=?@_"
	passwordPool = lowerChars + upperChars + digitChars + symbolChars
)

// GeneratePassword returns a random password of `length` characters drawn from crypto/rand.
// It always contains at least one lowercase, uppercase, digit & symbol character (length >= 4).
func GeneratePassword(length int) (string, error) {
	if length < 4 {
		length = 4
	}
	pwd := make([]byte, 0, length)
	for _, set := range []string{lowerChars, upperChars, digitChars, symbolChars} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		pwd = append(pwd, c)
	}
	for len(pwd) < length {
		c, err := randomChar(passwordPool)
		if err != nil {
			return "", err
		}
		pwd = append(pwd, c)
	}

	// shuffle so the guaranteed classes are not always up front
	for i := len(pwd) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := int(n.Int64())
		pwd[i], pwd[j] = pwd[j], pwd[i]
	}
	return string(pwd), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}
