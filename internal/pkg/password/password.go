package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const minLength = 8

var ErrTooShort = errors.New("password must be at least 8 characters")

// Hash rejects short passwords before hashing; the useradd command is the only
// place accounts are created, so this is the single enforcement point.
func Hash(plain string) (string, error) {
	if len(plain) < minLength {
		return "", ErrTooShort
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
