package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the 10 rounds the account store has always used.
const DefaultCost = 10

// ErrPasswordTooLong is returned for passwords bcrypt cannot hash (over 72 bytes).
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// HashPassword returns a salted bcrypt hash of plain.  A cost of zero
// selects DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ErrMismatch is returned by CheckPassword when plain does not match hash.
var ErrMismatch = errors.New("password mismatch")

// CheckPassword compares hash and plain.  It returns ErrMismatch for a
// wrong password and any other error for a malformed hash.
func CheckPassword(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
