package validator

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
)

var (
	ErrInvalidMobileNumber  = errors.New("invalid mobile number")
	ErrInvalidPassword      = errors.New("password must be 8-20 characters long, and include at least one number, one letter, and one special character")
	ErrInvalidPin           = errors.New("transaction pin must be exactly 4 digits")
	ErrInvalidAccountNumber = errors.New("invalid account number")
)

var (
	mobileRegex        = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	pinRegex           = regexp.MustCompile(`^[0-9]{4}$`)
	accountNumberRegex = regexp.MustCompile(`^[0-9]{10}$`)
	hasNumberRegex     = regexp.MustCompile(`[0-9]`)
	hasLetterRegex     = regexp.MustCompile(`[a-zA-Z]`)
	hasSpecialRegex    = regexp.MustCompile(`[!@#$%^&*(),.?\-_":{}|<>]`)
)

func ValidateMobileNumber(mobileNumber string) error {
	if !mobileRegex.MatchString(mobileNumber) {
		return ErrInvalidMobileNumber
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 || len(password) > 20 {
		return ErrInvalidPassword
	}
	if !hasNumberRegex.MatchString(password) || !hasLetterRegex.MatchString(password) || !hasSpecialRegex.MatchString(password) {
		return ErrInvalidPassword
	}
	return nil
}

func ValidatePin(pin string) error {
	if !pinRegex.MatchString(pin) {
		return ErrInvalidPin
	}
	return nil
}

// ValidateAccountNumber accepts customer account numbers only; system
// sentinel accounts use non-numeric identifiers and never appear in
// request payloads.
func ValidateAccountNumber(accountNumber string) error {
	if !accountNumberRegex.MatchString(accountNumber) {
		return ErrInvalidAccountNumber
	}
	return nil
}

// GenerateAccountNumber returns a random 10-digit NUBAN-style account
// number. Uniqueness is enforced by the accounts table constraint.
func GenerateAccountNumber() (string, error) {
	digits := make([]byte, 10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	if digits[0] == '0' {
		digits[0] = '1'
	}
	return string(digits), nil
}
