package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
)

var (
	// Single @, at least one dot in the domain part.
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// E.164: leading + followed by 10-15 digits.
	phonePattern = regexp.MustCompile(`^\+[0-9]{10,15}$`)
)

// ValidationError reports missing or malformed generation input. Callers must
// not retry without fixing the input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func validEmail(s string) bool {
	return emailPattern.MatchString(s)
}

func validPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// generateCode draws a uniformly random code in 100000-999999, so codes are
// always six digits with no leading zero.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return n.Add(n, big.NewInt(100000)).String(), nil
}
