package utils

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidPhone is returned when a number cannot be normalized to E.164
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizeE164 strips formatting characters and returns the number in
// E.164 form. Bare 10-digit numbers are assumed to be US/Canada (+1).
func NormalizeE164(phone string) (string, error) {
	var digits strings.Builder
	hasPlus := false
	for i, r := range phone {
		switch {
		case r == '+' && i == 0:
			hasPlus = true
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// formatting, skip
		default:
			return "", ErrInvalidPhone
		}
	}

	d := digits.String()
	switch {
	case hasPlus && len(d) >= 8 && len(d) <= 15:
		return "+" + d, nil
	case !hasPlus && len(d) == 10:
		return "+1" + d, nil
	case !hasPlus && len(d) == 11 && d[0] == '1':
		return "+" + d, nil
	default:
		return "", ErrInvalidPhone
	}
}
