package game

import (
	"strings"
	"unicode/utf8"
)

const (
	CodeLength    = 6
	MaxNameLength = 16
)

// ValidateCode accepts six decimal digits without a leading zero.
func ValidateCode(code string) error {
	if len(code) != CodeLength || code[0] == '0' {
		return ErrInvalidCode
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return ErrInvalidCode
		}
	}
	return nil
}

// NormalizeName trims the name and checks its length in glyphs.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || !utf8.ValidString(name) || utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}
