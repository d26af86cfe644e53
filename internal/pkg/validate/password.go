package validate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const minPasswordLength = 8

var commonPasswords = map[string]struct{}{ //nolint:gochecknoglobals
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "sunshine": {},
	"princess": {}, "football": {}, "baseball": {}, "welcome1": {}, "abc12345": {},
	"admin123": {}, "letmein1": {}, "trustno1": {}, "dragon123": {}, "monkey123": {},
	"superman": {}, "starwars": {}, "passw0rd": {}, "11111111": {}, "00000000": {},
	"qwerty12": {}, "1q2w3e4r": {}, "zaq12wsx": {}, "changeme": {}, "whatever": {},
}

// Attr is a user attribute a password must not resemble.
type Attr struct {
	Name  string
	Value string
}

// PasswordProblems returns the reasons password is too weak, or nil.
func PasswordProblems(password string, attrs ...Attr) []string {
	var problems []string

	lower := strings.ToLower(password)

	for _, a := range attrs {
		if similar(lower, a.Value) {
			problems = append(problems, fmt.Sprintf("The password is too similar to the %s.", a.Name))

			break
		}
	}

	if len([]rune(password)) < minPasswordLength {
		problems = append(problems,
			fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength))
	}

	if _, ok := commonPasswords[lower]; ok {
		problems = append(problems, "This password is too common.")
	}

	if isNumeric(password) {
		problems = append(problems, "This password is entirely numeric.")
	}

	return problems
}

// similar reports whether the password resembles the attribute or one of its
// word parts, by the share of characters the two have in common.
func similar(lowerPassword, attr string) bool {
	const maxSimilarity = 0.7

	attr = strings.ToLower(attr)
	if attr == "" {
		return false
	}

	parts := strings.FieldsFunc(attr, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	parts = append(parts, attr)

	pwLen := utf8.RuneCountInString(lowerPassword)

	for _, p := range parts {
		partLen := utf8.RuneCountInString(p)

		// a short part inside a much longer password is not a resemblance
		if pwLen >= 10*partLen && float64(partLen) < maxSimilarity/2*float64(pwLen) {
			continue
		}

		if commonRatio(lowerPassword, p) >= maxSimilarity {
			return true
		}
	}

	return false
}

// commonRatio is 2*M/T where M counts the characters a and b share, with
// multiplicity, and T is their total length.
func commonRatio(a, b string) float64 {
	counts := make(map[rune]int)
	for _, r := range b {
		counts[r]++
	}

	matches := 0

	for _, r := range a {
		if counts[r] > 0 {
			counts[r]--
			matches++
		}
	}

	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}

	return 2 * float64(matches) / float64(total)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}
