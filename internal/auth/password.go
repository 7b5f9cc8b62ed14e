package auth

import (
	"strings"
	"unicode"

	"golang.org/x/text/secure/precis"

	"github.com/ClassTrack/CT-Backend/internal/api"
)

// NormalizeEmail lowercases and case-folds an email for the case-insensitive
// unique lookup. PRECIS handles non-ASCII identifiers; plain lowering is the
// fallback for input the profile rejects.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if mapped, err := precis.UsernameCaseMapped.String(email); err == nil {
		return mapped
	}
	return strings.ToLower(email)
}

const minPasswordLength = 8

// commonPasswords is a short deny-list of the passwords seen most in breach
// corpora. Matched case-insensitively.
var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "passw0rd": {},
	"12345678": {}, "123456789": {}, "1234567890": {}, "87654321": {},
	"qwerty123": {}, "qwertyuiop": {}, "1q2w3e4r": {}, "q1w2e3r4": {},
	"iloveyou": {}, "sunshine": {}, "princess": {}, "football": {},
	"baseball": {}, "superman": {}, "trustno1": {}, "welcome1": {},
	"dragon123": {}, "letmein1": {}, "whatever": {}, "asdfghjkl": {},
	"changeme": {}, "computer": {}, "internet": {}, "11111111": {},
}

// ValidatePassword runs the password policy and returns every violated
// rule. The user may be nil (signup before the record exists uses the
// submitted attributes instead).
func ValidatePassword(password string, u *User) []api.FieldError {
	var errs []api.FieldError

	if len(password) < minPasswordLength {
		errs = append(errs, api.FieldError{
			Attr:   "password",
			Detail: "This password is too short. It must contain at least 8 characters.",
		})
	}

	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		errs = append(errs, api.FieldError{
			Attr:   "password",
			Detail: "This password is too common.",
		})
	}

	if isNumericOnly(password) {
		errs = append(errs, api.FieldError{
			Attr:   "password",
			Detail: "This password is entirely numeric.",
		})
	}

	if u != nil && similarToUser(password, u) {
		errs = append(errs, api.FieldError{
			Attr:   "password",
			Detail: "The password is too similar to your personal information.",
		})
	}

	return errs
}

func isNumericOnly(s string) bool {
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

// similarToUser flags passwords that contain, or are contained in, the
// user's email local part or names.
func similarToUser(password string, u *User) bool {
	lowered := strings.ToLower(password)

	attrs := []string{u.FirstName, u.LastName}
	if local, _, ok := strings.Cut(u.Email, "@"); ok {
		attrs = append(attrs, local)
	} else {
		attrs = append(attrs, u.Email)
	}

	for _, attr := range attrs {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if len(attr) < 4 {
			continue
		}
		if strings.Contains(lowered, attr) || strings.Contains(attr, lowered) {
			return true
		}
	}
	return false
}

// validatePasswordPair collects the confirm-match check and the policy
// checks into one error list, mismatch first.
func validatePasswordPair(password, confirm string, u *User) []api.FieldError {
	var errs []api.FieldError
	if password != confirm {
		errs = append(errs, api.FieldError{
			Attr:   "password_confirm",
			Detail: "Passwords mismatch",
		})
	}
	return append(errs, ValidatePassword(password, u)...)
}
