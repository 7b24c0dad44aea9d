package store

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	passwordMinRunes = 8
	passwordMaxRunes = 20
	// bcrypt ignores everything past 72 bytes.
	passwordMaxBytes = 72
	nicknameMaxRunes = 10
)

var validate = validator.New()

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ValidationError("email is required")
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return "", ValidationError("email is malformed")
	}
	return email, nil
}

func checkPassword(password, confirm string) error {
	if password == "" {
		return ValidationError("password is required")
	}
	n := utf8.RuneCountInString(password)
	if n < passwordMinRunes || n > passwordMaxRunes {
		return ValidationError("password must be %d to %d characters", passwordMinRunes, passwordMaxRunes)
	}
	if len(password) > passwordMaxBytes {
		return ValidationError("password must be at most %d bytes", passwordMaxBytes)
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSpace(r):
		case !unicode.IsLetter(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return ValidationError("password needs an upper-case letter, a lower-case letter, a digit and a special character")
	}
	if password != confirm {
		return ValidationError("passwords do not match")
	}
	return nil
}

func checkNickname(nickname string) error {
	if nickname == "" {
		return ValidationError("nickname is required")
	}
	if strings.IndexFunc(nickname, unicode.IsSpace) >= 0 {
		return ValidationError("nickname must not contain whitespace")
	}
	if utf8.RuneCountInString(nickname) > nicknameMaxRunes {
		return ValidationError("nickname must be at most %d characters", nicknameMaxRunes)
	}
	return nil
}
