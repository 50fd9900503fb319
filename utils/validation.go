// utils/validation.go
package utils

import (
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern = regexp.MustCompile(`^\+?\d{6,15}$`)

	validate     *validator.Validate
	validateOnce sync.Once
)

// CleanPhone strips the separators people type into phone numbers.
func CleanPhone(phone string) string {
	cleaned := strings.TrimSpace(phone)
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	return cleaned
}

// ValidatePhone accepts local numbers with a leading zero as well as
// international ones with a + prefix: 6 to 15 digits once separators are
// removed.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(CleanPhone(phone))
}

func ValidateEmail(email string) bool {
	validateOnce.Do(func() { validate = validator.New() })
	return validate.Var(email, "required,email") == nil
}
