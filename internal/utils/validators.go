package utils

import (
	"regexp"
	"strings"
)

var (
	emailRe   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	digitRe   = regexp.MustCompile(`\d`)
	letterRe  = regexp.MustCompile(`[A-Za-z]`)
	phoneRe   = regexp.MustCompile(`^\+?7\d{10}$`)
	licenseRe = regexp.MustCompile(`^\d{10}$`)
)

func ValidateEmail(email string) bool {
	return len(email) <= 255 && emailRe.MatchString(email)
}

// ValidatePhone — российский формат +7XXXXXXXXXX; пробелы/скобки/дефисы игнорируем.
func ValidatePhone(phone string) bool {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return phoneRe.MatchString(r.Replace(phone))
}

// NormalizePhone приводит номер к каноническому виду +7XXXXXXXXXX.
func NormalizePhone(phone string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	p := r.Replace(phone)
	if strings.HasPrefix(p, "7") {
		p = "+" + p
	}
	return p
}

// ValidatePassword — минимум 8 символов, хотя бы одна буква и одна цифра.
func ValidatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "password must be at least 8 characters"
	}
	if len(password) > 128 {
		return false, "password is too long"
	}
	if !letterRe.MatchString(password) {
		return false, "password must contain at least one letter"
	}
	if !digitRe.MatchString(password) {
		return false, "password must contain at least one digit"
	}
	return true, ""
}

// ValidateINN — ИНН: 10 или 12 цифр.
func ValidateINN(inn string) bool {
	if len(inn) != 10 && len(inn) != 12 {
		return false
	}
	for _, c := range inn {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ValidateLicenseNumber — ВУ: серия 4 цифры + номер 6 цифр.
func ValidateLicenseNumber(num string) bool {
	return licenseRe.MatchString(num)
}

// SanitizeString — обрезает NUL-байты и пробелы, ограничивает длину.
func SanitizeString(value string, maxLength int) string {
	s := strings.TrimSpace(strings.ReplaceAll(value, "\x00", ""))
	if maxLength > 0 && len(s) > maxLength {
		s = s[:maxLength]
	}
	return s
}
