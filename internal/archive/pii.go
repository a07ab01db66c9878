package archive

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode"
)

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone keeps digits only and drops a leading US country code.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits
}

// HashContact returns the hex SHA-256 of a normalized email or phone, so
// keys and archives can correlate visitors without storing the raw value.
func HashContact(value string) string {
	h := sha256.Sum256([]byte(value))
	return fmt.Sprintf("%x", h)
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	email = NormalizeEmail(email)
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "[EMAIL]"
	}
	return email[:1] + "***" + email[at:]
}

// MaskPhone keeps the last four digits.
func MaskPhone(phone string) string {
	digits := NormalizePhone(phone)
	if len(digits) < 4 {
		return "[PHONE]"
	}
	return "***" + digits[len(digits)-4:]
}
