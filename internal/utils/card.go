package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// CardValidityYears is how long a freshly issued card stays valid.
const CardValidityYears = 3

// GenerateCardNumber generates a Luhn-valid card number with the specified
// prefix and length.
func GenerateCardNumber(prefix string, length int) (string, error) {
	if length <= len(prefix) || length > 19 {
		return "", fmt.Errorf("invalid card number length: %d", length)
	}

	// Random body, last position reserved for the check digit
	body := make([]byte, length-len(prefix)-1)
	if _, err := rand.Read(body); err != nil {
		return "", fmt.Errorf("failed to generate random digits: %w", err)
	}

	var builder strings.Builder
	builder.WriteString(prefix)
	for _, b := range body {
		builder.WriteByte(b%10 + '0')
	}
	partial := builder.String()
	builder.WriteByte(luhnCheckDigit(partial) + '0')

	return builder.String(), nil
}

// luhnCheckDigit computes the Luhn check digit for the given partial number.
func luhnCheckDigit(partial string) byte {
	sum := 0
	// Positions are counted from the right of the full number, so the
	// digit adjacent to the check digit is doubled.
	double := true
	for i := len(partial) - 1; i >= 0; i-- {
		d := int(partial[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return byte((10 - sum%10) % 10)
}

// ValidLuhn reports whether the number passes the Luhn checksum.
func ValidLuhn(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		if number[i] < '0' || number[i] > '9' {
			return false
		}
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// GenerateCVV generates a 3-digit CVV code
func GenerateCVV() string {
	b := make([]byte, 3)
	rand.Read(b)
	return fmt.Sprintf("%03d", (int(b[0])%10)*100+(int(b[1])%10)*10+int(b[2])%10)
}

// ExpiryDate returns the expiry date of a card issued now: the last day of
// the month, CardValidityYears out.
func ExpiryDate(now time.Time) time.Time {
	future := now.AddDate(CardValidityYears, 0, 0)
	firstOfNext := time.Date(future.Year(), future.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}
