package phone

import (
	"fmt"

	"github.com/nyaruka/phonenumbers"

	"github.com/prospectra/leadcrm/pkg/fingerprint"
)

// defaultRegion is the parsing hint for numbers without a country prefix.
const defaultRegion = "US"

// IsPlausible reports whether the value looks like a dialable phone number.
// Numbers the library can parse are judged by its validity rules; numbers it
// cannot parse still count when they carry enough digits, since scraped
// listings frequently hold unparseable-but-real local formats.
func IsPlausible(raw string) bool {
	if len(fingerprint.Digits(raw)) < fingerprint.MinPhoneDigits {
		return false
	}

	parsed, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return true
	}
	return phonenumbers.IsPossibleNumber(parsed)
}

// Normalize formats a phone number as E.164 when the library can parse and
// validate it, and returns an error otherwise.
func Normalize(raw, countryCode string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("phone number cannot be empty")
	}

	if countryCode == "" {
		countryCode = defaultRegion
	}

	parsed, err := phonenumbers.Parse(raw, countryCode)
	if err != nil {
		return "", fmt.Errorf("failed to parse phone number: %w", err)
	}

	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("invalid phone number")
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
