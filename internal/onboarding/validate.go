package onboarding

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidateEmail checks the loose local@domain.tld shape. It does not parse RFC 5322
// addresses and never contacts mail servers.
func ValidateEmail(input string) (string, error) {
	email := strings.TrimSpace(input)
	if strings.Count(email, "@") != 1 {
		return "", invalid(FieldEmail, ReasonEmailShape)
	}
	local, domain, _ := strings.Cut(email, "@")
	if local == "" || domain == "" || !strings.Contains(domain, ".") {
		return "", invalid(FieldEmail, ReasonEmailShape)
	}
	return email, nil
}

// ValidateSecret enforces the minimum length in characters and, when requested,
// the presence of at least one letter and one digit. The value is kept verbatim.
func ValidateSecret(input string, minLen int, requireAlnum bool) (string, error) {
	if utf8.RuneCountInString(input) < minLen {
		return "", invalid(FieldSecret, ReasonTooShort)
	}
	if requireAlnum {
		var letter, digit bool
		for _, r := range input {
			switch {
			case unicode.IsLetter(r):
				letter = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		if !letter || !digit {
			return "", invalid(FieldSecret, ReasonWeak)
		}
	}
	return input, nil
}

// ValidateAge parses a base-10 integer. Values below minAge are a policy rejection,
// not a retryable validation error.
func ValidateAge(input string, minAge int) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, invalid(FieldAge, ReasonNotInteger)
	}
	if age < minAge {
		return age, rejected(FieldAge, ReasonUnderage)
	}
	return age, nil
}

// ValidateFreeText accepts any answer that is non-empty after trimming.
func ValidateFreeText(field, input string) (string, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return "", invalid(field, ReasonEmpty)
	}
	return text, nil
}

// PickLargestImage returns the variant with the most pixels, preferring the larger
// file when resolutions tie. Variants without a file id are ignored.
func PickLargestImage(variants []ImageVariant) (ImageVariant, error) {
	var (
		best  ImageVariant
		found bool
	)
	for _, v := range variants {
		if v.FileID == "" {
			continue
		}
		if !found || largerImage(v, best) {
			best = v
			found = true
		}
	}
	if !found {
		return ImageVariant{}, invalid(FieldPaymentProof, ReasonNoVariants)
	}
	return best, nil
}

func largerImage(a, b ImageVariant) bool {
	pa := int64(a.Width) * int64(a.Height)
	pb := int64(b.Width) * int64(b.Height)
	if pa != pb {
		return pa > pb
	}
	return a.FileSize > b.FileSize
}
