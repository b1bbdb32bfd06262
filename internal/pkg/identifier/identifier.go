package identifier

import (
	"regexp"
	"strings"
)

// IDNumberLength is the length of a normalized CPF
const IDNumberLength = 11

var (
	nonDigit       = regexp.MustCompile(`\D`)
	activationCode = regexp.MustCompile(`^\d{6}$`)
)

// NormalizeIDNumber strips every non-digit character.
// No length enforcement happens here, see IsValidIDNumber.
func NormalizeIDNumber(raw string) string {
	return nonDigit.ReplaceAllString(raw, "")
}

// IsValidIDNumber reports whether raw normalizes to exactly 11 digits
func IsValidIDNumber(raw string) bool {
	return len(NormalizeIDNumber(raw)) == IDNumberLength
}

// IsValidActivationCode reports whether raw is a 6-digit numeric code
func IsValidActivationCode(raw string) bool {
	return activationCode.MatchString(raw)
}

// FormatIDNumber renders a CPF in the conventional 000.000.000-00 layout.
// Inputs that do not normalize to 11 digits are returned normalized but unformatted.
func FormatIDNumber(raw string) string {
	d := NormalizeIDNumber(raw)
	if len(d) != IDNumberLength {
		return d
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

// IDNumberVariants returns the normalized and formatted forms of raw,
// the two spellings sale rows are known to be stored with.
func IDNumberVariants(raw string) []string {
	normalized := NormalizeIDNumber(raw)
	if normalized == "" {
		return nil
	}
	formatted := FormatIDNumber(normalized)
	if formatted == normalized {
		return []string{normalized}
	}
	return []string{normalized, formatted}
}

// MaskIDNumber keeps only the last four digits, for logs
func MaskIDNumber(raw string) string {
	d := NormalizeIDNumber(raw)
	if len(d) <= 4 {
		return strings.Repeat("*", len(d))
	}
	return strings.Repeat("*", len(d)-4) + d[len(d)-4:]
}

// SameIDNumber compares two ID numbers after normalization.
// Two empty values never match.
func SameIDNumber(a, b string) bool {
	na, nb := NormalizeIDNumber(a), NormalizeIDNumber(b)
	return na != "" && na == nb
}
