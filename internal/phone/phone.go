// Package phone converts between the registry's full international numbers
// and the local digits users type into forms.
package phone

import (
	"strings"
)

// DefaultCountryCode is Ecuador's calling code.
const DefaultCountryCode = "+593"

// Clean drops every character that is not a digit or '+'.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Strip removes countryCode from the front of full, with or without its
// leading '+'. When the code is absent a bare leading '+' is dropped.
func Strip(full, countryCode string) string {
	cleaned := Clean(full)
	if cleaned == "" {
		return ""
	}

	digits := strings.TrimPrefix(Clean(countryCode), "+")
	if digits != "" {
		if rest, ok := strings.CutPrefix(cleaned, "+"+digits); ok {
			return rest
		}
		if rest, ok := strings.CutPrefix(cleaned, digits); ok {
			return rest
		}
	}
	return strings.TrimPrefix(cleaned, "+")
}

// Assemble joins a country code and local digits with no separator.
func Assemble(countryCode, local string) string {
	return strings.TrimSpace(countryCode) + strings.TrimSpace(local)
}

// AssembleWhatsApp assembles the WhatsApp number only when the business
// takes WhatsApp orders; otherwise the number is cleared.
func AssembleWhatsApp(optIn bool, countryCode, local string) string {
	if !optIn || strings.TrimSpace(local) == "" {
		return ""
	}
	return Assemble(countryCode, local)
}

// IsValidLocal reports whether local is a valid Ecuadorian number without
// the country code: nine digits starting with 2-7 or 9.
func IsValidLocal(local string) bool {
	if len(local) != 9 {
		return false
	}
	for i := 0; i < len(local); i++ {
		if local[i] < '0' || local[i] > '9' {
			return false
		}
	}
	switch local[0] {
	case '2', '3', '4', '5', '6', '7', '9':
		return true
	}
	return false
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
