package narration

import (
	"strings"
	"unicode"
)

// stopWords are tokens too generic to identify a counterparty.
var stopWords = map[string]struct{}{
	"THE": {}, "AND": {}, "FOR": {}, "WITH": {}, "FROM": {}, "TO": {},
	"OF": {}, "IN": {}, "ON": {}, "AT": {}, "BY": {},
	"PAYMENT": {}, "TRANSFER": {}, "NEFT": {}, "IMPS": {}, "ACH": {},
	"UPI": {}, "POS": {}, "DR": {}, "CR": {},
}

// genericVendorTokens are transaction-type markers that banks sometimes put
// in the vendor field; they carry no counterparty information.
var genericVendorTokens = map[string]struct{}{
	"ACH": {}, "NEFT": {}, "IMPS": {}, "UPI": {}, "POS": {}, "DR": {}, "CR": {},
}

// ExtractKeywords derives the set of candidate keyword tokens from a
// normalized description plus an optional vendor string. Tokens are
// upper-cased; a description token survives only if it is at least three
// characters, purely alphanumeric, not purely numeric, and not a stop word.
// A meaningful vendor string is appended as-is without the token filter.
// The returned slice has no duplicates; order follows first appearance.
func ExtractKeywords(normalized, vendorText string) []string {
	var keywords []string
	seen := make(map[string]struct{})

	for _, word := range strings.Fields(strings.ToUpper(normalized)) {
		if !keepToken(word) {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	if vendor := CleanVendor(vendorText); vendor != "" {
		if _, dup := seen[vendor]; !dup {
			keywords = append(keywords, vendor)
		}
	}

	return keywords
}

// CleanVendor upper-cases and trims a vendor string, returning "" when it is
// too short or is a generic transaction-type token.
func CleanVendor(vendorText string) string {
	vendor := strings.ToUpper(strings.TrimSpace(vendorText))
	if len(vendor) < 3 {
		return ""
	}
	if _, generic := genericVendorTokens[vendor]; generic {
		return ""
	}
	return vendor
}

// keepToken applies the keyword filter to a single upper-cased token.
func keepToken(word string) bool {
	if len(word) < 3 {
		return false
	}
	if _, stop := stopWords[word]; stop {
		return false
	}
	if !isAlnum(word) {
		return false
	}
	return !isDigits(word)
}

func isAlnum(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
