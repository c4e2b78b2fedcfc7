package narration

import "strings"

// patternKeyMaxTokens is how many surviving description tokens make up a key.
const patternKeyMaxTokens = 3

// patternKeyFallbackLen bounds the raw-prefix fallback key.
const patternKeyFallbackLen = 50

// PatternKey derives the grouping key used to cluster similar transactions
// during rule learning. A meaningful vendor string is the key verbatim;
// otherwise the first three description tokens that survive the keyword
// filter are joined with single spaces. When nothing survives, the key falls
// back to the first 50 characters of the upper-cased description. Pattern
// keys are never persisted; they exist only to group a learning batch.
func PatternKey(normalized, vendorText string) string {
	if vendor := CleanVendor(vendorText); vendor != "" {
		return vendor
	}

	var keyWords []string
	for _, word := range strings.Fields(strings.ToUpper(normalized)) {
		if !keepToken(word) {
			continue
		}
		keyWords = append(keyWords, word)
		if len(keyWords) == patternKeyMaxTokens {
			break
		}
	}

	if len(keyWords) > 0 {
		return strings.Join(keyWords, " ")
	}

	upper := strings.ToUpper(normalized)
	if len(upper) > patternKeyFallbackLen {
		upper = upper[:patternKeyFallbackLen]
	}
	return upper
}
