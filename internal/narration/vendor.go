package narration

// vendorMaxLen bounds the derived vendor label.
const vendorMaxLen = 40

// DeriveVendor picks a display vendor from a normalized description: the
// first token, truncated to 40 characters. Empty descriptions yield "".
func DeriveVendor(normalized string) string {
	if normalized == "" {
		return ""
	}
	vendor := normalized
	for i, r := range normalized {
		if r == ' ' {
			vendor = normalized[:i]
			break
		}
	}
	if len(vendor) > vendorMaxLen {
		vendor = vendor[:vendorMaxLen]
	}
	return vendor
}
