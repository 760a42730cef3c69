package client

import "strings"

// FilterCodes applies a free-text substring filter over the already-fetched
// page, matching code, productInfo.name and metadata.customerEmail. Both
// sides are trimmed and case-folded. A customerEmail that is not a string is
// skipped rather than stringified. An empty query returns the input as is.
func FilterCodes(codes []*ActivationCode, query string) []*ActivationCode {
	needle := fold(query)
	if needle == "" {
		return codes
	}

	var matched []*ActivationCode
	for _, c := range codes {
		if matchesQuery(c, needle) {
			matched = append(matched, c)
		}
	}
	return matched
}

func matchesQuery(c *ActivationCode, needle string) bool {
	if strings.Contains(fold(c.Code), needle) {
		return true
	}
	if c.ProductInfo != nil && strings.Contains(fold(c.ProductInfo.Name), needle) {
		return true
	}
	if email, ok := c.Metadata["customerEmail"].(string); ok {
		if strings.Contains(fold(email), needle) {
			return true
		}
	}
	return false
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
