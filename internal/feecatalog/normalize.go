package feecatalog

import "strings"

// NormalizeIssuer canonicalizes known aliases of the same issuer to one
// name. The POS log and the settlement batch romanize and suffix issuer
// names inconsistently ("BC Card" vs "비씨카드", "Kookmin" vs "KB").
// Unknown names pass through with only the suffix stripped.
func NormalizeIssuer(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}

	// BC appears as "BC", "BC Card" and the hangul "비씨" spelling.
	if strings.Contains(n, "BC") || strings.Contains(n, "비씨") {
		return "BC"
	}

	// Kookmin is KB's retail brand; the batch uses both.
	if strings.Contains(n, "국민") || strings.Contains(strings.ToLower(n), "kookmin") {
		return "KB"
	}

	n = strings.TrimSuffix(n, "카드")
	n = strings.TrimSuffix(n, " Card")
	n = strings.TrimSuffix(n, "Card")
	return strings.TrimSpace(n)
}
