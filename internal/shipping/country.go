package shipping

import "strings"

var countryCodes = map[string]string{
	"united states":  "US",
	"canada":         "CA",
	"united kingdom": "GB",
	"australia":      "AU",
	"germany":        "DE",
	"france":         "FR",
	"japan":          "JP",
}

// CountryCode maps a checkout form country name to its ISO code. Two-letter
// input is passed through upper-cased; unknown names map to US.
func CountryCode(name string) string {
	trimmed := strings.TrimSpace(name)
	if code, ok := countryCodes[strings.ToLower(trimmed)]; ok {
		return code
	}
	if len(trimmed) == 2 {
		return strings.ToUpper(trimmed)
	}
	return "US"
}
