package chat

import (
	"regexp"
	"strings"
)

// knownProducts maps SKUs the community role names track to their
// human-readable product names.
var knownProducts = map[string]string{
	"uvc-g6-180":       "G6 180",
	"uvc-g6-pro-entry": "G6 Pro Entry",
	"utr":              "UniFi Travel Router",
}

// ExtractProductName derives a display name for an alert from the mentioned
// role and the message text. The role name doubles as the SKU; the message
// often carries a friendlier label in "Name (SKU)" or "Name - SKU" form.
// Falls back to the role name when nothing matches.
func ExtractProductName(roleName, content string) string {
	if name, ok := knownProducts[strings.ToLower(roleName)]; ok {
		return name
	}

	quoted := regexp.QuoteMeta(roleName)
	patterns := []string{
		`(?i)([^(@\n]+?)\s*\(` + quoted + `\)`,
		`(?i)([^-\n]+?)\s*-\s*` + quoted,
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		if m := re.FindStringSubmatch(content); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	return roleName
}
