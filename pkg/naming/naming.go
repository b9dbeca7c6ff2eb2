// Package naming normalizes free form names into Kubernetes object names.
package naming

import "strings"

// MaxLabelLength is the maximum length of an RFC 1123 label.
const MaxLabelLength = 63

// DNSLabel converts value to a lowercase alphanumeric string with hyphens as
// the only separator. Runs of other characters collapse into one hyphen,
// leading and trailing hyphens are trimmed and the result is cut to
// MaxLabelLength.
func DNSLabel(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return ""
	}

	var builder strings.Builder

	prevHyphen := false

	for _, char := range trimmed {
		switch {
		case (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9'):
			builder.WriteRune(char)

			prevHyphen = false
		case !prevHyphen:
			builder.WriteRune('-')

			prevHyphen = true
		}
	}

	label := strings.Trim(builder.String(), "-")
	if len(label) > MaxLabelLength {
		label = strings.TrimRight(label[:MaxLabelLength], "-")
	}

	return label
}
