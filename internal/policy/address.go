package policy

import "strings"

// ExtractEmail pulls the address out of a free-form sender string. The
// "Display Name <user@example.com>" form yields the bracketed part; any other
// input is used whole. The result is trimmed and lowercased.
func ExtractEmail(sender string) string {
	if open := strings.IndexByte(sender, '<'); open >= 0 {
		if end := strings.IndexByte(sender[open+1:], '>'); end > 0 {
			return strings.ToLower(strings.TrimSpace(sender[open+1 : open+1+end]))
		}
	}
	return strings.ToLower(strings.TrimSpace(sender))
}

// ExtractDomain returns everything after the first '@', or "" when there is
// none.
func ExtractDomain(email string) string {
	if at := strings.IndexByte(email, '@'); at >= 0 {
		return email[at+1:]
	}
	return ""
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), value) {
			return true
		}
	}
	return false
}
