package validator

import (
	"net/url"
	"strings"
	"unicode"
)

// ValidateURL validates if the URL is a valid video URL. An empty domain list
// accepts any host.
func ValidateURL(videoURL string, allowedDomains []string) bool {
	u, err := url.Parse(videoURL)
	if err != nil || u.Host == "" {
		return false
	}

	if len(allowedDomains) == 0 {
		return true
	}

	host := u.Host
	if strings.HasPrefix(host, "www.") {
		host = host[4:]
	}
	host = strings.ToLower(host)

	for _, domain := range allowedDomains {
		cleanDomain := strings.ToLower(strings.TrimSpace(domain))
		if len(cleanDomain) == 0 {
			continue
		}
		if host == cleanDomain || strings.HasSuffix(host, "."+cleanDomain) {
			return true
		}
	}

	return false
}

// ValidateFormatID validates format ID
func ValidateFormatID(formatID string) bool {
	if len(formatID) == 0 || len(formatID) > 50 {
		return false
	}
	return true
}

// SanitizeFilename removes characters that are invalid in filenames.
func SanitizeFilename(filename string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/*?:"<>|`, r) {
			return -1
		}
		return r
	}, filename)
}

// SanitizeTitle maps an arbitrary title to a filesystem-safe base name.
// Beyond the reserved-character removal it spells out "+" and "&", drops
// apostrophes and anything outside [alphanumeric, whitespace, '.', '-'], and
// collapses whitespace runs. Idempotent.
func SanitizeTitle(title string) string {
	s := SanitizeFilename(title)
	s = strings.ReplaceAll(s, "+", " plus ")
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)

	return strings.Join(strings.Fields(s), " ")
}
