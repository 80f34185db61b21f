// Package device derives a coarse, non-identifying device summary from the
// User-Agent header for inclusion in audit and consent details.
package device

import (
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// Summarize parses a User-Agent string into "browser major / os / platform".
// The summary intentionally drops minor versions and anything that could act
// as a fingerprint; it exists to make audit trails readable, not to track.
func Summarize(userAgentString string) string {
	if userAgentString == "" {
		return "unknown"
	}

	ua := useragent.New(userAgentString)
	browser, version := ua.Browser()

	majorVersion := "unknown"
	if version != "" {
		if parts := strings.Split(version, "."); len(parts) > 0 && parts[0] != "" {
			majorVersion = parts[0]
		}
	}

	os := strings.ToLower(strings.TrimSpace(ua.OS()))
	if os == "" {
		os = "unknown"
	}
	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}

	platform := "desktop"
	if ua.Mobile() {
		platform = "mobile"
	} else if ua.Bot() {
		platform = "bot"
	}

	return fmt.Sprintf("%s %s / %s / %s", browser, majorVersion, os, platform)
}
