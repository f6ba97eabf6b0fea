// Package device turns raw User-Agent headers into short labels for login audit events.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent returns "<browser> on <os>", or "Unknown Device" for an empty header.
func ParseUserAgent(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return unknownDevice
	}
	ua := useragent.New(userAgent)

	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OS()
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser) + " on " + strings.TrimSpace(os)
}

// Details returns the fields attached to login events.
func Details(userAgent string) map[string]string {
	details := map[string]string{"device": ParseUserAgent(userAgent)}
	if userAgent == "" {
		return details
	}
	ua := useragent.New(userAgent)
	if ua.Mobile() {
		details["mobile"] = "true"
	}
	if ua.Bot() {
		details["bot"] = "true"
	}
	return details
}
