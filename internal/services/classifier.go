package services

import (
	"strings"

	"github.com/SR0725/short-link-tracker-sub000/internal/models"

	"github.com/mssola/user_agent"
)

// ClientInfo is what a raw User-Agent header tells us about the client.
type ClientInfo struct {
	Device  string
	Browser string
	OS      string
}

var (
	tabletKeywords = []string{"ipad", "tablet", "kindle", "silk/", "playbook", "nexus 7", "nexus 9", "nexus 10", "sm-t"}
	mobileKeywords = []string{"mobile", "iphone", "ipod", "android", "blackberry", "bb10", "windows phone", "opera mini", "iemobile", "webos"}
	// "linux" alone would match Android and "mac os x" matches iOS, so only
	// markers that never appear in handheld strings are listed. Chrome OS
	// carries a trailing space so "microsoft" does not match.
	desktopKeywords = []string{"windows nt", "macintosh", "x11", "cros ", "linux x86_64", "ubuntu"}
)

// ClassifyUserAgent derives device category, browser and OS from ua.
func ClassifyUserAgent(ua string) ClientInfo {
	parsed := user_agent.New(ua)

	info := ClientInfo{OS: parsed.OS()}
	if name, version := parsed.Browser(); name != "" {
		info.Browser = strings.TrimSpace(name + " " + version)
	}

	lower := strings.ToLower(ua)
	info.Device = parserDevice(parsed, lower)
	if info.Device == models.DeviceUnknown {
		info.Device = keywordDevice(lower)
	}
	return info
}

// parserDevice trusts the structured parser only where it is unambiguous.
// The parser has no tablet notion, so a "mobile" verdict on a string that
// carries tablet markers is left to the keyword ladder.
func parserDevice(ua *user_agent.UserAgent, lower string) string {
	switch {
	case ua.Platform() == "iPad":
		return models.DeviceTablet
	case ua.Mobile() && !containsAny(lower, tabletKeywords) && !containsAny(lower, desktopKeywords):
		return models.DeviceMobile
	default:
		return models.DeviceUnknown
	}
}

// keywordDevice: tablet beats mobile, a desktop marker vetoes mobile, and
// anything unrecognised is assumed to be a desktop.
func keywordDevice(lower string) string {
	tablet := containsAny(lower, tabletKeywords)
	mobile := containsAny(lower, mobileKeywords)
	desktop := containsAny(lower, desktopKeywords)

	switch {
	case tablet:
		return models.DeviceTablet
	case mobile && !desktop:
		return models.DeviceMobile
	default:
		return models.DeviceDesktop
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
