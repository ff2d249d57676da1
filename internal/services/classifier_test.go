package services

import (
	"testing"

	"github.com/SR0725/short-link-tracker-sub000/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestClassifyUserAgent(t *testing.T) {
	cases := []struct {
		name   string
		ua     string
		device string
	}{
		{
			name:   "iPhone Safari",
			ua:     "Mozilla/5.0 (iPhone; CPU iPhone OS 14_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0 Mobile/15E148 Safari/604.1",
			device: models.DeviceMobile,
		},
		{
			name:   "iPad with Mobile token",
			ua:     "Mozilla/5.0 (iPad; CPU OS 13_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.0.3 Mobile/15E148 Safari/604.1",
			device: models.DeviceTablet,
		},
		{
			name:   "Unusual iPad string",
			ua:     "SomeBrowser/1.0 (Linux; iPad Mobile)",
			device: models.DeviceTablet,
		},
		{
			name:   "Android phone",
			ua:     "Mozilla/5.0 (Linux; Android 10; SM-G973F) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/83.0.4103.106 Mobile Safari/537.36",
			device: models.DeviceMobile,
		},
		{
			name:   "Android Teams webview",
			ua:     "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Mobile Safari/537.36 MicrosoftTeams",
			device: models.DeviceMobile,
		},
		{
			name:   "Lumia Edge",
			ua:     "Mozilla/5.0 (Windows Phone 10.0; Android 6.0.1; Microsoft; Lumia 950) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/52.0.2743.116 Mobile Safari/537.36 Edge/15.14977",
			device: models.DeviceMobile,
		},
		{
			name:   "Chromebook",
			ua:     "Mozilla/5.0 (X11; CrOS x86_64 14541.0.0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36",
			device: models.DeviceDesktop,
		},
		{
			name:   "Android tablet",
			ua:     "Mozilla/5.0 (Linux; Android 9; SM-T820) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/83.0.4103.106 Safari/537.36",
			device: models.DeviceTablet,
		},
		{
			name:   "Windows Chrome",
			ua:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			device: models.DeviceDesktop,
		},
		{
			name:   "Macintosh Safari",
			ua:     "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1 Safari/605.1.15",
			device: models.DeviceDesktop,
		},
		{
			name:   "Desktop marker vetoes mobile",
			ua:     "Mozilla/5.0 (X11; CrOS x86_64 14541.0.0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Mobile Safari/537.36",
			device: models.DeviceDesktop,
		},
		{
			name:   "Unrecognised defaults to desktop",
			ua:     "curl/8.4.0",
			device: models.DeviceDesktop,
		},
		{
			name:   "Empty defaults to desktop",
			ua:     "",
			device: models.DeviceDesktop,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.device, ClassifyUserAgent(tc.ua).Device)
		})
	}
}

func TestClassifyUserAgent_BrowserAndOS(t *testing.T) {
	info := ClassifyUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	assert.Contains(t, info.Browser, "Chrome")
	assert.Contains(t, info.OS, "Windows")
}

func TestKeywordDevice(t *testing.T) {
	assert.Equal(t, models.DeviceTablet, keywordDevice("kindle mobile"))
	assert.Equal(t, models.DeviceMobile, keywordDevice("opera mini"))
	assert.Equal(t, models.DeviceDesktop, keywordDevice("mobile windows nt"))
	assert.Equal(t, models.DeviceDesktop, keywordDevice("macintosh"))
	assert.Equal(t, models.DeviceDesktop, keywordDevice("something else"))
	assert.Equal(t, models.DeviceMobile, keywordDevice("android; microsoft outlook mobile"))
	assert.Equal(t, models.DeviceDesktop, keywordDevice("android (cros x86_64)"))
}
