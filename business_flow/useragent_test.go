package businessflow

import (
	"testing"

	"github.com/amirphl/Kusanagi/models"
	"github.com/stretchr/testify/assert"
)

func TestClassifyUserAgent(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		device   string
		browser  string
		platform string
	}{
		{
			name:     "DesktopChromeOnWindows",
			ua:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			device:   models.DeviceDesktop,
			browser:  "Chrome",
			platform: "Windows",
		},
		{
			name:     "DesktopFirefoxOnLinux",
			ua:       "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			device:   models.DeviceDesktop,
			browser:  "Firefox",
			platform: "Linux",
		},
		{
			name:     "DesktopSafariOnMac",
			ua:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
			device:   models.DeviceDesktop,
			browser:  "Safari",
			platform: "macOS",
		},
		{
			name:     "MobileSafariOnIPhone",
			ua:       "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			device:   models.DeviceMobile,
			browser:  "Safari",
			platform: "iOS",
		},
		{
			name:     "MobileChromeOnAndroid",
			ua:       "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			device:   models.DeviceMobile,
			browser:  "Chrome",
			platform: "Android",
		},
		{
			name:     "AndroidWithoutMobileTokenIsTablet",
			ua:       "Mozilla/5.0 (Linux; Android 14; SM-X910) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			device:   models.DeviceTablet,
			browser:  "Chrome",
			platform: "Android",
		},
		{
			name:     "IPadIsTablet",
			ua:       "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			device:   models.DeviceTablet,
			browser:  "Safari",
			platform: "iOS",
		},
		{
			name:     "EdgeBeforeChrome",
			ua:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
			device:   models.DeviceDesktop,
			browser:  "Edge",
			platform: "Windows",
		},
		{
			name:     "OperaBeforeChrome",
			ua:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 OPR/106.0.0.0",
			device:   models.DeviceDesktop,
			browser:  "Opera",
			platform: "Windows",
		},
		{
			name:     "UnrecognizedAgent",
			ua:       "curl/8.4.0",
			device:   models.DeviceUnknown,
			browser:  "Other",
			platform: "Other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := ClassifyUserAgent(tt.ua)
			assert.Equal(t, tt.device, agent.DeviceType)
			assert.Equal(t, tt.browser, agent.Browser)
			assert.Equal(t, tt.platform, agent.Platform)
		})
	}
}

func TestClassifyUserAgentEmpty(t *testing.T) {
	agent := ClassifyUserAgent("")
	assert.Equal(t, models.DeviceUnknown, agent.DeviceType)
	assert.Empty(t, agent.Browser)
	assert.Empty(t, agent.Platform)

	agent = ClassifyUserAgent("   ")
	assert.Equal(t, models.DeviceUnknown, agent.DeviceType)
}
