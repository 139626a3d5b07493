package businessflow

import (
	"strings"

	"github.com/amirphl/Kusanagi/models"
)

// VisitAgent holds the fields derived from a raw User-Agent string
type VisitAgent struct {
	DeviceType string
	Browser    string
	Platform   string
}

var tabletTokens = []string{"ipad", "tablet", "kindle", "silk", "playbook"}

// ClassifyUserAgent derives device type, browser and platform from the
// raw User-Agent header. Tablet is checked before mobile because tablet
// agents also carry mobile tokens; Android without the "mobile" token is
// a tablet. Desktop is the fallback for recognized non-mobile agents,
// unknown for anything unparseable.
func ClassifyUserAgent(rawUA string) VisitAgent {
	ua := strings.ToLower(strings.TrimSpace(rawUA))
	if ua == "" {
		return VisitAgent{DeviceType: models.DeviceUnknown}
	}
	return VisitAgent{
		DeviceType: classifyDevice(ua),
		Browser:    classifyBrowser(ua),
		Platform:   classifyPlatform(ua),
	}
}

func classifyDevice(ua string) string {
	for _, token := range tabletTokens {
		if strings.Contains(ua, token) {
			return models.DeviceTablet
		}
	}
	if strings.Contains(ua, "android") && !strings.Contains(ua, "mobile") {
		return models.DeviceTablet
	}
	if strings.Contains(ua, "mobi") || strings.Contains(ua, "iphone") ||
		strings.Contains(ua, "android") || strings.Contains(ua, "ipod") ||
		strings.Contains(ua, "windows phone") || strings.Contains(ua, "blackberry") {
		return models.DeviceMobile
	}
	if strings.Contains(ua, "windows") || strings.Contains(ua, "macintosh") ||
		strings.Contains(ua, "x11") || strings.Contains(ua, "linux") ||
		strings.Contains(ua, "cros") {
		return models.DeviceDesktop
	}
	return models.DeviceUnknown
}

func classifyBrowser(ua string) string {
	switch {
	// Edge and Opera ship a Chrome token, so they go first
	case strings.Contains(ua, "edg/") || strings.Contains(ua, "edge/"):
		return "Edge"
	case strings.Contains(ua, "opr/") || strings.Contains(ua, "opera"):
		return "Opera"
	case strings.Contains(ua, "samsungbrowser"):
		return "Samsung Internet"
	case strings.Contains(ua, "firefox/") || strings.Contains(ua, "fxios"):
		return "Firefox"
	case strings.Contains(ua, "chrome/") || strings.Contains(ua, "crios"):
		return "Chrome"
	case strings.Contains(ua, "safari/"):
		return "Safari"
	case strings.Contains(ua, "msie") || strings.Contains(ua, "trident/"):
		return "Internet Explorer"
	default:
		return "Other"
	}
}

func classifyPlatform(ua string) string {
	switch {
	case strings.Contains(ua, "windows phone"):
		return "Windows Phone"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ipod"):
		return "iOS"
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "macintosh") || strings.Contains(ua, "mac os"):
		return "macOS"
	case strings.Contains(ua, "cros"):
		return "ChromeOS"
	case strings.Contains(ua, "linux") || strings.Contains(ua, "x11"):
		return "Linux"
	default:
		return "Other"
	}
}
