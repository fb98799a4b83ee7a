package scan

import (
	"strings"
	"unicode/utf8"
)

// classifierWindow is the number of body characters considered when
// classifying a page.
const classifierWindow = 1000

type deviceSignature struct {
	device      DeviceType
	keywords    []string
	pairs       [][2]string
	serverHints []string
	threshold   int
}

// Evaluated in order; the first signature to reach its threshold wins.
var deviceSignatures = []deviceSignature{
	{
		device: DeviceRouter,
		keywords: []string{
			"router", "gateway", "wireless", "wifi", "wan", "lan",
			"小米", "huawei", "tplink", "asus", "dlink", "netgear",
		},
		pairs:       [][2]string{{"login", "password"}, {"admin", "settings"}},
		serverHints: []string{"nginx", "lighttpd", "busybox", "httpd"},
		threshold:   2,
	},
	{
		device:    DeviceNAS,
		keywords:  []string{"nas", "synology", "qnap", "wd", "seagate", "storage"},
		pairs:     [][2]string{{"share", "folder"}, {"disk", "volume"}},
		threshold: 3,
	},
	{
		device:    DeviceCamera,
		keywords:  []string{"camera", "ipcam", "dvr", "nvr", "surveillance"},
		pairs:     [][2]string{{"video", "stream"}, {"ptz", "zoom"}},
		threshold: 3,
	},
	{
		device:    DevicePrinter,
		keywords:  []string{"printer", "hp", "canon", "epson", "brother", "print"},
		pairs:     [][2]string{{"print", "scan"}, {"toner", "cartridge"}},
		threshold: 3,
	},
}

func (s deviceSignature) score(text, server string) int {
	score := 0
	for _, kw := range s.keywords {
		if strings.Contains(text, kw) {
			score++
		}
	}
	for _, pair := range s.pairs {
		if strings.Contains(text, pair[0]) && strings.Contains(text, pair[1]) {
			score += 2
		}
	}
	if server != "" {
		for _, hint := range s.serverHints {
			if strings.Contains(server, hint) {
				score++
			}
		}
	}
	return score
}

// AnalyzeDeviceType scores the page title, the start of the body and the
// Server header against each device signature.
func AnalyzeDeviceType(title, body, server string) DeviceType {
	text := strings.ToLower(title + " " + truncateRunes(body, classifierWindow))
	server = strings.ToLower(server)

	for _, sig := range deviceSignatures {
		if sig.score(text, server) >= sig.threshold {
			return sig.device
		}
	}
	return DeviceUnknown
}

type routerBrand struct {
	name     string
	keywords []string
}

var routerBrands = []routerBrand{
	{"xiaomi", []string{"小米", "xiaomi", "mi router", "redmi", "å°ç±³"}},
	{"huawei", []string{"华为", "huawei"}},
	{"tp-link", []string{"tplink", "tp-link", "普联"}},
	{"asus", []string{"asus", "华硕"}},
	{"d-link", []string{"dlink", "d-link", "友讯"}},
	{"netgear", []string{"netgear"}},
	{"pfsense", []string{"pfsense"}},
	{"ubiquiti", []string{"ubiquiti", "unifi"}},
	{"mikrotik", []string{"mikrotik", "routeros"}},
	{"generic", []string{
		"路由器", "router", "gateway", "无线路由器", "wireless router",
		"管理界面", "admin panel", "登录", "login", "sign in",
		"设置", "settings", "configuration",
	}},
}

var (
	managementHints = []string{"admin", "login", "wireless", "wan"}
	routerPairs     = [][2]string{
		{"login", "password"},
		{"wireless", "settings"},
		{"wan", "lan"},
		{"admin", "configuration"},
	}
	credentialFields = []string{"password", "username", "login"}
)

// selfIdentifyingBrands are trusted on a keyword match alone.
var selfIdentifyingBrands = map[string]bool{
	"pfsense":  true,
	"ubiquiti": true,
	"mikrotik": true,
}

// IsRouterInterface is the keyword heuristic used when AnalyzeDeviceType
// finds nothing. It looks for brand names near management vocabulary, pairs
// of management terms, and finally any login form.
func IsRouterInterface(title, body, contentType string) bool {
	if title == "" && utf8.RuneCountInString(body) < 100 {
		return false
	}

	full := title + " " + truncateRunes(body, classifierWindow)
	lower := strings.ToLower(full)

	for _, brand := range routerBrands {
		for _, kw := range brand.keywords {
			if !strings.Contains(full, kw) && !strings.Contains(lower, kw) {
				continue
			}
			switch {
			case brand.name == "xiaomi" && strings.Contains(full, "路由器"):
				return true
			case containsAny(lower, managementHints):
				return true
			case selfIdentifyingBrands[brand.name]:
				return true
			}
		}
	}

	for _, pair := range routerPairs {
		if strings.Contains(lower, pair[0]) && strings.Contains(lower, pair[1]) {
			return true
		}
	}

	page := strings.ToLower(body)
	return strings.Contains(page, "<form") && containsAny(page, credentialFields)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
