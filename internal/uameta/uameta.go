// Package uameta builds the CDP user agent override applied to every
// session, so pages see a regular desktop Chrome rather than HeadlessChrome.
package uameta

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/chromedp/cdproto/emulation"
)

// Build returns a SetUserAgentOverride action with full UserAgentMetadata.
// chromeVersion is the full version (e.g. "144.0.7559.133"). When userAgent
// is empty a desktop UA string is generated from the version; when both are
// empty it returns nil and the browser default stays.
func Build(userAgent, chromeVersion string) *emulation.SetUserAgentOverrideParams {
	if userAgent == "" && chromeVersion == "" {
		return nil
	}
	major := majorVersion(chromeVersion)
	if userAgent == "" {
		userAgent = Generate(major)
	}
	if chromeVersion == "" {
		chromeVersion = versionFromUA(userAgent)
		major = majorVersion(chromeVersion)
	}

	platform, arch := detectPlatform()
	return emulation.SetUserAgentOverride(userAgent).
		WithAcceptLanguage("en-US,en").
		WithPlatform(platform).
		WithUserAgentMetadata(&emulation.UserAgentMetadata{
			Platform:        platformName(),
			PlatformVersion: platformVersion(),
			Architecture:    arch,
			Bitness:         "64",
			Brands: []*emulation.UserAgentBrandVersion{
				{Brand: "Not(A:Brand", Version: "99"},
				{Brand: "Google Chrome", Version: major},
				{Brand: "Chromium", Version: major},
			},
			FullVersionList: []*emulation.UserAgentBrandVersion{
				{Brand: "Not(A:Brand", Version: "99.0.0.0"},
				{Brand: "Google Chrome", Version: chromeVersion},
				{Brand: "Chromium", Version: chromeVersion},
			},
		})
}

// Generate returns the reduced desktop UA string Chrome itself sends for
// the given major version on this OS.
func Generate(major string) string {
	var osPart string
	switch runtime.GOOS {
	case "darwin":
		osPart = "Macintosh; Intel Mac OS X 10_15_7"
	case "windows":
		osPart = "Windows NT 10.0; Win64; x64"
	default:
		osPart = "X11; Linux x86_64"
	}
	return fmt.Sprintf("Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s.0.0.0 Safari/537.36", osPart, major)
}

func majorVersion(v string) string {
	major, _, _ := strings.Cut(v, ".")
	return major
}

// versionFromUA pulls the Chrome/x.y.z.w token out of a UA string.
func versionFromUA(ua string) string {
	_, rest, ok := strings.Cut(ua, "Chrome/")
	if !ok {
		return ""
	}
	v, _, _ := strings.Cut(rest, " ")
	return v
}

func detectPlatform() (jsNavigatorPlatform, architecture string) {
	architecture = "x86"
	if runtime.GOARCH == "arm64" {
		architecture = "arm"
	}
	switch runtime.GOOS {
	case "darwin":
		return "MacIntel", architecture
	case "windows":
		return "Win32", architecture
	default:
		return "Linux x86_64", architecture
	}
}

func platformName() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS"
	case "windows":
		return "Windows"
	default:
		return "Linux"
	}
}

func platformVersion() string {
	switch runtime.GOOS {
	case "darwin":
		return "14.0.0"
	case "windows":
		return "15.0.0"
	default:
		return "6.5.0"
	}
}
