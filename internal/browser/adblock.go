package browser

// AdBlockPatterns are Network.setBlockedURLs patterns for the ad, analytics
// and consent-banner hosts the demo sites pull in. Blocking them keeps
// overlays from covering the controls scenarios click.
var AdBlockPatterns = []string{
	// Google ads and analytics
	"*google-analytics.com/*",
	"*googletagmanager.com/*",
	"*googlesyndication.com/*",
	"*googleadservices.com/*",
	"*doubleclick.net/*",
	"*adservice.google.com/*",

	// Social pixels
	"*facebook.com/tr/*",
	"*connect.facebook.net/*",
	"*analytics.twitter.com/*",
	"*static.ads-twitter.com/*",
	"*snap.licdn.com/*",

	// Analytics and session recording
	"*segment.io/*",
	"*mixpanel.com/*",
	"*amplitude.com/*",
	"*hotjar.com/*",
	"*fullstory.com/*",
	"*clarity.ms/*",
	"*newrelic.com/*",
	"*nr-data.net/*",

	// Ad networks
	"*adnxs.com/*",
	"*pubmatic.com/*",
	"*rubiconproject.com/*",
	"*criteo.com/*",
	"*taboola.com/*",
	"*outbrain.com/*",
	"*amazon-adsystem.com/*",

	// Consent banners
	"*cookielaw.org/*",
	"*cookiebot.com/*",
	"*onetrust.com/*",

	// Pixels
	"*/pixel?*",
	"*/collect?*",
}

// CombineBlockPatterns merges pattern lists, dropping duplicates and keeping
// first-seen order.
func CombineBlockPatterns(patterns ...[]string) []string {
	var result []string
	seen := make(map[string]bool)

	for _, list := range patterns {
		for _, pattern := range list {
			if !seen[pattern] {
				seen[pattern] = true
				result = append(result, pattern)
			}
		}
	}

	return result
}

// blockPatterns picks the lists enabled by the session options.
func blockPatterns(ads, images, media bool) []string {
	var lists [][]string
	if ads {
		lists = append(lists, AdBlockPatterns)
	}
	if media {
		lists = append(lists, MediaBlockPatterns)
	} else if images {
		lists = append(lists, ImageBlockPatterns)
	}
	return CombineBlockPatterns(lists...)
}
