package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// configNames maps CDP resource types to the names accepted in the
// resource_blocking config list.
var configNames = map[string]string{
	"image":      "images",
	"font":       "fonts",
	"media":      "media",
	"stylesheet": "stylesheets",
}

// applyResourceBlocking intercepts tab requests and drops the configured
// resource classes before they hit the network. Map tiles arrive as
// plain images, so "images" must never be in the default list; fonts and
// media are safe to drop and speed up tile-heavy pages.
func applyResourceBlocking(page *rod.Page, classes []string) error {
	blocked := make(map[string]bool, len(classes))
	for _, c := range classes {
		blocked[strings.ToLower(c)] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if shouldBlock(blocked, string(h.Request.Type())) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()

	return nil
}

func shouldBlock(blocked map[string]bool, resType string) bool {
	lower := strings.ToLower(resType)
	if name, ok := configNames[lower]; ok {
		return blocked[name]
	}
	return blocked[lower]
}
