package browser

import (
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockRemote fails every request whose scheme is not local, so a stray
// font or image URL cannot make renders depend on the network.
func blockRemote(page *rod.Page, log *slog.Logger) *rod.HijackRouter {
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		u := h.Request.URL()
		if isLocal(u.Scheme) {
			h.ContinueRequest(&proto.FetchContinueRequest{})
			return
		}
		log.Debug("browser: blocked remote request", "url", u.String())
		h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
	})
	go router.Run()
	return router
}

func isLocal(scheme string) bool {
	switch scheme {
	case "file", "data", "blob", "about":
		return true
	}
	return false
}
