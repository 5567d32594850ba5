// Package http mounts the job endpoints
package http

import (
	stdhttp "net/http"

	phttp "creatorhoop/internal/platform/net/http"
	"creatorhoop/internal/services/jobs/domain"
)

// Mount registers job routes on the router
func Mount(r phttp.Router, svc domain.JobPort) {
	phttp.PostJSON(r, "/job/start", func(req *stdhttp.Request, in domain.StartInput) (any, error) {
		return svc.Start(req.Context(), in)
	})

	phttp.PostJSON(r, "/transcribe", func(req *stdhttp.Request, in domain.TranscribeInput) (any, error) {
		return svc.Transcribe(req.Context(), in)
	})

	phttp.PostJSON(r, "/guideon/rewrite", func(req *stdhttp.Request, in domain.RewriteInput) (any, error) {
		return svc.Rewrite(req.Context(), in)
	})
}
