// Package http mounts the usage endpoints
package http

import (
	stdhttp "net/http"

	perr "creatorhoop/internal/platform/errors"
	phttp "creatorhoop/internal/platform/net/http"
	"creatorhoop/internal/services/usage/domain"
)

// Mount registers usage routes on the router
func Mount(r phttp.Router, svc domain.CounterPort) {
	phttp.GetJSON(r, "/usage/remaining", func(req *stdhttp.Request) (any, error) {
		q := req.URL.Query()
		userID := q.Get("user_id")
		feature := q.Get("feature")
		plan := q.Get("plan")
		if userID == "" || feature == "" {
			return nil, perr.InvalidArgf("user_id and feature are required")
		}
		return svc.Remaining(req.Context(), userID, feature, plan)
	})

	phttp.PostJSON(r, "/usage/increment", func(req *stdhttp.Request, in domain.IncrementInput) (any, error) {
		return svc.Increment(req.Context(), in)
	})
}
