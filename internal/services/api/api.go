// Package api assembles the HTTP API for the application
package api

import (
	"time"

	"creatorhoop/internal/platform/config"
	mw "creatorhoop/internal/platform/net/middleware"

	phttp "creatorhoop/internal/platform/net/http"
	"creatorhoop/internal/platform/store"

	"creatorhoop/internal/services/api/meta"
	jobsdomain "creatorhoop/internal/services/jobs/domain"
	jobshttp "creatorhoop/internal/services/jobs/http"
	usagedomain "creatorhoop/internal/services/usage/domain"
	usagehttp "creatorhoop/internal/services/usage/http"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Jobs           jobsdomain.JobPort
	Usage          usagedomain.CounterPort
	ServiceName    string
	StartedAt      time.Time
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount wires the middleware stack and all service routes onto the router
func Mount(r phttp.Router, opt Options) {
	cfg := opt.Config.Prefix("CORE_API_")

	r.Use(
		mw.Heartbeat("/ping"),
		mw.RequestID(),
		mw.RealIP(),
		mw.RecoverJSON,
		mw.NoCache(),
		mw.Compress(5),
		mw.AccessLogZerolog(mw.AccessLogOptions{
			Slow: cfg.MayDuration("SLOW_REQUEST", 2*time.Second),
		}),
		mw.CORS(mw.CORSOptions{
			AllowedOrigins:   cfg.MayCSV("CORS_ORIGINS", []string{"*"}),
			AllowCredentials: true,
		}),
		mw.Timeout(cfg.MayDuration("REQUEST_TIMEOUT", 5*time.Minute)),
	)

	phttp.MountSwagger(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	var pg any
	if opt.Store != nil && opt.Store.PG != nil {
		pg = opt.Store.PG
	}

	r.Route("/api/v1", func(v1 phttp.Router) {
		meta.Mount(v1, meta.Deps{
			ServiceName: opt.ServiceName,
			StartedAt:   opt.StartedAt,
			PG:          pg,
		})
		jobshttp.Mount(v1, opt.Jobs)
		usagehttp.Mount(v1, opt.Usage)
	})
}
