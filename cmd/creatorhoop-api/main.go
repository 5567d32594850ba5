// @title         CreatorHoop API
// @version       0.1.0
// @description   Collects social posts, ranks them, and turns the winners into scripts

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creatorhoop/internal/platform/config"
	"creatorhoop/internal/platform/logger"
	phttp "creatorhoop/internal/platform/net/http"
	"creatorhoop/internal/platform/store"

	"creatorhoop/internal/adapters/asr"
	"creatorhoop/internal/adapters/guideon"
	"creatorhoop/internal/adapters/scrape"
	"creatorhoop/internal/adapters/scrape/apify"

	"creatorhoop/internal/services/api"
	jobsservice "creatorhoop/internal/services/jobs/service"
	usagerepo "creatorhoop/internal/services/usage/repo"
	usageservice "creatorhoop/internal/services/usage/service"
)

const serviceName = "creatorhoop-api"

func main() {
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	scrapeCfg := root.Prefix("SCRAPE_")
	asrCfg := root.Prefix("ASR_")
	guideonCfg := root.Prefix("GUIDEON_")

	logOpt := logger.FromEnv()
	if logOpt.Service == "" {
		logOpt.Service = serviceName
	}
	logger.Init(logOpt)
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// postgres is optional; without it usage metering reports unavailable
	var st *store.Store
	if pgCfg.MayBool("ENABLED", false) {
		var err error
		st, err = store.Open(ctx, store.Config{
			AppName: serviceName,
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", true),
			},
		}, store.WithLogger(*l))
		if err != nil {
			l.Panic().Err(err).Msg("store.Open failed")
		}
		defer func() {
			if err := st.Close(context.Background()); err != nil {
				l.Error().Err(err).Msg("failed to close store")
			}
		}()
	}

	// scrape adapters share one apify client
	apifyClient := apify.NewClient(apify.Options{
		BaseURL:    scrapeCfg.MayString("APIFY_BASE_URL", ""),
		Token:      scrapeCfg.MayString("APIFY_TOKEN", ""),
		RunTimeout: scrapeCfg.MayDuration("APIFY_RUN_TIMEOUT", 120*time.Second),
	})
	proxy := scrape.ProxyConfig{
		Enabled: scrapeCfg.MayBool("APIFY_PROXY", false),
		Groups:  scrapeCfg.MayCSV("APIFY_PROXY_GROUPS", nil),
	}

	instagram := scrape.NewInstagram(apifyClient, scrapeCfg.MayString("APIFY_IG_ACTOR", ""), proxy)
	tiktok := scrape.NewTikTok(apifyClient, scrapeCfg.MayString("APIFY_TT_ACTOR", ""), proxy)

	registry := scrape.NewRegistry()
	registry.Register("instagram", instagram)
	registry.Register("tiktok", tiktok)

	transcriber := asr.NewClient(asr.Options{
		BaseURL: asrCfg.MayString("URL", ""),
		Timeout: asrCfg.MayDuration("TIMEOUT", 180*time.Second),
	}, instagram)

	prompts := guideon.NewPromptStore(guideonCfg.MayString("PROMPTS_DIR", "prompts"))
	adapter := jobsservice.GuideonAdapter{Svc: guideon.NewService(
		guideon.Options{
			Preferred: guideonCfg.MayString("PROVIDER", "anthropic"),
			Lang:      guideonCfg.MayString("LANG", "es"),
		},
		prompts,
		guideon.NewAnthropic(guideon.AnthropicOptions{
			APIKey:    guideonCfg.MayString("CLAUDE_API_KEY", ""),
			Model:     guideonCfg.MayString("CLAUDE_MODEL", ""),
			MaxTokens: guideonCfg.MayInt("MAX_TOKENS", 1400),
			Temp:      guideonCfg.MayFloat64("TEMP", 0.5),
		}),
		guideon.NewOpenAI(guideon.OpenAIOptions{
			BaseURL:   guideonCfg.MayString("OPENAI_BASE_URL", ""),
			APIKey:    guideonCfg.MayString("OPENAI_API_KEY", ""),
			Model:     guideonCfg.MayString("OPENAI_MODEL", ""),
			MaxTokens: guideonCfg.MayInt("MAX_TOKENS", 1400),
			Temp:      guideonCfg.MayFloat64("TEMP", 0.5),
		}),
	)}

	jobs := jobsservice.New(registry, transcriber, adapter, jobsservice.Config{
		FetchLimit:      scrapeCfg.MayInt("APIFY_DATASET_LIMIT", 50),
		EmptyPoolPolicy: apiCfg.MayString("EMPTY_POOL", jobsservice.PoolPolicyDemo),
		Lang:            guideonCfg.MayString("LANG", "es"),
	})

	var db store.TxRunner
	var repo usagerepo.Storage
	if st != nil && st.PG != nil {
		db = st.PG
		repo = usagerepo.NewPG(st.PG)
	}
	usage := usageservice.New(db, repo, usageservice.Config{
		LimitStarter: apiCfg.MayInt("USAGE_LIMIT_STARTER", 3),
		LimitPro:     apiCfg.MayInt("USAGE_LIMIT_PRO", 7),
	})
	if err := usage.Ensure(ctx); err != nil {
		l.Error().Err(err).Msg("usage table init failed")
	}

	srv := phttp.NewServer(apiCfg)

	api.Mount(srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		Jobs:           jobs,
		Usage:          usage,
		ServiceName:    serviceName,
		StartedAt:      time.Now().UTC(),
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
	})

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
