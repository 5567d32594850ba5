// Package service implements the job orchestrator: collect, rank, script
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"creatorhoop/internal/adapters/scrape"
	"creatorhoop/internal/core/feed"
	"creatorhoop/internal/core/rank"
	"creatorhoop/internal/core/window"
	perr "creatorhoop/internal/platform/errors"
	"creatorhoop/internal/platform/logger"
	pstrings "creatorhoop/internal/platform/strings"
	"creatorhoop/internal/services/jobs/domain"

	"github.com/google/uuid"
)

// Empty-pool policies
const (
	PoolPolicyDemo  = "demo"
	PoolPolicyEmpty = "empty"
)

const maxProfiles = 3

// Config for the job orchestrator
type Config struct {
	FetchLimit      int
	EmptyPoolPolicy string
	Lang            string
}

// Service runs collection jobs end to end
type Service struct {
	Registry    *scrape.Registry
	Transcriber domain.TranscriberPort
	Adapter     domain.AdapterPort
	Cfg         Config

	log   logger.Logger
	newID func() string
}

// New constructs the orchestrator
func New(reg *scrape.Registry, tr domain.TranscriberPort, ad domain.AdapterPort, cfg Config) *Service {
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 50
	}
	if cfg.EmptyPoolPolicy == "" {
		cfg.EmptyPoolPolicy = PoolPolicyDemo
	}
	return &Service{
		Registry:    reg,
		Transcriber: tr,
		Adapter:     ad,
		Cfg:         cfg,
		log:         *logger.Named("jobs"),
		newID:       func() string { return uuid.NewString() },
	}
}

// Start implements domain.JobPort
func (s *Service) Start(ctx context.Context, in domain.StartInput) (domain.StartResult, error) {
	jobID := s.newID()
	start, end := window.Parse(in.Window)

	profiles := in.Profiles
	if len(profiles) > maxProfiles {
		profiles = profiles[:maxProfiles]
	}

	pool := s.collect(ctx, jobID, profiles, start, end)

	s.log.Info().
		Str("job_id", jobID).
		Str("mode", in.Mode).
		Int("profiles", len(profiles)).
		Int("pool", len(pool)).
		Msg("collection finished")

	if len(pool) == 0 {
		if s.Cfg.EmptyPoolPolicy == PoolPolicyEmpty {
			return domain.StartResult{Items: []domain.Item{}}, nil
		}
		return domain.StartResult{Items: demoItems(in.NumScripts)}, nil
	}

	top := rank.SelectTop(pool, in.NumScripts, in.SortBy, in.Order)

	items := make([]domain.Item, 0, len(top))
	for _, p := range top {
		items = append(items, domain.Item{
			URL:     p.URL,
			Metrics: metricsOf(p),
			Script:  s.scriptFor(ctx, in, p),
		})
	}
	return domain.StartResult{Items: items}, nil
}

// collect fetches every profile concurrently and assembles the full pool
// before any scoring happens
func (s *Service) collect(ctx context.Context, jobID string, profiles []domain.Profile, start, end time.Time) []feed.Post {
	results := make([][]feed.Post, len(profiles))
	var wg sync.WaitGroup
	for i, pr := range profiles {
		fetcher, ok := s.Registry.ForProfile(pr.Platform, pr.URL)
		if !ok {
			s.log.Debug().Str("job_id", jobID).Str("url", pr.URL).Msg("no provider for profile")
			continue
		}
		wg.Add(1)
		go func(i int, pr domain.Profile, f scrape.Fetcher) {
			defer wg.Done()
			posts, err := f.Fetch(ctx, pr.URL, start, end, s.Cfg.FetchLimit)
			if err != nil {
				s.log.Warn().Str("job_id", jobID).Str("url", pr.URL).Err(err).Msg("profile fetch failed")
				return
			}
			results[i] = window.Filter(posts, start, end)
		}(i, pr, fetcher)
	}
	wg.Wait()

	var pool []feed.Post
	for _, posts := range results {
		pool = append(pool, posts...)
	}
	return pool
}

// scriptFor produces the script text for one selected post. Failures stay
// inline on the item so one broken video never fails the whole job.
func (s *Service) scriptFor(ctx context.Context, in domain.StartInput, p feed.Post) string {
	if !isVideo(p) {
		return fmt.Sprintf("[POST IS NOT A VIDEO: %s]", typeLabel(p))
	}

	transcript, err := s.Transcriber.Transcribe(ctx, p.URL, p.MediaURL)
	if err != nil {
		msg := err.Error()
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return fmt.Sprintf("(Error transcribing this video) %s", msg)
	}

	if !strings.EqualFold(in.Mode, domain.ModeCreative) {
		return transcript
	}

	creative := domain.CreativeParams{}
	if in.Creative != nil {
		creative = *in.Creative
	}
	bundle := s.Adapter.Adapt(ctx, domain.AdaptParams{
		Transcript:      transcript,
		NichePrompt:     strings.TrimSpace(creative.NichePrompt),
		RulesPrompt:     strings.TrimSpace(creative.RulesPrompt),
		AdaptationLevel: pstrings.Or(strings.ToLower(strings.TrimSpace(creative.AdaptationLevel)), "simple"),
		RulesSource:     pstrings.Or(strings.ToLower(strings.TrimSpace(creative.RulesSource)), "guideon"),
		CustomRules:     strings.TrimSpace(creative.CustomRules),
		Lang:            pstrings.Or(strings.TrimSpace(creative.Lang), s.Cfg.Lang),
	})

	script := pstrings.Or(bundle.Script, transcript)
	if len(bundle.Hooks) == 0 && bundle.CTA == "" {
		return script
	}

	var sb strings.Builder
	if len(bundle.Hooks) > 0 {
		sb.WriteString("[HOOKS]")
		for _, h := range bundle.Hooks {
			if h == "" {
				continue
			}
			sb.WriteString("\n- ")
			sb.WriteString(h)
		}
	}
	if bundle.CTA != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[CTA]\n")
		sb.WriteString(bundle.CTA)
	}
	sb.WriteString("\n\n[SCRIPT]\n")
	sb.WriteString(script)
	return strings.TrimSpace(sb.String())
}

// Transcribe implements domain.JobPort for single links
func (s *Service) Transcribe(ctx context.Context, in domain.TranscribeInput) (domain.StartResult, error) {
	text, err := s.Transcriber.Transcribe(ctx, in.URL, "")
	if err != nil {
		return domain.StartResult{}, err
	}
	return domain.StartResult{
		Items: []domain.Item{{URL: in.URL, Metrics: domain.Metrics{}, Script: text}},
	}, nil
}

// Rewrite implements domain.JobPort for per-card edits
func (s *Service) Rewrite(ctx context.Context, in domain.RewriteInput) (domain.ScriptBundle, error) {
	if !s.Adapter.Configured() {
		return domain.ScriptBundle{}, perr.InvalidArgf("no LLM provider api key is configured")
	}
	return s.Adapter.Rewrite(ctx, domain.RewriteParams{
		Script:      in.Script,
		UserPrompt:  in.UserPrompt,
		NichePrompt: in.NichePrompt,
		Lang:        pstrings.Or(strings.TrimSpace(in.Lang), s.Cfg.Lang),
	}), nil
}

func isVideo(p feed.Post) bool {
	return p.IsVideo || p.MediaURL != "" || (p.DurationKnown && p.DurationSec > 0)
}

func typeLabel(p feed.Post) string {
	switch p.MediaType {
	case feed.MediaImage:
		return "Image"
	case feed.MediaCarousel:
		return "Carousel"
	case "":
		return "Unknown"
	}
	t := string(p.MediaType)
	return strings.ToUpper(t[:1]) + t[1:]
}

func metricsOf(p feed.Post) domain.Metrics {
	views, likes, comments := p.Views, p.Likes, p.Comments
	score := p.Score
	return domain.Metrics{Views: &views, Likes: &likes, Comments: &comments, Score: &score}
}

func demoItems(n int) []domain.Item {
	items := make([]domain.Item, 0, max(n, 0))
	for i := 0; i < n; i++ {
		views := int64(100000 + i*1000)
		likes := int64(5000 + i*50)
		comments := int64(200 + i*5)
		score := 80.0 + float64(i)
		items = append(items, domain.Item{
			URL:     fmt.Sprintf("https://example.com/post/%d", i+1),
			Metrics: domain.Metrics{Views: &views, Likes: &likes, Comments: &comments, Score: &score},
			Script:  fmt.Sprintf("[DEMO] Script %d: Hook <3s... Development... CTA...", i+1),
		})
	}
	return items
}
