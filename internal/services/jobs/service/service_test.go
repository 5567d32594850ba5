package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"creatorhoop/internal/adapters/scrape"
	"creatorhoop/internal/core/feed"
	"creatorhoop/internal/services/jobs/domain"
)

type fakeFetcher struct {
	posts []feed.Post
	err   error

	mu    sync.Mutex
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, _, _ time.Time, _ int) ([]feed.Post, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.posts, f.err
}

type fakeTranscriber struct {
	text  string
	err   error
	calls []string
}

func (f *fakeTranscriber) Configured() bool { return true }

func (f *fakeTranscriber) Transcribe(_ context.Context, postURL, _ string) (string, error) {
	f.calls = append(f.calls, postURL)
	return f.text, f.err
}

type fakeAdapter struct {
	configured bool
	bundle     domain.ScriptBundle
	adapts     []domain.AdaptParams
	rewrites   []domain.RewriteParams
}

func (f *fakeAdapter) Configured() bool { return f.configured }

func (f *fakeAdapter) Adapt(_ context.Context, p domain.AdaptParams) domain.ScriptBundle {
	f.adapts = append(f.adapts, p)
	return f.bundle
}

func (f *fakeAdapter) Rewrite(_ context.Context, p domain.RewriteParams) domain.ScriptBundle {
	f.rewrites = append(f.rewrites, p)
	return f.bundle
}

func videoPost(id string, views, likes, comments int64) feed.Post {
	return feed.Post{
		PlatformPostID: id,
		URL:            "https://example.com/" + id,
		PostedAt:       time.Now().UTC().Add(-time.Hour),
		Views:          views,
		Likes:          likes,
		Comments:       comments,
		IsVideo:        true,
		MediaType:      feed.MediaVideo,
	}
}

func startInput(mode string) domain.StartInput {
	return domain.StartInput{
		UserID:     "u1",
		Mode:       mode,
		Profiles:   []domain.Profile{{Platform: "instagram", URL: "https://instagram.com/acct"}},
		Window:     "21d",
		NumScripts: 3,
	}
}

func TestStartCollectorMode(t *testing.T) {
	t.Parallel()

	reg := scrape.NewRegistry()
	fetcher := &fakeFetcher{posts: []feed.Post{
		videoPost("a", 1000, 10, 1),
		videoPost("b", 9000, 90, 9),
	}}
	reg.Register("instagram", fetcher)

	tr := &fakeTranscriber{text: "the transcript"}
	svc := New(reg, tr, &fakeAdapter{configured: true}, Config{})

	res, err := svc.Start(context.Background(), startInput(domain.ModeCollector))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("items = %d", len(res.Items))
	}
	// highest score first
	if res.Items[0].URL != "https://example.com/b" {
		t.Fatalf("order wrong: %s", res.Items[0].URL)
	}
	for _, it := range res.Items {
		if it.Script != "the transcript" {
			t.Fatalf("collector script = %q", it.Script)
		}
		if it.Metrics.Views == nil || it.Metrics.Score == nil {
			t.Fatal("metrics must be populated")
		}
	}
	if len(tr.calls) != 2 {
		t.Fatalf("transcribe calls = %d", len(tr.calls))
	}
}

func TestStartCreativeModeAddsHeader(t *testing.T) {
	t.Parallel()

	reg := scrape.NewRegistry()
	reg.Register("instagram", &fakeFetcher{posts: []feed.Post{videoPost("a", 100, 5, 1)}})

	ad := &fakeAdapter{configured: true, bundle: domain.ScriptBundle{
		Script: "adapted script",
		Hooks:  []string{"h1", "h2"},
		CTA:    "follow",
	}}
	svc := New(reg, &fakeTranscriber{text: "raw"}, ad, Config{})

	in := startInput(domain.ModeCreative)
	in.Creative = &domain.CreativeParams{NichePrompt: "fitness", AdaptationLevel: "completa"}

	res, err := svc.Start(context.Background(), in)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	script := res.Items[0].Script
	for _, want := range []string{"[HOOKS]", "- h1", "[CTA]\nfollow", "[SCRIPT]\nadapted script"} {
		if !strings.Contains(script, want) {
			t.Fatalf("script missing %q:\n%s", want, script)
		}
	}
	if len(ad.adapts) != 1 || ad.adapts[0].NichePrompt != "fitness" {
		t.Fatalf("adapts = %+v", ad.adapts)
	}
	if ad.adapts[0].Transcript != "raw" {
		t.Fatalf("adapter got transcript %q", ad.adapts[0].Transcript)
	}
}

func TestStartNonVideoLabel(t *testing.T) {
	t.Parallel()

	image := videoPost("img", 500, 5, 1)
	image.IsVideo = false
	image.MediaType = feed.MediaImage

	carousel := videoPost("car", 400, 4, 1)
	carousel.IsVideo = false
	carousel.MediaType = feed.MediaCarousel

	reg := scrape.NewRegistry()
	reg.Register("instagram", &fakeFetcher{posts: []feed.Post{image, carousel}})

	tr := &fakeTranscriber{text: "never"}
	svc := New(reg, tr, &fakeAdapter{configured: true}, Config{})

	res, err := svc.Start(context.Background(), startInput(domain.ModeCollector))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.Items[0].Script != "[POST IS NOT A VIDEO: Image]" {
		t.Fatalf("image script = %q", res.Items[0].Script)
	}
	if res.Items[1].Script != "[POST IS NOT A VIDEO: Carousel]" {
		t.Fatalf("carousel script = %q", res.Items[1].Script)
	}
	if len(tr.calls) != 0 {
		t.Fatal("non-video posts must not hit the transcriber")
	}
}

func TestStartTranscribeFailureStaysInline(t *testing.T) {
	t.Parallel()

	reg := scrape.NewRegistry()
	reg.Register("instagram", &fakeFetcher{posts: []feed.Post{
		videoPost("ok", 9000, 90, 9),
		videoPost("bad", 100, 1, 0),
	}})

	tr := &failOnSecond{ok: "fine"}
	svc := New(reg, tr, &fakeAdapter{configured: true}, Config{})

	res, err := svc.Start(context.Background(), startInput(domain.ModeCollector))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.Items[0].Script != "fine" {
		t.Fatalf("first script = %q", res.Items[0].Script)
	}
	if !strings.HasPrefix(res.Items[1].Script, "(Error transcribing this video)") {
		t.Fatalf("second script = %q", res.Items[1].Script)
	}
}

type failOnSecond struct {
	ok    string
	calls int
}

func (f *failOnSecond) Configured() bool { return true }

func (f *failOnSecond) Transcribe(context.Context, string, string) (string, error) {
	f.calls++
	if f.calls > 1 {
		return "", errors.New("whisper timed out")
	}
	return f.ok, nil
}

func TestStartDemoFallback(t *testing.T) {
	t.Parallel()

	reg := scrape.NewRegistry()
	reg.Register("instagram", &fakeFetcher{})

	svc := New(reg, &fakeTranscriber{}, &fakeAdapter{}, Config{EmptyPoolPolicy: PoolPolicyDemo})
	res, err := svc.Start(context.Background(), startInput(domain.ModeCollector))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("demo items = %d", len(res.Items))
	}
	first := res.Items[0]
	if first.URL != "https://example.com/post/1" {
		t.Fatalf("url = %s", first.URL)
	}
	if *first.Metrics.Views != 100000 || *first.Metrics.Likes != 5000 || *first.Metrics.Comments != 200 || *first.Metrics.Score != 80.0 {
		t.Fatalf("metrics = %+v", first.Metrics)
	}
	second := res.Items[1]
	if *second.Metrics.Views != 101000 || *second.Metrics.Score != 81.0 {
		t.Fatalf("metrics = %+v", second.Metrics)
	}
	if !strings.HasPrefix(first.Script, "[DEMO]") {
		t.Fatalf("script = %q", first.Script)
	}
}

func TestStartEmptyPoolPolicy(t *testing.T) {
	t.Parallel()

	reg := scrape.NewRegistry()
	svc := New(reg, &fakeTranscriber{}, &fakeAdapter{}, Config{EmptyPoolPolicy: PoolPolicyEmpty})

	res, err := svc.Start(context.Background(), startInput(domain.ModeCollector))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Fatalf("items = %v", res.Items)
	}
}

func TestStartCapsProfiles(t *testing.T) {
	t.Parallel()

	reg := scrape.NewRegistry()
	fetcher := &fakeFetcher{posts: []feed.Post{videoPost("a", 100, 1, 0)}}
	reg.Register("instagram", fetcher)

	in := startInput(domain.ModeCollector)
	in.Profiles = nil
	for i := 0; i < 5; i++ {
		in.Profiles = append(in.Profiles, domain.Profile{
			Platform: "instagram",
			URL:      fmt.Sprintf("https://instagram.com/acct%d", i),
		})
	}

	svc := New(reg, &fakeTranscriber{text: "t"}, &fakeAdapter{}, Config{})
	if _, err := svc.Start(context.Background(), in); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if fetcher.calls != 3 {
		t.Fatalf("fetch calls = %d, want capped at 3", fetcher.calls)
	}
}

func TestStartFetchErrorContributesNothing(t *testing.T) {
	t.Parallel()

	reg := scrape.NewRegistry()
	reg.Register("instagram", &fakeFetcher{err: errors.New("actor down")})
	reg.Register("tiktok", &fakeFetcher{posts: []feed.Post{videoPost("tt", 200, 2, 0)}})

	in := startInput(domain.ModeCollector)
	in.Profiles = append(in.Profiles, domain.Profile{Platform: "tiktok", URL: "https://tiktok.com/@acct"})

	svc := New(reg, &fakeTranscriber{text: "t"}, &fakeAdapter{}, Config{})
	res, err := svc.Start(context.Background(), in)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].URL != "https://example.com/tt" {
		t.Fatalf("items = %+v", res.Items)
	}
}

func TestTranscribeSingleLink(t *testing.T) {
	t.Parallel()

	svc := New(scrape.NewRegistry(), &fakeTranscriber{text: "solo"}, &fakeAdapter{}, Config{})
	res, err := svc.Transcribe(context.Background(), domain.TranscribeInput{URL: "https://tiktok.com/@u/video/1"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Script != "solo" {
		t.Fatalf("items = %+v", res.Items)
	}
	if res.Items[0].Metrics.Views != nil || res.Items[0].Metrics.Score != nil {
		t.Fatal("single-link metrics must be null")
	}
}

func TestRewriteRequiresProvider(t *testing.T) {
	t.Parallel()

	svc := New(scrape.NewRegistry(), &fakeTranscriber{}, &fakeAdapter{configured: false}, Config{})
	if _, err := svc.Rewrite(context.Background(), domain.RewriteInput{Script: "s", UserPrompt: "p"}); err == nil {
		t.Fatal("expected error without a configured provider")
	}

	ad := &fakeAdapter{configured: true, bundle: domain.ScriptBundle{Script: "edited"}}
	svc = New(scrape.NewRegistry(), &fakeTranscriber{}, ad, Config{Lang: "en"})
	out, err := svc.Rewrite(context.Background(), domain.RewriteInput{Script: "s", UserPrompt: "p"})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if out.Script != "edited" {
		t.Fatalf("Script = %q", out.Script)
	}
	if ad.rewrites[0].Lang != "en" {
		t.Fatalf("lang = %q", ad.rewrites[0].Lang)
	}
}
