package guideon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"creatorhoop/internal/platform/testkit"
)

type fakeProvider struct {
	name       string
	configured bool
	reply      string
	err        error
	calls      int
	lastSystem string
	lastUser   string
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.lastSystem = system
	f.lastUser = user
	return f.reply, f.err
}

func newTestService(t *testing.T, primary, secondary *fakeProvider) *Service {
	t.Helper()
	return NewService(Options{Preferred: "anthropic"}, nil, primary, secondary)
}

func TestPromptStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scriptwriter.txt"), []byte("  be original  \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "simple"), []byte("keep the tone"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewPromptStore(dir)
	if got := s.Load("Scriptwriter"); got != "be original" {
		t.Fatalf("Load(scriptwriter) = %q", got)
	}
	if got := s.Load("simple"); got != "keep the tone" {
		t.Fatalf("Load(simple) = %q", got)
	}
	if got := s.Load("user_rules"); got != "" {
		t.Fatalf("Load(user_rules) = %q, want empty", got)
	}

	// cached: removing the dir must not change answers
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if got := s.Load("scriptwriter"); got != "be original" {
		t.Fatalf("cached Load(scriptwriter) = %q", got)
	}
}

func TestAdaptFullLevelParsesJSON(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "anthropic", configured: true,
		reply: "Sure, here you go:\n{\"script\": \"new script // cut\", \"hooks\": [\"h1\", \"h2\"], \"cta\": \"follow me\"}"}
	svc := newTestService(t, p, &fakeProvider{name: "openai"})

	res := svc.Adapt(context.Background(), AdaptInput{
		Transcript:      "original words",
		NichePrompt:     "fitness",
		AdaptationLevel: LevelFull,
	})
	if res.Script != "new script // cut" {
		t.Fatalf("Script = %q", res.Script)
	}
	if len(res.Hooks) != 2 || res.CTA != "follow me" {
		t.Fatalf("Hooks/CTA = %v / %q", res.Hooks, res.CTA)
	}
	testkit.MustContain(t, p.lastUser, "fitness")
	testkit.MustContain(t, p.lastUser, "original words")
}

func TestAdaptSimpleLevelPlainText(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "anthropic", configured: true, reply: "adapted plain text"}
	svc := newTestService(t, p, &fakeProvider{name: "openai"})

	res := svc.Adapt(context.Background(), AdaptInput{
		Transcript:      "source",
		AdaptationLevel: LevelSimple,
	})
	if res.Script != "adapted plain text" {
		t.Fatalf("Script = %q", res.Script)
	}
	if len(res.Hooks) != 0 || res.CTA != "" {
		t.Fatalf("simple level must not emit hooks/cta: %v / %q", res.Hooks, res.CTA)
	}
	if strings.Contains(p.lastUser, "JSON") {
		t.Fatal("simple level must ask for plain text")
	}
}

func TestAdaptFallsBackToTranscript(t *testing.T) {
	t.Parallel()

	svc := newTestService(t,
		&fakeProvider{name: "anthropic", configured: false},
		&fakeProvider{name: "openai", configured: false})

	res := svc.Adapt(context.Background(), AdaptInput{Transcript: "keep me", AdaptationLevel: LevelFull})
	if res.Script != "keep me" {
		t.Fatalf("Script = %q", res.Script)
	}
	if res.Hooks == nil || len(res.Hooks) != 0 {
		t.Fatalf("Hooks = %v, want empty slice", res.Hooks)
	}
}

func TestAdaptCustomRules(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "anthropic", configured: true, reply: "{\"script\":\"ok\",\"hooks\":[],\"cta\":\"\"}"}
	svc := newTestService(t, p, &fakeProvider{name: "openai"})

	svc.Adapt(context.Background(), AdaptInput{
		Transcript:      "t",
		AdaptationLevel: LevelFull,
		RulesSource:     RulesCustom,
		CustomRules:     "never say maybe",
	})
	testkit.MustContain(t, p.lastSystem, "never say maybe")
}

func TestCompleteCrossProviderFallback(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "anthropic", configured: true, err: context.DeadlineExceeded}
	secondary := &fakeProvider{name: "openai", configured: true, reply: "from openai"}
	svc := newTestService(t, primary, secondary)

	text, ok := svc.complete(context.Background(), "sys", "usr")
	if !ok || text != "from openai" {
		t.Fatalf("complete = %q, %v", text, ok)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("calls = %d/%d", primary.calls, secondary.calls)
	}
}

func TestRewriteUnchangedOutput(t *testing.T) {
	t.Parallel()

	base := "same script // cut"
	p := &fakeProvider{name: "anthropic", configured: true,
		reply: "{\"script\": \"same script // cut\", \"hooks\": [], \"cta\": \"\"}"}
	svc := newTestService(t, p, &fakeProvider{name: "openai"})

	res := svc.Rewrite(context.Background(), RewriteInput{Script: base, UserPrompt: "change the hook"})
	if !strings.HasPrefix(res.Script, base) || !strings.Contains(res.Script, "[Notice]") {
		t.Fatalf("unchanged rewrite must carry an advisory suffix, got %q", res.Script)
	}
}

func TestRewriteApplied(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "anthropic", configured: true,
		reply: "{\"script\": \"brand new hook // cut rest stays\", \"hooks\": [\"nh\"], \"cta\": \"sub\"}"}
	svc := newTestService(t, p, &fakeProvider{name: "openai"})

	res := svc.Rewrite(context.Background(), RewriteInput{Script: "old // cut rest stays", UserPrompt: "change the hook"})
	if res.Script != "brand new hook // cut rest stays" {
		t.Fatalf("Script = %q", res.Script)
	}
	if len(res.Hooks) != 1 || res.CTA != "sub" {
		t.Fatalf("Hooks/CTA = %v / %q", res.Hooks, res.CTA)
	}
}

func TestRewriteNoProvider(t *testing.T) {
	t.Parallel()

	svc := newTestService(t,
		&fakeProvider{name: "anthropic"},
		&fakeProvider{name: "openai"})

	res := svc.Rewrite(context.Background(), RewriteInput{Script: "base"})
	if !strings.HasPrefix(res.Script, "base") || !strings.Contains(res.Script, "[Notice]") {
		t.Fatalf("Script = %q", res.Script)
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"script":"a","hooks":[],"cta":""}`, "a", true},
		{"noisy prefix", "Here it is:\n{\"script\":\"b\",\"hooks\":[],\"cta\":\"\"}\nthanks", "b", true},
		{"not json", "just prose", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := extractJSON(tt.in)
			if ok != tt.ok || got.Script != tt.want {
				t.Fatalf("extractJSON(%q) = %q, %v", tt.in, got.Script, ok)
			}
		})
	}
}

func TestTruncateRuneSafe(t *testing.T) {
	t.Parallel()

	s := strings.Repeat("é", 1100) // 2 bytes each
	out := truncate(s, maxTranscriptLen)
	if !strings.HasSuffix(out, "...") {
		t.Fatal("expected truncation suffix")
	}
	if !utf8.ValidString(out) {
		t.Fatal("truncation split a rune")
	}
}
