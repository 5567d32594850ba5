// Package guideon adapts transcripts into recording-ready scripts through an
// LLM provider. Two providers are supported, anthropic and openai, with
// cross-provider fallback when the preferred one is unconfigured or fails.
package guideon

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"creatorhoop/internal/platform/logger"
	pstrings "creatorhoop/internal/platform/strings"
)

// Adaptation levels and rule sources accepted by Adapt
const (
	LevelSimple = "simple"
	LevelFull   = "completa"

	RulesGuideon = "guideon"
	RulesCustom  = "custom"
)

const (
	maxTranscriptLen = 2000
	maxRewriteLen    = 4000
	defaultLang      = "es"
)

// Provider is a single LLM backend
type Provider interface {
	Name() string
	Configured() bool
	Complete(ctx context.Context, system, user string) (string, error)
}

// AdaptInput drives a transcript adaptation
type AdaptInput struct {
	Transcript      string
	NichePrompt     string
	RulesPrompt     string
	AdaptationLevel string
	RulesSource     string
	CustomRules     string
	Lang            string
}

// RewriteInput drives a per-card rewrite of an existing script
type RewriteInput struct {
	Script      string
	UserPrompt  string
	NichePrompt string
	Lang        string
}

// Result is the adapted script plus optional hooks and call to action
type Result struct {
	Script string   `json:"script"`
	Hooks  []string `json:"hooks"`
	CTA    string   `json:"cta"`
}

// Options configures the Service
type Options struct {
	Preferred string // "anthropic" | "openai"
	Lang      string
}

// Service routes adaptation requests to the configured providers
type Service struct {
	providers []Provider
	prompts   *PromptStore
	opts      Options
	log       logger.Logger
}

// NewService orders providers by preference; prompts may be nil
func NewService(o Options, prompts *PromptStore, anthropic, openai Provider) *Service {
	if prompts == nil {
		prompts = NewPromptStore("")
	}
	ordered := []Provider{anthropic, openai}
	if strings.EqualFold(strings.TrimSpace(o.Preferred), "openai") {
		ordered = []Provider{openai, anthropic}
	}
	providers := make([]Provider, 0, len(ordered))
	for _, p := range ordered {
		if p != nil {
			providers = append(providers, p)
		}
	}
	return &Service{
		providers: providers,
		prompts:   prompts,
		opts:      o,
		log:       *logger.Named("guideon"),
	}
}

// Configured reports whether at least one provider has credentials
func (s *Service) Configured() bool {
	for _, p := range s.providers {
		if p.Configured() {
			return true
		}
	}
	return false
}

// complete tries each provider in preference order
func (s *Service) complete(ctx context.Context, system, user string) (string, bool) {
	for _, p := range s.providers {
		if !p.Configured() {
			continue
		}
		text, err := p.Complete(ctx, system, user)
		if err != nil {
			s.log.Debug().Str("provider", p.Name()).Err(err).Msg("provider call failed")
			continue
		}
		if text != "" {
			return text, true
		}
	}
	return "", false
}

// Adapt turns a transcript into a script for the caller's niche. Any provider
// failure falls back to the raw transcript with empty hooks and cta.
func (s *Service) Adapt(ctx context.Context, in AdaptInput) Result {
	lang := pstrings.Or(strings.TrimSpace(in.Lang), s.opts.Lang, defaultLang)
	transcript := truncate(strings.TrimSpace(in.Transcript), maxTranscriptLen)
	simple := in.AdaptationLevel == LevelSimple

	var system, user string
	if simple {
		system = pstrings.Or(s.prompts.Load(PromptSimple),
			"You are a scriptwriter who ADAPTS a text to the given NICHE without restructuring it or changing its original tone. "+
				"Keep the idea, but swap examples, terminology and the CTA to the niche context. Avoid identical phrasing. "+
				"Language: "+lang)
		user = fmt.Sprintf(
			"NICHE: %s\nRULES: %s\n"+
				"Adapt ONLY the context (examples, CTA, terminology) without changing the original structure or pacing.\n"+
				"Return it as PLAIN TEXT ready to record.\n\nSOURCE_TEXT:\n%s\n",
			in.NichePrompt, in.RulesPrompt, transcript)
	} else {
		if in.RulesSource == RulesCustom && strings.TrimSpace(in.CustomRules) != "" {
			base := pstrings.Or(s.prompts.Load(PromptUserRules),
				"You are a senior scriptwriter for Reels/TikTok. Follow the user's rules with priority. Deliver the final script with // cut markers.")
			system = fmt.Sprintf("%s\n\nUSER_RULES:\n%s\nLanguage: %s", base, strings.TrimSpace(in.CustomRules), lang)
		} else {
			base := pstrings.Or(s.prompts.Load(PromptScriptwriter),
				"You are a senior scriptwriter for Reels/TikTok. Structure: hook (<3s), development (2-3 ideas), social proof, CTA. "+
					"Originality is mandatory. Use // cut markers.")
			system = fmt.Sprintf("%s\nLanguage: %s", base, lang)
		}
		user = fmt.Sprintf(
			"Niche/Product: %s\nRules/Tone: %s\nLanguage: %s\n"+
				"Source transcript to adapt (do NOT copy literally):\n%s\n\n"+
				"Return ONLY a JSON object of this exact shape:\n"+
				"{\n  \"script\": \"final text ready to record with // cut\",\n  \"hooks\": [\"hook1\",\"hook2\",\"hook3\",\"hook4\",\"hook5\"],\n  \"cta\": \"call to action\"\n}\n",
			in.NichePrompt, in.RulesPrompt, lang, transcript)
	}

	text, ok := s.complete(ctx, system, user)
	if !ok {
		return Result{Script: in.Transcript, Hooks: []string{}, CTA: ""}
	}

	if !simple {
		if obj, ok := extractJSON(text); ok {
			return Result{
				Script: pstrings.Or(strings.TrimSpace(obj.Script), in.Transcript),
				Hooks:  orEmpty(obj.Hooks),
				CTA:    obj.CTA,
			}
		}
	}
	return Result{Script: strings.TrimSpace(text), Hooks: []string{}, CTA: ""}
}

// Rewrite applies user-requested edits to an existing script. An unchanged
// response gets an advisory suffix so the UI never shows a silent no-op.
func (s *Service) Rewrite(ctx context.Context, in RewriteInput) Result {
	lang := pstrings.Or(strings.TrimSpace(in.Lang), s.opts.Lang, defaultLang)
	base := truncate(strings.TrimSpace(in.Script), maxRewriteLen)

	rules := pstrings.Or(s.prompts.Load(PromptScriptwriter),
		"You are a senior scriptwriter for Reels/TikTok. Structure: hook (<3s), development (2-3 ideas), social proof, CTA. "+
			"Originality is mandatory. Use // cut markers.")

	system := rules +
		"\n\n[STRICT RULES]\n" +
		"1) Apply ONLY the changes requested in USER_INSTRUCTION.\n" +
		"2) ALWAYS return an exact JSON object with the keys script, hooks, cta. NOTHING outside the JSON.\n" +
		"3) In `script`, return the COMPLETE script ready to record with // cut markers.\n" +
		"4) If the instruction says to change the hook, replace the hook but KEEP the rest of the script.\n" +
		"5) Replace every placeholder (e.g. [niche]) with the given niche, without brackets.\n" +
		"6) Returning the original text unchanged is FORBIDDEN.\n" +
		"7) If you cannot comply, answer this error JSON: {\"script\":\"\",\"hooks\":[],\"cta\":\"[Error] Could not apply the requested changes.\"}.\n" +
		"\nTarget language: " + lang + "\n"

	user := fmt.Sprintf(
		"NICHE (optional): %s\nUSER_INSTRUCTION:\n%s\n\n"+
			"BASE_TEXT (do not invent, edit it per the instruction):\n%s\n\n"+
			"RESPONSE FORMAT (MANDATORY, JSON ONLY):\n"+
			"{\n  \"script\": \"final text ready to record with // cut\",\n  \"hooks\": [\"hook1\",\"hook2\"],\n  \"cta\": \"call to action\"\n}\n",
		in.NichePrompt, pstrings.Or(in.UserPrompt, "(no changes)"), base)

	text, ok := s.complete(ctx, system, user)
	if !ok {
		return Result{
			Script: base + "\n\n[Notice] Could not generate an adapted version. Check the model and API key configuration.",
			Hooks:  []string{},
			CTA:    "",
		}
	}

	if obj, jsonOK := extractJSON(text); jsonOK {
		script := pstrings.Or(strings.TrimSpace(obj.Script), in.Script)
		if unchanged(script, base) && (in.UserPrompt != "" || in.NichePrompt != "") {
			return Result{
				Script: base + "\n\n[Notice] No changes were applied. Rephrase the edit instruction.",
				Hooks:  orEmpty(obj.Hooks),
				CTA:    obj.CTA,
			}
		}
		return Result{Script: script, Hooks: orEmpty(obj.Hooks), CTA: obj.CTA}
	}

	clean := strings.TrimSpace(text)
	if unchanged(clean, base) {
		clean += "\n\n[Notice] The response applied no changes. Specify the target (hook, structure, CTA) and the niche."
	}
	return Result{Script: clean, Hooks: []string{}, CTA: ""}
}

var jsonBlockRe = regexp.MustCompile(`\{[\s\S]*\}`)

// extractJSON finds a {script, hooks, cta} object in a possibly noisy reply
func extractJSON(text string) (Result, bool) {
	if text == "" {
		return Result{}, false
	}
	var out Result
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, true
	}
	if block := jsonBlockRe.FindString(text); block != "" {
		if err := json.Unmarshal([]byte(block), &out); err == nil {
			return out, true
		}
	}
	return Result{}, false
}

func unchanged(a, b string) bool {
	flatten := func(s string) string {
		return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	}
	return flatten(a) == flatten(b)
}

// truncate caps s at n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func orEmpty(hooks []string) []string {
	if hooks == nil {
		return []string{}
	}
	return hooks
}
