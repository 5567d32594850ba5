// Package domain defines the types and interfaces for the jobs service
package domain

import "context"

// Modes a job can run in
const (
	ModeCollector = "collector"
	ModeCreative  = "creative"
)

// Profile is one social account to collect from
type Profile struct {
	Platform string `json:"platform" validate:"required"`
	URL      string `json:"url" validate:"required,url"`
}

// CreativeParams tune the adaptation stage of a creative job
type CreativeParams struct {
	NichePrompt     string `json:"niche_prompt"`
	RulesPrompt     string `json:"rules_prompt"`
	AdaptationLevel string `json:"adaptation_level" validate:"omitempty,oneof=simple completa"`
	RulesSource     string `json:"rules_source" validate:"omitempty,oneof=guideon custom"`
	CustomRules     string `json:"custom_rules"`
	Lang            string `json:"lang"`
}

// StartInput is the job request
type StartInput struct {
	UserID     string          `json:"user_id" validate:"required"`
	Mode       string          `json:"mode" validate:"required,oneof=collector creative"`
	Profiles   []Profile       `json:"profiles" validate:"required,min=1,dive"`
	Window     string          `json:"window" validate:"required"`
	NumScripts int             `json:"num_scripts" validate:"required,min=1"`
	Creative   *CreativeParams `json:"creative" validate:"omitempty"`
	SortBy     string          `json:"sort_by" validate:"omitempty,oneof=score views likes comments"`
	Order      string          `json:"order" validate:"omitempty,oneof=asc desc"`
}

// TranscribeInput asks for a transcript of one link
type TranscribeInput struct {
	URL string `json:"url" validate:"required,url"`
}

// RewriteInput asks for edits to an existing script
type RewriteInput struct {
	Script          string `json:"script" validate:"required"`
	UserPrompt      string `json:"user_prompt" validate:"required"`
	Mode            string `json:"mode"`
	NichePrompt     string `json:"niche_prompt"`
	AdaptationLevel string `json:"adaptation_level" validate:"omitempty,oneof=simple completa"`
	RulesSource     string `json:"rules_source" validate:"omitempty,oneof=guideon custom"`
	CustomRules     string `json:"custom_rules"`
	Lang            string `json:"lang"`
}

// Metrics carries post numbers; nil means unknown (single-link transcripts)
type Metrics struct {
	Views    *int64   `json:"views"`
	Likes    *int64   `json:"likes"`
	Comments *int64   `json:"comments"`
	Score    *float64 `json:"score"`
}

// Item is one scripted result card
type Item struct {
	URL     string  `json:"url"`
	Metrics Metrics `json:"metrics"`
	Script  string  `json:"script"`
}

// StartResult is the job payload
type StartResult struct {
	Items []Item `json:"items"`
}

// ScriptBundle is an adapted script plus optional hooks and call to action
type ScriptBundle struct {
	Script string   `json:"script"`
	Hooks  []string `json:"hooks"`
	CTA    string   `json:"cta"`
}

// AdaptParams drive a transcript adaptation
type AdaptParams struct {
	Transcript      string
	NichePrompt     string
	RulesPrompt     string
	AdaptationLevel string
	RulesSource     string
	CustomRules     string
	Lang            string
}

// RewriteParams drive a per-card rewrite
type RewriteParams struct {
	Script      string
	UserPrompt  string
	NichePrompt string
	Lang        string
}

// TranscriberPort produces transcripts for post links
type TranscriberPort interface {
	Configured() bool
	Transcribe(ctx context.Context, postURL, mediaHint string) (string, error)
}

// AdapterPort turns transcripts into scripts
type AdapterPort interface {
	Configured() bool
	Adapt(ctx context.Context, p AdaptParams) ScriptBundle
	Rewrite(ctx context.Context, p RewriteParams) ScriptBundle
}

// JobPort is the surface the HTTP layer mounts
type JobPort interface {
	Start(ctx context.Context, in StartInput) (StartResult, error)
	Transcribe(ctx context.Context, in TranscribeInput) (StartResult, error)
	Rewrite(ctx context.Context, in RewriteInput) (ScriptBundle, error)
}
