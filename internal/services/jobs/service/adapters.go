package service

import (
	"context"

	"creatorhoop/internal/adapters/guideon"
	"creatorhoop/internal/services/jobs/domain"
)

// GuideonAdapter satisfies domain.AdapterPort over the guideon service
type GuideonAdapter struct {
	Svc *guideon.Service
}

// Configured implements domain.AdapterPort
func (a GuideonAdapter) Configured() bool { return a.Svc.Configured() }

// Adapt implements domain.AdapterPort
func (a GuideonAdapter) Adapt(ctx context.Context, p domain.AdaptParams) domain.ScriptBundle {
	res := a.Svc.Adapt(ctx, guideon.AdaptInput{
		Transcript:      p.Transcript,
		NichePrompt:     p.NichePrompt,
		RulesPrompt:     p.RulesPrompt,
		AdaptationLevel: p.AdaptationLevel,
		RulesSource:     p.RulesSource,
		CustomRules:     p.CustomRules,
		Lang:            p.Lang,
	})
	return domain.ScriptBundle{Script: res.Script, Hooks: res.Hooks, CTA: res.CTA}
}

// Rewrite implements domain.AdapterPort
func (a GuideonAdapter) Rewrite(ctx context.Context, p domain.RewriteParams) domain.ScriptBundle {
	res := a.Svc.Rewrite(ctx, guideon.RewriteInput{
		Script:      p.Script,
		UserPrompt:  p.UserPrompt,
		NichePrompt: p.NichePrompt,
		Lang:        p.Lang,
	})
	return domain.ScriptBundle{Script: res.Script, Hooks: res.Hooks, CTA: res.CTA}
}
