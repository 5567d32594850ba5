// Package domain defines the types and interfaces for the usage service
package domain

import "context"

// Features metered per account
const (
	FeatureAnalyzeProfiles = "analyze_profiles"
	FeatureGenerateScripts = "generate_scripts"
)

// Counter is one per-account monthly usage row
type Counter struct {
	UserID  string
	Feature string
	Month   string // YYYY-MM
	Plan    string
	Used    int
}

// Snapshot is a counter joined with its plan limit
type Snapshot struct {
	UserID    string `json:"user_id"`
	Feature   string `json:"feature"`
	Plan      string `json:"plan"`
	Month     string `json:"month"`
	Limit     int    `json:"limit"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
}

// IncrementInput asks for one unit of a feature
type IncrementInput struct {
	UserID  string `json:"user_id" validate:"required"`
	Feature string `json:"feature" validate:"required"`
	Plan    string `json:"plan" validate:"required"`
}

// CounterPort reads and advances usage counters
type CounterPort interface {
	Remaining(ctx context.Context, userID, feature, plan string) (Snapshot, error)
	Increment(ctx context.Context, in IncrementInput) (Snapshot, error)
}
