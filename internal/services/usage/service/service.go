// Package service implements the monthly usage counter policy
package service

import (
	"context"
	"strings"
	"time"

	perr "creatorhoop/internal/platform/errors"
	"creatorhoop/internal/platform/store"
	"creatorhoop/internal/services/usage/domain"
	"creatorhoop/internal/services/usage/repo"
)

// effectively unlimited for plans without a configured cap
const unlimitedCap = 1_000_000_000

// Config carries plan limits
type Config struct {
	LimitStarter int
	LimitPro     int
}

// Service implements domain.CounterPort over a Postgres repo. A nil DB means
// usage metering is disabled and every call reports unavailable.
type Service struct {
	DB      store.TxRunner
	Storage repo.Storage
	Cfg     Config

	now func() time.Time
}

// New constructs the usage service; db may be nil when Postgres is off
func New(db store.TxRunner, storage repo.Storage, cfg Config) *Service {
	if cfg.LimitStarter <= 0 {
		cfg.LimitStarter = 3
	}
	if cfg.LimitPro <= 0 {
		cfg.LimitPro = 7
	}
	return &Service{DB: db, Storage: storage, Cfg: cfg, now: time.Now}
}

// Enabled reports whether a counter store is wired
func (s *Service) Enabled() bool { return s.DB != nil && s.Storage != nil }

// Ensure creates the backing table when metering is enabled
func (s *Service) Ensure(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.Storage.Ensure(ctx)
}

func (s *Service) monthKey() string { return s.now().UTC().Format("2006-01") }

func (s *Service) limitFor(plan string) int {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case "starter":
		return s.Cfg.LimitStarter
	case "pro":
		return s.Cfg.LimitPro
	}
	return unlimitedCap
}

// Remaining implements domain.CounterPort
func (s *Service) Remaining(ctx context.Context, userID, feature, plan string) (domain.Snapshot, error) {
	if !s.Enabled() {
		return domain.Snapshot{}, perr.Unavailablef("usage metering requires postgres")
	}
	month := s.monthKey()
	limit := s.limitFor(plan)

	c, _, err := s.Storage.Get(ctx, s.DB, userID, feature, month)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.Snapshot{
		UserID:    userID,
		Feature:   feature,
		Plan:      plan,
		Month:     month,
		Limit:     limit,
		Used:      c.Used,
		Remaining: max(0, limit-c.Used),
	}, nil
}

// Increment implements domain.CounterPort. The read-check-increment runs in
// one transaction holding a row lock, so concurrent requests cannot exceed
// the plan limit.
func (s *Service) Increment(ctx context.Context, in domain.IncrementInput) (domain.Snapshot, error) {
	if !s.Enabled() {
		return domain.Snapshot{}, perr.Unavailablef("usage metering requires postgres")
	}
	month := s.monthKey()
	limit := s.limitFor(in.Plan)

	var used int
	err := s.DB.Tx(ctx, func(q store.RowQuerier) error {
		c, _, err := s.Storage.GetForUpdate(ctx, q, in.UserID, in.Feature, month)
		if err != nil {
			return err
		}
		if c.Used >= limit {
			return perr.Conflictf("monthly limit reached (%d)", limit)
		}
		c.Plan = in.Plan
		c.Used++
		used = c.Used
		return s.Storage.Upsert(ctx, q, c)
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.Snapshot{
		UserID:    in.UserID,
		Feature:   in.Feature,
		Plan:      in.Plan,
		Month:     month,
		Limit:     limit,
		Used:      used,
		Remaining: max(0, limit-used),
	}, nil
}
