package canteen

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/appetiteclub/apt"
)

// Policy is the tunable parameter set consulted on every order-creation
// evaluation. It is read as an immutable snapshot: one evaluation sees one
// consistent policy even if an update lands mid-flight.
type Policy struct {
	CutoffLeadHours int `json:"cutoff_lead_hours" bson:"cutoff_lead_hours"`
	StrikeThreshold int `json:"strike_threshold" bson:"strike_threshold"`
	RestrictionDays int `json:"restriction_days" bson:"restriction_days"`
	HorizonDays     int `json:"horizon_days" bson:"horizon_days"`

	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy string    `json:"updated_by" bson:"updated_by"`
}

func DefaultPolicy() Policy {
	return Policy{
		CutoffLeadHours: 6,
		StrikeThreshold: 3,
		RestrictionDays: 7,
		HorizonDays:     14,
	}
}

// Validate performs basic range checks only. Misconfiguration beyond that
// is an operator error, not a system failure.
func (p Policy) Validate() []string {
	var errs []string
	if p.CutoffLeadHours < 0 {
		errs = append(errs, "cutoff_lead_hours cannot be negative")
	}
	if p.StrikeThreshold < 0 {
		errs = append(errs, "strike_threshold cannot be negative")
	}
	if p.RestrictionDays < 0 {
		errs = append(errs, "restriction_days cannot be negative")
	}
	if p.HorizonDays < 0 {
		errs = append(errs, "horizon_days cannot be negative")
	}
	return errs
}

func (p Policy) CutoffLead() time.Duration {
	return time.Duration(p.CutoffLeadHours) * time.Hour
}

func (p Policy) RestrictionDuration() time.Duration {
	return time.Duration(p.RestrictionDays) * 24 * time.Hour
}

// PolicyStore serves policy snapshots. Readers never observe a half-written
// policy: updates swap the whole snapshot atomically after persisting it.
type PolicyStore struct {
	current atomic.Pointer[Policy]
	repo    PolicyRepo
	logger  apt.Logger
}

func NewPolicyStore(repo PolicyRepo, logger apt.Logger) *PolicyStore {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	s := &PolicyStore{
		repo:   repo,
		logger: logger,
	}
	def := DefaultPolicy()
	s.current.Store(&def)
	return s
}

// Warm loads the persisted policy, seeding the default when none exists.
func (s *PolicyStore) Warm(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	p, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("cannot load policy: %w", err)
	}
	if p == nil {
		def := DefaultPolicy()
		if err := s.repo.Save(ctx, &def); err != nil {
			return fmt.Errorf("cannot seed default policy: %w", err)
		}
		s.current.Store(&def)
		s.logger.Info("seeded default policy")
		return nil
	}
	s.current.Store(p)
	return nil
}

// Current returns the active policy snapshot by value.
func (s *PolicyStore) Current() Policy {
	return *s.current.Load()
}

// Replace persists and publishes a new policy snapshot.
func (s *PolicyStore) Replace(ctx context.Context, p Policy) error {
	if errs := p.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid policy: %v", errs)
	}
	if s.repo != nil {
		if err := s.repo.Save(ctx, &p); err != nil {
			return fmt.Errorf("cannot persist policy: %w", err)
		}
	}
	s.current.Store(&p)
	return nil
}
