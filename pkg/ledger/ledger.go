package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/moneyflow/pkg/cache"
	"github.com/mcclellann/moneyflow/pkg/document"
	"github.com/mcclellann/moneyflow/pkg/models"
	"github.com/mcclellann/moneyflow/pkg/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const defaultPlanName = "Untitled plan"

// Planner handles saved plans and their simulations.
type Planner struct {
	storage store.Storage
	results cache.Cache[models.Result] // nil disables memoization
	group   singleflight.Group
	log     logrus.FieldLogger
	now     func() time.Time
}

// Option configures a Planner.
type Option func(*Planner)

// WithCache memoizes simulation results in c, keyed by a hash of the plan.
func WithCache(c cache.Cache[models.Result]) Option {
	return func(p *Planner) { p.results = c }
}

// WithLogger sets the logger used by the planner.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Planner) { p.log = log }
}

// NewPlanner creates a new Planner with a given Storage implementation.
func NewPlanner(s store.Storage, opts ...Option) *Planner {
	p := &Planner{
		storage: s,
		log:     logrus.StandardLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Simulate runs the month simulation for plan, reusing a cached result for an
// identical plan when a cache is configured. Concurrent calls for the same plan
// share a single computation. The returned result is never shared with other callers.
func (p *Planner) Simulate(plan models.Plan) models.Result {
	if p.results == nil {
		return Simulate(plan)
	}

	key, err := planKey(plan)
	if err != nil {
		p.log.WithError(err).Warn("Could not hash plan, simulating without cache")
		return Simulate(plan)
	}
	if res, ok := p.results.Get(key); ok {
		p.log.WithField("cache_hit", true).Debug("Simulation served from cache")
		return res.Clone()
	}

	v, _, _ := p.group.Do(key, func() (any, error) {
		res := Simulate(plan)
		p.results.Set(key, res)
		return res, nil
	})
	res := v.(models.Result)
	p.log.WithFields(logrus.Fields{"cache_hit": false, "entries": len(res.Ledger)}).Debug("Simulation computed")
	return res.Clone()
}

// planKey hashes the canonical JSON form of plan.
func planKey(plan models.Plan) (string, error) {
	plan.Strategy = plan.Strategy.Normalize()
	data, err := json.Marshal(plan)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// CreatePlan stores plan under name and returns the saved record.
func (p *Planner) CreatePlan(name string, plan models.Plan) (*models.SavedPlan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultPlanName
	}
	now := p.now().UTC()
	saved := &models.SavedPlan{
		ID:        uuid.New(),
		Name:      name,
		Plan:      plan.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := p.storage.CreatePlan(saved); err != nil {
		return nil, fmt.Errorf("failed to store plan: %w", err)
	}

	p.log.WithFields(logrus.Fields{"plan_id": saved.ID, "name": saved.Name}).Info("Plan created")
	return saved, nil
}

// GetPlan retrieves a plan by its ID.
func (p *Planner) GetPlan(id uuid.UUID) (*models.SavedPlan, error) {
	return p.storage.GetPlan(id)
}

// GetAllPlans retrieves all plans.
func (p *Planner) GetAllPlans() ([]*models.SavedPlan, error) {
	return p.storage.GetAllPlans()
}

// UpdatePlan updates an existing plan.
func (p *Planner) UpdatePlan(plan *models.SavedPlan) error {
	plan.UpdatedAt = p.now().UTC()
	return p.storage.UpdatePlan(plan)
}

// DeletePlan deletes a plan and its run history.
func (p *Planner) DeletePlan(id uuid.UUID) error {
	if err := p.storage.DeletePlan(id); err != nil {
		return err
	}
	p.log.WithField("plan_id", id).Info("Plan deleted")
	return nil
}

// ImportPlan merges an import document into a stored plan. The stored plan is
// only rewritten when the whole document parses.
func (p *Planner) ImportPlan(id uuid.UUID, data []byte) (*models.SavedPlan, error) {
	saved, err := p.storage.GetPlan(id)
	if err != nil {
		return nil, err
	}

	merged, err := document.Apply(saved.Plan, data)
	if err != nil {
		p.log.WithField("plan_id", id).WithError(err).Warn("Import rejected")
		return nil, err
	}

	saved.Plan = merged
	if err := p.UpdatePlan(saved); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	p.log.WithField("plan_id", id).Info("Plan imported")
	return saved, nil
}

// ExportPlan renders a stored plan as an import document.
func (p *Planner) ExportPlan(id uuid.UUID) ([]byte, error) {
	saved, err := p.storage.GetPlan(id)
	if err != nil {
		return nil, err
	}
	return document.Encode(saved.Plan)
}

// RunPlan simulates a stored plan and records the totals of the run. A
// non-empty strategy overrides the plan's own strategy for this run only.
func (p *Planner) RunPlan(id uuid.UUID, strategy models.Strategy) (*models.Run, models.Result, error) {
	saved, err := p.storage.GetPlan(id)
	if err != nil {
		return nil, models.Result{}, err
	}

	plan := saved.Plan
	if strategy != "" {
		plan.Strategy = strategy
	}
	plan.Strategy = plan.Strategy.Normalize()

	res := p.Simulate(plan)
	run := &models.Run{
		ID:        uuid.New(),
		PlanID:    saved.ID,
		Strategy:  plan.Strategy,
		Totals:    res.Totals,
		CreatedAt: p.now().UTC(),
	}
	if err := p.storage.CreateRun(run); err != nil {
		return nil, models.Result{}, fmt.Errorf("failed to store run: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"plan_id":     id,
		"strategy":    run.Strategy,
		"entries":     len(res.Ledger),
		"end_balance": res.Totals.EndBalance.String(),
	}).Info("Plan simulated")
	return run, res, nil
}

// GetRuns retrieves the run history of a plan.
func (p *Planner) GetRuns(id uuid.UUID) ([]*models.Run, error) {
	if _, err := p.storage.GetPlan(id); err != nil {
		return nil, err
	}
	return p.storage.GetRunsForPlan(id)
}
