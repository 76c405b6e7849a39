package impact

import (
	"sync"

	"github.com/impactwise/ripple/internal/core/model"
)

// Registry keeps the current impact report per merge request. Re-analysis
// replaces the prior report atomically; only the latest is retrievable.
type Registry struct {
	mu      sync.RWMutex
	reports map[string]*model.ImpactReport
}

func NewRegistry() *Registry {
	return &Registry{reports: make(map[string]*model.ImpactReport)}
}

func (r *Registry) Put(report *model.ImpactReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[report.MRID] = report
}

func (r *Registry) Get(mrID string) (*model.ImpactReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rep, ok := r.reports[mrID]
	return rep, ok
}

func (r *Registry) Delete(mrID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reports, mrID)
}
