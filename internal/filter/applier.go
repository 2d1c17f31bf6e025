package filter

import (
	"context"
	"net/url"
	"sync"

	"github.com/kindify/kindify-gateway/internal/api"
	"github.com/kindify/kindify-gateway/internal/domain"
)

// Service is the slice of the upstream client the applier needs.
type Service interface {
	FilterNGOs(ctx context.Context, params url.Values) (api.FilterNGOsResult, error)
}

// Outcome reports how one apply attempt settled. Stale outcomes were
// superseded by a later apply and did not touch the result set.
type Outcome struct {
	OK      bool
	Stale   bool
	Message string
	Results []domain.NGO
}

// Applier owns the apply-filter request lifecycle for one session: the
// loading flag, the authoritative result set, and the last error. A
// monotonically increasing generation counter makes the latest issued
// request the only one allowed to mutate state; responses from superseded
// requests are discarded, so a slow early response can never overwrite a
// fast later one.
type Applier struct {
	mu      sync.Mutex
	svc     Service
	panel   *Panel
	gen     uint64
	loading bool
	results []domain.NGO
	err     string
}

func NewApplier(svc Service) *Applier {
	return &Applier{
		svc:     svc,
		panel:   NewPanel(),
		results: []domain.NGO{},
	}
}

func (a *Applier) Panel() *Panel {
	return a.panel
}

// Apply builds the query, calls the remote filter endpoint, and settles the
// result. Success replaces the result set wholesale and clears any prior
// error; failure clears the result set and records the server's message. The
// panel closes once the attempt settles, success or not.
func (a *Applier) Apply(ctx context.Context, c Criteria) Outcome {
	params, buildErr := BuildQuery(c)

	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.loading = true
	a.mu.Unlock()

	var res api.FilterNGOsResult
	var err error
	if buildErr != nil {
		err = buildErr
	} else {
		res, err = a.svc.FilterNGOs(ctx, params)
	}
	settled := api.Normalize(res.Result, err)

	defer a.panel.Close()

	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.gen {
		// A newer apply owns the loading flag and the result set now.
		return Outcome{Stale: true, Message: settled.Message}
	}

	a.loading = false
	if !settled.Success {
		a.results = []domain.NGO{}
		a.err = settled.Message
		return Outcome{Message: settled.Message}
	}

	results := res.Data
	if results == nil {
		results = []domain.NGO{}
	}
	a.results = results
	a.err = ""
	return Outcome{OK: true, Results: a.snapshotLocked()}
}

// Results returns a copy of the authoritative result set.
func (a *Applier) Results() []domain.NGO {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Applier) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

func (a *Applier) Err() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

func (a *Applier) snapshotLocked() []domain.NGO {
	out := make([]domain.NGO, len(a.results))
	copy(out, a.results)
	return out
}
