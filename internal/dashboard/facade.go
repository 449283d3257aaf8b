package dashboard

import (
	"context"

	"apoyos/internal/core"
)

// Count is the envelope for bare directory sizes.
type Count struct {
	Total int64 `json:"total"`
}

// Facade shapes engine results into the response envelopes served over
// HTTP. It performs no aggregation of its own.
type Facade struct {
	engine *Service
}

func NewFacade(engine *Service) *Facade {
	return &Facade{engine: engine}
}

func (f *Facade) Stats(ctx context.Context, year int) (core.Stats, error) {
	return f.engine.DashboardStats(ctx, year)
}

func (f *Facade) Leaders(ctx context.Context) (Count, error) {
	n, err := f.engine.CountLeaders(ctx)
	return Count{Total: n}, err
}

func (f *Facade) Members(ctx context.Context) (Count, error) {
	n, err := f.engine.CountMembers(ctx)
	return Count{Total: n}, err
}

func (f *Facade) Support(ctx context.Context, year int) (core.SupportSummary, error) {
	return f.engine.SupportSummary(ctx, year)
}

func (f *Facade) SupportByMonth(ctx context.Context, year int) ([]core.MonthlySupport, error) {
	return f.engine.SupportByMonth(ctx, year)
}

func (f *Facade) SupportByType(ctx context.Context, year, month int) ([]core.TypeShare, error) {
	return f.engine.SupportByType(ctx, year, month)
}

func (f *Facade) MostSupported(ctx context.Context, year, month, limit int) ([]core.NeighborhoodRank, error) {
	return f.engine.TopNeighborhoods(ctx, year, month, limit, core.Descending)
}

func (f *Facade) LeastSupported(ctx context.Context, year, month, limit int) ([]core.NeighborhoodRank, error) {
	return f.engine.TopNeighborhoods(ctx, year, month, limit, core.Ascending)
}

// Ready reports whether the backing store answers.
func (f *Facade) Ready(ctx context.Context) error {
	return f.engine.Ping(ctx)
}
