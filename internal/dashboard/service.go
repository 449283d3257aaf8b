// Package dashboard computes the read-only aggregates shown on the
// constituent-services dashboard.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"apoyos/internal/core"
	applog "apoyos/internal/log"
	"apoyos/internal/store"
)

// Service is the aggregation engine. It holds no per-call state and is
// safe for concurrent use.
type Service struct {
	store        store.Store
	now          func() time.Time
	topLimit     int
	queryTimeout time.Duration
	log          *applog.StructuredLogger
}

type Option func(*Service)

// WithClock sets the source of "today". The returned time's location is
// the one dates are resolved in.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTopLimit changes the default leaderboard size.
func WithTopLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topLimit = n
		}
	}
}

// WithQueryTimeout bounds every public operation. Zero disables it.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) { s.queryTimeout = d }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *Service) { s.log = applog.NewStructuredLogger(l) }
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		now:      time.Now,
		topLimit: core.DefaultTopLimit,
		log:      applog.NewStructuredLogger(applog.Nop()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TopLimit is the leaderboard size used when callers pass 0.
func (s *Service) TopLimit() int { return s.topLimit }

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.Ping(ctx)
}

func (s *Service) CountLeaders(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.store.CountLeaders(ctx)
	if err != nil {
		return 0, s.failed(ctx, applog.OpCountLeaders, 0, 0, err)
	}
	return n, nil
}

func (s *Service) CountMembers(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.store.CountMembers(ctx)
	if err != nil {
		return 0, s.failed(ctx, applog.OpCountMembers, 0, 0, err)
	}
	return n, nil
}

// TotalSupportForYear sums every quantity delivered in year, up to today
// when year is the current one. Year 0 means the current year.
func (s *Service) TotalSupportForYear(ctx context.Context, year int) (int64, error) {
	return s.sumYear(ctx, s.now(), year)
}

// MonthlyAverage is the year total divided by the months elapsed,
// truncated toward zero.
func (s *Service) MonthlyAverage(ctx context.Context, year int) (int64, error) {
	summary, err := s.SupportSummary(ctx, year)
	return summary.Average, err
}

// SupportSummary returns the year total together with its monthly average,
// querying the ledger once. Window and divisor share the same today.
func (s *Service) SupportSummary(ctx context.Context, year int) (core.SupportSummary, error) {
	now := s.now()
	total, err := s.sumYear(ctx, now, year)
	if err != nil {
		return core.SupportSummary{}, err
	}
	return core.SupportSummary{
		Total:   total,
		Average: monthlyAverage(total, core.MonthsToConsider(now, year)),
	}, nil
}

func (s *Service) sumYear(ctx context.Context, now time.Time, year int) (int64, error) {
	r, err := core.ResolveDateRange(now, year, 0)
	if err != nil {
		return 0, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	total, err := s.store.SumQuantity(ctx, r)
	if err != nil {
		return 0, s.failed(ctx, applog.OpTotalSupport, year, 0, err)
	}
	return total, nil
}

// DashboardStats runs the two directory counts and the year total
// concurrently and derives the average from the total.
func (s *Service) DashboardStats(ctx context.Context, year int) (core.Stats, error) {
	now := s.now()
	r, err := core.ResolveDateRange(now, year, 0)
	if err != nil {
		return core.Stats{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var stats core.Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountLeaders(gctx)
		stats.LeaderCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountMembers(gctx)
		stats.MemberCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.SumQuantity(gctx, r)
		stats.SupportTotal = n
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Stats{}, s.failed(ctx, applog.OpDashboardStats, year, 0, err)
	}

	stats.SupportAverage = monthlyAverage(stats.SupportTotal, core.MonthsToConsider(now, year))
	return stats, nil
}

// SupportByMonth always returns twelve entries, January first, over the
// whole calendar year even when year is the current one.
func (s *Service) SupportByMonth(ctx context.Context, year int) ([]core.MonthlySupport, error) {
	if year < 0 {
		return nil, core.ErrInvalidYear
	}
	now := s.now()
	if year == 0 {
		year = now.Year()
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.store.SumByMonth(ctx, core.FullYearRange(year, now.Location()))
	if err != nil {
		return nil, s.failed(ctx, applog.OpSupportByMonth, year, 0, err)
	}
	return overlayMonths(rows), nil
}

// SupportByType returns one share per stored type label, largest first.
func (s *Service) SupportByType(ctx context.Context, year, month int) ([]core.TypeShare, error) {
	r, err := core.ResolveDateRange(s.now(), year, month)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.store.SumByType(ctx, r)
	if err != nil {
		return nil, s.failed(ctx, applog.OpSupportByType, year, month, err)
	}
	return typeShares(rows), nil
}

// TopNeighborhoods ranks neighborhoods by the support delivered to the
// leaders and members living there. A zero limit uses the configured
// default.
func (s *Service) TopNeighborhoods(ctx context.Context, year, month, limit int, dir core.SortDirection) ([]core.NeighborhoodRank, error) {
	if limit == 0 {
		limit = s.topLimit
	}
	if limit < 0 || limit > core.MaxTopLimit {
		return nil, core.ErrInvalidLimit
	}
	if !dir.Valid() {
		return nil, core.ErrInvalidDirection
	}
	r, err := core.ResolveDateRange(s.now(), year, month)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var leaders, members []core.LocationQuantity
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.store.SumByLocation(gctx, core.BeneficiaryLeader, r)
		leaders = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.store.SumByLocation(gctx, core.BeneficiaryMember, r)
		members = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.failed(ctx, applog.OpTopNeighborhoods, year, month, err)
	}

	return RankNeighborhoods(limit, dir, leaders, members), nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// failed logs a store error and hides it behind ErrQueryFailed. The cause
// stays reachable through errors.Is.
func (s *Service) failed(ctx context.Context, op string, year, month int, err error) error {
	s.log.LogAggregationFailed(ctx, op, year, month, err)
	return fmt.Errorf("%s: %w: %w", op, core.ErrQueryFailed, err)
}
