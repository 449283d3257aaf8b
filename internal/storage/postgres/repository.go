// Package postgres is the PostgreSQL backend of the dashboard store.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"apoyos/internal/core"
	applog "apoyos/internal/log"
	"apoyos/internal/store"
)

var _ store.Store = (*Repository)(nil)

// Repository runs the dashboard aggregates against PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	logger *applog.Logger
}

// NewPool opens a pgx pool sized for a read-heavy API.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Open connects, migrates and returns a ready repository.
func Open(ctx context.Context, databaseURL string, logger *applog.Logger) (*Repository, error) {
	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger = logger.WithComponent(applog.ComponentStorage)
	logger.Info("PostgreSQL repository ready", "max_conns", pool.Config().MaxConns)
	return NewRepository(pool, logger), nil
}

func NewRepository(pool *pgxpool.Pool, logger *applog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) CountLeaders(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cabeza_circulo`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cabeza_circulo: %w", err)
	}
	return n, nil
}

func (r *Repository) CountMembers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM integrante_circulo`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count integrante_circulo: %w", err)
	}
	return n, nil
}

func (r *Repository) SumQuantity(ctx context.Context, dr core.DateRange) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(cantidad), 0)::bigint
FROM apoyo
WHERE fecha_entrega BETWEEN $1::date AND $2::date`, dr.StartDay(), dr.EndDay()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum apoyo.cantidad: %w", err)
	}
	return total, nil
}

func (r *Repository) SumByMonth(ctx context.Context, dr core.DateRange) ([]core.MonthQuantity, error) {
	rows, err := r.pool.Query(ctx, `
SELECT EXTRACT(MONTH FROM fecha_entrega)::int AS mes, SUM(cantidad)::bigint AS total
FROM apoyo
WHERE fecha_entrega BETWEEN $1::date AND $2::date
GROUP BY mes
ORDER BY mes`, dr.StartDay(), dr.EndDay())
	if err != nil {
		return nil, fmt.Errorf("sum apoyo by month: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.MonthQuantity, error) {
		var mq core.MonthQuantity
		err := row.Scan(&mq.Month, &mq.Quantity)
		return mq, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan apoyo by month: %w", err)
	}
	return out, nil
}

func (r *Repository) SumByType(ctx context.Context, dr core.DateRange) ([]core.TypeQuantity, error) {
	rows, err := r.pool.Query(ctx, `
SELECT tipo_apoyo, SUM(cantidad)::bigint AS total
FROM apoyo
WHERE fecha_entrega BETWEEN $1::date AND $2::date
GROUP BY tipo_apoyo
ORDER BY total DESC, COALESCE(tipo_apoyo, '') ASC, tipo_apoyo IS NULL ASC`, dr.StartDay(), dr.EndDay())
	if err != nil {
		return nil, fmt.Errorf("sum apoyo by tipo: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.TypeQuantity, error) {
		var tq core.TypeQuantity
		err := row.Scan(&tq.Type, &tq.Quantity)
		return tq, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan apoyo by tipo: %w", err)
	}
	return out, nil
}

// Records with both references belong to the leader, so the member query
// skips them.
const (
	leaderLocationQuery = `
SELECT c.colonia, c.codigo_postal, SUM(a.cantidad)::bigint AS total
FROM apoyo a
JOIN cabeza_circulo c ON c.id = a.cabeza_circulo_id
WHERE a.fecha_entrega BETWEEN $1::date AND $2::date
GROUP BY c.colonia, c.codigo_postal
ORDER BY MIN(a.id)`

	memberLocationQuery = `
SELECT i.colonia, i.codigo_postal, SUM(a.cantidad)::bigint AS total
FROM apoyo a
JOIN integrante_circulo i ON i.id = a.integrante_circulo_id
WHERE a.cabeza_circulo_id IS NULL
  AND a.fecha_entrega BETWEEN $1::date AND $2::date
GROUP BY i.colonia, i.codigo_postal
ORDER BY MIN(a.id)`
)

func (r *Repository) SumByLocation(ctx context.Context, kind core.BeneficiaryKind, dr core.DateRange) ([]core.LocationQuantity, error) {
	var query string
	switch kind {
	case core.BeneficiaryLeader:
		query = leaderLocationQuery
	case core.BeneficiaryMember:
		query = memberLocationQuery
	default:
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, query, dr.StartDay(), dr.EndDay())
	if err != nil {
		return nil, fmt.Errorf("sum apoyo by %s location: %w", kind, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.LocationQuantity, error) {
		var (
			lq core.LocationQuantity
			pc *int32
		)
		if err := row.Scan(&lq.Neighborhood, &pc, &lq.Quantity); err != nil {
			return lq, err
		}
		if pc != nil {
			v := int(*pc)
			lq.PostalCode = &v
		}
		return lq, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan apoyo by %s location: %w", kind, err)
	}
	return out, nil
}
