package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"apoyos/internal/core"
	applog "apoyos/internal/log"
	"apoyos/internal/store"
)

var _ store.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *applog.Logger
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath
// and brings its schema up to date.
func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := OpenSQLite(dbPath, 0)
	if err != nil {
		return nil, err
	}

	logger = logger.WithComponent(applog.ComponentStorage)
	logger.Info("SQLite repository ready", "path", dbPath)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CountLeaders(ctx context.Context) (int64, error) {
	n, err := r.queries.CountLeaders(ctx)
	if err != nil {
		return 0, fmt.Errorf("count cabeza_circulo: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) CountMembers(ctx context.Context) (int64, error) {
	n, err := r.queries.CountMembers(ctx)
	if err != nil {
		return 0, fmt.Errorf("count integrante_circulo: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) SumQuantity(ctx context.Context, dr core.DateRange) (int64, error) {
	total, err := r.queries.SumQuantity(ctx, dr.StartDay(), dr.EndDay())
	if err != nil {
		return 0, fmt.Errorf("sum apoyo.cantidad: %w", err)
	}
	return total, nil
}

func (r *SQLiteRepository) SumByMonth(ctx context.Context, dr core.DateRange) ([]core.MonthQuantity, error) {
	rows, err := r.queries.SumByMonth(ctx, dr.StartDay(), dr.EndDay())
	if err != nil {
		return nil, fmt.Errorf("sum apoyo by month: %w", err)
	}

	out := make([]core.MonthQuantity, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.MonthQuantity{Month: int(row.Month), Quantity: row.Total})
	}
	return out, nil
}

func (r *SQLiteRepository) SumByType(ctx context.Context, dr core.DateRange) ([]core.TypeQuantity, error) {
	rows, err := r.queries.SumByType(ctx, dr.StartDay(), dr.EndDay())
	if err != nil {
		return nil, fmt.Errorf("sum apoyo by tipo: %w", err)
	}

	out := make([]core.TypeQuantity, 0, len(rows))
	for _, row := range rows {
		tq := core.TypeQuantity{Quantity: row.Total}
		if row.SupportType.Valid {
			label := row.SupportType.String
			tq.Type = &label
		}
		out = append(out, tq)
	}
	return out, nil
}

func (r *SQLiteRepository) SumByLocation(ctx context.Context, kind core.BeneficiaryKind, dr core.DateRange) ([]core.LocationQuantity, error) {
	var (
		rows []SumByLocationRow
		err  error
	)
	switch kind {
	case core.BeneficiaryLeader:
		rows, err = r.queries.SumByLeaderLocation(ctx, dr.StartDay(), dr.EndDay())
	case core.BeneficiaryMember:
		rows, err = r.queries.SumByMemberLocation(ctx, dr.StartDay(), dr.EndDay())
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sum apoyo by %s location: %w", kind, err)
	}

	out := make([]core.LocationQuantity, 0, len(rows))
	for _, row := range rows {
		lq := core.LocationQuantity{Neighborhood: row.Neighborhood, Quantity: row.Total}
		if row.PostalCode.Valid {
			pc := int(row.PostalCode.Int64)
			lq.PostalCode = &pc
		}
		out = append(out, lq)
	}
	return out, nil
}

// AddLeader inserts a leader and returns its id. The ID field is ignored.
func (r *SQLiteRepository) AddLeader(ctx context.Context, l core.CircleLeader) (int64, error) {
	id, err := r.queries.CreateLeader(ctx, l.Neighborhood, nullInt(l.PostalCode))
	if err != nil {
		return 0, fmt.Errorf("insert cabeza_circulo: %w", err)
	}
	return id, nil
}

// AddMember inserts a member and returns its id. The ID field is ignored.
func (r *SQLiteRepository) AddMember(ctx context.Context, m core.CircleMember) (int64, error) {
	id, err := r.queries.CreateMember(ctx, nullInt64(m.LeaderID), m.Neighborhood, nullInt(m.PostalCode))
	if err != nil {
		return 0, fmt.Errorf("insert integrante_circulo: %w", err)
	}
	return id, nil
}

// AddSupport validates and inserts a support record, returning its id.
func (r *SQLiteRepository) AddSupport(ctx context.Context, s core.SupportRecord) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}

	params := CreateSupportParams{
		Quantity:     s.Quantity,
		DeliveryDate: s.DeliveryDate.String(),
	}
	if s.SupportType != nil {
		params.SupportType = sql.NullString{String: *s.SupportType, Valid: true}
	}
	switch s.Beneficiary.Kind {
	case core.BeneficiaryLeader:
		params.LeaderID = sql.NullInt64{Int64: s.Beneficiary.ID, Valid: true}
	case core.BeneficiaryMember:
		params.MemberID = sql.NullInt64{Int64: s.Beneficiary.ID, Valid: true}
	}

	id, err := r.queries.CreateSupport(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("insert apoyo: %w", err)
	}
	return id, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
