package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const countLeaders = `SELECT COUNT(*) FROM cabeza_circulo`

func (q *Queries) CountLeaders(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countLeaders).Scan(&n)
	return n, err
}

const countMembers = `SELECT COUNT(*) FROM integrante_circulo`

func (q *Queries) CountMembers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countMembers).Scan(&n)
	return n, err
}

const sumQuantity = `
SELECT COALESCE(SUM(cantidad), 0)
FROM apoyo
WHERE fecha_entrega BETWEEN ? AND ?`

func (q *Queries) SumQuantity(ctx context.Context, from, to string) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, sumQuantity, from, to).Scan(&total)
	return total, err
}

const sumByMonth = `
SELECT CAST(strftime('%m', fecha_entrega) AS INTEGER) AS mes, SUM(cantidad) AS total
FROM apoyo
WHERE fecha_entrega BETWEEN ? AND ?
GROUP BY mes
ORDER BY mes`

type SumByMonthRow struct {
	Month int64
	Total int64
}

func (q *Queries) SumByMonth(ctx context.Context, from, to string) ([]SumByMonthRow, error) {
	rows, err := q.db.QueryContext(ctx, sumByMonth, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SumByMonthRow
	for rows.Next() {
		var i SumByMonthRow
		if err := rows.Scan(&i.Month, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const sumByType = `
SELECT tipo_apoyo, SUM(cantidad) AS total
FROM apoyo
WHERE fecha_entrega BETWEEN ? AND ?
GROUP BY tipo_apoyo
ORDER BY total DESC, COALESCE(tipo_apoyo, '') ASC, tipo_apoyo IS NULL ASC`

type SumByTypeRow struct {
	SupportType sql.NullString
	Total       int64
}

func (q *Queries) SumByType(ctx context.Context, from, to string) ([]SumByTypeRow, error) {
	rows, err := q.db.QueryContext(ctx, sumByType, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SumByTypeRow
	for rows.Next() {
		var i SumByTypeRow
		if err := rows.Scan(&i.SupportType, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// Records referencing both a leader and a member are attributed to the
// leader only, hence the IS NULL filter on the member query.
const (
	sumByLeaderLocation = `
SELECT c.colonia, c.codigo_postal, SUM(a.cantidad) AS total
FROM apoyo a
JOIN cabeza_circulo c ON c.id = a.cabeza_circulo_id
WHERE a.fecha_entrega BETWEEN ? AND ?
GROUP BY c.colonia, c.codigo_postal
ORDER BY MIN(a.id)`

	sumByMemberLocation = `
SELECT i.colonia, i.codigo_postal, SUM(a.cantidad) AS total
FROM apoyo a
JOIN integrante_circulo i ON i.id = a.integrante_circulo_id
WHERE a.cabeza_circulo_id IS NULL
  AND a.fecha_entrega BETWEEN ? AND ?
GROUP BY i.colonia, i.codigo_postal
ORDER BY MIN(a.id)`
)

type SumByLocationRow struct {
	Neighborhood string
	PostalCode   sql.NullInt64
	Total        int64
}

func (q *Queries) SumByLeaderLocation(ctx context.Context, from, to string) ([]SumByLocationRow, error) {
	return q.sumByLocation(ctx, sumByLeaderLocation, from, to)
}

func (q *Queries) SumByMemberLocation(ctx context.Context, from, to string) ([]SumByLocationRow, error) {
	return q.sumByLocation(ctx, sumByMemberLocation, from, to)
}

func (q *Queries) sumByLocation(ctx context.Context, query, from, to string) ([]SumByLocationRow, error) {
	rows, err := q.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SumByLocationRow
	for rows.Next() {
		var i SumByLocationRow
		if err := rows.Scan(&i.Neighborhood, &i.PostalCode, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createLeader = `
INSERT INTO cabeza_circulo (colonia, codigo_postal) VALUES (?, ?)
RETURNING id`

func (q *Queries) CreateLeader(ctx context.Context, neighborhood string, postalCode sql.NullInt64) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createLeader, neighborhood, postalCode).Scan(&id)
	return id, err
}

const createMember = `
INSERT INTO integrante_circulo (cabeza_circulo_id, colonia, codigo_postal) VALUES (?, ?, ?)
RETURNING id`

func (q *Queries) CreateMember(ctx context.Context, leaderID sql.NullInt64, neighborhood string, postalCode sql.NullInt64) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createMember, leaderID, neighborhood, postalCode).Scan(&id)
	return id, err
}

const createSupport = `
INSERT INTO apoyo (cantidad, tipo_apoyo, fecha_entrega, cabeza_circulo_id, integrante_circulo_id)
VALUES (?, ?, ?, ?, ?)
RETURNING id`

type CreateSupportParams struct {
	Quantity     int64
	SupportType  sql.NullString
	DeliveryDate string
	LeaderID     sql.NullInt64
	MemberID     sql.NullInt64
}

func (q *Queries) CreateSupport(ctx context.Context, arg CreateSupportParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createSupport,
		arg.Quantity, arg.SupportType, arg.DeliveryDate, arg.LeaderID, arg.MemberID,
	).Scan(&id)
	return id, err
}
