package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apoyos/internal/core"
	applog "apoyos/internal/log"
)

func TestNewPool_InvalidURL(t *testing.T) {
	_, err := NewPool(context.Background(), "postgres://u:p@localhost:5432/db?pool_max_conns=lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database url")
}

// TestRepository_Integration needs a disposable database:
//
//	APOYOS_TEST_DATABASE_URL=postgres://... go test ./internal/storage/postgres
func TestRepository_Integration(t *testing.T) {
	url := os.Getenv("APOYOS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("APOYOS_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	repo, err := Open(ctx, url, applog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	_, err = repo.pool.Exec(ctx, `TRUNCATE apoyo, integrante_circulo, cabeza_circulo RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	var centro, juarez int64
	require.NoError(t, repo.pool.QueryRow(ctx,
		`INSERT INTO cabeza_circulo (colonia, codigo_postal) VALUES ('Centro', 10000) RETURNING id`).Scan(&centro))
	require.NoError(t, repo.pool.QueryRow(ctx,
		`INSERT INTO integrante_circulo (colonia, codigo_postal) VALUES ('Juarez', NULL) RETURNING id`).Scan(&juarez))

	_, err = repo.pool.Exec(ctx, `
INSERT INTO apoyo (cantidad, tipo_apoyo, fecha_entrega, cabeza_circulo_id, integrante_circulo_id) VALUES
    (5, 'Despensa', '2025-01-03', $1, NULL),
    (3, NULL,       '2025-02-10', NULL, $2),
    (2, '',         '2025-02-11', $1, $2),
    (9, 'Cobija',   '2025-03-01', NULL, NULL),
    (1, 'Cobija',   '2024-12-31', $1, NULL)`, centro, juarez)
	require.NoError(t, err)

	year := core.FullYearRange(2025, time.UTC)

	leaders, err := repo.CountLeaders(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, leaders)

	total, err := repo.SumQuantity(ctx, year)
	require.NoError(t, err)
	assert.EqualValues(t, 19, total)

	months, err := repo.SumByMonth(ctx, year)
	require.NoError(t, err)
	assert.Equal(t, []core.MonthQuantity{{Month: 1, Quantity: 5}, {Month: 2, Quantity: 5}, {Month: 3, Quantity: 9}}, months)

	types, err := repo.SumByType(ctx, year)
	require.NoError(t, err)
	require.Len(t, types, 4)
	assert.Equal(t, "Cobija", *types[0].Type)

	byLeader, err := repo.SumByLocation(ctx, core.BeneficiaryLeader, year)
	require.NoError(t, err)
	require.Len(t, byLeader, 1)
	assert.EqualValues(t, 7, byLeader[0].Quantity)

	byMember, err := repo.SumByLocation(ctx, core.BeneficiaryMember, year)
	require.NoError(t, err)
	require.Len(t, byMember, 1)
	assert.Nil(t, byMember[0].PostalCode)
	assert.EqualValues(t, 3, byMember[0].Quantity)
}
