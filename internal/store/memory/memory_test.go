package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apoyos/internal/core"
)

const seedYAML = `
cabezas:
  - id: 1
    colonia: Centro
    codigoPostal: 10000
  - id: 2
    colonia: Roma
integrantes:
  - id: 10
    cabezaId: 1
    colonia: Centro
    codigoPostal: 10000
  - id: 11
    colonia: Juarez
    codigoPostal: 10100
apoyos:
  - {id: 1, cantidad: 5, tipo: Despensa, fecha: "2025-01-03", cabezaId: 1}
  - {id: 2, cantidad: 3, tipo: Despensa, fecha: "2025-01-20", integranteId: 10}
  - {id: 3, cantidad: 4, fecha: "2025-02-01", integranteId: 11}
  - {id: 4, cantidad: 7, tipo: "", fecha: "2025-03-15", cabezaId: 2}
  - {id: 5, cantidad: 9, tipo: Cobija, fecha: "2025-03-16"}
  - {id: 6, cantidad: 2, tipo: Cobija, fecha: "2024-12-31", cabezaId: 1}
  - {id: 7, cantidad: 6, tipo: Cobija, fecha: "2025-04-01", cabezaId: 1, integranteId: 11}
`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))
	return path
}

func year2025() core.DateRange {
	return core.FullYearRange(2025, time.UTC)
}

func TestNewFromFile_MissingFileIsEmpty(t *testing.T) {
	s, err := NewFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	n, err := s.CountLeaders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewFromFile_InvalidDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apoyos:\n  - {id: 1, cantidad: 1, fecha: \"31/01/2025\"}\n"), 0o644))

	_, err := NewFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid fecha")
}

func TestCounts(t *testing.T) {
	s, err := NewFromFile(writeSeed(t))
	require.NoError(t, err)
	ctx := context.Background()

	leaders, err := s.CountLeaders(ctx)
	require.NoError(t, err)
	members, err := s.CountMembers(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 2, leaders)
	assert.EqualValues(t, 2, members)
}

func TestSumQuantityAndMonths(t *testing.T) {
	s, err := NewFromFile(writeSeed(t))
	require.NoError(t, err)
	ctx := context.Background()

	total, err := s.SumQuantity(ctx, year2025())
	require.NoError(t, err)
	assert.EqualValues(t, 5+3+4+7+9+6, total)

	months, err := s.SumByMonth(ctx, year2025())
	require.NoError(t, err)
	assert.Equal(t, []core.MonthQuantity{
		{Month: 1, Quantity: 8},
		{Month: 2, Quantity: 4},
		{Month: 3, Quantity: 16},
		{Month: 4, Quantity: 6},
	}, months)
}

func TestSumByType_KeepsNullAndEmptyApart(t *testing.T) {
	s, err := NewFromFile(writeSeed(t))
	require.NoError(t, err)

	rows, err := s.SumByType(context.Background(), year2025())
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "Cobija", *rows[0].Type)
	assert.EqualValues(t, 15, rows[0].Quantity)
	assert.Equal(t, "Despensa", *rows[1].Type)
	assert.EqualValues(t, 8, rows[1].Quantity)
	assert.Equal(t, "", *rows[2].Type)
	assert.EqualValues(t, 7, rows[2].Quantity)
	assert.Nil(t, rows[3].Type)
	assert.EqualValues(t, 4, rows[3].Quantity)
}

func TestSumByLocation(t *testing.T) {
	s, err := NewFromFile(writeSeed(t))
	require.NoError(t, err)
	ctx := context.Background()

	leaders, err := s.SumByLocation(ctx, core.BeneficiaryLeader, year2025())
	require.NoError(t, err)
	require.Len(t, leaders, 2)
	assert.Equal(t, "Centro", leaders[0].Neighborhood)
	assert.EqualValues(t, 11, leaders[0].Quantity) // record 7 carries both refs and counts for the leader
	assert.Equal(t, "Roma", leaders[1].Neighborhood)
	assert.Nil(t, leaders[1].PostalCode)

	members, err := s.SumByLocation(ctx, core.BeneficiaryMember, year2025())
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Centro", members[0].Neighborhood)
	assert.EqualValues(t, 3, members[0].Quantity)
	assert.Equal(t, "Juarez", members[1].Neighborhood)
	assert.EqualValues(t, 4, members[1].Quantity)

	none, err := s.SumByLocation(ctx, core.BeneficiaryNone, year2025())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAddSupportValidates(t *testing.T) {
	s := New()
	err := s.AddSupport(core.SupportRecord{Quantity: 0, DeliveryDate: core.NewDate(2025, 1, 1)})
	assert.ErrorIs(t, err, core.ErrInvalidQuantity)
}
