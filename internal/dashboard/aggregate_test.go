package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"apoyos/internal/core"
)

func TestRankNeighborhoods_TiesKeepFirstSeenOrder(t *testing.T) {
	leaders := []core.LocationQuantity{
		{Neighborhood: "Norte", Quantity: 4},
		{Neighborhood: "Sur", PostalCode: ptr(3000), Quantity: 4},
	}
	members := []core.LocationQuantity{
		{Neighborhood: "Este", Quantity: 4},
		{Neighborhood: "Norte", PostalCode: ptr(0), Quantity: 1},
	}

	got := RankNeighborhoods(10, core.Descending, leaders, members)
	assert.Equal(t, []core.NeighborhoodRank{
		{Rank: 1, Neighborhood: "Norte", PostalCode: 0, TotalSupport: 5},
		{Rank: 2, Neighborhood: "Sur", PostalCode: 3000, TotalSupport: 4},
		{Rank: 3, Neighborhood: "Este", PostalCode: 0, TotalSupport: 4},
	}, got)

	// merging is commutative in totals
	swapped := RankNeighborhoods(10, core.Descending, members, leaders)
	assert.EqualValues(t, 5, swapped[0].TotalSupport)
	assert.Equal(t, "Norte", swapped[0].Neighborhood)
}

func TestRankNeighborhoods_SameNameDifferentPostalCode(t *testing.T) {
	got := RankNeighborhoods(10, core.Ascending, []core.LocationQuantity{
		{Neighborhood: "Centro", PostalCode: ptr(10000), Quantity: 2},
		{Neighborhood: "Centro", PostalCode: ptr(10001), Quantity: 1},
	})
	assert.Len(t, got, 2)
	assert.Equal(t, 10001, got[0].PostalCode)
}

func TestRankNeighborhoods_ZeroLimit(t *testing.T) {
	got := RankNeighborhoods(0, core.Descending, []core.LocationQuantity{{Neighborhood: "x", Quantity: 1}})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMonthlyAverageHelper(t *testing.T) {
	assert.EqualValues(t, 25, monthlyAverage(100, 4))
	assert.EqualValues(t, 24, monthlyAverage(99, 4))
	assert.Zero(t, monthlyAverage(0, 4))
	assert.Zero(t, monthlyAverage(10, 0))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 66.67, percentage(40, 60))
	assert.Equal(t, 33.33, percentage(20, 60))
	assert.Equal(t, 12.5, percentage(1, 8))
	assert.Zero(t, percentage(5, 0))
}
