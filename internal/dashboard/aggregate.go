package dashboard

import (
	"math"
	"sort"

	"apoyos/internal/core"
)

func monthlyAverage(total int64, months int) int64 {
	if total == 0 || months <= 0 {
		return 0
	}
	return total / int64(months)
}

// overlayMonths lays store rows over a zeroed January..December sequence.
// Month numbers outside 1-12 are dropped.
func overlayMonths(rows []core.MonthQuantity) []core.MonthlySupport {
	out := make([]core.MonthlySupport, len(core.MonthNames))
	for i, name := range core.MonthNames {
		out[i] = core.MonthlySupport{Month: name}
	}
	for _, row := range rows {
		if row.Month < 1 || row.Month > 12 {
			continue
		}
		out[row.Month-1].Quantity = row.Quantity
	}
	return out
}

// typeShares keeps store order and labels missing types at output time,
// so a NULL bucket and an empty-string bucket stay separate rows.
func typeShares(rows []core.TypeQuantity) []core.TypeShare {
	var total int64
	for _, row := range rows {
		total += row.Quantity
	}

	out := make([]core.TypeShare, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.TypeShare{
			Type:       core.NormalizeSupportType(row.Type),
			Quantity:   row.Quantity,
			Percentage: percentage(row.Quantity, total),
		})
	}
	return out
}

// percentage is part/total*100 rounded to two decimals, 0 when total is 0.
func percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}

type neighborhoodKey struct {
	name       string
	postalCode int
}

// RankNeighborhoods merges location totals from any number of sources by
// (neighborhood, postal code or 0), sorts them by dir, keeps the first
// limit entries and numbers them from 1. Equal totals keep the order in
// which their key was first seen.
func RankNeighborhoods(limit int, dir core.SortDirection, sources ...[]core.LocationQuantity) []core.NeighborhoodRank {
	index := make(map[neighborhoodKey]int)
	var merged []core.NeighborhoodRank

	for _, rows := range sources {
		for _, row := range rows {
			k := neighborhoodKey{name: row.Neighborhood, postalCode: core.PostalCodeOrZero(row.PostalCode)}
			if i, ok := index[k]; ok {
				merged[i].TotalSupport += row.Quantity
				continue
			}
			index[k] = len(merged)
			merged = append(merged, core.NeighborhoodRank{
				Neighborhood: k.name,
				PostalCode:   k.postalCode,
				TotalSupport: row.Quantity,
			})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if dir == core.Ascending {
			return merged[i].TotalSupport < merged[j].TotalSupport
		}
		return merged[i].TotalSupport > merged[j].TotalSupport
	})

	if limit >= 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	for i := range merged {
		merged[i].Rank = i + 1
	}
	if merged == nil {
		return []core.NeighborhoodRank{}
	}
	return merged
}
