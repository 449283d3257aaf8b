package core

import "errors"

// UnspecifiedType labels support records whose type was left empty.
const UnspecifiedType = "Sin especificar"

// DefaultTopLimit is how many neighborhoods the leaderboards return.
const DefaultTopLimit = 7

// MaxTopLimit caps caller supplied leaderboard sizes.
const MaxTopLimit = 50

var (
	ErrInvalidLimit     = errors.New("invalid limit")
	ErrInvalidDirection = errors.New("invalid sort direction")
)

// ErrQueryFailed marks any failure of the underlying store while computing
// an aggregate.
var ErrQueryFailed = errors.New("aggregation query failed")

// MonthNames holds the canonical calendar labels, January first.
var MonthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

const (
	Descending SortDirection = "desc" // most apoyos first
	Ascending  SortDirection = "asc"  // least apoyos first
)

type (
	SortDirection string

	// Rows returned by the store.

	MonthQuantity struct {
		Month    int // 1-12
		Quantity int64
	}

	TypeQuantity struct {
		Type     *string
		Quantity int64
	}

	LocationQuantity struct {
		Neighborhood string
		PostalCode   *int
		Quantity     int64
	}

	// Shapes produced by the dashboard.

	Stats struct {
		LeaderCount    int64 `json:"totalCabezasCirculo"`
		MemberCount    int64 `json:"totalIntegrantesCirculo"`
		SupportTotal   int64 `json:"totalApoyos"`
		SupportAverage int64 `json:"promedioApoyos"`
	}

	SupportSummary struct {
		Total   int64 `json:"total"`
		Average int64 `json:"promedio"`
	}

	MonthlySupport struct {
		Month    string `json:"mes"`
		Quantity int64  `json:"cantidad"`
	}

	TypeShare struct {
		Type       string  `json:"tipo"`
		Quantity   int64   `json:"cantidad"`
		Percentage float64 `json:"porcentaje"`
	}

	NeighborhoodRank struct {
		Rank         int    `json:"rank"`
		Neighborhood string `json:"colonia"`
		PostalCode   int    `json:"codigoPostal"`
		TotalSupport int64  `json:"totalApoyos"`
	}
)

// Valid reports whether d is one of the two known directions.
func (d SortDirection) Valid() bool {
	return d == Descending || d == Ascending
}
