package store

import (
	"context"

	"apoyos/internal/core"
)

// Ports for outbound adapters.
type (
	// Ledger aggregates support records inside a date window.
	Ledger interface {
		// SumQuantity returns the total quantity delivered, 0 when nothing matches.
		SumQuantity(ctx context.Context, r core.DateRange) (int64, error)

		// SumByMonth groups quantities by calendar month number.
		SumByMonth(ctx context.Context, r core.DateRange) ([]core.MonthQuantity, error)

		// SumByType groups quantities by the raw support type label,
		// highest quantity first.
		SumByType(ctx context.Context, r core.DateRange) ([]core.TypeQuantity, error)

		// SumByLocation groups quantities by the neighborhood and postal
		// code of the beneficiary directory selected by kind. Records that
		// do not resolve to that kind are skipped.
		SumByLocation(ctx context.Context, kind core.BeneficiaryKind, r core.DateRange) ([]core.LocationQuantity, error)
	}

	// DirectoryCounter reports the size of the beneficiary directories.
	DirectoryCounter interface {
		CountLeaders(ctx context.Context) (int64, error)
		CountMembers(ctx context.Context) (int64, error)
	}

	// Store is everything the dashboard reads.
	Store interface {
		Ledger
		DirectoryCounter
		Ping(ctx context.Context) error
		Close() error
	}
)
