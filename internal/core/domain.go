package core

import (
	"errors"
	"strings"
	"time"
)

const (
	BeneficiaryNone BeneficiaryKind = iota
	BeneficiaryLeader
	BeneficiaryMember
)

type (
	BeneficiaryKind int

	// Beneficiary is the resolved recipient of a support record: a circle
	// leader, a circle member, or nobody.
	Beneficiary struct {
		Kind BeneficiaryKind
		ID   int64
	}

	CircleLeader struct {
		ID           int64
		Neighborhood string // colonia
		PostalCode   *int
	}

	CircleMember struct {
		ID           int64
		LeaderID     *int64
		Neighborhood string // colonia
		PostalCode   *int
	}

	SupportRecord struct {
		ID           int64
		Quantity     int64
		SupportType  *string // nil when the label was never captured
		DeliveryDate Date
		Beneficiary  Beneficiary
	}

	Date struct {
		time.Time
	}
)

var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrEmptyDate       = errors.New("delivery date cannot be zero")
)

// ResolveBeneficiary turns the two optional foreign keys stored on a
// support record into a single beneficiary. The leader wins when both
// are set.
func ResolveBeneficiary(leaderID, memberID *int64) Beneficiary {
	switch {
	case leaderID != nil:
		return Beneficiary{Kind: BeneficiaryLeader, ID: *leaderID}
	case memberID != nil:
		return Beneficiary{Kind: BeneficiaryMember, ID: *memberID}
	default:
		return Beneficiary{Kind: BeneficiaryNone}
	}
}

// IsNone reports whether the record points at no beneficiary at all.
func (b Beneficiary) IsNone() bool {
	return b.Kind == BeneficiaryNone
}

func (k BeneficiaryKind) String() string {
	switch k {
	case BeneficiaryLeader:
		return "cabeza_circulo"
	case BeneficiaryMember:
		return "integrante_circulo"
	default:
		return "none"
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Within reports whether the calendar day of d falls inside r.
func (d Date) Within(r DateRange) bool {
	y, m, day := d.Date()
	return r.Contains(time.Date(y, m, day, 0, 0, 0, 0, r.Start.Location()))
}

func (s SupportRecord) Validate() error {
	if s.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if s.DeliveryDate.IsZero() {
		return ErrEmptyDate
	}
	return nil
}

// NormalizeSupportType maps a missing or empty label to UnspecifiedType.
func NormalizeSupportType(t *string) string {
	if t == nil || *t == "" {
		return UnspecifiedType
	}
	return *t
}

// PostalCodeOrZero collapses a missing postal code into the 0 bucket.
func PostalCodeOrZero(pc *int) int {
	if pc == nil {
		return 0
	}
	return *pc
}
