package core

import (
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestResolveBeneficiary(t *testing.T) {
	cases := []struct {
		leader, member *int64
		want           Beneficiary
	}{
		{ptr[int64](1), nil, Beneficiary{Kind: BeneficiaryLeader, ID: 1}},
		{nil, ptr[int64](2), Beneficiary{Kind: BeneficiaryMember, ID: 2}},
		{ptr[int64](1), ptr[int64](2), Beneficiary{Kind: BeneficiaryLeader, ID: 1}}, // leader wins
		{nil, nil, Beneficiary{Kind: BeneficiaryNone}},
	}
	for i, tc := range cases {
		got := ResolveBeneficiary(tc.leader, tc.member)
		if got != tc.want {
			t.Fatalf("case %d expected %+v, got %+v", i, tc.want, got)
		}
	}
	if !ResolveBeneficiary(nil, nil).IsNone() {
		t.Fatalf("expected orphan record to resolve to none")
	}
}

func TestSupportRecordValidate(t *testing.T) {
	good := SupportRecord{Quantity: 3, DeliveryDate: NewDate(2025, 1, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []SupportRecord{
		{Quantity: 0, DeliveryDate: NewDate(2025, 1, 1)},
		{Quantity: -1, DeliveryDate: NewDate(2025, 1, 1)},
		{Quantity: 1, DeliveryDate: Date{Time: time.Time{}}},
	}
	for i, s := range bads {
		if err := s.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestNormalizeSupportType(t *testing.T) {
	if got := NormalizeSupportType(nil); got != UnspecifiedType {
		t.Fatalf("nil label: got %q", got)
	}
	if got := NormalizeSupportType(ptr("")); got != UnspecifiedType {
		t.Fatalf("empty label: got %q", got)
	}
	if got := NormalizeSupportType(ptr("Despensa")); got != "Despensa" {
		t.Fatalf("label: got %q", got)
	}
}

func TestDateWithin(t *testing.T) {
	r := DateRange{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC),
	}
	for _, d := range []Date{NewDate(2025, 1, 1), NewDate(2025, 1, 31)} {
		if !d.Within(r) {
			t.Fatalf("%s should be inside %s..%s", d, r.StartDay(), r.EndDay())
		}
	}
	for _, d := range []Date{NewDate(2024, 12, 31), NewDate(2025, 2, 1)} {
		if d.Within(r) {
			t.Fatalf("%s should be outside", d)
		}
	}

	// calendar day matters, not the instant
	cst := time.FixedZone("CST", -6*60*60)
	local := DateRange{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, cst),
		End:   time.Date(2025, 1, 31, 23, 59, 59, 0, cst),
	}
	if !NewDate(2025, 1, 1).Within(local) || NewDate(2025, 2, 1).Within(local) {
		t.Fatal("day comparison should ignore the range location")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	if err != nil || d.String() != "2024-02-29" {
		t.Fatalf("unexpected parse: %v %v", d, err)
	}
	if _, err := ParseDate("2023-02-29"); err == nil {
		t.Fatalf("expected error for invalid day")
	}
}
