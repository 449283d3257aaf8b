package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"apoyos/internal/core"
	"apoyos/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	leaders  map[int64]core.CircleLeader
	members  map[int64]core.CircleMember
	supports []core.SupportRecord
}

func New() *Store {
	return &Store{
		leaders: make(map[int64]core.CircleLeader),
		members: make(map[int64]core.CircleMember),
	}
}

// seedFile mirrors the YAML layout of a seed file.
type seedFile struct {
	Leaders []struct {
		ID           int64  `yaml:"id"`
		Neighborhood string `yaml:"colonia"`
		PostalCode   *int   `yaml:"codigoPostal"`
	} `yaml:"cabezas"`
	Members []struct {
		ID           int64  `yaml:"id"`
		LeaderID     *int64 `yaml:"cabezaId"`
		Neighborhood string `yaml:"colonia"`
		PostalCode   *int   `yaml:"codigoPostal"`
	} `yaml:"integrantes"`
	Supports []struct {
		ID           int64   `yaml:"id"`
		Quantity     int64   `yaml:"cantidad"`
		SupportType  *string `yaml:"tipo"`
		DeliveryDate string  `yaml:"fecha"`
		LeaderID     *int64  `yaml:"cabezaId"`
		MemberID     *int64  `yaml:"integranteId"`
	} `yaml:"apoyos"`
}

// NewFromFile loads a YAML seed file. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	for _, l := range seed.Leaders {
		s.AddLeader(core.CircleLeader{ID: l.ID, Neighborhood: l.Neighborhood, PostalCode: l.PostalCode})
	}
	for _, m := range seed.Members {
		s.AddMember(core.CircleMember{ID: m.ID, LeaderID: m.LeaderID, Neighborhood: m.Neighborhood, PostalCode: m.PostalCode})
	}
	for i, a := range seed.Supports {
		date, err := core.ParseDate(a.DeliveryDate)
		if err != nil {
			return nil, fmt.Errorf("apoyo #%d: invalid fecha %q: %w", i, a.DeliveryDate, err)
		}
		rec := core.SupportRecord{
			ID:           a.ID,
			Quantity:     a.Quantity,
			SupportType:  a.SupportType,
			DeliveryDate: date,
			Beneficiary:  core.ResolveBeneficiary(a.LeaderID, a.MemberID),
		}
		if err := s.AddSupport(rec); err != nil {
			return nil, fmt.Errorf("apoyo #%d: %w", i, err)
		}
	}
	return s, nil
}

func (s *Store) AddLeader(l core.CircleLeader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaders[l.ID] = l
}

func (s *Store) AddMember(m core.CircleMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = m
}

// AddSupport stores a validated support record.
func (s *Store) AddSupport(rec core.SupportRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supports = append(s.supports, rec)
	return nil
}

func (s *Store) CountLeaders(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.leaders)), nil
}

func (s *Store) CountMembers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.members)), nil
}

func (s *Store) SumQuantity(_ context.Context, r core.DateRange) (int64, error) {
	var total int64
	s.each(r, func(rec core.SupportRecord) { total += rec.Quantity })
	return total, nil
}

func (s *Store) SumByMonth(_ context.Context, r core.DateRange) ([]core.MonthQuantity, error) {
	var byMonth [13]int64
	var seen [13]bool
	s.each(r, func(rec core.SupportRecord) {
		m := rec.DeliveryDate.Month()
		byMonth[m] += rec.Quantity
		seen[m] = true
	})

	var out []core.MonthQuantity
	for m := 1; m <= 12; m++ {
		if seen[m] {
			out = append(out, core.MonthQuantity{Month: m, Quantity: byMonth[m]})
		}
	}
	return out, nil
}

// typeKey keeps a missing label apart from an empty one, as SQL grouping does.
type typeKey struct {
	label string
	valid bool
}

func (s *Store) SumByType(_ context.Context, r core.DateRange) ([]core.TypeQuantity, error) {
	index := map[typeKey]int{}
	var out []core.TypeQuantity
	s.each(r, func(rec core.SupportRecord) {
		k := typeKey{}
		if rec.SupportType != nil {
			k = typeKey{label: *rec.SupportType, valid: true}
		}
		if i, ok := index[k]; ok {
			out[i].Quantity += rec.Quantity
			return
		}
		index[k] = len(out)
		out = append(out, core.TypeQuantity{Type: rec.SupportType, Quantity: rec.Quantity})
	})

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		if a, b := label(out[i].Type), label(out[j].Type); a != b {
			return a < b
		}
		// empty label before missing label
		return out[i].Type != nil && out[j].Type == nil
	})
	return out, nil
}

type locationKey struct {
	neighborhood string
	postalCode   int
	hasPostal    bool
}

func (s *Store) SumByLocation(_ context.Context, kind core.BeneficiaryKind, r core.DateRange) ([]core.LocationQuantity, error) {
	index := map[locationKey]int{}
	var out []core.LocationQuantity
	s.each(r, func(rec core.SupportRecord) {
		if rec.Beneficiary.Kind != kind {
			return
		}
		neighborhood, postal, ok := s.locate(rec.Beneficiary)
		if !ok {
			return
		}
		k := locationKey{neighborhood: neighborhood}
		if postal != nil {
			k.postalCode, k.hasPostal = *postal, true
		}
		if i, found := index[k]; found {
			out[i].Quantity += rec.Quantity
			return
		}
		index[k] = len(out)
		out = append(out, core.LocationQuantity{Neighborhood: neighborhood, PostalCode: postal, Quantity: rec.Quantity})
	})
	return out, nil
}

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// each calls fn for every record delivered inside r, under the read lock.
func (s *Store) each(r core.DateRange, fn func(core.SupportRecord)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.supports {
		if rec.DeliveryDate.Within(r) {
			fn(rec)
		}
	}
}

// locate must be called with the read lock held.
func (s *Store) locate(b core.Beneficiary) (string, *int, bool) {
	switch b.Kind {
	case core.BeneficiaryLeader:
		l, ok := s.leaders[b.ID]
		return l.Neighborhood, l.PostalCode, ok
	case core.BeneficiaryMember:
		m, ok := s.members[b.ID]
		return m.Neighborhood, m.PostalCode, ok
	default:
		return "", nil, false
	}
}

func label(t *string) string {
	if t == nil {
		return ""
	}
	return *t
}
