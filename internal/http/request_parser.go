// Package http serves the dashboard aggregates as a read-only JSON API.
//
// This file parses and validates the query parameters shared by the
// dashboard endpoints.

package http

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"apoyos/internal/core"
)

// ErrInvalidParam marks a malformed query parameter. Handlers answer 400.
var ErrInvalidParam = errors.New("invalid query parameter")

// Param selects the query parameters an endpoint honors.
type Param uint8

const (
	ParamYear Param = 1 << iota
	ParamMonth
	ParamLimit
)

// PeriodParams holds the optional year/month/limit of a dashboard request.
// Zero means the parameter was absent or not honored.
type PeriodParams struct {
	Year  int
	Month int
	Limit int
}

// CacheKey identifies a rendered response for route. Windows resolved
// against today (no year, or the current one) also carry today's date so
// they roll over at midnight. A zero today leaves the date out.
func (p PeriodParams) CacheKey(route string, today time.Time) string {
	key := fmt.Sprintf("%s|%d|%d|%d", route, p.Year, p.Month, p.Limit)
	if !today.IsZero() && (p.Year == 0 || p.Year == today.Year()) {
		key += "|" + today.Format(time.DateOnly)
	}
	return key
}

// ParsePeriodParams reads the honored parameters out of query and ignores
// the rest. Present values must be positive integers, month at most 12
// and limit at most core.MaxTopLimit.
func ParsePeriodParams(query url.Values, honored Param) (PeriodParams, error) {
	var p PeriodParams
	var err error

	if honored&ParamYear != 0 {
		if p.Year, err = positiveInt(query, "year"); err != nil {
			return PeriodParams{}, err
		}
	}
	if honored&ParamMonth != 0 {
		if p.Month, err = positiveInt(query, "month"); err != nil {
			return PeriodParams{}, err
		}
		if p.Month > 12 {
			return PeriodParams{}, fmt.Errorf("%w: month must be between 1 and 12", core.ErrInvalidMonth)
		}
	}
	if honored&ParamLimit != 0 {
		if p.Limit, err = positiveInt(query, "limit"); err != nil {
			return PeriodParams{}, err
		}
		if p.Limit > core.MaxTopLimit {
			return PeriodParams{}, fmt.Errorf("%w: limit must be between 1 and %d", core.ErrInvalidLimit, core.MaxTopLimit)
		}
	}
	return p, nil
}

func positiveInt(query url.Values, key string) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidParam, key)
	}
	return n, nil
}
