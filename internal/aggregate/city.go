package aggregate

import (
	"slices"
	"strings"

	"github.com/paveg/salesframe/internal/errors"
	"github.com/paveg/salesframe/internal/series"
	"github.com/paveg/salesframe/internal/table"
)

// CityFromAddress returns the second comma-separated field of a purchase
// address, trimmed. An address without a comma yields "". Addresses with a
// different field layout are not repaired.
func CityFromAddress(address string) string {
	fields := strings.SplitN(address, ",", 3)
	if len(fields) < 2 {
		return ""
	}
	return strings.TrimSpace(fields[1])
}

// CityCounts is the number of distinct orders per city, ordered by count
// descending then city ascending. Both TopCity and CityOrderCounts derive
// from one CityCounts so they always agree.
type CityCounts struct {
	Cities []string
	Orders []int64
}

// Len returns the number of cities
func (cc *CityCounts) Len() int {
	if cc == nil {
		return 0
	}
	return len(cc.Cities)
}

// CountOrdersByCity counts distinct order ids per city.
func (e *Engine) CountOrdersByCity(r *Records) *CityCounts {
	n := r.Len()
	cities := newGrouper(64)
	orders := newGrouper(n)
	var counts []int64

	for i := range n {
		city := CityFromAddress(r.address.Value(i))
		cid := cities.id(city)
		if cid == len(counts) {
			counts = append(counts, 0)
		}
		// first sighting of this (city, order) pair
		before := orders.Len()
		orders.id(compositeKey(city, r.orderID.Value(i)))
		if orders.Len() > before {
			counts[cid]++
		}
	}

	order := make([]int, cities.Len())
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		if c := compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return compare(cities.keys[a], cities.keys[b])
	})

	cc := &CityCounts{
		Cities: make([]string, len(order)),
		Orders: make([]int64, len(order)),
	}
	for i, cid := range order {
		cc.Cities[i] = cities.keys[cid]
		cc.Orders[i] = counts[cid]
	}
	return cc
}

// TopCity returns the city with the most orders. Ties resolve to the
// lexicographically smallest city.
func (e *Engine) TopCity(cc *CityCounts) (*table.Table, error) {
	if cc.Len() == 0 {
		return nil, errors.NewEmptyInputError("TopCity")
	}
	// CityCounts is sorted so that the first entry is the maximum.
	return table.New(
		series.New(ColCity, cc.Cities[:1], e.mem),
		series.New(ColOrderCount, cc.Orders[:1], e.mem),
	), nil
}

// CityOrderCounts returns the full per-city order count table.
func (e *Engine) CityOrderCounts(cc *CityCounts) (*table.Table, error) {
	var cities []string
	var orders []int64
	if cc != nil {
		cities, orders = cc.Cities, cc.Orders
	}
	return table.New(
		series.New(ColCity, cities, e.mem),
		series.New(ColOrderCount, orders, e.mem),
	), nil
}
