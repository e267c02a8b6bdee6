package listing

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Query parameter names of the filter wire form
const (
	ParamSearch      = "search"
	ParamCategory    = "category"
	ParamStatus      = "status"
	ParamMinPrice    = "min_price"
	ParamMaxPrice    = "max_price"
	ParamInStock     = "in_stock"
	ParamRefurbished = "refurbished"
	ParamSort        = "sort"
)

// ParseQuery reads filter from url query. Empty values leave the predicate unset.
func ParseQuery(q url.Values) (Filter, error) {
	f := Filter{
		Search:     strings.TrimSpace(q.Get(ParamSearch)),
		Categories: nonEmpty(q[ParamCategory]),
		Statuses:   nonEmpty(q[ParamStatus]),
		Sort:       SortKey(q.Get(ParamSort)),
	}

	var err error
	if f.MinPrice, err = parseDecimal(q.Get(ParamMinPrice)); err != nil {
		return f, fmt.Errorf("invalid %s: %w", ParamMinPrice, err)
	}
	if f.MaxPrice, err = parseDecimal(q.Get(ParamMaxPrice)); err != nil {
		return f, fmt.Errorf("invalid %s: %w", ParamMaxPrice, err)
	}
	if f.InStock, err = parseTriState(q.Get(ParamInStock)); err != nil {
		return f, fmt.Errorf("invalid %s: %w", ParamInStock, err)
	}
	if f.Refurbished, err = parseTriState(q.Get(ParamRefurbished)); err != nil {
		return f, fmt.Errorf("invalid %s: %w", ParamRefurbished, err)
	}

	return f, nil
}

// Query encodes the filter back, only set predicates are written
func (f Filter) Query() url.Values {
	q := url.Values{}

	if f.Search != "" {
		q.Set(ParamSearch, f.Search)
	}
	for _, c := range f.Categories {
		q.Add(ParamCategory, c)
	}
	for _, s := range f.Statuses {
		q.Add(ParamStatus, s)
	}
	if f.MinPrice != nil {
		q.Set(ParamMinPrice, f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		q.Set(ParamMaxPrice, f.MaxPrice.String())
	}
	if f.InStock != nil {
		q.Set(ParamInStock, strconv.FormatBool(*f.InStock))
	}
	if f.Refurbished != nil {
		q.Set(ParamRefurbished, strconv.FormatBool(*f.Refurbished))
	}
	if f.Sort != SortDefault {
		q.Set(ParamSort, string(f.Sort))
	}

	return q
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseDecimal(value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseTriState(value string) (*bool, error) {
	switch strings.ToLower(value) {
	case "", "any", "all":
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
