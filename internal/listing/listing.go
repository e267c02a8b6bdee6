// Package listing filters and sorts in-memory catalog, wishlist and admin product lists.
//
// Every listing view shares one pipeline: Apply never mutates its input and keeps
// original relative order for equal sort keys.
package listing

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type SortKey string

const (
	SortDefault   SortKey = ""
	SortDate      SortKey = "date"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortRating    SortKey = "rating"
	SortName      SortKey = "name"
)

// Item is the view of a list element the filter works on
type Item struct {
	Name        string
	Brand       string
	Description string
	Category    string
	Status      string

	// Single price or one price per variant; empty when the item has no price data
	Prices []decimal.Decimal

	Rating      float64
	AddedAt     time.Time
	InStock     bool
	Refurbished bool
}

// Listable is implemented by anything that can be shown on a listing page
type Listable interface {
	ListingItem() Item
}

// Filter state of a listing page. The zero value lets everything through in original order.
type Filter struct {
	Search     string
	Categories []string
	Statuses   []string

	// nil bound means unbounded
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal

	// nil means "don't filter"
	InStock     *bool
	Refurbished *bool

	Sort SortKey
}

func (f Filter) hasPriceBounds() bool {
	return f.MinPrice != nil || f.MaxPrice != nil
}

// Match reports whether the item passes every active predicate
func (f Filter) Match(it Item) bool {
	if f.Search != "" && !matchSearch(it, f.Search) {
		return false
	}

	if len(f.Categories) > 0 && !slices.Contains(f.Categories, it.Category) {
		return false
	}

	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, it.Status) {
		return false
	}

	if f.hasPriceBounds() && !f.matchPrice(it) {
		return false
	}

	if f.InStock != nil && *f.InStock != it.InStock {
		return false
	}

	if f.Refurbished != nil && *f.Refurbished != it.Refurbished {
		return false
	}

	return true
}

func matchSearch(it Item, search string) bool {
	needle := strings.ToLower(search)
	for _, field := range []string{it.Name, it.Brand, it.Description, it.Category} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Item price span [lo, hi] has to overlap requested window
func (f Filter) matchPrice(it Item) bool {
	lo, hi, ok := priceSpan(it.Prices)
	if !ok {
		return false
	}

	if f.MinPrice != nil && hi.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && lo.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

func priceSpan(prices []decimal.Decimal) (lo decimal.Decimal, hi decimal.Decimal, ok bool) {
	if len(prices) == 0 {
		return lo, hi, false
	}

	lo, hi = prices[0], prices[0]
	for _, p := range prices[1:] {
		if p.LessThan(lo) {
			lo = p
		}
		if p.GreaterThan(hi) {
			hi = p
		}
	}
	return lo, hi, true
}

// Apply returns a new slice with the items passing f, sorted by f.Sort.
// Unknown sort keys keep insertion order.
func Apply[T Listable](items []T, f Filter) []T {
	type entry struct {
		value T
		item  Item
	}

	entries := make([]entry, 0, len(items))
	for _, v := range items {
		it := v.ListingItem()
		if f.Match(it) {
			entries = append(entries, entry{value: v, item: it})
		}
	}

	if compare := comparator(f.Sort); compare != nil {
		slices.SortStableFunc(entries, func(a, b entry) int {
			return compare(a.item, b.item)
		})
	}

	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.value
	}
	return out
}

func comparator(key SortKey) func(a, b Item) int {
	switch key {
	case SortDate:
		// newest first
		return func(a, b Item) int { return b.AddedAt.Compare(a.AddedAt) }
	case SortPriceAsc:
		return func(a, b Item) int { return comparePrice(a, b, false) }
	case SortPriceDesc:
		return func(a, b Item) int { return comparePrice(a, b, true) }
	case SortRating:
		return func(a, b Item) int { return cmp.Compare(b.Rating, a.Rating) }
	case SortName:
		return func(a, b Item) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	default:
		return nil
	}
}

// Items are ranked by their lowest price; items without prices go last in both directions
func comparePrice(a, b Item, desc bool) int {
	aLo, _, aOK := priceSpan(a.Prices)
	bLo, _, bOK := priceSpan(b.Prices)

	switch {
	case !aOK && !bOK:
		return 0
	case !aOK:
		return 1
	case !bOK:
		return -1
	case desc:
		return bLo.Cmp(aLo)
	default:
		return aLo.Cmp(bLo)
	}
}
