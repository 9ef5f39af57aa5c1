// Package catalog holds the product collection and runs shopper queries over it.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/robertmeta/catalog-cli/model"
)

// DefaultPageSize is the number of products shown per page.
const DefaultPageSize = 40

// ErrPipeline is returned when filtering or sorting fails unexpectedly.
var ErrPipeline = errors.New("catalog query failed")

// State is everything a query depends on.
type State struct {
	Filters  model.FilterSelection `json:"filters"`
	Sort     model.SortKey         `json:"sort"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// NewState returns the initial query state for a price range.
func NewState(prices model.PriceRange) State {
	return State{
		Filters:  model.FilterSelection{PriceRange: prices},
		Sort:     model.DefaultSort,
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// PageResult is one visible page of a query.
type PageResult struct {
	Products   []model.Product `json:"products"`
	Total      int             `json:"count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// RunQuery filters, sorts and windows products for state.
// The input slice is never modified. On failure the result is empty and the
// error wraps ErrPipeline.
func RunQuery(products []model.Product, state State) (PageResult, error) {
	matched, err := FilterAndSort(products, state.Filters, state.Sort)
	if err != nil {
		return Window(nil, state.Page, state.PageSize), err
	}
	return Window(matched, state.Page, state.PageSize), nil
}

var sortProducts = slices.SortStableFunc[[]model.Product, model.Product]

// FilterAndSort returns a new slice of the products matching filters, ordered by key.
func FilterAndSort(products []model.Product, filters model.FilterSelection, key model.SortKey) (result []model.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrPipeline, r)
		}
	}()

	if err := filters.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPipeline, err)
	}

	result = make([]model.Product, 0, len(products))
	for _, p := range products {
		if matches(&p, &filters) {
			result = append(result, p)
		}
	}

	cmp, err := comparator(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPipeline, err)
	}
	sortProducts(result, cmp)

	return result, nil
}

// Window returns the 1-based page of size pageSize from products.
// Pages outside the result are empty. The page is a copy of products.
func Window(products []model.Product, page, pageSize int) PageResult {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(products)
	res := PageResult{
		Products:   []model.Product{},
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}

	if page < 1 {
		return res
	}
	start := (page - 1) * pageSize
	if start >= total {
		return res
	}
	end := min(start+pageSize, total)
	res.Products = slices.Clone(products[start:end])
	return res
}

func matches(p *model.Product, f *model.FilterSelection) bool {
	if f.Search != "" && !matchesSearch(p, f.Search) {
		return false
	}
	if f.Brand != nil && p.Brand != *f.Brand {
		return false
	}
	if f.Category != nil && p.Category != *f.Category {
		return false
	}
	if f.ColourFilterActive() && normalizeColour(p.Colour) != normalizeColour(*f.Colour) {
		return false
	}
	return f.PriceRange.Contains(p.CurrentPrice.Value())
}

func matchesSearch(p *model.Product, search string) bool {
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		(p.Description != "" && strings.Contains(strings.ToLower(p.Description), needle))
}

func normalizeColour(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func comparator(key model.SortKey) (func(a, b model.Product) int, error) {
	switch key {
	case model.SortNewest, "":
		return compareNewest, nil
	case model.SortPriceAsc:
		return func(a, b model.Product) int {
			return a.CurrentPrice.Value().Cmp(b.CurrentPrice.Value())
		}, nil
	case model.SortPriceDesc:
		return func(a, b model.Product) int {
			return b.CurrentPrice.Value().Cmp(a.CurrentPrice.Value())
		}, nil
	case model.SortDiscount:
		// Orders by original price, not by the size of the discount.
		return func(a, b model.Product) int {
			return b.OriginalPrice.Value().Cmp(a.OriginalPrice.Value())
		}, nil
	default:
		return nil, fmt.Errorf("unknown sort key: %s", key)
	}
}

// compareNewest puts newer products first and undated products last.
func compareNewest(a, b model.Product) int {
	switch {
	case !a.HasDate() && !b.HasDate():
		return 0
	case !a.HasDate():
		return 1
	case !b.HasDate():
		return -1
	}
	return b.DateAdded.Compare(a.DateAdded)
}
