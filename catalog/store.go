package catalog

import (
	"slices"

	"github.com/robertmeta/catalog-cli/model"
	"go.uber.org/zap"
)

// Store holds the loaded collection and the shopper's current selections.
// The collection is fixed at construction. Changing a filter or the sort key
// recomputes the matching products; changing the page only re-slices them.
//
// Store is not safe for concurrent use.
type Store struct {
	log      *zap.SugaredLogger
	products []model.Product
	facets   Facets
	state    State

	matched []model.Product
	dirty   bool
	err     error
	passes  int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used to report pipeline failures.
func WithLogger(log *zap.SugaredLogger) StoreOption {
	return func(s *Store) { s.log = log }
}

// WithPageSize overrides DefaultPageSize.
func WithPageSize(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.state.PageSize = n
		}
	}
}

// NewStore creates a Store over a copy of products. The initial price range
// selection spans the whole collection.
func NewStore(products []model.Product, opts ...StoreOption) *Store {
	products = slices.Clone(products)
	facets := ComputeFacets(products)

	s := &Store{
		log:      zap.NewNop().Sugar(),
		products: products,
		facets:   facets,
		state:    NewState(model.PriceRange{Low: facets.MinPrice, High: facets.MaxPrice}),
		dirty:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Len returns the size of the whole collection.
func (s *Store) Len() int {
	return len(s.products)
}

// Find returns the product with the given ID.
func (s *Store) Find(id string) (model.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

// Facets returns the filter choices derived from the collection.
func (s *Store) Facets() Facets {
	return s.facets
}

// State returns the current selections.
func (s *Store) State() State {
	return s.state
}

// SetBrand selects a brand; nil clears the brand filter.
func (s *Store) SetBrand(brand *string) {
	s.state.Filters.Brand = brand
	s.dirty = true
}

// SetCategory selects a category; nil clears the category filter.
func (s *Store) SetCategory(category *string) {
	s.state.Filters.Category = category
	s.dirty = true
}

// SetColour selects a colour. nil or AllColours clears the colour filter.
func (s *Store) SetColour(colour *string) {
	s.state.Filters.Colour = colour
	s.dirty = true
}

// SetPriceRange sets the inclusive current-price range.
func (s *Store) SetPriceRange(r model.PriceRange) {
	s.state.Filters.PriceRange = r
	s.dirty = true
}

// SetSearch sets the free-text search; empty matches everything.
func (s *Store) SetSearch(search string) {
	s.state.Filters.Search = search
	s.dirty = true
}

// SetSort selects the sort order.
func (s *Store) SetSort(key model.SortKey) {
	s.state.Sort = key
	s.dirty = true
}

// SetPage selects the 1-based page. It does not re-run filtering or sorting.
func (s *Store) SetPage(page int) {
	s.state.Page = page
}

// Page returns the current page, recomputing the matching products first if
// any filter or the sort key changed. A pipeline failure is logged and
// yields an empty page; Err reports it.
func (s *Store) Page() PageResult {
	if s.dirty {
		s.recompute()
	}
	return Window(s.matched, s.state.Page, s.state.PageSize)
}

// Err returns the failure of the most recent recomputation, if any.
func (s *Store) Err() error {
	return s.err
}

func (s *Store) recompute() {
	s.passes++
	s.dirty = false

	matched, err := FilterAndSort(s.products, s.state.Filters, s.state.Sort)
	s.err = err
	if err != nil {
		s.log.Errorw("catalog query failed, showing no products", "error", err, "sort", s.state.Sort)
		s.matched = nil
		return
	}
	s.matched = matched
}
