// Package model defines the core data structures for catalog-cli.
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AllColours is the colour selection that disables colour filtering.
const AllColours = "All Colours"

// Source is one product feed in the configured feed list.
type Source struct {
	Tag      string `json:"tag"`
	Location string `json:"location"`
}

// Validate checks if the source has required fields.
func (s *Source) Validate() error {
	if s.Location == "" {
		return errors.New("feed location is required")
	}
	return nil
}

// SourceTag returns the tag for the feed at the given 0-based list position.
func SourceTag(index int) string {
	return fmt.Sprintf("retailer%d", index+1)
}

// NewSources tags locations by their position in the list.
func NewSources(locations []string) []Source {
	sources := make([]Source, 0, len(locations))
	for i, loc := range locations {
		sources = append(sources, Source{Tag: SourceTag(i), Location: loc})
	}
	return sources
}

// Product represents a single catalog item read from a feed.
// Products are never modified after ingestion.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Brand         string    `json:"brand"`
	Category      string    `json:"category"`
	Colour        string    `json:"colour"`
	Description   string    `json:"description,omitempty"`
	CurrentPrice  Price     `json:"current_price"`
	OriginalPrice Price     `json:"original_price"`
	Discount      string    `json:"discount,omitempty"`
	ProductLink   string    `json:"product_link"`
	ImageURL      string    `json:"image_url"`
	ImageAlt      string    `json:"image_alt"`
	SwatchImage1  string    `json:"swatch_image_1,omitempty"`
	SwatchAlt1    string    `json:"swatch_alt_1,omitempty"`
	SwatchImage2  string    `json:"swatch_image_2,omitempty"`
	SwatchAlt2    string    `json:"swatch_alt_2,omitempty"`
	DateAdded     time.Time `json:"date_added"`
}

// HasDate returns true if the product carries a valid date added.
func (p *Product) HasDate() bool {
	return !p.DateAdded.IsZero()
}

// SortKey selects the ordering of a query result.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortDiscount  SortKey = "discount"
)

// DefaultSort is the ordering used when none is selected.
const DefaultSort = SortNewest

// SortKeys lists the supported sort keys in display order.
var SortKeys = []SortKey{SortNewest, SortPriceAsc, SortPriceDesc, SortDiscount}

// ParseSortKey parses a sort key. An empty string yields DefaultSort.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return DefaultSort, nil
	}
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	names := make([]string, len(SortKeys))
	for i, k := range SortKeys {
		names[i] = string(k)
	}
	return "", fmt.Errorf("invalid sort key: %s (expected one of %s)", s, strings.Join(names, ", "))
}

// PriceRange is an inclusive interval of prices.
type PriceRange struct {
	Low  decimal.Decimal `json:"low"`
	High decimal.Decimal `json:"high"`
}

// PriceBound converts a float price bound. NaN and infinities are rejected.
func PriceBound(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, fmt.Errorf("price bound must be finite, got %v", v)
	}
	return decimal.NewFromFloat(v), nil
}

// NewPriceRange builds a range from float bounds. Both bounds must be finite;
// use PriceBound for untrusted input.
func NewPriceRange(low, high float64) PriceRange {
	return PriceRange{Low: decimal.NewFromFloat(low), High: decimal.NewFromFloat(high)}
}

// Contains reports whether low <= v <= high.
func (r PriceRange) Contains(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(r.Low) && v.LessThanOrEqual(r.High)
}

// FilterSelection is the shopper's current query.
// A nil Brand, Category or Colour means no filter on that attribute.
type FilterSelection struct {
	Brand      *string    `json:"brand,omitempty"`
	Category   *string    `json:"category,omitempty"`
	Colour     *string    `json:"colour,omitempty"`
	PriceRange PriceRange `json:"price_range"`
	Search     string     `json:"search,omitempty"`
}

// Validate checks the selection invariants.
func (f *FilterSelection) Validate() error {
	if f.PriceRange.Low.GreaterThan(f.PriceRange.High) {
		return fmt.Errorf("invalid price range: low %s is greater than high %s",
			f.PriceRange.Low, f.PriceRange.High)
	}
	return nil
}

// ColourFilterActive returns true if the colour selection restricts results.
func (f *FilterSelection) ColourFilterActive() bool {
	return f.Colour != nil && *f.Colour != AllColours
}
