package catalog

import (
	"slices"
	"strings"

	"github.com/robertmeta/catalog-cli/model"
	"github.com/shopspring/decimal"
)

// Bounds used when the collection is empty.
var (
	DefaultMinPrice = decimal.Zero
	DefaultMaxPrice = decimal.NewFromInt(1000)
)

// Facets are the filter choices derived from the whole collection.
type Facets struct {
	MinPrice   decimal.Decimal `json:"min_price"`
	MaxPrice   decimal.Decimal `json:"max_price"`
	Colours    []string        `json:"colours"`
	Brands     []string        `json:"brands"`
	Categories []string        `json:"categories"`
}

// ComputeFacets derives every facet of products.
func ComputeFacets(products []model.Product) Facets {
	bounds := PriceBounds(products)
	return Facets{
		MinPrice:   bounds.Low,
		MaxPrice:   bounds.High,
		Colours:    Colours(products),
		Brands:     distinctSorted(products, func(p *model.Product) string { return p.Brand }),
		Categories: distinctSorted(products, func(p *model.Product) string { return p.Category }),
	}
}

// PriceBounds returns the lowest and highest current price in products.
// Unparseable prices count as zero.
func PriceBounds(products []model.Product) model.PriceRange {
	if len(products) == 0 {
		return model.PriceRange{Low: DefaultMinPrice, High: DefaultMaxPrice}
	}

	low := products[0].CurrentPrice.Value()
	high := low
	for _, p := range products[1:] {
		v := p.CurrentPrice.Value()
		low = decimal.Min(low, v)
		high = decimal.Max(high, v)
	}
	return model.PriceRange{Low: low, High: high}
}

// Colours returns model.AllColours followed by each distinct colour in
// first-seen order. Colours equal after trimming and lowercasing are listed
// once, using the first spelling seen.
func Colours(products []model.Product) []string {
	colours := []string{model.AllColours}
	seen := make(map[string]bool)
	for _, p := range products {
		key := normalizeColour(p.Colour)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		colours = append(colours, strings.TrimSpace(p.Colour))
	}
	return colours
}

func distinctSorted(products []model.Product, field func(*model.Product) string) []string {
	seen := make(map[string]bool)
	values := []string{}
	for i := range products {
		v := field(&products[i])
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}
