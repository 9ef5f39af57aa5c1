package catalog

import (
	"fmt"
	"time"

	"github.com/robertmeta/catalog-cli/model"
)

type productOpt func(*model.Product)

func withBrand(b string) productOpt { return func(p *model.Product) { p.Brand = b } }
func withCategory(c string) productOpt { return func(p *model.Product) { p.Category = c } }
func withColour(c string) productOpt { return func(p *model.Product) { p.Colour = c } }
func withDescription(d string) productOpt {
	return func(p *model.Product) { p.Description = d }
}
func withOriginal(price string) productOpt {
	return func(p *model.Product) { p.OriginalPrice = model.ParsePrice(price) }
}
func withDate(s string) productOpt {
	return func(p *model.Product) { p.DateAdded, _ = model.ParseDate(s) }
}

func newProduct(id, name, price string, opts ...productOpt) model.Product {
	p := model.Product{ID: id, Name: name, CurrentPrice: model.ParsePrice(price)}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// numbered builds n products priced 1..n with distinct dates, newest last.
func numbered(n int) []model.Product {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	products := make([]model.Product, n)
	for i := range products {
		products[i] = newProduct(
			fmt.Sprintf("retailer1-%d", i+1),
			fmt.Sprintf("Item %d", i+1),
			fmt.Sprintf("£%d.00", i+1),
		)
		products[i].DateAdded = base.AddDate(0, 0, i)
	}
	return products
}

func ids(products []model.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func ptr(s string) *string { return &s }

// openState is a state with no filters and a price range wide enough for any test product.
func openState() State {
	return NewState(model.NewPriceRange(0, 100000))
}
