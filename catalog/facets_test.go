package catalog

import (
	"testing"

	"github.com/robertmeta/catalog-cli/model"
	"github.com/stretchr/testify/assert"
)

func TestPriceBounds(t *testing.T) {
	empty := PriceBounds(nil)
	assert.Equal(t, "0", empty.Low.String())
	assert.Equal(t, "1000", empty.High.String())

	products := []model.Product{
		newProduct("a", "A", "£12.50"),
		newProduct("b", "B", "£3.00"),
		newProduct("c", "C", "£99.99"),
	}
	bounds := PriceBounds(products)
	assert.Equal(t, "3", bounds.Low.String())
	assert.Equal(t, "99.99", bounds.High.String())

	products = append(products, newProduct("d", "D", "Sold out"))
	assert.Equal(t, "0", PriceBounds(products).Low.String(), "unparseable price counts as zero")
}

func TestColours(t *testing.T) {
	assert.Equal(t, []string{model.AllColours}, Colours(nil))

	products := []model.Product{
		newProduct("a", "A", "£1", withColour("Navy ")),
		newProduct("b", "B", "£1", withColour("Black")),
		newProduct("c", "C", "£1", withColour("navy")),
		newProduct("d", "D", "£1"),
		newProduct("e", "E", "£1", withColour("Floral")),
	}
	assert.Equal(t, []string{model.AllColours, "Navy", "Black", "Floral"}, Colours(products))
}

func TestComputeFacets(t *testing.T) {
	products := []model.Product{
		newProduct("a", "A", "£10", withBrand("Oasis"), withCategory("Tops")),
		newProduct("b", "B", "£20", withBrand("Boden"), withCategory("Dresses")),
		newProduct("c", "C", "£30", withBrand("Oasis")),
	}

	f := ComputeFacets(products)
	assert.Equal(t, "10", f.MinPrice.String())
	assert.Equal(t, "30", f.MaxPrice.String())
	assert.Equal(t, []string{"Boden", "Oasis"}, f.Brands)
	assert.Equal(t, []string{"Dresses", "Tops"}, f.Categories)
	assert.Equal(t, []string{model.AllColours}, f.Colours)
}
