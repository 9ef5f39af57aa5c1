package feed

import (
	"os"
	"testing"
	"time"

	"github.com/robertmeta/catalog-cli/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSource = model.Source{Tag: "retailer1", Location: "test.csv"}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("../testdata/" + name)
	require.NoError(t, err)
	return string(data)
}

func TestParseCSV_MapsColumns(t *testing.T) {
	products, defects, err := ParseCSV(readFixture(t, "riverisland.csv"), testSource)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.False(t, defects.Any())

	p := products[0]
	assert.Equal(t, "retailer1-1", p.ID)
	assert.Equal(t, "Midi Dress", p.Name)
	assert.Equal(t, "River Island", p.Brand)
	assert.Equal(t, "Dresses", p.Category)
	assert.Equal(t, "Navy ", p.Colour, "colour is kept as written")
	assert.Equal(t, "£45.00", p.CurrentPrice.Display)
	assert.Equal(t, "45", p.CurrentPrice.Value().String())
	assert.Equal(t, "GBP", p.CurrentPrice.Currency)
	assert.Equal(t, "60", p.OriginalPrice.Value().String())
	assert.Equal(t, "25%", p.Discount)
	assert.Equal(t, "https://example.com/ri/midi-dress", p.ProductLink)
	assert.Equal(t, "https://img.example.com/ri/1.jpg", p.ImageURL)
	assert.Equal(t, "Midi dress in navy", p.ImageAlt)
	assert.Equal(t, "https://img.example.com/ri/1a.jpg", p.SwatchImage1)
	assert.Equal(t, "Navy", p.SwatchAlt1)
	assert.Equal(t, "https://img.example.com/ri/1b.jpg", p.SwatchImage2)
	assert.Equal(t, "Black", p.SwatchAlt2)
	assert.True(t, p.DateAdded.Equal(time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, "retailer1-2", products[1].ID)
	assert.False(t, products[1].OriginalPrice.Valid, "blank original price")
	assert.False(t, products[1].OriginalPrice.Defective(), "blank is not a defect")
}

func TestParseCSV_ShortRowDefaultsMissingFields(t *testing.T) {
	products, defects, err := ParseCSV(readFixture(t, "dorothyperkins.csv"), testSource)
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, "Knit Cardigan, Cropped", products[1].Name, "quoted field with comma")

	skirt := products[2]
	assert.Equal(t, "retailer1-3", skirt.ID)
	assert.Equal(t, "Pleated Skirt", skirt.Name)
	assert.Equal(t, "https://example.com/dp/skirt", skirt.ProductLink)
	assert.Equal(t, "", skirt.ImageURL)
	assert.Equal(t, "", skirt.Category)
	assert.Equal(t, "", skirt.Colour)
	assert.False(t, skirt.CurrentPrice.Valid)
	assert.True(t, skirt.CurrentPrice.Value().IsZero(), "unparseable price defaults to zero")
	assert.False(t, skirt.HasDate())

	assert.Equal(t, 1, defects.Prices)
	assert.Equal(t, 0, defects.Dates)
}

func TestParseCSV_CountsBadDates(t *testing.T) {
	products, defects, err := ParseCSV(readFixture(t, "boden.csv"), testSource)
	require.NoError(t, err)
	require.Len(t, products, 1)

	assert.Equal(t, "Relaxed linen dress with pockets", products[0].Description)
	assert.False(t, products[0].HasDate())
	assert.Equal(t, 1, defects.Dates)
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	products, _, err := ParseCSV("Product Name,Brand\n", testSource)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestParseCSV_EmptyBody(t *testing.T) {
	_, _, err := ParseCSV("", testSource)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestParseCSV_StripsBOM(t *testing.T) {
	products, _, err := ParseCSV("\ufeffProduct Name,Brand\nTee,Oasis\n", testSource)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Tee", products[0].Name)
}

func TestParseXML_MerchantFeed(t *testing.T) {
	source := model.Source{Tag: "retailer4", Location: "merchant.xml"}
	products, _, err := ParseXML(readFixture(t, "merchant.xml"), source)
	require.NoError(t, err)
	require.Len(t, products, 2)

	dress := products[0]
	assert.Equal(t, "retailer4-1", dress.ID)
	assert.Equal(t, "Floral Wrap Dress", dress.Name)
	assert.Equal(t, "Matalan", dress.Brand)
	assert.Equal(t, "Dresses", dress.Category)
	assert.Equal(t, "Floral", dress.Colour)
	assert.Equal(t, "A floral wrap dress", dress.Description)
	assert.Equal(t, "18", dress.CurrentPrice.Value().String())
	assert.Equal(t, "30", dress.OriginalPrice.Value().String())
	assert.Equal(t, "GBP", dress.CurrentPrice.Currency)
	assert.Equal(t, "https://img.example.com/matalan/1.jpg", dress.ImageURL)
	assert.True(t, dress.DateAdded.Equal(time.Date(2024, 11, 21, 9, 0, 0, 0, time.UTC)))

	jumper := products[1]
	assert.Equal(t, "Knitwear", jumper.Category, "falls back to item category")
	assert.Equal(t, "25", jumper.CurrentPrice.Value().String())
	assert.False(t, jumper.OriginalPrice.Valid)
	assert.False(t, jumper.HasDate())
}

func TestParse_DetectsFormat(t *testing.T) {
	products, _, err := Parse(readFixture(t, "merchant.xml"), testSource)
	require.NoError(t, err)
	assert.Equal(t, "Floral Wrap Dress", products[0].Name)

	products, _, err = Parse(readFixture(t, "boden.csv"), testSource)
	require.NoError(t, err)
	assert.Equal(t, "Linen Shirt Dress", products[0].Name)
}

func TestParse_InvalidXML(t *testing.T) {
	_, _, err := Parse("<invalid>xml</broken>", testSource)
	assert.Error(t, err)
}
