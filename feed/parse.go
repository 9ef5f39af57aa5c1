package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/robertmeta/catalog-cli/model"
)

// Recognized feed columns. Other columns are ignored.
const (
	ColProductName   = "Product Name"
	ColBrand         = "Brand"
	ColCurrentPrice  = "Current Price"
	ColOriginalPrice = "Original Price"
	ColDiscount      = "Discount"
	ColProductLink   = "Product Link"
	ColMainImage     = "Main Image"
	ColMainImageAlt  = "Main Image Alt"
	ColCategory      = "Category"
	ColColour        = "Colour"
	ColSwatchImage1  = "Swatch Image 1"
	ColSwatchAlt1    = "Swatch Alt 1"
	ColSwatchImage2  = "Swatch Image 2"
	ColSwatchAlt2    = "Swatch Alt 2"
	ColDescription   = "Description"
	ColDateAdded     = "Date Added"
)

// ErrNoHeader is returned for a feed body without a header row.
var ErrNoHeader = errors.New("feed has no header row")

// Defects counts row values that could not be parsed and were defaulted.
type Defects struct {
	Prices int
	Dates  int
}

// Any returns true if at least one defect was recorded.
func (d Defects) Any() bool {
	return d.Prices > 0 || d.Dates > 0
}

// Parse maps a raw feed body to products. XML bodies (RSS/Atom product feeds)
// are detected by a leading '<', everything else is parsed as CSV.
func Parse(body string, source model.Source) ([]model.Product, Defects, error) {
	if strings.HasPrefix(strings.TrimSpace(trimBOM(body)), "<") {
		return ParseXML(body, source)
	}
	return ParseCSV(body, source)
}

// ParseCSV parses a CSV feed with a header row. Rows shorter than the header
// leave the missing fields empty.
func ParseCSV(body string, source model.Source) ([]model.Product, Defects, error) {
	r := csv.NewReader(strings.NewReader(trimBOM(body)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, Defects{}, fmt.Errorf("failed to parse CSV feed %s: %w", source.Tag, err)
	}
	if len(records) == 0 {
		return nil, Defects{}, fmt.Errorf("failed to parse CSV feed %s: %w", source.Tag, ErrNoHeader)
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var defects Defects
	products := make([]model.Product, 0, len(records)-1)
	for i, record := range records[1:] {
		row := make(map[string]string, len(header))
		for col, name := range header {
			if col < len(record) {
				row[name] = record[col]
			}
		}
		products = append(products, mapRow(row, source, i+1, &defects))
	}

	return products, defects, nil
}

// ParseXML parses an RSS or Atom product feed. Google Merchant "g:" fields
// take precedence over the generic item fields.
func ParseXML(body string, source model.Source) ([]model.Product, Defects, error) {
	parsed, err := gofeed.NewParser().ParseString(trimBOM(body))
	if err != nil {
		return nil, Defects{}, fmt.Errorf("failed to parse XML feed %s: %w", source.Tag, err)
	}

	var defects Defects
	products := make([]model.Product, 0, len(parsed.Items))
	for i, item := range parsed.Items {
		products = append(products, mapRow(itemRow(item), source, i+1, &defects))
	}

	return products, defects, nil
}

// itemRow converts a feed item to the same column layout as a CSV row.
func itemRow(item *gofeed.Item) map[string]string {
	row := map[string]string{
		ColProductName:  item.Title,
		ColProductLink:  item.Link,
		ColMainImageAlt: item.Title,
		ColDescription:  item.Description,
		ColBrand:        merchantValue(item, "brand"),
		ColColour:       merchantValue(item, "color"),
		ColCategory:     merchantValue(item, "product_type"),
		ColMainImage:    merchantValue(item, "image_link"),
	}

	if row[ColBrand] == "" && len(item.Authors) > 0 && item.Authors[0] != nil {
		row[ColBrand] = item.Authors[0].Name
	}
	if row[ColCategory] == "" && len(item.Categories) > 0 {
		row[ColCategory] = item.Categories[0]
	}
	if row[ColMainImage] == "" && item.Image != nil {
		row[ColMainImage] = item.Image.URL
	}

	// A sale price makes the regular price the original one.
	if sale := merchantValue(item, "sale_price"); sale != "" {
		row[ColCurrentPrice] = sale
		row[ColOriginalPrice] = merchantValue(item, "price")
	} else {
		row[ColCurrentPrice] = merchantValue(item, "price")
	}

	switch {
	case item.PublishedParsed != nil:
		row[ColDateAdded] = item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		row[ColDateAdded] = item.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	return row
}

func merchantValue(item *gofeed.Item, name string) string {
	if item.Extensions == nil {
		return ""
	}
	values := item.Extensions["g"][name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

// mapRow builds a product from a row keyed by column name.
// ordinal is the 1-based row position within the feed.
func mapRow(row map[string]string, source model.Source, ordinal int, defects *Defects) model.Product {
	p := model.Product{
		ID:            fmt.Sprintf("%s-%d", source.Tag, ordinal),
		Name:          row[ColProductName],
		Brand:         row[ColBrand],
		Category:      row[ColCategory],
		Colour:        row[ColColour],
		Description:   row[ColDescription],
		CurrentPrice:  model.ParsePrice(row[ColCurrentPrice]),
		OriginalPrice: model.ParsePrice(row[ColOriginalPrice]),
		Discount:      row[ColDiscount],
		ProductLink:   row[ColProductLink],
		ImageURL:      row[ColMainImage],
		ImageAlt:      row[ColMainImageAlt],
		SwatchImage1:  row[ColSwatchImage1],
		SwatchAlt1:    row[ColSwatchAlt1],
		SwatchImage2:  row[ColSwatchImage2],
		SwatchAlt2:    row[ColSwatchAlt2],
	}

	if p.CurrentPrice.Defective() || p.OriginalPrice.Defective() {
		defects.Prices++
	}

	raw := row[ColDateAdded]
	if t, ok := model.ParseDate(raw); ok {
		p.DateAdded = t
	} else if strings.TrimSpace(raw) != "" {
		defects.Dates++
	}

	return p
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
