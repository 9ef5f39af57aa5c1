package catalog

import (
	"testing"

	"github.com/robertmeta/catalog-cli/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStore_InitialState(t *testing.T) {
	s := NewStore(numbered(45))

	state := s.State()
	assert.Equal(t, model.DefaultSort, state.Sort)
	assert.Equal(t, 1, state.Page)
	assert.Equal(t, DefaultPageSize, state.PageSize)
	assert.Equal(t, "1", state.Filters.PriceRange.Low.String())
	assert.Equal(t, "45", state.Filters.PriceRange.High.String())

	page := s.Page()
	assert.Len(t, page.Products, 40)
	assert.Equal(t, 45, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.NoError(t, s.Err())
}

func TestStore_PageChangeOnlyReslices(t *testing.T) {
	s := NewStore(numbered(45))

	first := s.Page()
	require.Equal(t, 1, s.passes)

	s.SetPage(2)
	second := s.Page()
	assert.Equal(t, 1, s.passes, "page change must not re-run the pipeline")
	assert.Len(t, second.Products, 5)
	assert.Equal(t, 2, second.Page)

	s.SetPage(1)
	again := s.Page()
	assert.Equal(t, 1, s.passes)
	assert.Equal(t, ids(first.Products), ids(again.Products))
}

func TestStore_SelectionChangesRecompute(t *testing.T) {
	products := []model.Product{
		newProduct("a", "Midi Dress", "£40", withBrand("Oasis"), withCategory("Dresses"), withColour("Navy")),
		newProduct("b", "Blouse", "£20", withBrand("Oasis"), withCategory("Tops"), withColour("White")),
		newProduct("c", "Maxi Dress", "£60", withBrand("Boden"), withCategory("Dresses"), withColour("navy")),
	}
	s := NewStore(products)
	s.Page()
	passes := s.passes

	steps := []struct {
		name  string
		apply func()
		want  []string
	}{
		{name: "search", apply: func() { s.SetSearch("dress") }, want: []string{"a", "c"}},
		{name: "colour", apply: func() { s.SetColour(ptr("NAVY")) }, want: []string{"a", "c"}},
		{name: "sort", apply: func() { s.SetSort(model.SortPriceDesc) }, want: []string{"c", "a"}},
		{name: "price", apply: func() { s.SetPriceRange(model.NewPriceRange(0, 50)) }, want: []string{"a"}},
		{name: "clear price", apply: func() { s.SetPriceRange(model.NewPriceRange(0, 100)) }, want: []string{"c", "a"}},
		{name: "brand", apply: func() { s.SetBrand(ptr("Boden")) }, want: []string{"c"}},
		{name: "category", apply: func() { s.SetCategory(ptr("Tops")) }, want: []string{}},
		{name: "clear brand and category", apply: func() { s.SetBrand(nil); s.SetCategory(nil) }, want: []string{"c", "a"}},
		{name: "all colours", apply: func() { s.SetColour(ptr(model.AllColours)); s.SetSearch("") }, want: []string{"c", "a", "b"}},
	}

	for _, step := range steps {
		step.apply()
		page := s.Page()
		assert.Equal(t, step.want, ids(page.Products), step.name)
		assert.Greater(t, s.passes, passes, "%s should recompute", step.name)
		passes = s.passes
	}
}

func TestStore_DoesNotShareCollection(t *testing.T) {
	products := numbered(3)
	s := NewStore(products)

	products[0].Name = "changed"
	p, ok := s.Find("retailer1-1")
	require.True(t, ok)
	assert.Equal(t, "Item 1", p.Name)

	s.SetSort(model.SortPriceDesc)
	s.Page()
	p, _ = s.Find("retailer1-1")
	assert.Equal(t, "Item 1", p.Name)
	assert.Equal(t, 3, s.Len())
}

func TestStore_Find(t *testing.T) {
	s := NewStore(numbered(3))

	p, ok := s.Find("retailer1-2")
	require.True(t, ok)
	assert.Equal(t, "Item 2", p.Name)

	_, ok = s.Find("retailer9-1")
	assert.False(t, ok)
}

func TestStore_PipelineFailureYieldsEmptyPage(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := NewStore(numbered(10), WithLogger(zap.New(core).Sugar()))

	s.SetPriceRange(model.NewPriceRange(8, 2))
	page := s.Page()

	assert.Empty(t, page.Products)
	assert.Equal(t, 0, page.Total)
	assert.ErrorIs(t, s.Err(), ErrPipeline)
	assert.Equal(t, 1, logs.FilterMessage("catalog query failed, showing no products").Len())

	s.SetPriceRange(model.NewPriceRange(2, 8))
	page = s.Page()
	assert.Len(t, page.Products, 7)
	assert.NoError(t, s.Err())
}

func TestStore_WithPageSize(t *testing.T) {
	s := NewStore(numbered(25), WithPageSize(10))

	page := s.Page()
	assert.Len(t, page.Products, 10)
	assert.Equal(t, 3, page.TotalPages)

	s.SetPage(3)
	assert.Len(t, s.Page().Products, 5)

	s.SetPage(4)
	assert.Empty(t, s.Page().Products)
}

func TestStore_PageIsNotAliased(t *testing.T) {
	s := NewStore(numbered(5), WithPageSize(2))

	first := s.Page()
	require.Len(t, first.Products, 2)
	name := first.Products[0].Name
	first.Products[0].Name = "changed"

	assert.Equal(t, name, s.Page().Products[0].Name)
}
