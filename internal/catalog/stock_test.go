package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeStock(t *testing.T) {
	assert.Equal(t, StockSummary{PriceRange: "-"}, SummarizeStock(nil))

	single := SummarizeStock([]Variant{{Price: 5000, Stock: 3}})
	assert.Equal(t, 3, single.Total)
	assert.True(t, single.NeedsRestock)
	assert.Equal(t, "Rp5.000", single.PriceRange)

	multi := SummarizeStock([]Variant{
		{Size: "M", Price: 85000, Stock: 12},
		{Size: "S", Price: 80000, Stock: 20},
		{Size: "L", Price: 125000, Stock: 10},
	})
	assert.Equal(t, 42, multi.Total)
	assert.False(t, multi.NeedsRestock)
	assert.Equal(t, "Rp80.000 - Rp125.000", multi.PriceRange)
}

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "Rp0", FormatRupiah(0))
	assert.Equal(t, "Rp950", FormatRupiah(950))
	assert.Equal(t, "Rp1.250.000", FormatRupiah(1250000))
}
