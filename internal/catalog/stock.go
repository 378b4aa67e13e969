package catalog

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RestockThreshold is the per-variant stock below which a product needs restocking.
const RestockThreshold = 10

// StockSummary is the listing digest of a product's variants.
type StockSummary struct {
	Total        int    `json:"total"`
	NeedsRestock bool   `json:"needs_restock"`
	PriceRange   string `json:"price_range"`
}

var rupiahPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders amount as "Rp5.000".
func FormatRupiah(amount int64) string {
	return rupiahPrinter.Sprintf("Rp%d", amount)
}

// SummarizeStock totals stock and formats the price range of variants.
func SummarizeStock(variants []Variant) StockSummary {
	if len(variants) == 0 {
		return StockSummary{PriceRange: "-"}
	}
	summary := StockSummary{}
	minPrice, maxPrice := variants[0].Price, variants[0].Price
	for _, v := range variants {
		summary.Total += v.Stock
		if v.Stock < RestockThreshold {
			summary.NeedsRestock = true
		}
		if v.Price < minPrice {
			minPrice = v.Price
		}
		if v.Price > maxPrice {
			maxPrice = v.Price
		}
	}
	if minPrice == maxPrice {
		summary.PriceRange = FormatRupiah(minPrice)
	} else {
		summary.PriceRange = FormatRupiah(minPrice) + " - " + FormatRupiah(maxPrice)
	}
	return summary
}
