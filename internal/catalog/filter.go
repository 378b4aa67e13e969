package catalog

import "strings"

// FilterProducts returns the products whose name contains term
// (case-insensitive) and whose category equals categoryID. An empty term
// and the "all" category match everything. The input is not modified.
func FilterProducts(products []ProductWithDetails, term, categoryID string) []ProductWithDetails {
	needle := strings.ToLower(term)
	out := make([]ProductWithDetails, 0, len(products))
	for _, p := range products {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		if !matchesCategory(p, categoryID) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesCategory(p ProductWithDetails, categoryID string) bool {
	if categoryID == AllCategories {
		return true
	}
	return p.CategoryID != nil && *p.CategoryID == categoryID
}
