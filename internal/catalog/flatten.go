package catalog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// FlattenCategories returns the selectable leaf categories labelled
// "Parent > Child" where the parent is known, sorted by label.
func FlattenCategories(categories []Category) []CategoryOption {
	names := make(map[string]string, len(categories))
	parents := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
		if c.ParentID != nil {
			parents[*c.ParentID] = struct{}{}
		}
	}

	options := make([]CategoryOption, 0, len(categories))
	for _, c := range categories {
		if _, isParent := parents[c.ID]; isParent {
			continue
		}
		label := c.Name
		if c.ParentID != nil {
			if parentName, ok := names[*c.ParentID]; ok {
				label = parentName + " > " + c.Name
			}
		}
		options = append(options, CategoryOption{ID: c.ID, DisplayName: label})
	}

	col := collate.New(language.Indonesian)
	sort.SliceStable(options, func(i, j int) bool {
		return col.CompareString(options[i].DisplayName, options[j].DisplayName) < 0
	})
	return options
}
