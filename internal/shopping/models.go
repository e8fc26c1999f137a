package shopping

import (
	"slices"
	"strings"
	"time"

	"menumaker/internal/recipe"
)

// Other is the section for ingredients with no category.
const Other = "other"

// ShoppingList is the list of ingredients needed for a committed menu.
type ShoppingList struct {
	ID        int64     `json:"id"`
	MenuID    string    `json:"menu_id"`
	Sections  []Section `json:"sections"`
	CreatedAt time.Time `json:"created_at"`
}

// Section groups the ingredients of one category.
type Section struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// FromRecipes collects the distinct ingredients of recipes, grouped by category in
// the order of groups. Items within a section are sorted; uncategorised ones go last.
func FromRecipes(menuID string, recipes []recipe.Recipe, groups *recipe.Groups) *ShoppingList {
	byCategory := make(map[string][]string)
	seen := make(map[string]bool)
	for _, r := range recipes {
		for _, ing := range r.Ingredients {
			ing = strings.TrimSpace(ing)
			if ing == "" || seen[ing] {
				continue
			}
			seen[ing] = true
			cat := Other
			if groups != nil {
				if c, ok := groups.CategoryOf(ing); ok {
					cat = string(c)
				}
			}
			byCategory[cat] = append(byCategory[cat], ing)
		}
	}

	list := &ShoppingList{MenuID: menuID}
	var order []string
	if groups != nil {
		for _, c := range groups.Categories() {
			order = append(order, string(c))
		}
	}
	if !slices.Contains(order, Other) {
		order = append(order, Other)
	}
	for _, cat := range order {
		items, ok := byCategory[cat]
		if !ok {
			continue
		}
		slices.Sort(items)
		list.Sections = append(list.Sections, Section{Category: cat, Items: items})
	}
	return list
}

// Items returns every ingredient of the list in section order.
func (l *ShoppingList) Items() []string {
	var out []string
	for _, s := range l.Sections {
		out = append(out, s.Items...)
	}
	return out
}

// String renders the list as plain text, one section per paragraph.
func (l *ShoppingList) String() string {
	var b strings.Builder
	for i, s := range l.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.ToUpper(s.Category))
		b.WriteString("\n")
		for _, item := range s.Items {
			b.WriteString("- ")
			b.WriteString(item)
			b.WriteString("\n")
		}
	}
	return b.String()
}
