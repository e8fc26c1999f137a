package recipe

import (
	"fmt"
	"slices"

	"menumaker/internal/apperrors"
)

// GroupEntry lists the ingredients of one category, in file order.
type GroupEntry struct {
	Category    Category
	Ingredients []string
}

// Groups is the ingredient to category mapping. An ingredient belongs to at most one
// category; ingredients that are not mapped are simply ignored.
type Groups struct {
	order        []Category
	members      map[Category][]string
	byIngredient map[string]Category
}

// NewGroups builds the mapping from ordered entries. A category listed twice, or an
// ingredient listed under two categories, is a configuration error.
func NewGroups(entries []GroupEntry) (*Groups, error) {
	g := &Groups{
		members:      make(map[Category][]string),
		byIngredient: make(map[string]Category),
	}
	for _, e := range entries {
		if e.Category == "" {
			return nil, fmt.Errorf("%w: empty category name", apperrors.ErrConfig)
		}
		if _, dup := g.members[e.Category]; dup {
			return nil, fmt.Errorf("%w: category %q listed twice", apperrors.ErrConfig, e.Category)
		}
		g.order = append(g.order, e.Category)
		g.members[e.Category] = nil
		for _, ing := range e.Ingredients {
			if prev, ok := g.byIngredient[ing]; ok {
				return nil, fmt.Errorf("%w: ingredient %q belongs to both %q and %q",
					apperrors.ErrConfig, ing, prev, e.Category)
			}
			g.byIngredient[ing] = e.Category
			g.members[e.Category] = append(g.members[e.Category], ing)
		}
	}
	return g, nil
}

// Categories returns the known categories in file order.
func (g *Groups) Categories() []Category {
	return slices.Clone(g.order)
}

// Known reports whether c is a declared category.
func (g *Groups) Known(c Category) bool {
	_, ok := g.members[c]
	return ok
}

// CategoryOf returns the category of ingredient, if it is mapped.
func (g *Groups) CategoryOf(ingredient string) (Category, bool) {
	c, ok := g.byIngredient[ingredient]
	return c, ok
}

// CategoriesFor derives the category membership of a list of ingredients.
func (g *Groups) CategoriesFor(ingredients []string) CategorySet {
	s := NewCategorySet()
	for _, ing := range ingredients {
		if c, ok := g.byIngredient[ing]; ok {
			s[c] = struct{}{}
		}
	}
	return s
}

// Assign maps ingredient to category, moving it out of its previous category.
func (g *Groups) Assign(ingredient string, c Category) error {
	if !g.Known(c) {
		return fmt.Errorf("unknown category %q", c)
	}
	if prev, ok := g.byIngredient[ingredient]; ok {
		g.members[prev] = slices.DeleteFunc(g.members[prev], func(s string) bool { return s == ingredient })
	}
	g.byIngredient[ingredient] = c
	g.members[c] = append(g.members[c], ingredient)
	return nil
}

// Clone returns an independent copy of the mapping.
func (g *Groups) Clone() *Groups {
	c := &Groups{
		order:        slices.Clone(g.order),
		members:      make(map[Category][]string, len(g.members)),
		byIngredient: make(map[string]Category, len(g.byIngredient)),
	}
	for cat, ings := range g.members {
		c.members[cat] = slices.Clone(ings)
	}
	for ing, cat := range g.byIngredient {
		c.byIngredient[ing] = cat
	}
	return c
}

// Entries returns the mapping in file order, ready to be written back.
func (g *Groups) Entries() []GroupEntry {
	out := make([]GroupEntry, 0, len(g.order))
	for _, c := range g.order {
		out = append(out, GroupEntry{Category: c, Ingredients: slices.Clone(g.members[c])})
	}
	return out
}
