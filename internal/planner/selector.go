package planner

import (
	"cmp"
	"fmt"
	"slices"

	"menumaker/internal/apperrors"
	"menumaker/internal/recipe"
)

// Eligible returns the recipes that satisfy filter for meal, least recently used
// first. Ties are broken by id so the order is fully deterministic.
func Eligible(catalog *recipe.Catalog, meal recipe.Meal, filter Filter) []recipe.Recipe {
	var out []recipe.Recipe
	for _, r := range catalog.Recipes() {
		if filter.Matches(r, meal) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b recipe.Recipe) int {
		if c := a.Provisional.Compare(b.Provisional); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Select picks the recipe for one slot. Cursor 0 is the least recently used eligible
// recipe, cursor n the n-th next one; the cursor wraps around the eligible set. A
// literal filter always resolves to the named recipe. Select never mutates catalog.
func Select(catalog *recipe.Catalog, meal recipe.Meal, filter Filter, cursor int) (int, error) {
	if filter.IsLiteral() {
		r, ok := catalog.Lookup(filter.Recipe)
		if !ok {
			return -1, fmt.Errorf("%w: no recipe named %q", apperrors.ErrRecipeNotFound, filter.Recipe)
		}
		return r.ID, nil
	}

	eligible := Eligible(catalog, meal, filter)
	if len(eligible) == 0 {
		return -1, fmt.Errorf("%w: nothing for %s with categories %q", apperrors.ErrNoEligibleRecipe, meal, filter)
	}
	if cursor < 0 {
		cursor = 0
	}
	return eligible[cursor%len(eligible)].ID, nil
}
