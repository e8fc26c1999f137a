package recipe

import (
	"fmt"
	"slices"
	"time"

	"menumaker/internal/apperrors"
)

// Catalog is the in-memory recipe table of one run. Recipe ids are positions in the
// table: recipes are only ever appended, so an id never changes or gets reused.
//
// Callers read copies of the recipes; every change goes through a Catalog method.
type Catalog struct {
	recipes []*Recipe
	byName  map[string]int
	groups  *Groups
}

// NewCatalog builds a catalog from loaded recipes. Ids are assigned by position,
// categories are derived from groups and the provisional date starts at LastUsed.
func NewCatalog(recipes []Recipe, groups *Groups) (*Catalog, error) {
	if groups == nil {
		groups = &Groups{members: map[Category][]string{}, byIngredient: map[string]Category{}}
	}
	c := &Catalog{
		byName: make(map[string]int, len(recipes)),
		groups: groups,
	}
	for _, r := range recipes {
		if _, err := c.Add(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add appends a recipe and returns it with its id and categories filled in.
func (c *Catalog) Add(r Recipe) (Recipe, error) {
	if r.Name == "" {
		return Recipe{}, fmt.Errorf("%w: recipe #%d has no name", apperrors.ErrConfig, len(c.recipes))
	}
	if _, dup := c.byName[r.Name]; dup {
		return Recipe{}, fmt.Errorf("%w: recipe %q listed twice", apperrors.ErrConfig, r.Name)
	}
	if r.Count < 0 {
		return Recipe{}, fmt.Errorf("%w: recipe %q has negative count %d", apperrors.ErrConfig, r.Name, r.Count)
	}

	rec := r.clone()
	rec.ID = len(c.recipes)
	rec.Categories = c.groups.CategoriesFor(rec.Ingredients)
	rec.Provisional = rec.LastUsed
	c.recipes = append(c.recipes, &rec)
	c.byName[rec.Name] = rec.ID
	return rec.clone(), nil
}

// Len returns the number of recipes.
func (c *Catalog) Len() int {
	return len(c.recipes)
}

// Groups returns the ingredient mapping the catalog was derived from.
func (c *Catalog) Groups() *Groups {
	return c.groups
}

// Get returns a copy of the recipe with the given id.
func (c *Catalog) Get(id int) (Recipe, error) {
	r, err := c.at(id)
	if err != nil {
		return Recipe{}, err
	}
	return r.clone(), nil
}

// Lookup finds a recipe by exact name.
func (c *Catalog) Lookup(name string) (Recipe, bool) {
	id, ok := c.byName[name]
	if !ok {
		return Recipe{}, false
	}
	return c.recipes[id].clone(), true
}

// Recipes returns copies of all recipes in id order.
func (c *Catalog) Recipes() []Recipe {
	out := make([]Recipe, len(c.recipes))
	for i, r := range c.recipes {
		out[i] = r.clone()
	}
	return out
}

// SetProvisional sets the working "last used" date of a recipe.
func (c *Catalog) SetProvisional(id int, t time.Time) error {
	r, err := c.at(id)
	if err != nil {
		return err
	}
	r.Provisional = t
	return nil
}

// ResetProvisional drops every provisional date back to the confirmed one.
func (c *Catalog) ResetProvisional() {
	for _, r := range c.recipes {
		r.Provisional = r.LastUsed
	}
}

// IncrementCount records one more confirmed use of a recipe.
func (c *Catalog) IncrementCount(id int) error {
	r, err := c.at(id)
	if err != nil {
		return err
	}
	r.Count++
	return nil
}

// PromoteProvisional turns provisional dates into confirmed ones. A provisional date
// older than the confirmed one is ignored so LastUsed never goes backwards.
func (c *Catalog) PromoteProvisional() {
	for _, r := range c.recipes {
		if r.Provisional.After(r.LastUsed) {
			r.LastUsed = r.Provisional
		}
		r.Provisional = r.LastUsed
	}
}

// RenameIngredient replaces every occurrence of from by to and returns the number of
// recipes that changed.
func (c *Catalog) RenameIngredient(from, to string) int {
	changed := 0
	for _, r := range c.recipes {
		hit := false
		for i, ing := range r.Ingredients {
			if ing == from {
				r.Ingredients[i] = to
				hit = true
			}
		}
		if hit {
			r.Categories = c.groups.CategoriesFor(r.Ingredients)
			changed++
		}
	}
	return changed
}

// Regroup derives categories again after the ingredient mapping changed.
func (c *Catalog) Regroup(groups *Groups) {
	c.groups = groups
	for _, r := range c.recipes {
		r.Categories = groups.CategoriesFor(r.Ingredients)
	}
}

// Ingredients returns every distinct non-empty ingredient of the catalog, sorted.
func (c *Catalog) Ingredients() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range c.recipes {
		for _, ing := range r.Ingredients {
			if ing == "" {
				continue
			}
			if _, ok := seen[ing]; ok {
				continue
			}
			seen[ing] = struct{}{}
			out = append(out, ing)
		}
	}
	slices.Sort(out)
	return out
}

// Ungrouped returns the sorted ingredients that have no category yet.
func (c *Catalog) Ungrouped() []string {
	var out []string
	for _, ing := range c.Ingredients() {
		if _, ok := c.groups.CategoryOf(ing); !ok {
			out = append(out, ing)
		}
	}
	return out
}

func (c *Catalog) at(id int) (*Recipe, error) {
	if id < 0 || id >= len(c.recipes) {
		return nil, fmt.Errorf("recipe id %d: %w", id, apperrors.ErrNotFound)
	}
	return c.recipes[id], nil
}
