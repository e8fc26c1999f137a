// Package groups walks the user through assigning every ungrouped ingredient of the
// catalog to a category.
package groups

import (
	"errors"
	"fmt"
	"strings"

	"menumaker/internal/recipe"
)

// Consolidator holds the state of a grouping session. Every change is saved right
// away through the save functions so an interrupted session loses nothing.
type Consolidator struct {
	catalog     *recipe.Catalog
	saveGroups  func(*recipe.Groups) error
	saveCatalog func(*recipe.Catalog) error
	total       int
	done        int
}

// NewConsolidator starts a session over the catalog's ungrouped ingredients.
func NewConsolidator(catalog *recipe.Catalog, saveGroups func(*recipe.Groups) error, saveCatalog func(*recipe.Catalog) error) *Consolidator {
	return &Consolidator{
		catalog:     catalog,
		saveGroups:  saveGroups,
		saveCatalog: saveCatalog,
		total:       len(catalog.Ungrouped()),
	}
}

// Current returns the next ingredient to group, alphabetically.
func (c *Consolidator) Current() (string, bool) {
	pending := c.catalog.Ungrouped()
	if len(pending) == 0 {
		return "", false
	}
	return pending[0], true
}

// Progress returns how many ingredients were grouped out of how many were pending
// when the session started.
func (c *Consolidator) Progress() (done, total int) {
	return c.done, c.total
}

// Categories returns the categories an ingredient can be assigned to.
func (c *Consolidator) Categories() []recipe.Category {
	return c.catalog.Groups().Categories()
}

// Assign puts ingredient in category and saves the groups file. The session only
// moves on once the file is written.
func (c *Consolidator) Assign(ingredient string, category recipe.Category) error {
	groups := c.catalog.Groups().Clone()
	if err := groups.Assign(ingredient, category); err != nil {
		return err
	}
	if err := c.saveGroups(groups); err != nil {
		return fmt.Errorf("failed to save groups: %w", err)
	}
	c.catalog.Regroup(groups)
	c.done++
	return nil
}

// Rewrite renames an ingredient in every recipe and saves the catalog. The new name
// is grouped like any other: if it already has a category it is no longer pending.
func (c *Consolidator) Rewrite(from, to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("new ingredient name is empty")
	}
	if to == from {
		return nil
	}
	if c.catalog.RenameIngredient(from, to) == 0 {
		return fmt.Errorf("no recipe uses %q", from)
	}
	if err := c.saveCatalog(c.catalog); err != nil {
		return fmt.Errorf("failed to save recipes: %w", err)
	}
	if _, grouped := c.catalog.Groups().CategoryOf(to); grouped {
		c.done++
	}
	return nil
}
