package planner

import (
	"fmt"

	"menumaker/internal/recipe"
)

// Commit confirms an accepted menu: every slot adds one use to its recipe (a recipe
// used twice counts twice) and provisional dates become the confirmed last-used dates.
// Commit is not idempotent; each call counts the slots again.
func Commit(catalog *recipe.Catalog, slots []Slot) error {
	for _, s := range slots {
		if _, err := catalog.Get(s.RecipeID); err != nil {
			return fmt.Errorf("failed to commit slot %d: %w", s.Index, err)
		}
	}
	for _, s := range slots {
		if err := catalog.IncrementCount(s.RecipeID); err != nil {
			return fmt.Errorf("failed to commit slot %d: %w", s.Index, err)
		}
	}
	catalog.PromoteProvisional()
	return nil
}
