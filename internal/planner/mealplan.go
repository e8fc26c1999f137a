package planner

import (
	"fmt"
	"time"

	"menumaker/internal/recipe"
)

// Slot is one (day, meal) assignment of a menu.
type Slot struct {
	Index       int
	Date        time.Time
	Weekday     time.Weekday
	Meal        recipe.Meal
	ScheduledAt time.Time
	Filter      Filter
	RecipeID    int
}

// Menu is the ordered list of slots built for a date range.
type Menu struct {
	Start time.Time
	Days  int
	Slots []Slot
}

// End returns the first date after the menu.
func (m *Menu) End() time.Time {
	return m.Start.AddDate(0, 0, m.Days)
}

// Entry is a slot resolved against the catalog, as shown to the user and exported.
type Entry struct {
	Slot
	Recipe recipe.Recipe
}

// Entries resolves every slot to its recipe.
func (m *Menu) Entries(catalog *recipe.Catalog) ([]Entry, error) {
	out := make([]Entry, 0, len(m.Slots))
	for _, s := range m.Slots {
		r, err := catalog.Get(s.RecipeID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve slot %d: %w", s.Index, err)
		}
		out = append(out, Entry{Slot: s, Recipe: r})
	}
	return out, nil
}

// stamp recomputes the provisional date of recipe id from the slots currently holding
// it: the latest of their times, or the confirmed date when no slot holds it.
func stamp(catalog *recipe.Catalog, slots []Slot, id int) error {
	r, err := catalog.Get(id)
	if err != nil {
		return err
	}
	latest := r.LastUsed
	for _, s := range slots {
		if s.RecipeID == id && s.ScheduledAt.After(latest) {
			latest = s.ScheduledAt
		}
	}
	return catalog.SetProvisional(id, latest)
}
