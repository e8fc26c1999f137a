// Package planner builds meal menus by rotating recipes: each slot gets the least
// recently used eligible recipe, the user may reject picks one slot at a time, and the
// accepted menu is committed back into the catalog bookkeeping.
package planner

import (
	"fmt"
	"time"

	"menumaker/internal/apperrors"
	"menumaker/internal/recipe"
)

// DefaultDays is the menu length used when none is requested.
const DefaultDays = 7

// Build expands rule over [start, start+days) and fills every slot with cursor 0.
// Each pick immediately stamps the recipe's provisional date with the slot time, which
// keeps it from being picked again while fresher alternatives exist.
//
// On failure every provisional date is reset and the error is a *SlotError.
func Build(rule *WeeklyRule, start time.Time, days int, catalog *recipe.Catalog) (*Menu, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: menu needs at least one day, got %d", apperrors.ErrConfig, days)
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	start = DateOf(start)
	menu := &Menu{Start: start, Days: days}
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d)
		for _, spec := range rule.Days[date.Weekday()] {
			slot := Slot{
				Index:       len(menu.Slots),
				Date:        date,
				Weekday:     date.Weekday(),
				Meal:        spec.Meal,
				ScheduledAt: rule.ScheduledAt(date, spec.Meal),
				Filter:      spec.Filter,
			}
			id, err := Select(catalog, spec.Meal, spec.Filter, 0)
			if err != nil {
				catalog.ResetProvisional()
				return nil, &SlotError{Slot: slot, Err: err}
			}
			slot.RecipeID = id
			menu.Slots = append(menu.Slots, slot)
			if err := stamp(catalog, menu.Slots, id); err != nil {
				catalog.ResetProvisional()
				return nil, fmt.Errorf("failed to stamp recipe %d: %w", id, err)
			}
		}
	}
	return menu, nil
}
