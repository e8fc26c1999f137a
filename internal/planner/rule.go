package planner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"menumaker/internal/apperrors"
	"menumaker/internal/recipe"
)

// Filter constrains which recipes may fill a slot: either a set of required
// categories, or a literal recipe name that overrides rotation.
type Filter struct {
	Categories recipe.CategorySet
	Recipe     string
}

// ParseFilter reads a filter as written in the weekly rule. A comma separated list
// made only of known categories is a category filter; anything else names a recipe.
// An empty filter accepts every recipe of the meal.
func ParseFilter(raw string, groups *recipe.Groups) Filter {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Filter{Categories: recipe.NewCategorySet()}
	}
	var cats []recipe.Category
	for _, part := range strings.Split(raw, ",") {
		c := recipe.Category(strings.TrimSpace(part))
		if groups == nil || !groups.Known(c) {
			return Filter{Recipe: raw}
		}
		cats = append(cats, c)
	}
	return Filter{Categories: recipe.NewCategorySet(cats...)}
}

// IsLiteral reports whether the filter names a specific recipe.
func (f Filter) IsLiteral() bool {
	return f.Recipe != ""
}

// Matches reports whether r satisfies a category filter for meal. Literal filters are
// resolved by name in Select and never match here.
func (f Filter) Matches(r recipe.Recipe, meal recipe.Meal) bool {
	if f.IsLiteral() {
		return false
	}
	return r.ServesMeal(meal) && r.Categories.Contains(f.Categories)
}

func (f Filter) String() string {
	if f.IsLiteral() {
		return f.Recipe
	}
	if len(f.Categories) == 0 {
		return "any"
	}
	return f.Categories.String()
}

// TimeOfDay is the wall clock time a meal is served at.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (seconds are accepted and dropped).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("%w: meal time %q is not HH:MM", apperrors.ErrConfig, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: bad hour in meal time %q", apperrors.ErrConfig, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: bad minute in meal time %q", apperrors.ErrConfig, s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MealSpec is one meal of a weekday together with its filter.
type MealSpec struct {
	Meal   recipe.Meal
	Filter Filter
}

// WeeklyRule maps each weekday to its ordered meals, and each meal to a time of day.
type WeeklyRule struct {
	Days      map[time.Weekday][]MealSpec
	Order     []time.Weekday
	MealTimes map[recipe.Meal]TimeOfDay
}

// Validate checks that every meal used by a weekday has a time.
func (r *WeeklyRule) Validate() error {
	for _, wd := range r.Order {
		for _, spec := range r.Days[wd] {
			if _, ok := r.MealTimes[spec.Meal]; !ok {
				return fmt.Errorf("%w: meal %q on %s has no time", apperrors.ErrConfig, spec.Meal, wd)
			}
		}
	}
	return nil
}

// FirstWeekday is the first weekday the rule declares, Monday when it declares none.
func (r *WeeklyRule) FirstWeekday() time.Weekday {
	if len(r.Order) == 0 {
		return time.Monday
	}
	return r.Order[0]
}

// ScheduledAt combines a menu date with the time of meal.
func (r *WeeklyRule) ScheduledAt(date time.Time, meal recipe.Meal) time.Time {
	t := r.MealTimes[meal]
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, date.Location())
}

// ParseWeekday accepts full or three letter English weekday names.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if s == name || s == name[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", apperrors.ErrConfig, s)
}

// DateOf drops the clock part of t, keeping its calendar date as a UTC midnight.
// Menu dates are wall clock dates and carry no zone.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextOccurrence returns the first date strictly after from that falls on wd.
func NextOccurrence(from time.Time, wd time.Weekday) time.Time {
	d := DateOf(from)
	ahead := (int(wd) - int(d.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return d.AddDate(0, 0, ahead)
}
