package recipe

import (
	"slices"
	"strings"
	"time"
)

// Meal is a meal type tag such as "lunch" or "dinner".
type Meal string

// Category is a food-group tag derived from ingredients, e.g. "meat" or "dairy".
type Category string

// CategorySet is an unordered set of categories.
type CategorySet map[Category]struct{}

// NewCategorySet builds a set from the given categories.
func NewCategorySet(categories ...Category) CategorySet {
	s := make(CategorySet, len(categories))
	for _, c := range categories {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether c is in the set.
func (s CategorySet) Has(c Category) bool {
	_, ok := s[c]
	return ok
}

// Contains reports whether every category of other is also in s.
func (s CategorySet) Contains(other CategorySet) bool {
	for c := range other {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// Sorted returns the categories in lexical order.
func (s CategorySet) Sorted() []Category {
	out := make([]Category, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

func (s CategorySet) String() string {
	parts := make([]string, 0, len(s))
	for _, c := range s.Sorted() {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ", ")
}

// Recipe is one cookable dish of the catalog.
type Recipe struct {
	ID          int
	Name        string
	Ingredients []string
	Meals       map[Meal]bool
	Categories  CategorySet
	// LastUsed is the date of the latest confirmed use. The zero value means never used.
	LastUsed time.Time
	// Provisional is the working "last used" date during a build. It equals LastUsed
	// outside a build.
	Provisional time.Time
	Count       int
	Notes       string
}

// ServesMeal reports whether the recipe is flagged for meal.
func (r Recipe) ServesMeal(m Meal) bool {
	return r.Meals[m]
}

// MealList returns the meals the recipe is flagged for, sorted.
func (r Recipe) MealList() []Meal {
	out := make([]Meal, 0, len(r.Meals))
	for m, ok := range r.Meals {
		if ok {
			out = append(out, m)
		}
	}
	slices.Sort(out)
	return out
}

func (r Recipe) clone() Recipe {
	c := r
	c.Ingredients = slices.Clone(r.Ingredients)
	c.Meals = make(map[Meal]bool, len(r.Meals))
	for m, ok := range r.Meals {
		c.Meals[m] = ok
	}
	c.Categories = NewCategorySet(r.Categories.Sorted()...)
	return c
}
