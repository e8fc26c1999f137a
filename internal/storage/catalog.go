package storage

import (
	"fmt"
	"strings"
	"time"

	"menumaker/internal/apperrors"
	"menumaker/internal/recipe"
)

// DateLayout is how last used dates are written to the recipes file.
const DateLayout = time.DateTime

var dateLayouts = []string{time.DateTime, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04", time.DateOnly}

// recipeRecord is one entry of the recipes file. Any boolean key besides the named
// fields is a meal flag.
type recipeRecord struct {
	Recipe      string          `yaml:"recipe"`
	Ingredients []string        `yaml:"ingredients"`
	Date        string          `yaml:"date,omitempty"`
	Count       int             `yaml:"count"`
	Notes       string          `yaml:"notes,omitempty"`
	Meals       map[string]bool `yaml:",inline"`
}

// LoadCatalog reads the recipes file and derives categories through groups.
func LoadCatalog(path string, groups *recipe.Groups) (*recipe.Catalog, error) {
	root, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	var records []recipeRecord
	if root != nil {
		if err := root.Decode(&records); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrConfig, path, err)
		}
	}

	recipes := make([]recipe.Recipe, 0, len(records))
	for i, rec := range records {
		r, err := rec.toRecipe()
		if err != nil {
			return nil, fmt.Errorf("%s: recipe #%d: %w", path, i, err)
		}
		recipes = append(recipes, r)
	}

	catalog, err := recipe.NewCatalog(recipes, groups)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// SaveCatalog writes the catalog in id order. The previous file is kept as a backup
// and the new one replaces it atomically.
func SaveCatalog(path string, catalog *recipe.Catalog) error {
	recipes := catalog.Recipes()
	records := make([]recipeRecord, 0, len(recipes))
	for _, r := range recipes {
		records = append(records, fromRecipe(r))
	}

	data, err := encode(records)
	if err != nil {
		return fmt.Errorf("failed to encode recipes: %w", err)
	}
	return replaceFile(path, data)
}

func (rec recipeRecord) toRecipe() (recipe.Recipe, error) {
	last, err := parseDate(rec.Date)
	if err != nil {
		return recipe.Recipe{}, err
	}
	meals := make(map[recipe.Meal]bool, len(rec.Meals))
	for k, v := range rec.Meals {
		meals[recipe.Meal(k)] = v
	}
	return recipe.Recipe{
		Name:        strings.TrimSpace(rec.Recipe),
		Ingredients: rec.Ingredients,
		Meals:       meals,
		LastUsed:    last,
		Count:       rec.Count,
		Notes:       rec.Notes,
	}, nil
}

func fromRecipe(r recipe.Recipe) recipeRecord {
	rec := recipeRecord{
		Recipe:      r.Name,
		Ingredients: r.Ingredients,
		Count:       r.Count,
		Notes:       r.Notes,
		Meals:       make(map[string]bool, len(r.Meals)),
	}
	if rec.Ingredients == nil {
		rec.Ingredients = []string{}
	}
	if !r.LastUsed.IsZero() {
		rec.Date = r.LastUsed.Format(DateLayout)
	}
	for m, v := range r.Meals {
		rec.Meals[string(m)] = v
	}
	return rec
}

// parseDate accepts the layouts found in recipe files. An empty date means the
// recipe was never used.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" || s == "~" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			// Keep the wall clock and drop any offset: menu times carry no zone.
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unreadable date %q", apperrors.ErrConfig, s)
}
