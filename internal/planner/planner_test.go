package planner

import (
	"errors"
	"testing"
	"time"

	"menumaker/internal/apperrors"
	"menumaker/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is 2024-03-04.
var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testGroups(t *testing.T) *recipe.Groups {
	t.Helper()
	g, err := recipe.NewGroups([]recipe.GroupEntry{
		{Category: "veg", Ingredients: []string{"carrot", "leek", "spinach"}},
		{Category: "meat", Ingredients: []string{"chicken", "beef"}},
		{Category: "fish", Ingredients: []string{"cod"}},
	})
	require.NoError(t, err)
	return g
}

func dinner() map[recipe.Meal]bool { return map[recipe.Meal]bool{"dinner": true} }

func newCatalog(t *testing.T, recipes ...recipe.Recipe) *recipe.Catalog {
	t.Helper()
	c, err := recipe.NewCatalog(recipes, testGroups(t))
	require.NoError(t, err)
	return c
}

func newRule(days map[time.Weekday][]MealSpec) *WeeklyRule {
	r := &WeeklyRule{
		Days: days,
		MealTimes: map[recipe.Meal]TimeOfDay{
			"lunch":  {Hour: 13},
			"dinner": {Hour: 20, Minute: 30},
		},
	}
	for wd := time.Monday; wd <= time.Saturday; wd++ {
		if _, ok := days[wd]; ok {
			r.Order = append(r.Order, wd)
		}
	}
	if _, ok := days[time.Sunday]; ok {
		r.Order = append(r.Order, time.Sunday)
	}
	return r
}

func vegDinner(t *testing.T) MealSpec {
	return MealSpec{Meal: "dinner", Filter: ParseFilter("veg", testGroups(t))}
}

func recipeName(t *testing.T, c *recipe.Catalog, id int) string {
	t.Helper()
	r, err := c.Get(id)
	require.NoError(t, err)
	return r.Name
}

func TestBuild_TwoVegDinners(t *testing.T) {
	c := newCatalog(t,
		recipe.Recipe{Name: "Carrot curry", Ingredients: []string{"carrot"}, Meals: dinner(), LastUsed: date(2023, 1, 10)},
		recipe.Recipe{Name: "Leek pie", Ingredients: []string{"leek"}, Meals: dinner(), LastUsed: date(2023, 1, 5)},
		recipe.Recipe{Name: "Spinach wrap", Ingredients: []string{"spinach"}, Meals: map[recipe.Meal]bool{"lunch": true}},
		recipe.Recipe{Name: "Roast chicken", Ingredients: []string{"chicken"}, Meals: dinner()},
	)
	rule := newRule(map[time.Weekday][]MealSpec{
		time.Monday:  {vegDinner(t)},
		time.Tuesday: {vegDinner(t)},
	})

	menu, err := Build(rule, monday, 2, c)
	require.NoError(t, err)
	require.Len(t, menu.Slots, 2)

	assert.Equal(t, "Leek pie", recipeName(t, c, menu.Slots[0].RecipeID))
	assert.Equal(t, "Carrot curry", recipeName(t, c, menu.Slots[1].RecipeID))
	assert.Equal(t, time.Date(2024, 3, 4, 20, 30, 0, 0, time.UTC), menu.Slots[0].ScheduledAt)
	assert.Equal(t, time.Tuesday, menu.Slots[1].Weekday)

	pie, _ := c.Lookup("Leek pie")
	assert.Equal(t, menu.Slots[0].ScheduledAt, pie.Provisional)
	assert.Equal(t, date(2023, 1, 5), pie.LastUsed, "build must not touch confirmed dates")
	assert.Equal(t, 0, pie.Count)
}

func TestBuild_LiteralOverride(t *testing.T) {
	c := newCatalog(t,
		recipe.Recipe{Name: "Leek pie", Ingredients: []string{"leek"}, Meals: dinner(), LastUsed: date(2020, 1, 1)},
		recipe.Recipe{Name: "Grandma's Soup", Ingredients: []string{"leek", "chicken"}, Meals: dinner(), LastUsed: date(2024, 3, 1)},
	)
	rule := newRule(map[time.Weekday][]MealSpec{
		time.Monday: {{Meal: "lunch", Filter: ParseFilter("Grandma's Soup", testGroups(t))}},
	})

	menu, err := Build(rule, monday, 1, c)
	require.NoError(t, err)
	require.Len(t, menu.Slots, 1)
	assert.Equal(t, "Grandma's Soup", recipeName(t, c, menu.Slots[0].RecipeID))
}

func TestBuild_NoRepeatWhileEnoughRecipes(t *testing.T) {
	var recipes []recipe.Recipe
	names := []string{"A", "B", "C", "D", "E", "F", "G"}
	for i, n := range names {
		recipes = append(recipes, recipe.Recipe{
			Name:        n,
			Ingredients: []string{"carrot"},
			Meals:       dinner(),
			LastUsed:    date(2023, 1, 1+i),
		})
	}
	c := newCatalog(t, recipes...)

	days := map[time.Weekday][]MealSpec{}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		days[wd] = []MealSpec{vegDinner(t)}
	}
	menu, err := Build(newRule(days), monday, 7, c)
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, s := range menu.Slots {
		assert.False(t, seen[s.RecipeID], "recipe %d repeated", s.RecipeID)
		seen[s.RecipeID] = true
	}
	assert.Len(t, seen, 7)
	assert.Equal(t, "A", recipeName(t, c, menu.Slots[0].RecipeID))
	assert.Equal(t, "G", recipeName(t, c, menu.Slots[6].RecipeID))
}

func TestBuild_RepeatsOnlyWhenExhausted(t *testing.T) {
	c := newCatalog(t,
		recipe.Recipe{Name: "A", Ingredients: []string{"carrot"}, Meals: dinner()},
		recipe.Recipe{Name: "B", Ingredients: []string{"leek"}, Meals: dinner()},
	)
	rule := newRule(map[time.Weekday][]MealSpec{
		time.Monday: {vegDinner(t)}, time.Tuesday: {vegDinner(t)}, time.Wednesday: {vegDinner(t)},
	})

	menu, err := Build(rule, monday, 3, c)
	require.NoError(t, err)
	got := []string{
		recipeName(t, c, menu.Slots[0].RecipeID),
		recipeName(t, c, menu.Slots[1].RecipeID),
		recipeName(t, c, menu.Slots[2].RecipeID),
	}
	assert.Equal(t, []string{"A", "B", "A"}, got)
}

func TestBuild_Errors(t *testing.T) {
	t.Run("NoEligibleRecipe", func(t *testing.T) {
		c := newCatalog(t,
			recipe.Recipe{Name: "Leek pie", Ingredients: []string{"leek"}, Meals: dinner(), LastUsed: date(2023, 1, 1)},
		)
		rule := newRule(map[time.Weekday][]MealSpec{
			time.Monday:  {vegDinner(t)},
			time.Tuesday: {{Meal: "dinner", Filter: ParseFilter("fish", testGroups(t))}},
		})

		_, err := Build(rule, monday, 2, c)
		require.ErrorIs(t, err, apperrors.ErrNoEligibleRecipe)

		var slotErr *SlotError
		require.True(t, errors.As(err, &slotErr))
		assert.Equal(t, recipe.Meal("dinner"), slotErr.Slot.Meal)
		assert.Equal(t, time.Tuesday, slotErr.Slot.Weekday)
		assert.Contains(t, err.Error(), "fish")

		pie, _ := c.Lookup("Leek pie")
		assert.Equal(t, pie.LastUsed, pie.Provisional, "failed build must not leave provisional dates behind")
	})

	t.Run("RecipeNotFound", func(t *testing.T) {
		c := newCatalog(t, recipe.Recipe{Name: "Leek pie", Meals: dinner()})
		rule := newRule(map[time.Weekday][]MealSpec{
			time.Monday: {{Meal: "dinner", Filter: ParseFilter("Unknown dish", testGroups(t))}},
		})
		_, err := Build(rule, monday, 1, c)
		require.ErrorIs(t, err, apperrors.ErrRecipeNotFound)
	})

	t.Run("NoDays", func(t *testing.T) {
		c := newCatalog(t)
		_, err := Build(newRule(nil), monday, 0, c)
		require.ErrorIs(t, err, apperrors.ErrConfig)
	})

	t.Run("MealWithoutTime", func(t *testing.T) {
		c := newCatalog(t, recipe.Recipe{Name: "Toast", Meals: map[recipe.Meal]bool{"breakfast": true}})
		rule := newRule(map[time.Weekday][]MealSpec{
			time.Monday: {{Meal: "breakfast", Filter: ParseFilter("", nil)}},
		})
		_, err := Build(rule, monday, 1, c)
		require.ErrorIs(t, err, apperrors.ErrConfig)
	})
}

func TestBuild_SkipsDaysWithoutMeals(t *testing.T) {
	c := newCatalog(t, recipe.Recipe{Name: "Leek pie", Ingredients: []string{"leek"}, Meals: dinner()})
	rule := newRule(map[time.Weekday][]MealSpec{time.Wednesday: {vegDinner(t)}})

	menu, err := Build(rule, monday, 7, c)
	require.NoError(t, err)
	require.Len(t, menu.Slots, 1)
	assert.Equal(t, date(2024, 3, 6), menu.Slots[0].Date)
	assert.Equal(t, date(2024, 3, 11), menu.End())
}
