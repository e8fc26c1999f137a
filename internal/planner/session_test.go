package planner

import (
	"testing"
	"time"

	"menumaker/internal/apperrors"
	"menumaker/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_DoubleRejectionCycles(t *testing.T) {
	c := newCatalog(t,
		recipe.Recipe{Name: "Carrot curry", Ingredients: []string{"carrot"}, Meals: dinner(), LastUsed: date(2023, 1, 10)},
		recipe.Recipe{Name: "Leek pie", Ingredients: []string{"leek"}, Meals: dinner(), LastUsed: date(2023, 1, 5)},
	)
	menu, err := Build(newRule(map[time.Weekday][]MealSpec{time.Monday: {vegDinner(t)}}), monday, 1, c)
	require.NoError(t, err)
	s := NewSession(menu, c, CursorPerSlot)
	assert.Equal(t, "Leek pie", recipeName(t, c, menu.Slots[0].RecipeID))

	res, err := s.Submit("0")
	require.NoError(t, err)
	assert.True(t, res.Revised)
	assert.Equal(t, 0, res.Slot)
	assert.Equal(t, Reviewing, res.State)
	assert.Equal(t, "Carrot curry", recipeName(t, c, menu.Slots[0].RecipeID))

	pie, _ := c.Lookup("Leek pie")
	assert.Equal(t, pie.LastUsed, pie.Provisional, "displaced recipe gets its date back")
	curry, _ := c.Lookup("Carrot curry")
	assert.Equal(t, menu.Slots[0].ScheduledAt, curry.Provisional)

	_, err = s.Submit("0")
	require.NoError(t, err)
	assert.Equal(t, "Leek pie", recipeName(t, c, menu.Slots[0].RecipeID))
	assert.Equal(t, 2, s.Rejections())
	assert.Equal(t, 2, s.Cursor(0))
}

func TestSession_RejectionIsolation(t *testing.T) {
	c := newCatalog(t,
		recipe.Recipe{Name: "A", Ingredients: []string{"carrot"}, Meals: dinner(), LastUsed: date(2023, 1, 1)},
		recipe.Recipe{Name: "B", Ingredients: []string{"leek"}, Meals: dinner(), LastUsed: date(2023, 1, 2)},
		recipe.Recipe{Name: "C", Ingredients: []string{"spinach"}, Meals: dinner(), LastUsed: date(2023, 1, 3)},
		recipe.Recipe{Name: "D", Ingredients: []string{"carrot"}, Meals: dinner(), LastUsed: date(2023, 1, 4)},
	)
	rule := newRule(map[time.Weekday][]MealSpec{
		time.Monday: {vegDinner(t)}, time.Tuesday: {vegDinner(t)}, time.Wednesday: {vegDinner(t)},
	})
	menu, err := Build(rule, monday, 3, c)
	require.NoError(t, err)
	s := NewSession(menu, c, CursorPerSlot)
	before := s.Slots()

	_, err = s.Submit("1")
	require.NoError(t, err)
	after := s.Slots()

	assert.Equal(t, before[0], after[0])
	assert.Equal(t, before[2], after[2])
	assert.NotEqual(t, before[1].RecipeID, after[1].RecipeID)
	assert.Equal(t, "D", recipeName(t, c, after[1].RecipeID))
}

func TestSession_IgnoresInvalidInput(t *testing.T) {
	c := newCatalog(t, recipe.Recipe{Name: "A", Ingredients: []string{"carrot"}, Meals: dinner()})
	menu, err := Build(newRule(map[time.Weekday][]MealSpec{time.Monday: {vegDinner(t)}}), monday, 1, c)
	require.NoError(t, err)
	s := NewSession(menu, c, CursorPerSlot)
	before := s.Slots()

	for _, in := range []string{"", "abc", "7", "-1", "1.5", "Save"} {
		res, err := s.Submit(in)
		require.NoError(t, err, in)
		assert.False(t, res.Revised, in)
		assert.Equal(t, -1, res.Slot, in)
		assert.Equal(t, Reviewing, s.State(), in)
	}
	assert.Equal(t, before, s.Slots())
	assert.Zero(t, s.Rejections())
}

func TestSession_Accept(t *testing.T) {
	c := newCatalog(t, recipe.Recipe{Name: "A", Ingredients: []string{"carrot"}, Meals: dinner()})
	menu, err := Build(newRule(map[time.Weekday][]MealSpec{time.Monday: {vegDinner(t)}}), monday, 1, c)
	require.NoError(t, err)
	s := NewSession(menu, c, CursorPerSlot)

	res, err := s.Submit(" save\n")
	require.NoError(t, err)
	assert.Equal(t, Accepted, res.State)
	assert.Equal(t, menu.Slots, res.Slots)

	_, err = s.Submit("0")
	require.ErrorIs(t, err, apperrors.ErrSessionClosed)
	require.ErrorIs(t, s.Reject(0), apperrors.ErrSessionClosed)
}

func TestSession_CursorPolicies(t *testing.T) {
	build := func(t *testing.T) (*Menu, *recipe.Catalog) {
		c := newCatalog(t,
			recipe.Recipe{Name: "A", Ingredients: []string{"carrot"}, Meals: dinner()},
			recipe.Recipe{Name: "B", Ingredients: []string{"leek"}, Meals: dinner()},
			recipe.Recipe{Name: "C", Ingredients: []string{"spinach"}, Meals: dinner()},
		)
		rule := newRule(map[time.Weekday][]MealSpec{time.Monday: {vegDinner(t)}, time.Tuesday: {vegDinner(t)}})
		menu, err := Build(rule, monday, 2, c)
		require.NoError(t, err)
		return menu, c
	}

	names := func(c *recipe.Catalog, menu *Menu) []string {
		out := make([]string, len(menu.Slots))
		for i, sl := range menu.Slots {
			out[i] = recipeName(t, c, sl.RecipeID)
		}
		return out
	}

	t.Run("PerSlot", func(t *testing.T) {
		menu, c := build(t)
		assert.Equal(t, []string{"A", "B"}, names(c, menu))
		s := NewSession(menu, c, CursorPerSlot)
		for _, i := range []int{0, 1, 0} {
			require.NoError(t, s.Reject(i))
		}
		assert.Equal(t, 2, s.Cursor(0))
		assert.Equal(t, 1, s.Cursor(1))
		assert.Equal(t, []string{"B", "B"}, names(c, menu))
	})

	t.Run("Consecutive", func(t *testing.T) {
		menu, c := build(t)
		s := NewSession(menu, c, CursorConsecutive)
		for _, i := range []int{0, 1, 0} {
			require.NoError(t, s.Reject(i))
		}
		assert.Equal(t, 1, s.Cursor(0))
		assert.Equal(t, 1, s.Cursor(1))
		// Switching slots restarted the cursor, so slot 0 landed on C again.
		assert.Equal(t, []string{"C", "B"}, names(c, menu))

		require.NoError(t, s.Reject(0))
		assert.Equal(t, 2, s.Cursor(0))
		assert.Equal(t, []string{"B", "B"}, names(c, menu))
	})

	t.Run("Parse", func(t *testing.T) {
		p, err := ParseCursorPolicy("")
		require.NoError(t, err)
		assert.Equal(t, CursorPerSlot, p)
		p, err = ParseCursorPolicy("Consecutive")
		require.NoError(t, err)
		assert.Equal(t, CursorConsecutive, p)
		assert.Equal(t, "consecutive", p.String())
		_, err = ParseCursorPolicy("random")
		assert.ErrorIs(t, err, apperrors.ErrConfig)
	})
}

func TestCommit(t *testing.T) {
	newMenu := func(t *testing.T) (*Menu, *recipe.Catalog) {
		c := newCatalog(t,
			recipe.Recipe{Name: "Leek pie", Ingredients: []string{"leek"}, Meals: dinner(), LastUsed: date(2023, 1, 5), Count: 3},
			recipe.Recipe{Name: "Carrot curry", Ingredients: []string{"carrot"}, Meals: dinner(), LastUsed: date(2023, 1, 10)},
		)
		pie := MealSpec{Meal: "dinner", Filter: ParseFilter("Leek pie", testGroups(t))}
		rule := newRule(map[time.Weekday][]MealSpec{time.Monday: {pie}, time.Tuesday: {pie}})
		menu, err := Build(rule, monday, 2, c)
		require.NoError(t, err)
		return menu, c
	}

	t.Run("CountsEverySlot", func(t *testing.T) {
		menu, c := newMenu(t)
		require.NoError(t, Commit(c, menu.Slots))

		pie, _ := c.Lookup("Leek pie")
		assert.Equal(t, 5, pie.Count)
		assert.Equal(t, time.Date(2024, 3, 5, 20, 30, 0, 0, time.UTC), pie.LastUsed)
		assert.Equal(t, pie.LastUsed, pie.Provisional)

		curry, _ := c.Lookup("Carrot curry")
		assert.Equal(t, 0, curry.Count)
		assert.Equal(t, date(2023, 1, 10), curry.LastUsed)
	})

	t.Run("NotIdempotent", func(t *testing.T) {
		menu, c := newMenu(t)
		require.NoError(t, Commit(c, menu.Slots))
		require.NoError(t, Commit(c, menu.Slots))
		pie, _ := c.Lookup("Leek pie")
		assert.Equal(t, 7, pie.Count)
	})

	t.Run("UnknownRecipeChangesNothing", func(t *testing.T) {
		menu, c := newMenu(t)
		slots := append(menu.Slots, Slot{Index: 2, RecipeID: 42})
		require.ErrorIs(t, Commit(c, slots), apperrors.ErrNotFound)
		pie, _ := c.Lookup("Leek pie")
		assert.Equal(t, 3, pie.Count)
	})

	t.Run("AfterRevision", func(t *testing.T) {
		c := newCatalog(t,
			recipe.Recipe{Name: "Leek pie", Ingredients: []string{"leek"}, Meals: dinner(), LastUsed: date(2023, 1, 5)},
			recipe.Recipe{Name: "Carrot curry", Ingredients: []string{"carrot"}, Meals: dinner(), LastUsed: date(2023, 1, 10)},
		)
		menu, err := Build(newRule(map[time.Weekday][]MealSpec{time.Monday: {vegDinner(t)}}), monday, 1, c)
		require.NoError(t, err)
		s := NewSession(menu, c, CursorPerSlot)
		_, err = s.Submit("0")
		require.NoError(t, err)
		res, err := s.Submit("save")
		require.NoError(t, err)
		require.NoError(t, Commit(c, res.Slots))

		pie, _ := c.Lookup("Leek pie")
		assert.Equal(t, date(2023, 1, 5), pie.LastUsed)
		assert.Equal(t, 0, pie.Count)
		curry, _ := c.Lookup("Carrot curry")
		assert.Equal(t, menu.Slots[0].ScheduledAt, curry.LastUsed)
		assert.Equal(t, 1, curry.Count)
	})
}
