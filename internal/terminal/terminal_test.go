package terminal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"menumaker/internal/planner"
	"menumaker/internal/recipe"
	"menumaker/internal/shopping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMenu(t *testing.T) {
	entries := []planner.Entry{
		{
			Slot:   planner.Slot{Index: 0, Weekday: time.Monday, Meal: "dinner", ScheduledAt: time.Date(2024, 3, 4, 20, 30, 0, 0, time.UTC)},
			Recipe: recipe.Recipe{Name: "Leek pie"},
		},
		{
			Slot:   planner.Slot{Index: 1, Weekday: time.Tuesday, Meal: "lunch", ScheduledAt: time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC)},
			Recipe: recipe.Recipe{Name: "Grandma's Soup"},
		},
	}

	out := RenderMenu(entries, -1)
	for _, want := range []string{"#", "day", "meal", "recipe", "date", "Leek pie", "Tuesday", "2024-03-05 13:00:00"} {
		assert.Contains(t, out, want)
	}
	lines := strings.Split(out, "\n")
	assert.GreaterOrEqual(t, len(lines), 5)
}

func TestRenderShoppingList(t *testing.T) {
	out := RenderShoppingList(&shopping.ShoppingList{Sections: []shopping.Section{
		{Category: "veg", Items: []string{"carrot", "leek"}},
	}})
	assert.Contains(t, out, "veg")
	assert.Contains(t, out, "  - leek\n")
}

func TestPrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("3\r\nsave\n"), &out)

	cmd, err := p.ReadCommand()
	require.NoError(t, err)
	assert.Equal(t, "3", cmd)

	cmd, err = p.ReadCommand()
	require.NoError(t, err)
	assert.Equal(t, "save", cmd)

	_, err = p.ReadCommand()
	assert.True(t, IsEOF(err))
	assert.Equal(t, strings.Repeat(Prompt, 3), out.String())
}

func TestRenderFinal(t *testing.T) {
	out := RenderFinal([]planner.Entry{{
		Slot:   planner.Slot{Meal: "dinner", ScheduledAt: time.Date(2024, 3, 4, 20, 30, 0, 0, time.UTC)},
		Recipe: recipe.Recipe{Name: "Leek pie", Ingredients: []string{"leek", "pastry"}, Notes: "bake 40m"},
	}})
	assert.Contains(t, out, "Mon 2024-03-04 20:30")
	assert.Contains(t, out, "Leek pie")
	assert.Contains(t, out, "leek, pastry")
	assert.Contains(t, out, "bake 40m")
}
